package cards

import (
	"agentic_report/pkg/core/chart"
	"agentic_report/pkg/models"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	// ErrTargetNotReady is returned by a Renderer whose render target for the
	// card does not exist yet. Only this error is retried.
	ErrTargetNotReady = errors.New("render target not ready")
	// ErrRenderGaveUp wraps the last error once the retry budget is spent.
	ErrRenderGaveUp = errors.New("render gave up")
)

// RenderRequest is what the external rendering boundary receives. Chart cards
// arrive already adapted to trace maps; every other card carries its data.
type RenderRequest struct {
	ID     string           `json:"id"`
	Type   models.CardType  `json:"type"`
	Traces []map[string]any `json:"traces,omitempty"`
	Layout map[string]any   `json:"layout,omitempty"`
	Data   any              `json:"data,omitempty"`
}

// NewRenderRequest builds the request for card.
func NewRenderRequest(card *models.VisualizationCard) RenderRequest {
	req := RenderRequest{ID: card.ID, Type: card.Type}
	if spec := card.Chart(); spec != nil {
		req.Traces = chart.Adapt(spec)
		req.Layout = chart.AdaptLayout(spec.Layout)
		return req
	}
	req.Data = card.Data
	return req
}

// Renderer is the external rendering boundary.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) error
	// Release frees whatever resource is bound to the card id.
	Release(id string)
}

// ReconcilerConfig bounds the render retry loop.
type ReconcilerConfig struct {
	Attempts int           // total render calls per card, including the first
	Interval time.Duration // fixed wait between calls
}

// DefaultReconcilerConfig returns 5 attempts spaced 200ms apart.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{Attempts: 5, Interval: 200 * time.Millisecond}
}

type pendingRender struct {
	gen    uint64
	cancel context.CancelFunc
}

// Reconciler owns the lifecycle of external chart resources: it renders cards
// with a bounded fixed-backoff retry and releases them on removal.
type Reconciler struct {
	renderer Renderer
	cfg      ReconcilerConfig
	logger   *zap.Logger
	metrics  *Metrics

	mu      sync.Mutex
	gen     uint64
	pending map[string]pendingRender
	wg      sync.WaitGroup
}

// NewReconciler creates a reconciler. A nil logger disables logging and nil
// metrics disables counting.
func NewReconciler(renderer Renderer, cfg ReconcilerConfig, logger *zap.Logger, metrics *Metrics) *Reconciler {
	if cfg.Attempts < 1 {
		cfg.Attempts = DefaultReconcilerConfig().Attempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReconcilerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		renderer: renderer,
		cfg:      cfg,
		logger:   logger.Named("reconciler"),
		metrics:  metrics,
		pending:  make(map[string]pendingRender),
	}
}

// Render pushes card to the renderer, retrying while the target is not ready.
// It returns ErrRenderGaveUp (wrapping the last error) once the attempts are
// spent, the renderer fails permanently, or ctx is cancelled.
func (r *Reconciler) Render(ctx context.Context, card *models.VisualizationCard) error {
	return r.render(ctx, card.ID, NewRenderRequest(card))
}

func (r *Reconciler) render(ctx context.Context, id string, req RenderRequest) error {
	attempts := 0

	op := func() error {
		attempts++
		err := r.renderer.Render(ctx, req)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrTargetNotReady):
			r.metrics.incRender("not_ready")
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.cfg.Interval), uint64(r.cfg.Attempts-1)),
		ctx,
	)
	err := backoff.Retry(op, policy)
	if err == nil {
		r.metrics.incRender("rendered")
		return nil
	}

	r.metrics.incRender("gave_up")
	r.logger.Warn("render gave up",
		zap.String("card", id),
		zap.Int("attempts", attempts),
		zap.Error(err))
	return fmt.Errorf("%w: card %s after %d attempts: %w", ErrRenderGaveUp, id, attempts, err)
}

// RenderAsync starts Render in the background. A later RenderAsync or Release
// for the same id cancels the earlier attempt. The request is built before
// returning, so later changes to card do not reach this attempt.
func (r *Reconciler) RenderAsync(card *models.VisualizationCard) {
	id, req := card.ID, NewRenderRequest(card)
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	if prev, ok := r.pending[id]; ok {
		prev.cancel()
	}
	r.gen++
	gen := r.gen
	r.pending[id] = pendingRender{gen: gen, cancel: cancel}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(id, gen)
		_ = r.render(ctx, id, req)
	}()
}

func (r *Reconciler) finish(id string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[id]; ok && p.gen == gen {
		p.cancel()
		delete(r.pending, id)
	}
}

// Release cancels any in-flight render for id and tells the renderer to free
// the resource bound to it.
func (r *Reconciler) Release(id string) {
	r.mu.Lock()
	if p, ok := r.pending[id]; ok {
		p.cancel()
		delete(r.pending, id)
	}
	r.mu.Unlock()

	r.renderer.Release(id)
	r.logger.Debug("released render target", zap.String("card", id))
}

// Wait blocks until every background render has finished or given up.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
