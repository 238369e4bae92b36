package pipeline

import (
	"agentic_report/pkg/core/progress"
	"agentic_report/pkg/models"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AgentService is the backend the orchestrator talks to. *agent.Client
// satisfies it.
type AgentService interface {
	Query(ctx context.Context, question string) (*models.AgentResponse, error)
	GenerateSection(ctx context.Context, req models.SectionRequest) (*models.AgentResponse, error)
	VisualizeText(ctx context.Context, req models.VisualizeRequest) (*models.VisualizeResponse, error)
}

// ProgressConfig drives the indicator shown while a call is in flight.
// A nil OnTick disables it.
type ProgressConfig struct {
	Interval time.Duration
	Stages   []string
	OnTick   func(progress.Tick)
}

// Orchestrator runs one agent call at a time and folds the result into the
// handler's view.
type Orchestrator struct {
	agent    AgentService
	handler  *Handler
	progress ProgressConfig
	logger   *zap.Logger
}

// NewOrchestrator wires an agent backend to a handler.
func NewOrchestrator(svc AgentService, handler *Handler, prog ProgressConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{agent: svc, handler: handler, progress: prog, logger: logger.Named("orchestrator")}
}

// Handler returns the handler the orchestrator feeds.
func (o *Orchestrator) Handler() *Handler { return o.handler }

// Ask sends a free-form question. A transport failure is recorded on the view
// and returned; existing cards are kept.
func (o *Orchestrator) Ask(ctx context.Context, question string) (View, error) {
	var resp *models.AgentResponse
	err := o.run(ctx, "query", func(ctx context.Context) (err error) {
		resp, err = o.agent.Query(ctx, question)
		return err
	})
	if err != nil {
		o.handler.Fail(err)
		return o.handler.View(), fmt.Errorf("ask %q: %w", question, err)
	}
	o.handler.Handle(question, resp)
	return o.handler.View(), nil
}

// GenerateSection requests one report section. The section name doubles as
// the question the resulting cards are attributed to.
func (o *Orchestrator) GenerateSection(ctx context.Context, req models.SectionRequest) (View, error) {
	var resp *models.AgentResponse
	err := o.run(ctx, "generate_section", func(ctx context.Context) (err error) {
		resp, err = o.agent.GenerateSection(ctx, req)
		return err
	})
	if err != nil {
		o.handler.Fail(err)
		return o.handler.View(), fmt.Errorf("generate section %s: %w", req.SectionName, err)
	}
	o.handler.Handle(req.SectionName, resp)
	return o.handler.View(), nil
}

// Visualize asks the backend to chart an existing answer.
func (o *Orchestrator) Visualize(ctx context.Context, req models.VisualizeRequest) (View, error) {
	var resp *models.VisualizeResponse
	err := o.run(ctx, "visualize", func(ctx context.Context) (err error) {
		resp, err = o.agent.VisualizeText(ctx, req)
		return err
	})
	if err != nil {
		o.handler.Fail(err)
		return o.handler.View(), fmt.Errorf("visualize %q: %w", req.Query, err)
	}
	o.handler.HandleVisualizeResponse(req.Query, resp)
	return o.handler.View(), nil
}

func (o *Orchestrator) run(ctx context.Context, op string, call func(context.Context) error) error {
	if o.progress.OnTick != nil {
		ind := progress.Start(ctx, o.progress.Interval, o.progress.Stages, o.progress.OnTick)
		defer ind.Stop()
	}
	start := time.Now()
	err := call(ctx)
	o.logger.Debug("agent call finished",
		zap.String("op", op),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}
