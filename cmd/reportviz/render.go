package main

import (
	"agentic_report/pkg/core/cards"
	"agentic_report/pkg/core/pipeline"
	"context"
	"encoding/json"
	"io"
	"sync"
)

// streamRenderer hands cards to an external rendering engine by writing one
// JSON event per line. A stream is always ready, so Render never returns
// cards.ErrTargetNotReady.
type streamRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newStreamRenderer(w io.Writer) *streamRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &streamRenderer{enc: enc}
}

type renderEvent struct {
	Event string `json:"event"`
	cards.RenderRequest
}

func (r *streamRenderer) Render(ctx context.Context, req cards.RenderRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(renderEvent{Event: "render", RenderRequest: req})
}

func (r *streamRenderer) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(renderEvent{Event: "release", RenderRequest: cards.RenderRequest{ID: id}})
}

func printView(w io.Writer, v pipeline.View) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
