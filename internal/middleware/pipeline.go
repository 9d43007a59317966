package middleware

import (
	"log/slog"
	"net/http"
)

// HandlerFunc is a route handler that reports failure by returning an error
// instead of writing an error response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Stage is one step of a route pipeline. A stage either returns the request
// (possibly with an enriched context) or an error that aborts the pipeline.
type Stage func(r *http.Request) (*http.Request, error)

// ErrorWriter renders a pipeline failure. There is exactly one per Pipeline.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Pipeline struct {
	writeError ErrorWriter
}

func NewPipeline(writeError ErrorWriter) *Pipeline {
	return &Pipeline{writeError: writeError}
}

// Chain fixes the stage order for one route.
func (p *Pipeline) Chain(stages ...Stage) Chain {
	frozen := make([]Stage, len(stages))
	copy(frozen, stages)
	return Chain{stages: frozen, writeError: p.writeError}
}

type Chain struct {
	stages     []Stage
	writeError ErrorWriter
}

func (c Chain) Handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, stage := range c.stages {
			if r.Context().Err() != nil {
				abandon(r)
				return
			}
			next, err := stage(r)
			if err != nil {
				c.writeError(w, r, err)
				return
			}
			r = next
		}

		if r.Context().Err() != nil {
			abandon(r)
			return
		}
		if err := h(w, r); err != nil {
			c.writeError(w, r, err)
		}
	})
}

func abandon(r *http.Request) {
	slog.DebugContext(r.Context(), "request abandoned before handler",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", r.Context().Err(),
	)
}
