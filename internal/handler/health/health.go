// Package health serves a dependency health report.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Overall health values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Report is the response body.
type Report struct {
	Status string           `json:"status" enum:"ok,degraded,down"`
	Checks map[string]Check `json:"checks"`
}

// Check is the result for one dependency.
type Check struct {
	Status    string `json:"status" enum:"ok,error"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

type Handler struct {
	required map[string]Checker
	optional map[string]Checker
	logger   *slog.Logger
}

// NewHandler reports on required dependencies. Any failing one turns the
// report down and the response into a 503.
func NewHandler(logger *slog.Logger, required map[string]Checker) *Handler {
	return &Handler{required: required, optional: map[string]Checker{}, logger: logger}
}

// Optional adds a dependency the service can run without, such as a cache.
// Its failure only degrades the report.
func (h *Handler) Optional(name string, c Checker) *Handler {
	h.optional[name] = c
	return h
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rep := h.run(ctx)
	status := http.StatusOK
	if rep.Status == StatusDown {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(rep)
}

func (h *Handler) run(ctx context.Context) Report {
	var (
		mu  sync.Mutex
		rep = Report{Status: StatusOK, Checks: make(map[string]Check, len(h.required)+len(h.optional))}
		g   errgroup.Group
	)

	probe := func(name string, c Checker, optional bool) {
		g.Go(func() error {
			start := time.Now()
			err := c.Check(ctx)
			res := Check{Status: "ok", Optional: optional, LatencyMs: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Error("health check failed", "name", name, "optional", optional, "error", err)
				res.Status = "error"
				switch {
				case !optional:
					rep.Status = StatusDown
				case rep.Status == StatusOK:
					rep.Status = StatusDegraded
				}
			}
			rep.Checks[name] = res
			return nil
		})
	}

	for name, c := range h.required {
		probe(name, c, false)
	}
	for name, c := range h.optional {
		probe(name, c, true)
	}
	g.Wait()
	return rep
}
