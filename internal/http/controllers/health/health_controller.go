// Package health expone liveness (/health) y readiness (/ready).
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	dto "github.com/dropDatabas3/campauth/internal/http/dto/health"
	httperrors "github.com/dropDatabas3/campauth/internal/http/errors"
	"github.com/dropDatabas3/campauth/internal/observability/logger"
)

// Pinger es cualquier dependencia chequeable (store, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapta una función a Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

const defaultCheckTimeout = 2 * time.Second

// Controller sirve /health y /ready.
type Controller struct {
	version string
	checks  map[string]Pinger
	timeout time.Duration
}

// NewController; checks nil-valued se ignoran (p.ej. redis deshabilitado).
func NewController(version string, checks map[string]Pinger) *Controller {
	clean := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			clean[name] = p
		}
	}
	return &Controller{version: version, checks: clean, timeout: defaultCheckTimeout}
}

// Health es liveness: no toca dependencias.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteOK(w, dto.Response{Status: "ok", Version: c.version, Timestamp: time.Now().UTC()})
}

// Ready pinguea cada dependencia en paralelo; 503 si alguna falla.
func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	var mu sync.Mutex
	components := make(map[string]dto.ComponentStatus, len(c.checks))
	healthy := true

	var g errgroup.Group
	for name, p := range c.checks {
		name, p := name, p
		g.Go(func() error {
			st := dto.ComponentStatus{Status: "ok"}
			if err := p.Ping(ctx); err != nil {
				st = dto.ComponentStatus{Status: "error", Message: err.Error()}
				logger.From(r.Context()).Warn("readiness check failed", logger.Component(name), logger.Err(err))
			}
			mu.Lock()
			components[name] = st
			if st.Status != "ok" {
				healthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.Response{Status: "ready", Version: c.version, Components: components, Timestamp: time.Now().UTC()}
	if !healthy {
		resp.Status = "unavailable"
		httperrors.WriteStatus(w, http.StatusServiceUnavailable, resp)
		return
	}
	httperrors.WriteOK(w, resp)
}
