package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	xhttp "QuantPulse/pkg/http"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router aggregates the feature handlers into one route registrar and
// serves the health endpoint.
type Router struct {
	handlers []xhttp.Handler
	checks   map[string]HealthChecker
}

func NewRouter(handlers ...xhttp.Handler) *Router {
	return &Router{handlers: handlers, checks: make(map[string]HealthChecker)}
}

// WithHealthCheck registers a named dependency for the health endpoint.
func (r *Router) WithHealthCheck(name string, hc HealthChecker) *Router {
	if hc != nil {
		r.checks[name] = hc
	}
	return r
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.health)
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}

func (r *Router) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	deps := make(map[string]string, len(r.checks))
	healthy := true
	for name, hc := range r.checks {
		if err := hc.Health(ctx); err != nil {
			deps[name] = err.Error()
			healthy = false
		} else {
			deps[name] = "ok"
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	return c.JSON(status, map[string]interface{}{
		"status":       state,
		"dependencies": deps,
	})
}
