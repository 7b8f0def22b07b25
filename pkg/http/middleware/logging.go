package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"QuantPulse/pkg/logger"
)

// RequestLogging logs one line per request with method, path, status,
// and latency.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			if l != nil {
				l.Info("http request",
					logger.String("method", req.Method),
					logger.String("path", req.RequestURI),
					logger.String("remote", c.RealIP()),
					logger.Int("status", res.Status),
					logger.Duration("latency", time.Since(start)),
				)
			}
			return err
		}
	}
}
