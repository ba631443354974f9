package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/live-auction/internal/utils"
)

// RequestLogger writes one structured line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status below is final
				c.Error(err)
			}
			fields := map[string]any{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"uri":        c.Request().RequestURI,
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         c.RealIP(),
			}
			if id, ok := UserID(c); ok {
				fields["user_id"] = id
			}
			switch {
			case c.Response().Status >= 500:
				utils.Error("request", fields)
			case c.Response().Status >= 400:
				utils.Warn("request", fields)
			default:
				utils.Info("request", fields)
			}
			return nil
		}
	}
}
