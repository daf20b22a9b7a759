package middleware

import (
	"time"

	"pos/internal/metrics"

	"github.com/labstack/echo/v4"
)

// ルート単位（/orders/:id）で集計する
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			metrics.ObserveHTTP(c.Request().Method, path, c.Response().Status, float64(time.Since(start).Milliseconds()))
			return nil
		}
	}
}
