package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"pos/internal/logging"

	"github.com/labstack/echo/v4"
)

// RequestLogger はリクエストごとのloggerをcontextに入れ、終了時に1行出す。
// echoのRequestIDミドルウェアより後に登録する。
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			l := base.With(
				"request_id", reqID,
				"method", req.Method,
				"path", c.Path(),
				"remote", c.RealIP(),
			)
			c.SetRequest(req.WithContext(logging.WithCtx(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				"status", status,
				"dur_ms", time.Since(start).Milliseconds(),
				"resp_bytes", c.Response().Size,
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			if status >= http.StatusInternalServerError {
				l.Error("http_request", attrs...)
				return nil
			}
			l.Info("http_request", attrs...)
			return nil
		}
	}
}
