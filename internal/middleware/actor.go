package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	HeaderActorID = "X-Actor-ID"
	CtxActorIDKey = "actor_id" // int64
)

// RequireActor は操作者IDをヘッダから取り出してcontextへ入れる。
// 認証は前段（ゲートウェイ等）の責務で、ここでは形式だけ見る。
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("actor id required"))
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("invalid actor id"))
			}

			c.Set(CtxActorIDKey, id)
			return next(c)
		}
	}
}

func ActorID(c echo.Context) (int64, bool) {
	id, ok := c.Get(CtxActorIDKey).(int64)
	return id, ok && id > 0
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Message: msg}
}
