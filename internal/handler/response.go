package handler

import (
	"net/http"
	"strconv"

	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全APIで同じ形で返す
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c echo.Context, status int, msg string, data interface{}) error {
	return c.JSON(status, Response{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, Response{Success: false, Message: msg})
}

// usecaseのエラー種別をHTTPステータスへ
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	ae, found := usecase.AsAppError(err)
	if !found {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	switch ae.Kind {
	case usecase.KindNotFound:
		return fail(c, http.StatusNotFound, ae.Message)
	case usecase.KindInvalidState:
		return fail(c, http.StatusBadRequest, ae.Message)
	default:
		msg := ae.Message
		if ae.Err != nil {
			msg += ": " + ae.Err.Error()
		}
		return fail(c, http.StatusInternalServerError, msg)
	}
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 未指定ならdef
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
