package handler

import (
	"net/http"
	"strconv"
	"time"

	"pos/internal/middleware"
	"pos/internal/repository"
	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type OrderCreateRequest struct {
	CustomerID int64              `json:"customer_id"`
	Lines      []OrderLineRequest `json:"lines"`
	PromoCode  string             `json:"promo_code"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/orders")

	//書き込み系は操作者IDが必須
	g.POST("", h.create, middleware.RequireActor())
	g.PATCH("/:id/status", h.updateStatus, middleware.RequireActor())

	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.GET("/:id/history", h.history)
}

func (h *OrderHandler) create(c echo.Context) error {
	staffID, found := middleware.ActorID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "actor id required")
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	lines := make([]usecase.OrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, usecase.OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	res, err := h.uc.Create(c.Request().Context(), usecase.CreateOrderInput{
		CustomerID: req.CustomerID,
		StaffID:    staffID,
		Lines:      lines,
		PromoCode:  req.PromoCode,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, res.Message, res.Order)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	orderID, valid := parseIDParam(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	//監査ログ用
	actorID, found := middleware.ActorID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "actor id required")
	}

	res, err := h.uc.ChangeStatus(c.Request().Context(), orderID, req.Status, actorID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, res.Message, res.Order)
}

func (h *OrderHandler) list(c echo.Context) error {
	page, valid := queryInt(c, "page", 1)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid page")
	}
	limit, valid := queryInt(c, "limit", 50)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}

	var customerID *int64
	if v := c.QueryParam("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid customer_id")
		}
		customerID = &id
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid from")
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid to")
		}
		toPtr = &tm
	}

	out, err := h.uc.ListOrders(c.Request().Context(), repository.OrderListFilter{
		Page:       page,
		Limit:      limit,
		Status:     c.QueryParam("status"),
		CustomerID: customerID,
		From:       fromPtr,
		To:         toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "orders loaded", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, valid := parseIDParam(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "order loaded", out)
}

func (h *OrderHandler) history(c echo.Context) error {
	id, valid := parseIDParam(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid id")
	}

	out, err := h.uc.ListStatusHistory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "order history loaded", out)
}
