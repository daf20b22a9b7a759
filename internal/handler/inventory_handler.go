package handler

import (
	"net/http"
	"strconv"

	"pos/internal/middleware"
	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
)

type InventoryHandler struct {
	uc *usecase.InventoryUsecase
}

func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// quantity_change は差分（マイナスで減らす）
type InventoryAdjustRequest struct {
	QuantityChange int64  `json:"quantity_change"`
	Reason         string `json:"reason"`
}

func (h *InventoryHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/inventory")

	//low-stockは:productIdより先に登録
	g.GET("/low-stock", h.lowStock)
	g.GET("/:productId", h.detail)
	g.GET("/:productId/history", h.history)
	g.POST("/:productId/adjust", h.adjust, middleware.RequireActor())
}

func (h *InventoryHandler) detail(c echo.Context) error {
	productID, valid := parseIDParam(c, "productId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	out, err := h.uc.GetStock(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "inventory loaded", out)
}

func (h *InventoryHandler) lowStock(c echo.Context) error {
	var threshold int64
	if v := c.QueryParam("threshold"); v != "" {
		t, err := strconv.ParseInt(v, 10, 64)
		if err != nil || t < 0 {
			return fail(c, http.StatusBadRequest, "invalid threshold")
		}
		threshold = t
	}

	out, err := h.uc.ListLowStock(c.Request().Context(), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "low stock items loaded", out)
}

func (h *InventoryHandler) history(c echo.Context) error {
	productID, valid := parseIDParam(c, "productId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	page, valid := queryInt(c, "page", 1)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid page")
	}
	limit, valid := queryInt(c, "limit", 20)
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid limit")
	}

	out, err := h.uc.ListHistory(c.Request().Context(), productID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "inventory history loaded", out)
}

func (h *InventoryHandler) adjust(c echo.Context) error {
	productID, valid := parseIDParam(c, "productId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}

	var req InventoryAdjustRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	actorID, found := middleware.ActorID(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "actor id required")
	}

	out, err := h.uc.Adjust(c.Request().Context(), actorID, productID, req.QuantityChange, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "inventory updated", out)
}
