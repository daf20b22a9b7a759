package handler

import (
	"net/http"

	"pos/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PromotionHandler struct {
	uc *usecase.PromotionUsecase
}

func NewPromotionHandler(uc *usecase.PromotionUsecase) *PromotionHandler {
	return &PromotionHandler{uc: uc}
}

// amountは文字列でも数値でも受ける
type PromoValidateRequest struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *PromotionHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/promotions/validate", h.validate)
}

// 無効なコードでも200で返し、is_validで判定させる
func (h *PromotionHandler) validate(c echo.Context) error {
	var req PromoValidateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Amount.IsNegative() {
		return fail(c, http.StatusBadRequest, "invalid amount")
	}

	out, err := h.uc.ValidatePromoCode(c.Request().Context(), req.Code, req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, out.Reason, out)
}
