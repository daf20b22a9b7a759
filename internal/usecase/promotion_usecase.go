package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"github.com/shopspring/decimal"
)

type PromotionUsecase struct {
	tx  repo.TransactionManager
	now func() time.Time
	loc *time.Location
}

func NewPromotionUsecase(tx repo.TransactionManager, now func() time.Time, loc *time.Location) *PromotionUsecase {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PromotionUsecase{tx: tx, now: now, loc: loc}
}

type PromoValidation struct {
	IsValid     bool            `json:"is_valid"`
	Discount    decimal.Decimal `json:"discount"`
	Reason      string          `json:"reason"`
	PromotionID int64           `json:"promotion_id,omitempty"`
}

// ValidatePromoCode は注文前の確認用。コードが無効でもエラーにはせず IsValid=false で返す。
func (u *PromotionUsecase) ValidatePromoCode(ctx context.Context, code string, amount decimal.Decimal) (PromoValidation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return PromoValidation{Reason: "promo code required"}, nil
	}

	var promo model.Promotion
	var found bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Promotions().FindByCode(ctx, code)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return NewFailure("failed to load promotion", err)
		}
		promo, found = p, true
		return nil
	})
	if err != nil {
		return PromoValidation{}, asFailure("failed to load promotion", err)
	}
	if !found {
		return PromoValidation{Reason: "promo code not found"}, nil
	}

	if err := ValidateWithAmount(promo, u.now(), u.loc, amount); err != nil {
		ae, ok := AsAppError(err)
		if !ok {
			return PromoValidation{}, err
		}
		return PromoValidation{Reason: ae.Message, PromotionID: promo.ID}, nil
	}

	return PromoValidation{
		IsValid:     true,
		Discount:    ComputeDiscount(promo, amount),
		Reason:      "promo code is valid",
		PromotionID: promo.ID,
	}, nil
}
