package usecase

import (
	"time"

	"pos/internal/domain/model"

	"github.com/shopspring/decimal"
)

const (
	reasonPromoInactive   = "promo code is not active"
	reasonPromoOutOfDates = "promo code is not valid for this date"
	reasonPromoLimit      = "promo code usage limit reached"
)

var hundred = decimal.NewFromInt(100)

// ValidateBasic はステータス・期間・利用上限だけを見る（金額はまだ見ない）。
// 期間は開始日0:00から終了日23:59:59まで、loc の暦日で判定する。
func ValidateBasic(p model.Promotion, now time.Time, loc *time.Location) error {
	if p.Status != model.PromotionActive {
		return NewInvalidState(reasonPromoInactive)
	}

	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := startOfDay(p.StartDate, loc)
	end := startOfDay(p.EndDate, loc).Add(24*time.Hour - time.Second)
	if local.Before(start) || local.After(end) {
		return NewInvalidState(reasonPromoOutOfDates)
	}

	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return NewInvalidState(reasonPromoLimit)
	}
	return nil
}

// ValidateWithAmount は ValidateBasic に最低注文金額のチェックを足したもの。
func ValidateWithAmount(p model.Promotion, now time.Time, loc *time.Location, orderTotal decimal.Decimal) error {
	if err := ValidateBasic(p, now, loc); err != nil {
		return err
	}
	if orderTotal.LessThan(p.MinOrderAmount) {
		return NewInvalidState("minimum order amount is " + p.MinOrderAmount.StringFixed(2))
	}
	return nil
}

// ComputeDiscount は割引額を返す。
// 固定額は合計で頭打ちにしない（最終金額がマイナスになりうる）。
func ComputeDiscount(p model.Promotion, orderTotal decimal.Decimal) decimal.Decimal {
	switch p.DiscountKind {
	case model.DiscountPercent:
		return orderTotal.Mul(p.DiscountValue).Div(hundred).Round(2)
	case model.DiscountFixed:
		return p.DiscountValue
	default:
		return decimal.Zero
	}
}

// 日付だけを取り出して loc の0:00にする
func startOfDay(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
