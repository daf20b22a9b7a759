package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

type PromotionStatus string

const (
	PromotionActive   PromotionStatus = "active"
	PromotionInactive PromotionStatus = "inactive"
)

// 割引コード。StartDate/EndDateは日付のみで両端を含む。
type Promotion struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Description    string          `gorm:"type:varchar(255)" json:"description"`
	DiscountKind   DiscountKind    `gorm:"type:varchar(20);not null" json:"discount_kind"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	StartDate      time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate        time.Time       `gorm:"type:date;not null" json:"end_date"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	// 0は無制限
	UsageLimit int             `gorm:"not null;default:0" json:"usage_limit"`
	UsedCount  int             `gorm:"not null;default:0" json:"used_count"`
	Status     PromotionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
