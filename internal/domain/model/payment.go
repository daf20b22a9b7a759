package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// 支払記録。注文1件につき最大1件（order_idユニーク）。
type Payment struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;uniqueIndex" json:"order_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	Reference string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
}
