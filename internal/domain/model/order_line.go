package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。単価は注文時点の商品価格。
type OrderLine struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64           `gorm:"not null;index" json:"order_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
