package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
)

// 入力は大文字小文字を区別しない
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(s))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusPaid:
		return OrderStatusPaid, true
	case OrderStatusCanceled:
		return OrderStatusCanceled, true
	}
	return "", false
}

type Order struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID     int64           `gorm:"not null;index" json:"customer_id"`
	StaffID        int64           `gorm:"not null;index" json:"staff_id"`
	PromotionID    *int64          `gorm:"index" json:"promotion_id"`
	OrderDate      time.Time       `gorm:"not null;index" json:"order_date"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 支払額。固定額割引が合計を超えるとマイナスになる。
func (o Order) FinalAmount() decimal.Decimal {
	return o.TotalAmount.Sub(o.DiscountAmount)
}

// 利用回数を加算済みか（割引が付いた注文だけカウントしている）
func (o Order) PromotionCounted() bool {
	return o.PromotionID != nil && o.DiscountAmount.IsPositive()
}
