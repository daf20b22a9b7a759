package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// コミット後に外部（集計など）へ流す通知
type OrderEvent struct {
	Type           string          `json:"type"`
	OrderID        int64           `json:"order_id"`
	CustomerID     int64           `json:"customer_id"`
	ActorID        int64           `json:"actor_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PromotionID    *int64          `json:"promotion_id,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

type OrderEventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// ブローカー未設定時に使う
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
