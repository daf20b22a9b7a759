package repository

import (
	"context"
	"time"

	"pos/internal/domain/model"
)

type OrderListFilter struct {
	Page       int
	Limit      int
	Status     string
	CustomerID *int64
	From       *time.Time
	To         *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 行ロック付きで取得（ステータス遷移の直列化）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, at time.Time) error
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
}

type OrderLineRepository interface {
	CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) ([]model.OrderLine, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error)
}
