package repository

import (
	"context"

	"pos/internal/domain/model"
)

type PaymentRepository interface {
	// order_idが重複したら ErrConflict
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	DeleteByOrderID(ctx context.Context, orderID int64) (int64, error)
}
