package repository

import (
	"context"
	"time"

	"pos/internal/domain/model"
)

type InventoryRepository interface {
	FindByProductID(ctx context.Context, productID int64) (model.StockEntry, error)
	// 行ロック付き。調整直前の再チェック用。
	FindByProductIDForUpdate(ctx context.Context, productID int64) (model.StockEntry, error)
	SetQuantity(ctx context.Context, productID int64, qty int64, at time.Time) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error
	ListAdjustments(ctx context.Context, productID int64, page int, limit int) ([]model.StockAdjustment, int64, error)

	ListBelow(ctx context.Context, threshold int64) ([]model.StockEntry, error)
}
