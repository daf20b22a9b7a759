package repository

import (
	"context"

	"pos/internal/domain/model"
)

type PromotionRepository interface {
	FindByID(ctx context.Context, id int64) (model.Promotion, error)
	FindByCode(ctx context.Context, code string) (model.Promotion, error)

	// used_count < usage_limit を書き込み時に再チェックして+1。
	// 上限到達なら false を返す。
	IncrementUsage(ctx context.Context, promotionID int64) (bool, error)
	// 0未満にはしない
	DecrementUsage(ctx context.Context, promotionID int64) error
}
