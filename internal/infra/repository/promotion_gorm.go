package repository

import (
	"context"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type PromotionGormRepository struct {
	db *gorm.DB
}

func NewPromotionGormRepository(db *gorm.DB) *PromotionGormRepository {
	return &PromotionGormRepository{db: db}
}

func (r *PromotionGormRepository) FindByID(ctx context.Context, id int64) (model.Promotion, error) {
	var p model.Promotion
	err := r.db.WithContext(ctx).First(&p, id).Error
	if isNotFound(err) {
		return model.Promotion{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Promotion{}, err
	}
	return p, nil
}

func (r *PromotionGormRepository) FindByCode(ctx context.Context, code string) (model.Promotion, error) {
	var p model.Promotion
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if isNotFound(err) {
		return model.Promotion{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Promotion{}, err
	}
	return p, nil
}

// 上限チェックと+1を1文で行う
func (r *PromotionGormRepository) IncrementUsage(ctx context.Context, promotionID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", promotionID).
		Update("used_count", gorm.Expr("used_count + 1"))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *PromotionGormRepository) DecrementUsage(ctx context.Context, promotionID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("id = ?", promotionID).
		Update("used_count", gorm.Expr("CASE WHEN used_count > 0 THEN used_count - 1 ELSE 0 END"))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var _ repo.PromotionRepository = (*PromotionGormRepository)(nil)
