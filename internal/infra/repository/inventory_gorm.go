package repository

import (
	"context"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindByProductID(ctx context.Context, productID int64) (model.StockEntry, error) {
	var e model.StockEntry
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&e).Error
	if isNotFound(err) {
		return model.StockEntry{}, repo.ErrNotFound
	}
	if err != nil {
		return model.StockEntry{}, err
	}
	return e, nil
}

// 行ロックを取ってから読む。Tx終了まで他の調整は待つ。
func (r *InventoryGormRepository) FindByProductIDForUpdate(ctx context.Context, productID int64) (model.StockEntry, error) {
	var e model.StockEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		First(&e).Error
	if isNotFound(err) {
		return model.StockEntry{}, repo.ErrNotFound
	}
	if err != nil {
		return model.StockEntry{}, err
	}
	return e, nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetQuantity(ctx context.Context, productID int64, qty int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.StockEntry{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"quantity":     qty,
			"last_updated": at,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, productID int64, page int, limit int) ([]model.StockAdjustment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockAdjustment{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.StockAdjustment{}, 0, err
	}

	var items []model.StockAdjustment
	offset := (page - 1) * limit
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.StockAdjustment{}, 0, err
	}
	return items, total, nil
}

// threshold未満の在庫（少ない順）
func (r *InventoryGormRepository) ListBelow(ctx context.Context, threshold int64) ([]model.StockEntry, error) {
	var items []model.StockEntry
	if err := r.db.WithContext(ctx).
		Where("quantity < ?", threshold).
		Order("quantity asc").
		Order("product_id asc").
		Find(&items).Error; err != nil {
		return []model.StockEntry{}, err
	}
	return items, nil
}

var _ repo.InventoryRepository = (*InventoryGormRepository)(nil)
