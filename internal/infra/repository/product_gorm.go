package repository

import (
	"context"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品と在庫を1クエリで取る。在庫行が無い商品は0扱い。
func (r *ProductGormRepository) FindWithStock(ctx context.Context, ids []int64) ([]model.ProductStock, error) {
	if len(ids) == 0 {
		return []model.ProductStock{}, nil
	}

	var rows []model.ProductStock
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.id, p.name, p.price, COALESCE(s.quantity, 0) AS available_qty").
		Joins("LEFT JOIN stock_entries AS s ON s.product_id = p.id").
		Where("p.id IN ? AND p.deleted_at IS NULL", ids).
		Scan(&rows).Error
	if err != nil {
		return []model.ProductStock{}, err
	}
	return rows, nil
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)
