package repository

import (
	"context"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type OrderLineGormRepository struct {
	db *gorm.DB
}

func NewOrderLineGormRepository(db *gorm.DB) *OrderLineGormRepository {
	return &OrderLineGormRepository{db: db}
}

// 明細をまとめて作成。order_idはここで埋める。
func (r *OrderLineGormRepository) CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) ([]model.OrderLine, error) {
	if len(lines) == 0 {
		return []model.OrderLine{}, nil
	}
	rows := make([]model.OrderLine, len(lines))
	for i, l := range lines {
		l.OrderID = orderID
		rows[i] = l
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OrderLineGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	var items []model.OrderLine
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.OrderLine{}, err
	}
	return items, nil
}

var _ repo.OrderLineRepository = (*OrderLineGormRepository)(nil)
