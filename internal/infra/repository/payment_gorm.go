package repository

import (
	"context"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	err := r.db.WithContext(ctx).Create(&p).Error
	if isUniqueViolation(err) {
		return model.Payment{}, repo.ErrConflict
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error
	if isNotFound(err) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// 削除件数を返す。0件でもエラーにしない。
func (r *PaymentGormRepository) DeleteByOrderID(ctx context.Context, orderID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.Payment{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

var _ repo.PaymentRepository = (*PaymentGormRepository)(nil)
