package repository

import (
	"context"

	"pos/internal/domain/model"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 在庫付きでまとめて取得。存在しないIDは結果に含まれない。
	FindWithStock(ctx context.Context, ids []int64) ([]model.ProductStock, error)
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id int64) (model.Customer, error)
}
