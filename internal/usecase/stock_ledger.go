package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"
)

const (
	reasonOrderSettled  = "order settled"
	reasonOrderReverted = "order reverted"
)

type AdjustStockInput struct {
	ProductID int64
	Delta     int64
	ActorID   int64
	Reason    string
	// trueならマイナス在庫を許す（決済時の減算を旧挙動に合わせる場合だけ）
	AllowNegative bool
}

// StockLedger は在庫の増減と調整履歴の追記を1か所にまとめる。
// 呼び出し側のTx（TxRepos）の中で使う。
type StockLedger struct {
	now func() time.Time
}

func NewStockLedger(now func() time.Time) *StockLedger {
	if now == nil {
		now = time.Now
	}
	return &StockLedger{now: now}
}

func (l *StockLedger) Adjust(ctx context.Context, r repo.TxRepos, in AdjustStockInput) (model.StockEntry, error) {
	//行ロックしてから計算する（同時調整で負にならないように）
	entry, err := r.Inventory().FindByProductIDForUpdate(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.StockEntry{}, NewNotFound("inventory not found")
	}
	if err != nil {
		return model.StockEntry{}, NewFailure("failed to load inventory", err)
	}

	newQty := entry.Quantity + in.Delta
	if newQty < 0 && !in.AllowNegative {
		return model.StockEntry{}, NewInvalidState("insufficient inventory")
	}

	now := l.now()
	if err := r.Inventory().SetQuantity(ctx, in.ProductID, newQty, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.StockEntry{}, NewNotFound("inventory not found")
		}
		return model.StockEntry{}, NewFailure("failed to update inventory", err)
	}

	if err := r.Inventory().CreateAdjustment(ctx, model.StockAdjustment{
		ProductID:     in.ProductID,
		ActorID:       in.ActorID,
		Delta:         in.Delta,
		QuantityAfter: newQty,
		Reason:        strings.TrimSpace(in.Reason),
		CreatedAt:     now,
	}); err != nil {
		return model.StockEntry{}, NewFailure("failed to record inventory history", err)
	}

	entry.Quantity = newQty
	entry.LastUpdated = now
	return entry, nil
}

func (l *StockLedger) Query(ctx context.Context, r repo.TxRepos, productID int64) (int64, error) {
	entry, err := r.Inventory().FindByProductID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, NewNotFound("inventory not found")
	}
	if err != nil {
		return 0, NewFailure("failed to load inventory", err)
	}
	return entry.Quantity, nil
}
