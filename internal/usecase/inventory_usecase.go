package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pos/internal/domain/model"
	"pos/internal/metrics"
	repo "pos/internal/repository"
)

const DefaultLowStockThreshold = 10

// 手動の在庫調整と在庫照会
type InventoryUsecase struct {
	tx        repo.TransactionManager
	ledger    *StockLedger
	log       *slog.Logger
	now       func() time.Time
	threshold int64
}

func NewInventoryUsecase(tx repo.TransactionManager, now func() time.Time, lowStockThreshold int64, logger *slog.Logger) *InventoryUsecase {
	if now == nil {
		now = time.Now
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryUsecase{
		tx:        tx,
		ledger:    NewStockLedger(now),
		log:       logger.With("component", "inventory_usecase"),
		now:       now,
		threshold: lowStockThreshold,
	}
}

type StockHistory struct {
	Items []model.StockAdjustment `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// Adjust は差分で在庫を増減する。マイナスになる調整は拒否。
func (u *InventoryUsecase) Adjust(ctx context.Context, actorID int64, productID int64, delta int64, reason string) (model.StockEntry, error) {
	if actorID <= 0 {
		return model.StockEntry{}, NewInvalidState("invalid actor id")
	}
	if delta == 0 {
		return model.StockEntry{}, NewInvalidState("quantity change must not be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return model.StockEntry{}, NewInvalidState("reason required")
	}

	var entry model.StockEntry

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Inventory().FindByProductID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("inventory not found")
		}
		if err != nil {
			return NewFailure("failed to load inventory", err)
		}

		entry, err = u.ledger.Adjust(ctx, r, AdjustStockInput{
			ProductID: productID,
			Delta:     delta,
			ActorID:   actorID,
			Reason:    reason,
		})
		if err != nil {
			return err
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionAdjustStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"quantity":%d}`, before.Quantity),
			AfterJSON:    fmt.Sprintf(`{"quantity":%d}`, entry.Quantity),
			CreatedAt:    u.now(),
		}); err != nil {
			return NewFailure("failed to write audit log", err)
		}
		return nil
	})
	if err != nil {
		err = asFailure("failed to adjust inventory", err)
		metrics.StockAdjusted(errorKind(err))
		u.log.Warn("inventory adjustment rejected", "product_id", productID, "delta", delta, "error", err.Error())
		return model.StockEntry{}, err
	}

	metrics.StockAdjusted("ok")
	u.log.Info("inventory adjusted", "product_id", productID, "delta", delta, "quantity", entry.Quantity, "actor_id", actorID)
	return entry, nil
}

func (u *InventoryUsecase) GetStock(ctx context.Context, productID int64) (model.StockEntry, error) {
	var entry model.StockEntry

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		qty, err := u.ledger.Query(ctx, r, productID)
		if err != nil {
			return err
		}
		entry, err = r.Inventory().FindByProductID(ctx, productID)
		if err != nil {
			return NewFailure("failed to load inventory", err)
		}
		entry.Quantity = qty
		return nil
	})
	if err != nil {
		return model.StockEntry{}, asFailure("failed to load inventory", err)
	}
	return entry, nil
}

// threshold<=0 なら設定値を使う
func (u *InventoryUsecase) ListLowStock(ctx context.Context, threshold int64) ([]model.StockEntry, error) {
	if threshold <= 0 {
		threshold = u.threshold
	}

	var entries []model.StockEntry
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		entries, err = r.Inventory().ListBelow(ctx, threshold)
		if err != nil {
			return NewFailure("failed to list inventory", err)
		}
		return nil
	})
	if err != nil {
		return []model.StockEntry{}, asFailure("failed to list inventory", err)
	}
	return entries, nil
}

func (u *InventoryUsecase) ListHistory(ctx context.Context, productID int64, page int, limit int) (StockHistory, error) {
	if page < 1 {
		return StockHistory{}, NewInvalidState("invalid page")
	}
	if limit < 1 || limit > 100 {
		return StockHistory{}, NewInvalidState("invalid limit")
	}

	out := StockHistory{Page: page, Limit: limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Inventory().FindByProductID(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("inventory not found")
			}
			return NewFailure("failed to load inventory", err)
		}
		items, total, err := r.Inventory().ListAdjustments(ctx, productID, page, limit)
		if err != nil {
			return NewFailure("failed to list inventory history", err)
		}
		out.Items = items
		out.Total = total
		return nil
	})
	if err != nil {
		return StockHistory{}, asFailure("failed to list inventory history", err)
	}
	return out, nil
}
