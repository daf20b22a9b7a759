package usecase

import (
	"context"
	"errors"

	"pos/internal/domain/model"
	repo "pos/internal/repository"
)

type transitionKey struct {
	from model.OrderStatus
	to   model.OrderStatus
}

// 遷移時の副作用。ステータス書き込みより前に同じTxで実行される。
type transitionStep func(ctx context.Context, r repo.TxRepos, o model.Order, lines []model.OrderLine, actorID int64) error

type transition struct {
	name  string
	steps []transitionStep
}

// 表にない組み合わせは不正な遷移（canceledからの遷移はすべてここに落ちる）
func (u *OrderUsecase) transitionTable() map[transitionKey]transition {
	return map[transitionKey]transition{
		{from: model.OrderStatusPending, to: model.OrderStatusPaid}: {
			name:  "settle",
			steps: []transitionStep{u.settle},
		},
		// 利用回数はここでは戻さない。減らすのはcanceledへの遷移だけ。
		{from: model.OrderStatusPaid, to: model.OrderStatusPending}: {
			name:  "revert",
			steps: []transitionStep{u.reverseSettlement},
		},
		{from: model.OrderStatusPending, to: model.OrderStatusCanceled}: {
			name:  "cancel",
			steps: []transitionStep{u.releasePromotion},
		},
		{from: model.OrderStatusPaid, to: model.OrderStatusCanceled}: {
			name:  "cancel_paid",
			steps: []transitionStep{u.reverseSettlement, u.releasePromotion},
		},
	}
}

// 在庫を減らして支払記録を作る
func (u *OrderUsecase) settle(ctx context.Context, r repo.TxRepos, o model.Order, lines []model.OrderLine, actorID int64) error {
	for _, l := range lines {
		if _, err := u.ledger.Adjust(ctx, r, AdjustStockInput{
			ProductID:     l.ProductID,
			Delta:         -l.Quantity,
			ActorID:       actorID,
			Reason:        reasonOrderSettled,
			AllowNegative: u.allowNegativeSettlement,
		}); err != nil {
			return err
		}
	}

	_, err := u.payments.Record(ctx, r, o.ID, o.FinalAmount(), model.PaymentCash)
	return err
}

// settle の逆。在庫を戻して支払記録を消す。
func (u *OrderUsecase) reverseSettlement(ctx context.Context, r repo.TxRepos, o model.Order, lines []model.OrderLine, actorID int64) error {
	for _, l := range lines {
		if _, err := u.ledger.Adjust(ctx, r, AdjustStockInput{
			ProductID: l.ProductID,
			Delta:     l.Quantity,
			ActorID:   actorID,
			Reason:    reasonOrderReverted,
			//戻し方向なので負チェックはしない
			AllowNegative: true,
		}); err != nil {
			return err
		}
	}
	return u.payments.Clear(ctx, r, o.ID)
}

// 作成時に数えた利用回数を戻す
func (u *OrderUsecase) releasePromotion(ctx context.Context, r repo.TxRepos, o model.Order, _ []model.OrderLine, _ int64) error {
	if !o.PromotionCounted() {
		return nil
	}
	err := r.Promotions().DecrementUsage(ctx, *o.PromotionID)
	if errors.Is(err, repo.ErrNotFound) {
		// プロモーションが削除済みなら戻す先がない
		u.log.Warn("promotion not found on release", "order_id", o.ID, "promotion_id", *o.PromotionID)
		return nil
	}
	if err != nil {
		return NewFailure("failed to update promotion usage", err)
	}
	return nil
}
