package usecase

import (
	"context"
	"errors"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecorder は注文の支払記録を作る/消す。注文1件につき0か1件。
type PaymentRecorder struct {
	now   func() time.Time
	newID func() string
}

func NewPaymentRecorder(now func() time.Time) *PaymentRecorder {
	if now == nil {
		now = time.Now
	}
	return &PaymentRecorder{now: now, newID: uuid.NewString}
}

func (p *PaymentRecorder) Record(ctx context.Context, r repo.TxRepos, orderID int64, amount decimal.Decimal, method model.PaymentMethod) (model.Payment, error) {
	if method == "" {
		method = model.PaymentCash
	}

	//既にあるなら二重に作らない
	_, err := r.Payments().FindByOrderID(ctx, orderID)
	if err == nil {
		return model.Payment{}, NewInvalidState("order already has a payment")
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Payment{}, NewFailure("failed to load payment", err)
	}

	created, err := r.Payments().Create(ctx, model.Payment{
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Reference: p.newID(),
		PaidAt:    p.now(),
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Payment{}, NewInvalidState("order already has a payment")
	}
	if err != nil {
		return model.Payment{}, NewFailure("failed to record payment", err)
	}
	return created, nil
}

func (p *PaymentRecorder) Clear(ctx context.Context, r repo.TxRepos, orderID int64) error {
	if _, err := r.Payments().DeleteByOrderID(ctx, orderID); err != nil {
		return NewFailure("failed to delete payment", err)
	}
	return nil
}
