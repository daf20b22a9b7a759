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

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	ledger   *StockLedger
	payments *PaymentRecorder
	events   OrderEventPublisher
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location

	// 決済時の在庫減算でマイナスを許すか（旧挙動互換）
	allowNegativeSettlement bool

	transitions map[transitionKey]transition
}

type OrderOptions struct {
	Now                     func() time.Time
	Location                *time.Location
	AllowNegativeSettlement bool
	Events                  OrderEventPublisher
	Logger                  *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, opts OrderOptions) *OrderUsecase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Events == nil {
		opts.Events = NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	u := &OrderUsecase{
		tx:                      tx,
		ledger:                  NewStockLedger(opts.Now),
		payments:                NewPaymentRecorder(opts.Now),
		events:                  opts.Events,
		log:                     opts.Logger.With("component", "order_usecase"),
		now:                     opts.Now,
		loc:                     opts.Location,
		allowNegativeSettlement: opts.AllowNegativeSettlement,
	}
	u.transitions = u.transitionTable()
	return u
}

type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	CustomerID int64
	StaffID    int64
	Lines      []OrderLineInput
	PromoCode  string
}

type OrderLineOutput struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type PaymentOutput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	PaidAt    time.Time       `json:"paid_at"`
}

type OrderOutput struct {
	ID             int64             `json:"id"`
	CustomerID     int64             `json:"customer_id"`
	StaffID        int64             `json:"staff_id"`
	PromotionID    *int64            `json:"promotion_id,omitempty"`
	PromoCode      string            `json:"promo_code,omitempty"`
	OrderDate      time.Time         `json:"order_date"`
	Status         string            `json:"status"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	FinalAmount    decimal.Decimal   `json:"final_amount"`
	Lines          []OrderLineOutput `json:"lines"`
	Payment        *PaymentOutput    `json:"payment,omitempty"`
}

// 成功時の結果。同じステータスへの変更は Unchanged=true で成功扱い。
type OrderResult struct {
	Order     OrderOutput
	Unchanged bool
	Message   string
}

func (u *OrderUsecase) Create(ctx context.Context, in CreateOrderInput) (OrderResult, error) {
	if in.StaffID <= 0 {
		return OrderResult{}, NewInvalidState("invalid staff id")
	}
	if len(in.Lines) == 0 {
		return OrderResult{}, NewInvalidState("order must contain at least one line")
	}

	//同じ商品が複数行あっても在庫チェックは合計数量で見る
	requested := make(map[int64]int64, len(in.Lines))
	ids := make([]int64, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return OrderResult{}, NewInvalidState("quantity must be greater than zero")
		}
		if _, seen := requested[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		requested[l.ProductID] += l.Quantity
	}
	code := strings.TrimSpace(in.PromoCode)

	var out OrderOutput
	var created model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//顧客
		if _, err := r.Customers().FindByID(ctx, in.CustomerID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("customer not found")
			}
			return NewFailure("failed to load customer", err)
		}

		//商品と在庫を一括取得
		products, err := r.Products().FindWithStock(ctx, ids)
		if err != nil {
			return NewFailure("failed to load products", err)
		}
		byID := make(map[int64]model.ProductStock, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}
		if len(byID) != len(ids) {
			return NewNotFound("product not found")
		}

		//在庫は確認だけ（ここでは減らさない）
		for _, id := range ids {
			p := byID[id]
			if requested[id] > p.AvailableQty {
				return NewInvalidState("insufficient stock for product: " + p.Name)
			}
		}

		now := u.now()

		var promo *model.Promotion
		if code != "" {
			p, err := r.Promotions().FindByCode(ctx, code)
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("promo code not found")
			}
			if err != nil {
				return NewFailure("failed to load promotion", err)
			}
			if err := ValidateBasic(p, now, u.loc); err != nil {
				return err
			}
			promo = &p
		}

		//単価はクライアントからではなく現在の商品価格
		lines := make([]model.OrderLine, 0, len(in.Lines))
		total := decimal.Zero
		for _, l := range in.Lines {
			price := byID[l.ProductID].Price
			sub := price.Mul(decimal.NewFromInt(l.Quantity))
			lines = append(lines, model.OrderLine{
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: price,
				Subtotal:  sub,
				CreatedAt: now,
			})
			total = total.Add(sub)
		}

		discount := decimal.Zero
		if promo != nil {
			if err := ValidateWithAmount(*promo, now, u.loc, total); err != nil {
				return err
			}
			discount = ComputeDiscount(*promo, total)
		}

		order := model.Order{
			CustomerID:     in.CustomerID,
			StaffID:        in.StaffID,
			OrderDate:      now,
			Status:         model.OrderStatusPending,
			TotalAmount:    total,
			DiscountAmount: discount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if promo != nil {
			id := promo.ID
			order.PromotionID = &id
		}

		created, err = r.Orders().Create(ctx, order)
		if err != nil {
			return NewFailure("failed to create order", err)
		}
		savedLines, err := r.OrderLines().CreateBulk(ctx, created.ID, lines)
		if err != nil {
			return NewFailure("failed to create order lines", err)
		}

		//利用回数は割引が付いたときだけ数える
		if promo != nil && discount.IsPositive() {
			ok, err := r.Promotions().IncrementUsage(ctx, promo.ID)
			if err != nil {
				return NewFailure("failed to update promotion usage", err)
			}
			if !ok {
				return NewInvalidState(reasonPromoLimit)
			}
		}

		out = toOrderOutput(created, savedLines, nil)
		if promo != nil {
			out.PromoCode = promo.Code
		}
		return nil
	})
	if err != nil {
		err = asFailure("failed to create order", err)
		u.logFailure("order creation rejected", err, "customer_id", in.CustomerID, "staff_id", in.StaffID)
		metrics.OrderRejected(errorKind(err))
		return OrderResult{}, err
	}

	metrics.OrderCreated()
	u.log.Info("order created",
		"order_id", created.ID,
		"customer_id", created.CustomerID,
		"total", created.TotalAmount.String(),
		"discount", created.DiscountAmount.String(),
	)
	u.publish(ctx, OrderEvent{
		Type:           EventOrderCreated,
		OrderID:        created.ID,
		CustomerID:     created.CustomerID,
		ActorID:        in.StaffID,
		Status:         string(created.Status),
		TotalAmount:    created.TotalAmount,
		DiscountAmount: created.DiscountAmount,
		PromotionID:    created.PromotionID,
		OccurredAt:     created.OrderDate,
	})

	return OrderResult{Order: out, Message: "order created"}, nil
}

// ChangeStatus はステータス遷移表に従って副作用とステータス更新を1Txで行う。
func (u *OrderUsecase) ChangeStatus(ctx context.Context, orderID int64, status string, actorID int64) (OrderResult, error) {
	to, ok := model.ParseOrderStatus(status)
	if !ok {
		return OrderResult{}, NewInvalidState("invalid status")
	}

	var (
		out       OrderOutput
		from      model.OrderStatus
		unchanged bool
		order     model.Order
		applied   string
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("order not found")
		}
		if err != nil {
			return NewFailure("failed to load order", err)
		}
		from = o.Status

		if o.Status == to {
			unchanged = true
			out, err = u.loadOutput(ctx, r, o)
			return err
		}

		t, ok := u.transitions[transitionKey{from: o.Status, to: to}]
		if !ok {
			if o.Status == model.OrderStatusCanceled {
				return NewInvalidState("cannot change status of canceled orders")
			}
			return NewInvalidState(fmt.Sprintf("cannot change status from %s to %s", o.Status, to))
		}

		applied = t.name

		lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewFailure("failed to load order lines", err)
		}

		//副作用を先に（Paidなのに支払記録がない状態を見せない）
		for _, step := range t.steps {
			if err := step(ctx, r, o, lines, actorID); err != nil {
				return err
			}
		}

		now := u.now()
		if err := r.Orders().UpdateStatus(ctx, o.ID, to, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("order not found")
			}
			return NewFailure("failed to update order status", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionChangeOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   `{"status":"` + string(from) + `"}`,
			AfterJSON:    `{"status":"` + string(to) + `"}`,
			CreatedAt:    now,
		}); err != nil {
			return NewFailure("failed to write audit log", err)
		}

		o.Status = to
		o.UpdatedAt = now
		order = o
		out, err = u.loadOutput(ctx, r, o)
		return err
	})
	if err != nil {
		err = asFailure("failed to update order status", err)
		u.logFailure("order status change rejected", err, "order_id", orderID, "from", string(from), "to", string(to))
		metrics.OrderTransition(string(from), string(to), errorKind(err))
		return OrderResult{}, err
	}

	if unchanged {
		metrics.OrderTransition(string(from), string(to), "unchanged")
		return OrderResult{Order: out, Unchanged: true, Message: "order status unchanged"}, nil
	}

	metrics.OrderTransition(string(from), string(to), "ok")
	u.log.Info("order status changed", "order_id", orderID, "transition", applied, "from", string(from), "to", string(to), "actor_id", actorID)
	u.publish(ctx, OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		ActorID:        actorID,
		Status:         string(to),
		PreviousStatus: string(from),
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		PromotionID:    order.PromotionID,
		OccurredAt:     order.UpdatedAt,
	})

	return OrderResult{Order: out, Message: "order status updated to " + string(to)}, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("order not found")
		}
		if err != nil {
			return NewFailure("failed to load order", err)
		}
		out, err = u.loadOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, asFailure("failed to load order", err)
	}
	return out, nil
}

type OrderList struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) ListOrders(ctx context.Context, f repo.OrderListFilter) (OrderList, error) {
	if f.Page < 1 {
		return OrderList{}, NewInvalidState("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderList{}, NewInvalidState("invalid limit")
	}
	if f.Status != "" {
		st, ok := model.ParseOrderStatus(f.Status)
		if !ok {
			return OrderList{}, NewInvalidState("invalid status")
		}
		f.Status = string(st)
	}

	list := OrderList{Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, f)
		if err != nil {
			return NewFailure("failed to list orders", err)
		}
		list.Total = total
		list.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewFailure("failed to load order lines", err)
			}
			list.Items = append(list.Items, toOrderOutput(o, lines, nil))
		}
		return nil
	})
	if err != nil {
		return OrderList{}, asFailure("failed to list orders", err)
	}
	return list, nil
}

// 明細・支払・割引コードをまとめて読む
func (u *OrderUsecase) loadOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, NewFailure("failed to load order lines", err)
	}

	var pay *model.Payment
	p, err := r.Payments().FindByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		pay = &p
	case !errors.Is(err, repo.ErrNotFound):
		return OrderOutput{}, NewFailure("failed to load payment", err)
	}

	out := toOrderOutput(o, lines, pay)
	if o.PromotionID != nil {
		promo, err := r.Promotions().FindByID(ctx, *o.PromotionID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewFailure("failed to load promotion", err)
		}
		out.PromoCode = promo.Code
	}
	return out, nil
}

func (u *OrderUsecase) publish(ctx context.Context, ev OrderEvent) {
	if err := u.events.Publish(ctx, ev); err != nil {
		//コミット済みなので失敗しても結果は変えない
		u.log.Warn("failed to publish order event", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}

func (u *OrderUsecase) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err.Error())
	if IsKind(err, KindFailure) {
		u.log.Error(msg, args...)
		return
	}
	u.log.Warn(msg, args...)
}

func errorKind(err error) string {
	if ae, ok := AsAppError(err); ok {
		return ae.Kind.String()
	}
	return KindFailure.String()
}

func toOrderOutput(o model.Order, lines []model.OrderLine, pay *model.Payment) OrderOutput {
	outLines := make([]OrderLineOutput, 0, len(lines))
	for _, l := range lines {
		outLines = append(outLines, OrderLineOutput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}

	out := OrderOutput{
		ID:             o.ID,
		CustomerID:     o.CustomerID,
		StaffID:        o.StaffID,
		PromotionID:    o.PromotionID,
		OrderDate:      o.OrderDate,
		Status:         string(o.Status),
		TotalAmount:    o.TotalAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount(),
		Lines:          outLines,
	}
	if pay != nil {
		out.Payment = &PaymentOutput{
			Amount:    pay.Amount,
			Method:    string(pay.Method),
			Reference: pay.Reference,
			PaidAt:    pay.PaidAt,
		}
	}
	return out
}

// ステータス変更の履歴（監査ログから古い順）
func (u *OrderUsecase) ListStatusHistory(ctx context.Context, orderID int64) ([]model.AuditLog, error) {
	var logs []model.AuditLog

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFound("order not found")
			}
			return NewFailure("failed to load order", err)
		}

		action := model.AuditActionChangeOrderStatus
		resource := model.AuditResourceOrder
		var err error
		logs, err = r.AuditLogs().List(ctx, repo.AuditLogFilter{
			Action:       &action,
			ResourceType: &resource,
			ResourceID:   &orderID,
			Limit:        200,
		})
		if err != nil {
			return NewFailure("failed to list order history", err)
		}
		return nil
	})
	if err != nil {
		return []model.AuditLog{}, asFailure("failed to list order history", err)
	}
	return logs, nil
}
