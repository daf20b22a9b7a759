package repository_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"pos/internal/config"
	"pos/internal/domain/model"
	"pos/internal/infra/db"
	infraRepo "pos/internal/infra/repository"
	repo "pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 実DBが必要。TEST_DATABASE_URL が無ければskip。
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gormDB, err := db.Connect(context.Background(), config.Database{URL: dsn, MaxOpenConns: 5, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

func seedProduct(t *testing.T, gormDB *gorm.DB, price string, qty int64, withStock bool) model.Product {
	t.Helper()
	p := model.Product{Name: "test-" + uuid.NewString()[:8], Price: decimal.RequireFromString(price)}
	require.NoError(t, gormDB.Create(&p).Error)
	if withStock {
		require.NoError(t, gormDB.Create(&model.StockEntry{ProductID: p.ID, Quantity: qty, LastUpdated: time.Now()}).Error)
	}
	return p
}

func seedPromotion(t *testing.T, gormDB *gorm.DB, limit int) model.Promotion {
	t.Helper()
	p := model.Promotion{
		Code:          "T-" + uuid.NewString()[:12],
		DiscountKind:  model.DiscountPercent,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     time.Now().AddDate(0, 0, -1),
		EndDate:       time.Now().AddDate(0, 0, 1),
		UsageLimit:    limit,
		Status:        model.PromotionActive,
	}
	require.NoError(t, gormDB.Create(&p).Error)
	return p
}

func TestPromotionUsageCounter(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()
	r := infraRepo.NewPromotionGormRepository(gormDB)
	p := seedPromotion(t, gormDB, 2)

	for i := 0; i < 2; i++ {
		ok, err := r.IncrementUsage(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	//上限に達したら増えない
	ok, err := r.IncrementUsage(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByCode(ctx, p.Code)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsedCount)

	//0より下にはしない
	for i := 0; i < 3; i++ {
		require.NoError(t, r.DecrementUsage(ctx, p.ID))
	}
	got, err = r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsedCount)

	_, err = r.FindByCode(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPaymentIsUniquePerOrder(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()
	r := infraRepo.NewPaymentGormRepository(gormDB)
	orderID := time.Now().UnixNano()

	_, err := r.Create(ctx, model.Payment{OrderID: orderID, Amount: decimal.NewFromInt(10), Method: model.PaymentCash, Reference: uuid.NewString(), PaidAt: time.Now()})
	require.NoError(t, err)

	_, err = r.Create(ctx, model.Payment{OrderID: orderID, Amount: decimal.NewFromInt(10), Method: model.PaymentCash, Reference: uuid.NewString(), PaidAt: time.Now()})
	assert.ErrorIs(t, err, repo.ErrConflict)

	n, err := r.DeleteByOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = r.FindByOrderID(ctx, orderID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestProductFindWithStock(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()
	r := infraRepo.NewProductGormRepository(gormDB)

	stocked := seedProduct(t, gormDB, "10.00", 7, true)
	bare := seedProduct(t, gormDB, "2.50", 0, false)

	rows, err := r.FindWithStock(ctx, []int64{stocked.ID, bare.ID, -1})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[int64]model.ProductStock{}
	for _, row := range rows {
		byID[row.ID] = row
	}
	assert.Equal(t, int64(7), byID[stocked.ID].AvailableQty)
	assert.Equal(t, "10.00", byID[stocked.ID].Price.StringFixed(2))
	assert.Equal(t, int64(0), byID[bare.ID].AvailableQty)
}

func TestTxManagerRollsBack(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()
	tm := infraRepo.NewTxManagerGorm(gormDB)
	p := seedProduct(t, gormDB, "1.00", 5, true)
	errStop := errors.New("stop")

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		e, err := r.Inventory().FindByProductIDForUpdate(ctx, p.ID)
		require.NoError(t, err)
		require.NoError(t, r.Inventory().SetQuantity(ctx, p.ID, e.Quantity-5, time.Now()))
		require.NoError(t, r.Inventory().CreateAdjustment(ctx, model.StockAdjustment{ProductID: p.ID, ActorID: 1, Delta: -5, Reason: "test", CreatedAt: time.Now()}))
		return errStop
	})
	assert.ErrorIs(t, err, errStop)

	inv := infraRepo.NewInventoryGormRepository(gormDB)
	e, err := inv.FindByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), e.Quantity)

	items, total, err := inv.ListAdjustments(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestOrderLifecycleRows(t *testing.T) {
	gormDB := openTestDB(t)
	ctx := context.Background()
	orders := infraRepo.NewOrderGormRepository(gormDB)
	lines := infraRepo.NewOrderLineGormRepository(gormDB)
	p := seedProduct(t, gormDB, "10.00", 10, true)
	now := time.Now()

	o, err := orders.Create(ctx, model.Order{
		CustomerID:  1,
		StaffID:     1,
		OrderDate:   now,
		Status:      model.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("30.00"),
	})
	require.NoError(t, err)
	require.NotZero(t, o.ID)

	saved, err := lines.CreateBulk(ctx, o.ID, []model.OrderLine{
		{ProductID: p.ID, Quantity: 3, UnitPrice: p.Price, Subtotal: decimal.RequireFromString("30.00")},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, o.ID, saved[0].OrderID)

	require.NoError(t, orders.UpdateStatus(ctx, o.ID, model.OrderStatusPaid, now))
	got, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status)

	assert.ErrorIs(t, orders.UpdateStatus(ctx, -1, model.OrderStatusPaid, now), repo.ErrNotFound)

	list, total, err := orders.List(ctx, repo.OrderListFilter{Page: 1, Limit: 5, Status: "paid"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(1))
	assert.NotEmpty(t, list)
}
