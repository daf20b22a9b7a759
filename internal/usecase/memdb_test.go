package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pos/internal/domain/model"
	repo "pos/internal/repository"

	"github.com/shopspring/decimal"
)

// memDB は TransactionManager のインメモリ実装。
// WithinTx の間はロックを持ち、fn がエラーを返したらスナップショットに戻す。
type memDB struct {
	mu sync.Mutex
	st *memState

	// "Payments.Create" のようなキーでエラーを差し込む
	failOn map[string]error

	// IncrementUsage の判定直前に呼ばれる。別Txが先に使い切った状態を作る。
	beforeIncrementUsage func(p *model.Promotion)
}

type memState struct {
	nextID      int64
	customers   map[int64]model.Customer
	products    map[int64]model.Product
	stock       map[int64]model.StockEntry
	adjustments []model.StockAdjustment
	promotions  map[int64]model.Promotion
	orders      map[int64]model.Order
	lines       []model.OrderLine
	payments    map[int64]model.Payment // order_id -> payment
	audits      []model.AuditLog
}

func newMemDB() *memDB {
	return &memDB{
		st: &memState{
			customers:  map[int64]model.Customer{},
			products:   map[int64]model.Product{},
			stock:      map[int64]model.StockEntry{},
			promotions: map[int64]model.Promotion{},
			orders:     map[int64]model.Order{},
			payments:   map[int64]model.Payment{},
		},
		failOn: map[string]error{},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:      s.nextID,
		customers:   make(map[int64]model.Customer, len(s.customers)),
		products:    make(map[int64]model.Product, len(s.products)),
		stock:       make(map[int64]model.StockEntry, len(s.stock)),
		adjustments: append([]model.StockAdjustment(nil), s.adjustments...),
		promotions:  make(map[int64]model.Promotion, len(s.promotions)),
		orders:      make(map[int64]model.Order, len(s.orders)),
		lines:       append([]model.OrderLine(nil), s.lines...),
		payments:    make(map[int64]model.Payment, len(s.payments)),
		audits:      append([]model.AuditLog(nil), s.audits...),
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.promotions {
		c.promotions[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (m *memDB) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.st.clone()
	if err := fn(memRepos{m}); err != nil {
		m.st = snap
		return err
	}
	return nil
}

func (m *memDB) fail(op string) error {
	return m.failOn[op]
}

// --- seed / 参照用ヘルパ（Tx外から呼ぶ） ---

func (m *memDB) addCustomer(id int64, name string) {
	m.st.customers[id] = model.Customer{ID: id, Name: name}
}

func (m *memDB) addProduct(id int64, name string, price string, qty int64) {
	m.st.products[id] = model.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
	m.st.stock[id] = model.StockEntry{ProductID: id, Quantity: qty}
}

func (m *memDB) addPromotion(p model.Promotion) {
	m.st.promotions[p.ID] = p
}

func (m *memDB) removePromotion(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.st.promotions, id)
}

func (m *memDB) stockOf(productID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.stock[productID].Quantity
}

func (m *memDB) promotion(id int64) model.Promotion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.promotions[id]
}

func (m *memDB) order(id int64) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.orders[id]
}

func (m *memDB) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.payments)
}

func (m *memDB) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.orders)
}

func (m *memDB) lineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.lines)
}

func (m *memDB) adjustmentsOf(productID int64) []model.StockAdjustment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StockAdjustment
	for _, a := range m.st.adjustments {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out
}

func (m *memDB) auditLogs() []model.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditLog(nil), m.st.audits...)
}

// --- TxRepos ---

type memRepos struct{ db *memDB }

func (r memRepos) Orders() repo.OrderRepository         { return memOrders{r.db} }
func (r memRepos) OrderLines() repo.OrderLineRepository { return memOrderLines{r.db} }
func (r memRepos) Customers() repo.CustomerRepository   { return memCustomers{r.db} }
func (r memRepos) Products() repo.ProductRepository     { return memProducts{r.db} }
func (r memRepos) Inventory() repo.InventoryRepository  { return memInventory{r.db} }
func (r memRepos) Promotions() repo.PromotionRepository { return memPromotions{r.db} }
func (r memRepos) Payments() repo.PaymentRepository     { return memPayments{r.db} }
func (r memRepos) AuditLogs() repo.AuditLogRepository   { return memAuditLogs{r.db} }

type memOrders struct{ db *memDB }

func (r memOrders) FindByID(_ context.Context, id int64) (model.Order, error) {
	if err := r.db.fail("Orders.FindByID"); err != nil {
		return model.Order{}, err
	}
	o, ok := r.db.st.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r memOrders) Create(_ context.Context, o model.Order) (model.Order, error) {
	if err := r.db.fail("Orders.Create"); err != nil {
		return model.Order{}, err
	}
	o.ID = r.db.st.id()
	r.db.st.orders[o.ID] = o
	return o, nil
}

func (r memOrders) UpdateStatus(_ context.Context, id int64, status model.OrderStatus, at time.Time) error {
	if err := r.db.fail("Orders.UpdateStatus"); err != nil {
		return err
	}
	o, ok := r.db.st.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	r.db.st.orders[id] = o
	return nil
}

func (r memOrders) List(_ context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	var all []model.Order
	for _, o := range r.db.st.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start >= len(all) {
		return []model.Order{}, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type memOrderLines struct{ db *memDB }

func (r memOrderLines) CreateBulk(_ context.Context, orderID int64, lines []model.OrderLine) ([]model.OrderLine, error) {
	if err := r.db.fail("OrderLines.CreateBulk"); err != nil {
		return nil, err
	}
	out := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		l.ID = r.db.st.id()
		l.OrderID = orderID
		r.db.st.lines = append(r.db.st.lines, l)
		out = append(out, l)
	}
	return out, nil
}

func (r memOrderLines) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderLine, error) {
	out := []model.OrderLine{}
	for _, l := range r.db.st.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memCustomers struct{ db *memDB }

func (r memCustomers) FindByID(_ context.Context, id int64) (model.Customer, error) {
	c, ok := r.db.st.customers[id]
	if !ok {
		return model.Customer{}, repo.ErrNotFound
	}
	return c, nil
}

type memProducts struct{ db *memDB }

func (r memProducts) FindByID(_ context.Context, id int64) (model.Product, error) {
	p, ok := r.db.st.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindWithStock(_ context.Context, ids []int64) ([]model.ProductStock, error) {
	out := []model.ProductStock{}
	for _, id := range ids {
		p, ok := r.db.st.products[id]
		if !ok {
			continue
		}
		out = append(out, model.ProductStock{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			AvailableQty: r.db.st.stock[id].Quantity,
		})
	}
	return out, nil
}

type memInventory struct{ db *memDB }

func (r memInventory) FindByProductID(_ context.Context, productID int64) (model.StockEntry, error) {
	e, ok := r.db.st.stock[productID]
	if !ok {
		return model.StockEntry{}, repo.ErrNotFound
	}
	return e, nil
}

func (r memInventory) FindByProductIDForUpdate(ctx context.Context, productID int64) (model.StockEntry, error) {
	return r.FindByProductID(ctx, productID)
}

func (r memInventory) SetQuantity(_ context.Context, productID int64, qty int64, at time.Time) error {
	if err := r.db.fail("Inventory.SetQuantity"); err != nil {
		return err
	}
	e, ok := r.db.st.stock[productID]
	if !ok {
		return repo.ErrNotFound
	}
	e.Quantity = qty
	e.LastUpdated = at
	r.db.st.stock[productID] = e
	return nil
}

func (r memInventory) CreateAdjustment(_ context.Context, adj model.StockAdjustment) error {
	adj.ID = r.db.st.id()
	r.db.st.adjustments = append(r.db.st.adjustments, adj)
	return nil
}

func (r memInventory) ListAdjustments(_ context.Context, productID int64, page int, limit int) ([]model.StockAdjustment, int64, error) {
	var all []model.StockAdjustment
	for i := len(r.db.st.adjustments) - 1; i >= 0; i-- {
		if a := r.db.st.adjustments[i]; a.ProductID == productID {
			all = append(all, a)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.StockAdjustment{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r memInventory) ListBelow(_ context.Context, threshold int64) ([]model.StockEntry, error) {
	out := []model.StockEntry{}
	for _, e := range r.db.st.stock {
		if e.Quantity < threshold {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

type memPromotions struct{ db *memDB }

func (r memPromotions) FindByID(_ context.Context, id int64) (model.Promotion, error) {
	p, ok := r.db.st.promotions[id]
	if !ok {
		return model.Promotion{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memPromotions) FindByCode(_ context.Context, code string) (model.Promotion, error) {
	for _, p := range r.db.st.promotions {
		if p.Code == code {
			return p, nil
		}
	}
	return model.Promotion{}, repo.ErrNotFound
}

func (r memPromotions) IncrementUsage(_ context.Context, id int64) (bool, error) {
	if err := r.db.fail("Promotions.IncrementUsage"); err != nil {
		return false, err
	}
	p, ok := r.db.st.promotions[id]
	if !ok {
		return false, nil
	}
	if r.db.beforeIncrementUsage != nil {
		r.db.beforeIncrementUsage(&p)
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return false, nil
	}
	p.UsedCount++
	r.db.st.promotions[id] = p
	return true, nil
}

func (r memPromotions) DecrementUsage(_ context.Context, id int64) error {
	if err := r.db.fail("Promotions.DecrementUsage"); err != nil {
		return err
	}
	p, ok := r.db.st.promotions[id]
	if !ok {
		return repo.ErrNotFound
	}
	if p.UsedCount > 0 {
		p.UsedCount--
	}
	r.db.st.promotions[id] = p
	return nil
}

type memPayments struct{ db *memDB }

func (r memPayments) Create(_ context.Context, p model.Payment) (model.Payment, error) {
	if err := r.db.fail("Payments.Create"); err != nil {
		return model.Payment{}, err
	}
	if _, exists := r.db.st.payments[p.OrderID]; exists {
		return model.Payment{}, repo.ErrConflict
	}
	p.ID = r.db.st.id()
	r.db.st.payments[p.OrderID] = p
	return p, nil
}

func (r memPayments) FindByOrderID(_ context.Context, orderID int64) (model.Payment, error) {
	p, ok := r.db.st.payments[orderID]
	if !ok {
		return model.Payment{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memPayments) DeleteByOrderID(_ context.Context, orderID int64) (int64, error) {
	if _, ok := r.db.st.payments[orderID]; !ok {
		return 0, nil
	}
	delete(r.db.st.payments, orderID)
	return 1, nil
}

type memAuditLogs struct{ db *memDB }

func (r memAuditLogs) Create(_ context.Context, entry model.AuditLog) error {
	if err := r.db.fail("AuditLogs.Create"); err != nil {
		return err
	}
	entry.ID = r.db.st.id()
	r.db.st.audits = append(r.db.st.audits, entry)
	return nil
}

func (r memAuditLogs) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	out := []model.AuditLog{}
	for _, a := range r.db.st.audits {
		if f.Action != nil && a.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && a.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && a.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

var errBoom = errors.New("boom")
