package transactions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/discounts"
	mdshared "github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

// mockRepository keeps committed rows; each WithTx call stages its writes
// and only applies them when the callback succeeds.
type mockRepository struct {
	products       map[int64]ProductRef
	discounts      map[int64]DiscountRule
	paymentMethods map[int64]string

	transactions map[int64]Transaction
	keys         map[string]int64
	nextID       int64

	// error injection
	txError         error
	insertItemsErr  error
	claimConflictFn func(m *mockRepository)
	commits         int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		products: map[int64]ProductRef{
			1: {ID: 1, Name: "Espresso Beans", Stock: 10},
			2: {ID: 2, Name: "Milk Frother", Stock: 3},
		},
		discounts: map[int64]DiscountRule{
			1: {ID: 1, Name: "Ten off", Type: discounts.TypePercentage, Value: dec("10")},
			2: {ID: 2, Name: "Flat 30", Type: discounts.TypeAmount, Value: dec("30")},
		},
		paymentMethods: map[int64]string{1: "Cash"},
		transactions:   map[int64]Transaction{},
		keys:           map[string]int64{},
		nextID:         1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	tx := &mockTxRepo{mock: m, stock: map[int64]int{}, keys: map[string]int64{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, qty := range tx.stock {
		p := m.products[id]
		p.Stock -= qty
		m.products[id] = p
	}
	if tx.header != nil {
		tx.header.Items = tx.items
		m.transactions[tx.header.ID] = *tx.header
		m.nextID++
	}
	for k, v := range tx.keys {
		m.keys[k] = v
	}
	m.commits++
	return nil
}

func (m *mockRepository) List(_ context.Context, filters mdshared.ListFilters) ([]Transaction, int, error) {
	var out []Transaction
	for _, t := range m.transactions {
		if (t.DeletedAt != nil) == filters.Trashed {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Transaction, error) {
	t, ok := m.transactions[id]
	if !ok || t.DeletedAt != nil {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *mockRepository) LookupIdempotent(_ context.Context, key string) (int64, error) {
	id, ok := m.keys[key]
	if !ok || id == 0 {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

func (m *mockRepository) SoftDelete(_ context.Context, id int64) error {
	t, ok := m.transactions[id]
	if !ok || t.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	m.transactions[id] = t
	return nil
}

func (m *mockRepository) Restore(_ context.Context, id int64) error {
	t, ok := m.transactions[id]
	if !ok || t.DeletedAt == nil {
		return ErrNotFound
	}
	t.DeletedAt = nil
	m.transactions[id] = t
	return nil
}

func (m *mockRepository) ForceDelete(_ context.Context, id int64) error {
	t, ok := m.transactions[id]
	if !ok || t.DeletedAt == nil {
		return ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

type mockTxRepo struct {
	mock   *mockRepository
	header *Transaction
	items  []Item
	stock  map[int64]int
	keys   map[string]int64
	locked bool
}

func (t *mockTxRepo) ActiveProducts(_ context.Context, ids []int64, lock bool) (map[int64]ProductRef, error) {
	t.locked = lock
	out := map[int64]ProductRef{}
	for _, id := range ids {
		if p, ok := t.mock.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *mockTxRepo) Discount(_ context.Context, id int64) (DiscountRule, error) {
	d, ok := t.mock.discounts[id]
	if !ok {
		return DiscountRule{}, ErrNotFound
	}
	return d, nil
}

func (t *mockTxRepo) PaymentMethodName(_ context.Context, id int64) (string, error) {
	name, ok := t.mock.paymentMethods[id]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}

func (t *mockTxRepo) DecrementStock(_ context.Context, productID int64, qty int) error {
	if t.mock.products[productID].Stock < qty {
		return ErrValidation
	}
	t.stock[productID] += qty
	return nil
}

func (t *mockTxRepo) InsertTransaction(_ context.Context, tr Transaction) (int64, time.Time, error) {
	tr.ID = t.mock.nextID
	tr.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t.header = &tr
	return tr.ID, tr.CreatedAt, nil
}

func (t *mockTxRepo) InsertItems(_ context.Context, _ int64, items []Item) error {
	if t.mock.insertItemsErr != nil {
		return t.mock.insertItemsErr
	}
	t.items = append(t.items, items...)
	return nil
}

func (t *mockTxRepo) ClaimIdempotencyKey(_ context.Context, key string) error {
	if t.mock.claimConflictFn != nil {
		t.mock.claimConflictFn(t.mock)
		t.mock.claimConflictFn = nil
	}
	if _, ok := t.mock.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	t.keys[key] = 0
	return nil
}

func (t *mockTxRepo) BindIdempotencyKey(_ context.Context, key string, id int64) error {
	t.keys[key] = id
	return nil
}

// ============================================================================
// COLLABORATOR FAKES
// ============================================================================

type recordingAudit struct{ logs []shared.AuditLog }

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type bumpCounter struct{ n int }

func (b *bumpCounter) Bump(context.Context) error {
	b.n++
	return nil
}

type recordingNotifier struct {
	sent map[int64]string
	err  error
}

func (n *recordingNotifier) EnqueueReceiptEmail(_ context.Context, id int64, email string) error {
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = map[int64]string{}
	}
	n.sent[id] = email
	return nil
}

type outcomeCounter map[string]int

func (o outcomeCounter) ObserveCheckout(outcome string, _ float64) { o[outcome]++ }

type fixture struct {
	repo     *mockRepository
	audit    *recordingAudit
	bumps    *bumpCounter
	notifier *recordingNotifier
	outcomes outcomeCounter
	svc      *Service
}

func newFixture(policy StockPolicy) *fixture {
	f := &fixture{
		repo:     newMockRepository(),
		audit:    &recordingAudit{},
		bumps:    &bumpCounter{},
		notifier: &recordingNotifier{},
		outcomes: outcomeCounter{},
	}
	f.svc = NewService(f.repo, Deps{
		Logger:      discardLogger(),
		Audit:       f.audit,
		Invalidator: f.bumps,
		Notifier:    f.notifier,
		Metrics:     f.outcomes,
		StockPolicy: policy,
	})
	return f
}

func scenarioRequest() CreateRequest {
	return CreateRequest{
		Items:           scenarioCart(),
		CustomerName:    "  Dewi Lestari ",
		CustomerEmail:   "Dewi@Example.com",
		PaymentMethodID: 1,
		AmountTendered:  dec("300"),
		ChangeDue:       dec("50"),
		TotalAmount:     dec("250"),
	}
}

func ptr(id int64) *int64 { return &id }

// ============================================================================
// CHECKOUT
// ============================================================================

func TestCreateScenarioNoDiscount(t *testing.T) {
	f := newFixture(StockPolicyNone)

	tx, err := f.svc.Create(context.Background(), 7, scenarioRequest())
	require.NoError(t, err)

	assertMoney(t, "250.00", tx.TotalAmount)
	assertMoney(t, "50.00", tx.ChangeDue)
	assert.Equal(t, "Dewi Lestari", tx.CustomerName)
	assert.Equal(t, "dewi@example.com", tx.CustomerEmail)
	assert.Equal(t, "Cash", tx.PaymentMethodName)
	require.Len(t, tx.Items, 2)
	assert.Equal(t, "Espresso Beans", tx.Items[0].ProductName)

	stored, err := f.repo.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, int64(7), stored.UserID)

	assert.Equal(t, 1, f.bumps.n)
	assert.Equal(t, 1, f.outcomes[OutcomeCreated])
	assert.Equal(t, "dewi@example.com", f.notifier.sent[tx.ID])
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, "transaction.create", f.audit.logs[0].Action)
	assert.Equal(t, 10, f.repo.products[1].Stock, "stock untouched without decrement policy")
}

func TestCreateScenarioPercentageDiscountRejectsShortTender(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.DiscountID = ptr(1)
	req.AmountTendered = dec("200")

	_, err := f.svc.Create(context.Background(), 7, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, mdshared.FieldErrors(err)["amount_tendered"], "225.00")
	assert.Empty(t, f.repo.transactions)
	assert.Zero(t, f.bumps.n)
	assert.Equal(t, 1, f.outcomes[OutcomeRejected])
}

func TestCreateScenarioAmountDiscount(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.DiscountID = ptr(2)
	req.AmountTendered = dec("220")

	tx, err := f.svc.Create(context.Background(), 7, req)
	require.NoError(t, err)
	assertMoney(t, "220.00", tx.TotalAmount)
	assertMoney(t, "0", tx.ChangeDue)
	require.NotNil(t, tx.Discount)
	assert.Equal(t, "Flat 30", tx.Discount.Name)
}

func TestCreateOverridesClientTotals(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.TotalAmount = dec("1")
	req.ChangeDue = dec("299")

	tx, err := f.svc.Create(context.Background(), 7, req)
	require.NoError(t, err)
	assertMoney(t, "250", tx.TotalAmount)
	assertMoney(t, "50", tx.ChangeDue)
}

func TestCreateValidatesRequest(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := CreateRequest{
		Items:          []LineInput{{ProductID: 1, Quantity: 0, Price: dec("-1")}},
		CustomerEmail:  "not-an-email",
		AmountTendered: dec("-5"),
	}

	_, err := f.svc.Create(context.Background(), 7, req)
	require.Error(t, err)
	fields := mdshared.FieldErrors(err)
	assert.Equal(t, "Quantity is required", fields["items.0.quantity"])
	assert.Equal(t, "Price must be at least 0", fields["items.0.price"])
	assert.Equal(t, "Customer name is required", fields["customer_name"])
	assert.Contains(t, fields, "customer_email")
	assert.Contains(t, fields, "payment_method_id")
	assert.Contains(t, fields, "amount_tendered")
	assert.Zero(t, f.repo.commits)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.Items = nil

	_, err := f.svc.Create(context.Background(), 7, req)
	assert.Equal(t, "Cart is required", mdshared.FieldErrors(err)["items"])
}

func TestCreateRejectsOversizedValues(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.Items[0].Quantity = MaxLineQuantity + 1
	req.Items[1].Price = dec("1000000000000")
	req.AmountTendered = dec("1000000000000")

	_, err := f.svc.Create(context.Background(), 7, req)
	fields := mdshared.FieldErrors(err)
	assert.Equal(t, "Quantity must be at most 10000", fields["items.0.quantity"])
	assert.Equal(t, "Price must be at most 999999999999.99", fields["items.1.price"])
	assert.Contains(t, fields, "amount_tendered")
	assert.Zero(t, f.repo.commits)
}

func TestCreateRejectsCartAboveColumnRange(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.Items = []LineInput{{ProductID: 1, Quantity: MaxLineQuantity, Price: dec("999999999999")}}
	req.AmountTendered = MaxAmount

	_, err := f.svc.Create(context.Background(), 7, req)
	assert.Contains(t, mdshared.FieldErrors(err)["items"], "Cart total must be at most")
	assert.Empty(t, f.repo.transactions)
}

func TestCreateReportsUnknownReferences(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.Items[1].ProductID = 99
	req.DiscountID = ptr(42)
	req.PaymentMethodID = 9

	_, err := f.svc.Create(context.Background(), 7, req)
	fields := mdshared.FieldErrors(err)
	assert.Contains(t, fields, "items.1.product_id")
	assert.NotContains(t, fields, "items.0.product_id")
	assert.Contains(t, fields, "discount_id")
	assert.Contains(t, fields, "payment_method_id")
	assert.Empty(t, f.repo.transactions)
}

func TestCreateRequiresOperator(t *testing.T) {
	f := newFixture(StockPolicyNone)
	_, err := f.svc.Create(context.Background(), 0, scenarioRequest())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateRollsBackWhenItemsFail(t *testing.T) {
	f := newFixture(StockPolicyDecrement)
	f.repo.insertItemsErr = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), 7, scenarioRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.repo.transactions, "header must not survive an item failure")
	assert.Equal(t, 10, f.repo.products[1].Stock)
	assert.Zero(t, f.bumps.n)
	assert.Equal(t, 1, f.outcomes[OutcomeFailed])
}

func TestCreateSideEffectFailuresDoNotFailCheckout(t *testing.T) {
	f := newFixture(StockPolicyNone)
	f.notifier.err = errors.New("redis down")

	_, err := f.svc.Create(context.Background(), 7, scenarioRequest())
	require.NoError(t, err)
	assert.Len(t, f.repo.transactions, 1)
}

// ============================================================================
// IDEMPOTENCY
// ============================================================================

func TestCreateReplaysIdempotencyKey(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.IdempotencyKey = "till-1-0001"

	first, err := f.svc.Create(context.Background(), 7, req)
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), 7, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.transactions, 1)
	assert.Equal(t, 1, f.outcomes[OutcomeReplayed])
	assert.Equal(t, 1, f.bumps.n)
}

func TestCreateResolvesConcurrentClaim(t *testing.T) {
	f := newFixture(StockPolicyNone)
	req := scenarioRequest()
	req.IdempotencyKey = "till-1-0002"
	winner := Transaction{ID: 500, TotalAmount: dec("250")}
	f.repo.claimConflictFn = func(m *mockRepository) {
		m.transactions[winner.ID] = winner
		m.keys[req.IdempotencyKey] = winner.ID
	}

	got, err := f.svc.Create(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.ID)
	assert.Len(t, f.repo.transactions, 1)
}

// ============================================================================
// STOCK POLICY
// ============================================================================

func TestCreateDecrementsStock(t *testing.T) {
	f := newFixture(StockPolicyDecrement)

	_, err := f.svc.Create(context.Background(), 7, scenarioRequest())
	require.NoError(t, err)
	assert.Equal(t, 8, f.repo.products[1].Stock)
	assert.Equal(t, 2, f.repo.products[2].Stock)
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	f := newFixture(StockPolicyDecrement)
	req := scenarioRequest()
	req.Items = []LineInput{
		{ProductID: 2, Quantity: 2, Price: dec("50")},
		{ProductID: 2, Quantity: 2, Price: dec("50")},
	}
	req.AmountTendered = dec("200")

	_, err := f.svc.Create(context.Background(), 7, req)
	fields := mdshared.FieldErrors(err)
	assert.Equal(t, "Only 3 of Milk Frother in stock", fields["items.0.quantity"])
	assert.Equal(t, 3, f.repo.products[2].Stock)
	assert.Empty(t, f.repo.transactions)
}

func TestParseStockPolicy(t *testing.T) {
	assert.Equal(t, StockPolicyDecrement, ParseStockPolicy("decrement"))
	assert.Equal(t, StockPolicyNone, ParseStockPolicy(""))
	assert.Equal(t, StockPolicyNone, ParseStockPolicy("bogus"))
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(StockPolicyNone)
	ctx := context.Background()
	tx, err := f.svc.Create(ctx, 7, scenarioRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Restore(ctx, tx.ID), ErrNotFound, "restore of an active row")
	assert.ErrorIs(t, f.svc.ForceDelete(ctx, tx.ID), ErrNotFound, "purge of an active row")

	require.NoError(t, f.svc.Delete(ctx, tx.ID))
	_, err = f.svc.Get(ctx, tx.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	trashed, total, err := f.svc.ListTrashed(ctx, mdshared.ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, tx.ID, trashed[0].ID)

	require.NoError(t, f.svc.Restore(ctx, tx.ID))
	require.NoError(t, f.svc.Delete(ctx, tx.ID))
	require.NoError(t, f.svc.ForceDelete(ctx, tx.ID))
	assert.ErrorIs(t, f.svc.Restore(ctx, tx.ID), ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, 0), ErrNotFound)

	// create + delete + restore + delete + force delete
	assert.Equal(t, 5, f.bumps.n)
	actions := make([]string, 0, len(f.audit.logs))
	for _, l := range f.audit.logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, "transaction.force_delete")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
