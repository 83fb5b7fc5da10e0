package transactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	mdshared "github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// ReceiptNotifier queues the receipt email for a completed sale.
type ReceiptNotifier interface {
	EnqueueReceiptEmail(ctx context.Context, transactionID int64, email string) error
}

// CheckoutObserver records checkout outcomes and amounts.
type CheckoutObserver interface {
	ObserveCheckout(outcome string, total float64)
}

// Checkout outcomes reported to CheckoutObserver.
const (
	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Deps are the optional collaborators of Service. Nil fields are skipped.
type Deps struct {
	Logger      *slog.Logger
	Audit       shared.AuditRecorder
	Invalidator mdshared.Invalidator
	Notifier    ReceiptNotifier
	Metrics     CheckoutObserver
	StockPolicy StockPolicy
}

// Service implements checkout and the transaction lifecycle.
type Service struct {
	repo Repository
	deps Deps
}

// NewService constructs a transactions service.
func NewService(repo Repository, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.StockPolicy == "" {
		deps.StockPolicy = StockPolicyNone
	}
	return &Service{repo: repo, deps: deps}
}

var requestLabels = map[string]string{
	"items":             "Cart",
	"product_id":        "Product",
	"quantity":          "Quantity",
	"customer_name":     "Customer name",
	"customer_email":    "Customer email",
	"discount_id":       "Discount",
	"payment_method_id": "Payment method",
	"idempotency_key":   "Idempotency key",
}

// ============================================================================
// CHECKOUT
// ============================================================================

// Create validates the cart, derives the totals and persists the transaction
// with its items atomically. A repeated idempotency key returns the
// transaction created by the first request.
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (Transaction, error) {
	if userID <= 0 {
		return Transaction{}, ErrUnauthenticated
	}
	req = normalizeRequest(req)
	if err := validateRequest(req); err != nil {
		s.observe(OutcomeRejected, decimal.Zero)
		return Transaction{}, err
	}

	if req.IdempotencyKey != "" {
		if existing, ok, err := s.replay(ctx, req.IdempotencyKey); err != nil || ok {
			return existing, err
		}
	}

	var created Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if req.IdempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
				return err
			}
		}
		var err error
		created, err = s.checkout(ctx, tx, userID, req)
		if err != nil {
			return err
		}
		if req.IdempotencyKey != "" {
			return tx.BindIdempotencyKey(ctx, req.IdempotencyKey, created.ID)
		}
		return nil
	})
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		// A concurrent request with the same key committed first.
		if existing, ok, rerr := s.replay(ctx, req.IdempotencyKey); rerr != nil || ok {
			return existing, rerr
		}
	}
	if err != nil {
		if errors.Is(err, ErrValidation) {
			s.observe(OutcomeRejected, decimal.Zero)
			return Transaction{}, err
		}
		s.observe(OutcomeFailed, decimal.Zero)
		return Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.afterCreate(ctx, created)
	return created, nil
}

func (s *Service) checkout(ctx context.Context, tx TxRepository, userID int64, req CreateRequest) (Transaction, error) {
	ve := newValidationError()
	lock := s.deps.StockPolicy == StockPolicyDecrement

	products, err := tx.ActiveProducts(ctx, productIDs(req.Items), lock)
	if err != nil {
		return Transaction{}, err
	}
	for i, line := range req.Items {
		if _, ok := products[line.ProductID]; !ok {
			ve.Add(lineKey(i, "product_id"), "Selected product does not exist")
		}
	}

	var rule *DiscountRule
	if req.DiscountID != nil {
		d, err := tx.Discount(ctx, *req.DiscountID)
		switch {
		case errors.Is(err, ErrNotFound):
			ve.Add("discount_id", "Selected discount does not exist")
		case err != nil:
			return Transaction{}, err
		default:
			rule = &d
		}
	}

	methodName, err := tx.PaymentMethodName(ctx, req.PaymentMethodID)
	switch {
	case errors.Is(err, ErrNotFound):
		ve.Add("payment_method_id", "Selected payment method does not exist")
	case err != nil:
		return Transaction{}, err
	}

	if !ve.Empty() {
		return Transaction{}, ve
	}

	totals := ComputeTotals(req.Items, rule, req.AmountTendered)
	if totals.Subtotal.GreaterThan(MaxAmount) {
		ve.Add("items", "Cart total must be at most "+MaxAmount.StringFixed(2))
		return Transaction{}, ve
	}
	if !totals.Covered() {
		ve.Add("amount_tendered", "Amount tendered must cover the total of "+totals.Total.StringFixed(2))
		return Transaction{}, ve
	}
	s.reconcile(req, totals)

	if lock {
		if err := s.decrementStock(ctx, tx, req.Items, products, ve); err != nil {
			return Transaction{}, err
		}
	}

	t := Transaction{
		UserID:            userID,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		DiscountID:        req.DiscountID,
		Discount:          rule,
		PaymentMethodID:   req.PaymentMethodID,
		PaymentMethodName: methodName,
		AmountTendered:    totals.Tendered,
		ChangeDue:         totals.Change,
		TotalAmount:       totals.Total,
	}
	t.ID, t.CreatedAt, err = tx.InsertTransaction(ctx, t)
	if err != nil {
		return Transaction{}, err
	}

	t.Items = make([]Item, len(req.Items))
	for i, line := range req.Items {
		t.Items[i] = Item{
			TransactionID: t.ID,
			ProductID:     line.ProductID,
			ProductName:   products[line.ProductID].Name,
			Quantity:      line.Quantity,
			Price:         line.Price,
		}
	}
	if err := tx.InsertItems(ctx, t.ID, t.Items); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// decrementStock checks the locked stock for every product in the cart,
// summing quantities of repeated lines, and reduces it.
func (s *Service) decrementStock(ctx context.Context, tx TxRepository, lines []LineInput, products map[int64]ProductRef, ve *ValidationError) error {
	wanted := make(map[int64]int, len(lines))
	for _, l := range lines {
		wanted[l.ProductID] += l.Quantity
	}
	for i, l := range lines {
		p := products[l.ProductID]
		if wanted[l.ProductID] > p.Stock {
			ve.Add(lineKey(i, "quantity"), "Only "+strconv.Itoa(p.Stock)+" of "+p.Name+" in stock")
		}
	}
	if !ve.Empty() {
		return ve
	}
	for _, id := range productIDs(lines) {
		if err := tx.DecrementStock(ctx, id, wanted[id]); err != nil {
			return err
		}
	}
	return nil
}

// reconcile logs client-submitted totals that disagree with the derived ones.
// The derived values are always the ones persisted.
func (s *Service) reconcile(req CreateRequest, totals Totals) {
	if differs(req.TotalAmount, totals.Total) || differs(req.ChangeDue, totals.Change) {
		s.deps.Logger.Warn("client totals overridden",
			slog.String("client_total", req.TotalAmount.String()),
			slog.String("total", totals.Total.String()),
			slog.String("client_change", req.ChangeDue.String()),
			slog.String("change", totals.Change.String()),
		)
	}
}

func (s *Service) replay(ctx context.Context, key string) (Transaction, bool, error) {
	id, err := s.repo.LookupIdempotent(ctx, key)
	if errors.Is(err, shared.ErrNotFound) {
		return Transaction{}, false, nil
	}
	if err != nil {
		return Transaction{}, false, fmt.Errorf("lookup idempotency key: %w", err)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, false, fmt.Errorf("load replayed transaction: %w", err)
	}
	s.observe(OutcomeReplayed, t.TotalAmount)
	return t, true, nil
}

func (s *Service) afterCreate(ctx context.Context, t Transaction) {
	s.observe(OutcomeCreated, t.TotalAmount)
	logger := s.deps.Logger.With(slog.Int64("transaction_id", t.ID))

	if s.deps.Audit != nil {
		err := s.deps.Audit.Record(ctx, shared.AuditLog{
			ActorID:  t.UserID,
			Action:   "transaction.create",
			Entity:   "transaction",
			EntityID: strconv.FormatInt(t.ID, 10),
			Meta: map[string]any{
				"total_amount": t.TotalAmount.StringFixed(2),
				"items":        len(t.Items),
			},
		})
		if err != nil {
			logger.Warn("audit checkout", slog.Any("error", err))
		}
	}
	s.bump(ctx)
	if s.deps.Notifier != nil && t.CustomerEmail != "" {
		if err := s.deps.Notifier.EnqueueReceiptEmail(ctx, t.ID, t.CustomerEmail); err != nil {
			logger.Warn("enqueue receipt email", slog.Any("error", err))
		}
	}
	logger.Info("transaction created", slog.Int64("user_id", t.UserID), slog.String("total", t.TotalAmount.StringFixed(2)))
}

func (s *Service) observe(outcome string, total decimal.Decimal) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveCheckout(outcome, total.InexactFloat64())
	}
}

func (s *Service) bump(ctx context.Context) {
	if s.deps.Invalidator == nil {
		return
	}
	if err := s.deps.Invalidator.Bump(ctx); err != nil {
		s.deps.Logger.Warn("invalidate dashboard cache", slog.Any("error", err))
	}
}

// ============================================================================
// READS & LIFECYCLE
// ============================================================================

// List returns active transactions, newest first.
func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Transaction, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

// ListTrashed returns soft-deleted transactions.
func (s *Service) ListTrashed(ctx context.Context, filters mdshared.ListFilters) ([]Transaction, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

// Get returns an active transaction with its items.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Delete soft-deletes an active transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.lifecycle(ctx, id, "transaction.delete", s.repo.SoftDelete)
}

// Restore returns a trashed transaction to the active set.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.lifecycle(ctx, id, "transaction.restore", s.repo.Restore)
}

// ForceDelete purges a trashed transaction and its items.
func (s *Service) ForceDelete(ctx context.Context, id int64) error {
	return s.lifecycle(ctx, id, "transaction.force_delete", s.repo.ForceDelete)
}

func (s *Service) lifecycle(ctx context.Context, id int64, action string, op func(context.Context, int64) error) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := op(ctx, id); err != nil {
		return err
	}
	if s.deps.Audit != nil {
		actor, _ := shared.CurrentUserID(ctx)
		if err := s.deps.Audit.Record(ctx, shared.AuditLog{
			ActorID:  actor,
			Action:   action,
			Entity:   "transaction",
			EntityID: strconv.FormatInt(id, 10),
		}); err != nil {
			s.deps.Logger.Warn("audit transaction lifecycle", slog.Any("error", err), slog.String("action", action))
		}
	}
	s.bump(ctx)
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func normalizeRequest(req CreateRequest) CreateRequest {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	return req
}

func validateRequest(req CreateRequest) error {
	ve := newValidationError()
	mdshared.ValidateStruct(ve, req, requestLabels)
	for i, line := range req.Items {
		checkAmount(ve, lineKey(i, "price"), "Price", line.Price)
	}
	checkAmount(ve, "amount_tendered", "Amount tendered", req.AmountTendered)
	checkAmount(ve, "change_due", "Change due", req.ChangeDue)
	checkAmount(ve, "total_amount", "Total amount", req.TotalAmount)
	return ve.Err()
}

func checkAmount(ve *ValidationError, key, label string, v decimal.Decimal) {
	switch {
	case v.IsNegative():
		ve.Add(key, label+" must be at least 0")
	case v.GreaterThan(MaxAmount):
		ve.Add(key, label+" must be at most "+MaxAmount.StringFixed(2))
	}
}

func lineKey(i int, field string) string {
	return "items." + strconv.Itoa(i) + "." + field
}

// productIDs returns the distinct product ids of the cart in first-seen order.
func productIDs(lines []LineInput) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
