package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-pos/odyssey-pos/internal/jobs"
	"github.com/odyssey-pos/odyssey-pos/internal/transactions"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// TransactionLoader reads a completed sale.
type TransactionLoader interface {
	Get(ctx context.Context, id int64) (transactions.Transaction, error)
}

// ReceiptEmailJob mails the receipt of a sale to the customer.
type ReceiptEmailJob struct {
	Transactions TransactionLoader
	Mailer       Mailer
	StoreName    string
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// Handle processes TaskReceiptEmail tasks.
func (j *ReceiptEmailJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Transactions == nil || j.Mailer == nil {
		return errors.New("receipt email: handler not configured")
	}
	var payload ReceiptEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("receipt email payload: %v: %w", err, asynq.SkipRetry)
	}

	metrics := j.metrics()
	tracker := metrics.Track(TaskReceiptEmail)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	logger := jobLogger(j.Logger, TaskReceiptEmail).With(slog.Int64("transaction_id", payload.TransactionID))

	tr, err := j.Transactions.Get(ctx, payload.TransactionID)
	if errors.Is(err, transactions.ErrNotFound) {
		metrics.Skip(TaskReceiptEmail, "not_found")
		logger.Warn("receipt email skipped: transaction missing")
		return nil
	}
	if err != nil {
		logger.Error("load transaction", slog.Any("error", err))
		return err
	}
	to := strings.TrimSpace(payload.Email)
	if to == "" {
		to = tr.CustomerEmail
	}
	if to == "" {
		metrics.Skip(TaskReceiptEmail, "no_email")
		logger.Info("receipt email skipped: no recipient")
		return nil
	}

	if err := j.Mailer.Send(ctx, ReceiptMessage(j.storeName(), to, tr)); err != nil {
		logger.Error("send receipt email", slog.Any("error", err))
		return err
	}
	logger.Info("receipt email sent", slog.String("to", to))
	return nil
}

// ReceiptMessage renders the plain-text receipt for tr.
func ReceiptMessage(store, to string, tr transactions.Transaction) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nThank you for shopping at %s.\n\n", tr.CustomerName, store)
	fmt.Fprintf(&b, "Receipt #%d\n%s\n\n", tr.ID, tr.CreatedAt.Format("02 Jan 2006 15:04"))
	for _, it := range tr.Items {
		fmt.Fprintf(&b, "%-24s %3d x %12s = %12s\n", it.ProductName, it.Quantity, view.FormatMoney(it.Price), view.FormatMoney(it.LineTotal()))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", view.FormatMoney(tr.Subtotal()))
	if tr.Discount != nil {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", tr.Discount.Name, view.FormatMoney(tr.DiscountAmount()))
	}
	fmt.Fprintf(&b, "Total: %s\n", view.FormatMoney(tr.TotalAmount))
	fmt.Fprintf(&b, "Paid (%s): %s\n", tr.PaymentMethodName, view.FormatMoney(tr.AmountTendered))
	fmt.Fprintf(&b, "Change: %s\n", view.FormatMoney(tr.ChangeDue))
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your receipt from %s (#%d)", store, tr.ID),
		Body:    b.String(),
	}
}

func (j *ReceiptEmailJob) storeName() string {
	if j.StoreName != "" {
		return j.StoreName
	}
	return "Odyssey POS"
}

func (j *ReceiptEmailJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
