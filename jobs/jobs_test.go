package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-pos/odyssey-pos/internal/jobs"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/transactions"
)

type fakeLoader struct {
	tr  transactions.Transaction
	err error
}

func (f fakeLoader) Get(context.Context, int64) (transactions.Transaction, error) {
	return f.tr, f.err
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func sampleTransaction() transactions.Transaction {
	return transactions.Transaction{
		ID:                42,
		CustomerName:      "Rina",
		CustomerEmail:     "rina@example.com",
		PaymentMethodName: "Cash",
		AmountTendered:    decimal.RequireFromString("100000"),
		ChangeDue:         decimal.RequireFromString("10000"),
		TotalAmount:       decimal.RequireFromString("90000"),
		CreatedAt:         time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Discount:          &transactions.DiscountRule{ID: 1, Name: "Promo"},
		Items: []transactions.Item{
			{ProductName: "Coffee", Quantity: 2, Price: decimal.RequireFromString("50000")},
		},
	}
}

func receiptTask(t *testing.T, id int64, email string) *asynq.Task {
	t.Helper()
	task, err := NewReceiptEmailTask(ReceiptEmailPayload{TransactionID: id, Email: email})
	require.NoError(t, err)
	return task
}

func TestNewReceiptEmailTaskRejectsInvalidID(t *testing.T) {
	_, err := NewReceiptEmailTask(ReceiptEmailPayload{})
	assert.Error(t, err)

	task := receiptTask(t, 7, "a@b.c")
	assert.Equal(t, TaskReceiptEmail, task.Type())
	var payload ReceiptEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(7), payload.TransactionID)
}

func TestReceiptEmailJobSendsReceipt(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	mailer := &fakeMailer{}
	job := &ReceiptEmailJob{Transactions: fakeLoader{tr: sampleTransaction()}, Mailer: mailer, StoreName: "Kopi Kita", Metrics: metrics}

	require.NoError(t, job.Handle(context.Background(), receiptTask(t, 42, "")))
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "rina@example.com", msg.To)
	assert.Equal(t, "Your receipt from Kopi Kita (#42)", msg.Subject)
	assert.Contains(t, msg.Body, "Coffee")
	assert.Contains(t, msg.Body, "Discount (Promo)")
	assert.Contains(t, msg.Body, "Paid (Cash)")
}

func TestReceiptEmailJobSkips(t *testing.T) {
	t.Run("missing transaction", func(t *testing.T) {
		mailer := &fakeMailer{}
		job := &ReceiptEmailJob{Transactions: fakeLoader{err: transactions.ErrNotFound}, Mailer: mailer, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}
		assert.NoError(t, job.Handle(context.Background(), receiptTask(t, 1, "x@y.z")))
		assert.Empty(t, mailer.sent)
	})
	t.Run("no recipient", func(t *testing.T) {
		tr := sampleTransaction()
		tr.CustomerEmail = ""
		mailer := &fakeMailer{}
		job := &ReceiptEmailJob{Transactions: fakeLoader{tr: tr}, Mailer: mailer, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}
		assert.NoError(t, job.Handle(context.Background(), receiptTask(t, 1, "")))
		assert.Empty(t, mailer.sent)
	})
}

func TestReceiptEmailJobPropagatesErrors(t *testing.T) {
	boom := errors.New("relay down")
	job := &ReceiptEmailJob{Transactions: fakeLoader{tr: sampleTransaction()}, Mailer: &fakeMailer{err: boom}, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}
	assert.ErrorIs(t, job.Handle(context.Background(), receiptTask(t, 42, "")), boom)

	bad := asynq.NewTask(TaskReceiptEmail, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)
}

func TestSMTPMailerComposesMessage(t *testing.T) {
	var gotAddr string
	var gotMsg []byte
	m := NewSMTPMailer("mail.local", 1025, "pos@example.com")
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		assert.Equal(t, "pos@example.com", from)
		assert.Equal(t, []string{"rina@example.com"}, to)
		return nil
	}
	require.NoError(t, m.Send(context.Background(), Message{To: "rina@example.com", Subject: "Hi", Body: "a\nb"}))
	assert.Equal(t, "mail.local:1025", gotAddr)
	body := string(gotMsg)
	assert.True(t, strings.HasPrefix(body, "From: pos@example.com\r\n"))
	assert.Contains(t, body, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(body, "\r\n\r\na\r\nb"))

	assert.Error(t, m.Send(context.Background(), Message{To: "x@y.z\r\nBcc: evil@y.z"}))
}

type fakeWarmer struct {
	calls int
	err   error
}

func (f *fakeWarmer) Warm(ctx context.Context) error {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	return f.err
}

func TestDashboardWarmupJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	warmer := &fakeWarmer{}
	job := &DashboardWarmupJob{Dashboard: warmer, Metrics: metrics}

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Source: "posctl"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, warmer.calls)

	warmer.err = errors.New("db down")
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
	assert.Equal(t, 2, warmer.calls)

	count, err := testutil.GatherAndCount(reg, "pos_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthHandler(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec
	}

	rec := serve(NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"archived":0,"processed":0,"failed":0}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Failed: 1}}, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var out queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 3, out.Pending)
	assert.Equal(t, 1, out.Failed)

	rec = serve(NewHandler(fakeInspector{err: errors.New("redis down")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakeQuerier struct {
	sql  string
	args []any
	err  error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return pgconn.NewCommandTag("DELETE 3"), f.err
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestIdempotencyCleanupJob(t *testing.T) {
	q := &fakeQuerier{}
	job := &IdempotencyCleanupJob{Store: shared.NewIdempotencyStore(), DB: q, Metrics: jobmetrics.NewMetrics(prometheus.NewRegistry())}

	require.NoError(t, job.Handle(context.Background(), NewIdempotencyCleanupTask()))
	assert.Contains(t, q.sql, "DELETE FROM idempotency_keys")
	assert.Equal(t, []any{DefaultIdempotencyRetentionDays}, q.args)

	q.err = errors.New("timeout")
	assert.Error(t, job.Handle(context.Background(), NewIdempotencyCleanupTask()))
}
