package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceiptEmail mails the receipt of a completed sale.
	TaskReceiptEmail = "receipt:email"
	// TaskDashboardWarmup recomputes the dashboard into the cache.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup purges expired checkout idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReceiptEmailPayload identifies the sale and the recipient.
type ReceiptEmailPayload struct {
	TransactionID int64  `json:"transaction_id"`
	Email         string `json:"email"`
}

// NewReceiptEmailTask constructs a receipt email task.
func NewReceiptEmailTask(payload ReceiptEmailPayload) (*asynq.Task, error) {
	if payload.TransactionID <= 0 {
		return nil, fmt.Errorf("receipt email: invalid transaction id %d", payload.TransactionID)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptEmail, data, asynq.MaxRetry(5)), nil
}

// DashboardWarmupPayload carries the trigger source for logging.
type DashboardWarmupPayload struct {
	Source string `json:"source,omitempty"`
}

// NewDashboardWarmupTask constructs a dashboard warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data, asynq.MaxRetry(1)), nil
}

// NewIdempotencyCleanupTask constructs the key purge task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.MaxRetry(2))
}
