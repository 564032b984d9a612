package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a key while its first request is in flight
	IdempotencyPending = "processing"

	// ReconciliationPageSize is how many stores a report scans per page
	ReconciliationPageSize = 500
)

// Operation names reported to observers and traces.
const (
	OpRestock     = "restock"
	OpSale        = "sale"
	OpChangeState = "change_state"
	OpCreateStore = "create_store"
)
