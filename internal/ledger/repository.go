package ledger

import (
	"context"
	"time"

	"github.com/moneta-erp/moneta/internal/calendar"
)

// Store is the narrow query interface the engines depend on, so relational,
// embedded, and in-memory backends are interchangeable.
type Store interface {
	// Insert appends a transaction. The id must be unique.
	Insert(ctx context.Context, tx Transaction) error
	// Get loads one transaction by id, including soft-deleted rows,
	// or shared.ErrNotFound.
	Get(ctx context.Context, id string) (Transaction, error)
	// FindInRange returns non-deleted transactions with TransactionAt in
	// [start, endExclusive) matching the scope, ordered by TransactionAt.
	FindInRange(ctx context.Context, scope Scope, start, endExclusive time.Time) ([]Transaction, error)
	// CountByAccountingDate counts all transactions attributed to the
	// accounting date, soft-deleted included, so sequence numbers stay
	// monotonic after deletions.
	CountByAccountingDate(ctx context.Context, date calendar.Date) (int, error)
	// SoftDelete flags a transaction deleted, keeping it for audit. Returns
	// shared.ErrNotFound for an unknown or already deleted id.
	SoftDelete(ctx context.Context, id, actorID string) error
}
