package remote

import (
	"context"
	"errors"
	"fmt"

	"installment-tracker/internal/core"
)

// Store is the remote persistence contract the sync coordinator consumes.
// The remote store is authoritative but latency-prone; it assigns IDs and may
// lag behind local optimistic edits. Implementations return *RemoteError for
// every remote-side failure so callers can classify it.
type Store interface {
	// SignIn exchanges credentials for a bearer token retained for the
	// session. Every other call fails with an auth error until it succeeds.
	SignIn(ctx context.Context, username, password string) (string, error)
	// SignOut drops the session credential locally.
	SignOut()

	CreateSale(ctx context.Context, terms core.SaleTerms) (*core.Sale, error)
	// ListSales returns sales with embedded schedules, avoiding per-sale
	// fetches.
	ListSales(ctx context.Context, page, size int, sort string) ([]core.Sale, error)
	// GetSale returns the authoritative sale plus schedule; used when a
	// detail view needs guaranteed freshness.
	GetSale(ctx context.Context, id int64) (*core.Sale, error)
	// UpdateSale persists scalar sale fields. The outgoing payload never
	// carries the schedule: the sale-level update path must not be relied
	// upon for installment changes.
	UpdateSale(ctx context.Context, sale *core.Sale) (*core.Sale, error)
	DeleteSale(ctx context.Context, id int64) error

	CreateInstallment(ctx context.Context, inst core.Installment) (*core.Installment, error)
	UpdateInstallment(ctx context.Context, inst core.Installment) (*core.Installment, error)
}

// Kind classifies a remote failure into the three caller-visible buckets.
type Kind string

const (
	// KindAuth: missing or expired credential. Surfaced as a
	// sign-in-again signal.
	KindAuth Kind = "auth"
	// KindUnavailable: network failure, timeout, or server fault.
	// Recoverable — local state is untouched and the caller may retry.
	KindUnavailable Kind = "unavailable"
	// KindRejected: the server refused the request. Carries the
	// server-provided reason verbatim. Not retryable as-is.
	KindRejected Kind = "rejected"
)

// RemoteError is the single error type crossing the remote boundary.
type RemoteError struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote store %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote store %s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is a RemoteError of the given kind.
func IsKind(err error, kind Kind) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == kind
}
