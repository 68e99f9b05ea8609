package app

import (
	"context"

	"installment-tracker/internal/core"
	"installment-tracker/internal/syncer"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web)
// call. It decouples presentation from business logic. Implementations must
// contain no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Methods that touch the remote store report a syncer.Outcome instead of a
// bare error; local reads and staged edits are synchronous and cannot fail
// with anything other than a stale reference.
type ApplicationService interface {
	// SignIn exchanges credentials for a session token retained internally.
	SignIn(ctx context.Context, username, password string) syncer.Outcome

	// SignOut drops the session token; remote operations fail with an
	// unauthenticated outcome until the next SignIn.
	SignOut()

	// RefreshSales fetches the authoritative sale listing into the local view.
	RefreshSales(ctx context.Context) syncer.Outcome

	// ListSales returns the cached sales, newest first, filtered by customer
	// name or phone number when search is non-empty. Aggregates are derived
	// on the fly.
	ListSales(search string) *SaleListResult

	// GetSale returns the cached sale with derived aggregates.
	GetSale(id int64) (*SaleView, bool)

	// LoadSale re-fetches one sale from the remote store before returning it;
	// use when the detail view needs guaranteed freshness.
	LoadSale(ctx context.Context, id int64) (*SaleView, syncer.Outcome)

	// CreateSale validates the request and creates the sale remotely. The
	// returned ID is the store-assigned one.
	CreateSale(ctx context.Context, req CreateSaleRequest) (int64, syncer.Outcome)

	// UpdateSale persists scalar field edits, leaving the schedule untouched.
	UpdateSale(ctx context.Context, id int64, patch core.SaleFieldPatch) syncer.Outcome

	// DeleteSale removes the sale and its schedule remotely and locally.
	DeleteSale(ctx context.Context, id int64) syncer.Outcome

	// GenerateSchedule derives and persists the installment schedule for a
	// sale that does not have one yet. Retries replace, never duplicate.
	GenerateSchedule(ctx context.Context, id int64) syncer.Outcome

	// ToggleInstallment flips an installment's paid state locally. Nothing
	// reaches the remote store until SavePayments.
	ToggleInstallment(saleID, installmentID int64) syncer.Outcome

	// SetInstallmentAmount stages a per-installment amount override locally.
	SetInstallmentAmount(saleID, installmentID int64, amount decimal.Decimal) syncer.Outcome

	// SavePayments persists all pending payment edits of one sale.
	SavePayments(ctx context.Context, saleID int64) syncer.Outcome

	// Dashboard derives cross-sale totals from the cached listing.
	Dashboard() *DashboardResult

	// ListPayments flattens every unpaid installment across cached sales into
	// a due list ordered by expected date, overdue first.
	ListPayments() *PaymentListResult
}
