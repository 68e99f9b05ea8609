package app

import (
	"context"
	"sort"
	"time"

	"installment-tracker/internal/cache"
	"installment-tracker/internal/core"
	"installment-tracker/internal/remote"
	"installment-tracker/internal/syncer"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type appService struct {
	store remote.Store
	coord *syncer.Coordinator
	cache *cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(store remote.Store, coord *syncer.Coordinator, c *cache.Cache, log *zap.Logger) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		store: store,
		coord: coord,
		cache: c,
		log:   log,
		now:   time.Now,
	}
}

// SignIn exchanges credentials for a session token retained by the client.
func (s *appService) SignIn(ctx context.Context, username, password string) syncer.Outcome {
	if _, err := s.store.SignIn(ctx, username, password); err != nil {
		s.log.Warn("sign-in failed", zap.String("username", username), zap.Error(err))
		return syncer.Classify(err)
	}
	s.log.Info("signed in", zap.String("username", username))
	return syncer.Classify(nil)
}

// SignOut drops the session token.
func (s *appService) SignOut() {
	s.store.SignOut()
	s.log.Info("signed out")
}

// RefreshSales fetches the authoritative sale listing into the local view.
func (s *appService) RefreshSales(ctx context.Context) syncer.Outcome {
	return s.coord.RefreshList(ctx)
}

// ListSales returns cached sales filtered by customer name or phone number.
func (s *appService) ListSales(search string) *SaleListResult {
	sales := s.cache.Search(search)
	today := s.now()
	views := make([]SaleView, 0, len(sales))
	for i := range sales {
		views = append(views, s.view(&sales[i], today))
	}
	return &SaleListResult{Sales: views, Total: len(views)}
}

// GetSale returns the cached sale with derived aggregates.
func (s *appService) GetSale(id int64) (*SaleView, bool) {
	sale, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	view := s.view(sale, s.now())
	return &view, true
}

// LoadSale re-fetches one sale from the remote store before returning it.
func (s *appService) LoadSale(ctx context.Context, id int64) (*SaleView, syncer.Outcome) {
	sale, out := s.coord.LoadSale(ctx, id)
	if !out.OK() {
		return nil, out
	}
	view := s.view(sale, s.now())
	return &view, out
}

// CreateSale validates the request and creates the sale remotely.
func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (int64, syncer.Outcome) {
	terms, err := req.terms(s.now())
	if err != nil {
		return 0, syncer.Classify(err)
	}
	return s.coord.CreateSale(ctx, terms)
}

// UpdateSale persists scalar field edits, leaving the schedule untouched.
func (s *appService) UpdateSale(ctx context.Context, id int64, patch core.SaleFieldPatch) syncer.Outcome {
	return s.coord.UpdateSaleFields(ctx, id, patch)
}

// DeleteSale removes the sale and its schedule remotely and locally.
func (s *appService) DeleteSale(ctx context.Context, id int64) syncer.Outcome {
	return s.coord.DeleteSale(ctx, id)
}

// GenerateSchedule derives and persists the installment schedule for a sale.
func (s *appService) GenerateSchedule(ctx context.Context, id int64) syncer.Outcome {
	return s.coord.GenerateSchedule(ctx, id)
}

// ToggleInstallment flips an installment's paid state locally.
func (s *appService) ToggleInstallment(saleID, installmentID int64) syncer.Outcome {
	return s.coord.ToggleInstallment(saleID, installmentID)
}

// SetInstallmentAmount stages a per-installment amount override locally.
func (s *appService) SetInstallmentAmount(saleID, installmentID int64, amount decimal.Decimal) syncer.Outcome {
	return s.coord.SetInstallmentAmount(saleID, installmentID, amount)
}

// SavePayments persists all pending payment edits of one sale.
func (s *appService) SavePayments(ctx context.Context, saleID int64) syncer.Outcome {
	return s.coord.CommitPaymentEdits(ctx, saleID)
}

// Dashboard derives cross-sale totals from the cached listing.
func (s *appService) Dashboard() *DashboardResult {
	sales := s.cache.List()
	today := s.now()
	attention := make([]PaymentDue, 0)
	for i := range sales {
		agg := core.Recompute(&sales[i], today)
		if agg.NextDue == nil || agg.NextDue.Severity == core.SeverityScheduled {
			continue
		}
		attention = append(attention, PaymentDue{
			SaleID:       sales[i].ID,
			CustomerName: sales[i].CustomerName,
			PhoneNumber:  sales[i].PhoneNumber,
			Installment:  agg.NextDue.Installment,
			Severity:     agg.NextDue.Severity,
		})
	}
	sortByDueDate(attention)
	return &DashboardResult{
		Stats:     core.ComputeDashboard(sales, today),
		Attention: attention,
	}
}

// ListPayments flattens every unpaid installment across cached sales.
func (s *appService) ListPayments() *PaymentListResult {
	sales := s.cache.List()
	today := s.now()
	result := &PaymentListResult{Payments: make([]PaymentDue, 0)}
	for i := range sales {
		sale := &sales[i]
		for _, inst := range sale.Installments {
			if inst.Paid {
				continue
			}
			severity := core.ClassifyDue(inst.ExpectedDate, today)
			switch severity {
			case core.SeverityOverdue:
				result.Overdue++
			case core.SeverityDueSoon:
				result.DueSoon++
			}
			result.Payments = append(result.Payments, PaymentDue{
				SaleID:       sale.ID,
				CustomerName: sale.CustomerName,
				PhoneNumber:  sale.PhoneNumber,
				Installment:  inst.Clone(),
				Severity:     severity,
			})
		}
	}
	sortByDueDate(result.Payments)
	return result
}

func (s *appService) view(sale *core.Sale, today time.Time) SaleView {
	return SaleView{
		Sale:      *sale,
		Aggregate: core.Recompute(sale, today),
		Status:    sale.Status(today),
	}
}

func sortByDueDate(payments []PaymentDue) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Installment.ExpectedDate.Before(payments[j].Installment.ExpectedDate)
	})
}
