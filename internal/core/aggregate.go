package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// dueSoonWindowDays is the inclusive window for the due-soon classification.
const dueSoonWindowDays = 5

// Severity classifies how urgent an unpaid installment is relative to today.
type Severity string

const (
	SeverityOverdue   Severity = "overdue"
	SeverityDueSoon   Severity = "due_soon"
	SeverityScheduled Severity = "scheduled"
)

// DueInfo describes the earliest unpaid installment of a sale.
type DueInfo struct {
	Installment Installment `json:"installment"`
	Index       int         `json:"index"`
	Severity    Severity    `json:"severity"`
}

// Aggregate is the derived view of a sale's repayment progress. It is never
// persisted; every display recomputes it from the sale and its schedule.
type Aggregate struct {
	TotalPaid       decimal.Decimal `json:"total_paid"`
	Remaining       decimal.Decimal `json:"remaining"`
	PercentComplete int             `json:"percent_complete"`
	// NextDue is nil when no unpaid installments remain.
	NextDue *DueInfo `json:"next_due,omitempty"`
}

// Recompute derives totals from a sale and its schedule as of the given day.
// TotalPaid = down payment + sum of paid amounts of paid installments.
// PercentComplete is rounded and clamped to [0,100] even on overpayment.
// Pure and idempotent.
func Recompute(sale *Sale, today time.Time) Aggregate {
	totalPaid := sale.DownPayment
	for _, inst := range sale.Installments {
		if inst.Paid {
			totalPaid = totalPaid.Add(inst.PaidAmount)
		}
	}

	remaining := sale.TotalPrice.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	percent := 0
	if sale.TotalPrice.IsPositive() {
		p := totalPaid.Mul(decimal.NewFromInt(100)).Div(sale.TotalPrice).Round(0).IntPart()
		if p < 0 {
			p = 0
		}
		if p > 100 {
			p = 100
		}
		percent = int(p)
	}

	return Aggregate{
		TotalPaid:       totalPaid,
		Remaining:       remaining,
		PercentComplete: percent,
		NextDue:         nextDue(sale.Installments, today),
	}
}

// nextDue finds the earliest unpaid installment by expected date and
// classifies it against today at day granularity.
func nextDue(installments []Installment, today time.Time) *DueInfo {
	found := -1
	for idx, inst := range installments {
		if inst.Paid {
			continue
		}
		if found < 0 || inst.ExpectedDate.Before(installments[found].ExpectedDate) {
			found = idx
		}
	}
	if found < 0 {
		return nil
	}
	inst := installments[found]
	return &DueInfo{
		Installment: inst.Clone(),
		Index:       found,
		Severity:    ClassifyDue(inst.ExpectedDate, today),
	}
}

// ClassifyDue compares an expected date to today at day granularity:
// overdue when past, due-soon within 5 days inclusive, scheduled beyond.
func ClassifyDue(expected, today time.Time) Severity {
	day := DayOf(expected)
	ref := DayOf(today)
	switch {
	case day.Before(ref):
		return SeverityOverdue
	case !day.After(ref.AddDate(0, 0, dueSoonWindowDays)):
		return SeverityDueSoon
	default:
		return SeverityScheduled
	}
}

// SaleStatus is the coarse repayment state shown on sale listings.
type SaleStatus string

const (
	SaleStatusClosed     SaleStatus = "closed"
	SaleStatusInProgress SaleStatus = "in_progress"
	SaleStatusNotStarted SaleStatus = "not_started"
)

// Status classifies the sale from its aggregate: closed once fully paid,
// in progress after any payment, not started otherwise.
func (s *Sale) Status(today time.Time) SaleStatus {
	agg := Recompute(s, today)
	switch {
	case s.TotalPrice.IsPositive() && agg.TotalPaid.GreaterThanOrEqual(s.TotalPrice):
		return SaleStatusClosed
	case agg.TotalPaid.IsPositive():
		return SaleStatusInProgress
	default:
		return SaleStatusNotStarted
	}
}

// DashboardStats are the cross-sale totals shown on the dashboard.
type DashboardStats struct {
	TotalDebt      decimal.Decimal `json:"total_debt"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	Customers      int             `json:"customers"`
	PendingSales   int             `json:"pending_sales"`
}

// ComputeDashboard derives dashboard totals across all sales. Customers are
// counted by unique phone number.
func ComputeDashboard(sales []Sale, today time.Time) DashboardStats {
	stats := DashboardStats{
		TotalDebt:      decimal.Zero,
		TotalCollected: decimal.Zero,
	}
	phones := make(map[string]struct{})
	for idx := range sales {
		sale := &sales[idx]
		phones[sale.PhoneNumber] = struct{}{}
		agg := Recompute(sale, today)
		stats.TotalCollected = stats.TotalCollected.Add(agg.TotalPaid)
		if agg.Remaining.IsPositive() {
			stats.TotalDebt = stats.TotalDebt.Add(agg.Remaining)
			stats.PendingSales++
		}
	}
	stats.Customers = len(phones)
	return stats
}

// SortInstallments orders a schedule by expected date ascending, the
// canonical order installments are stored in on a sale.
func SortInstallments(installments []Installment) {
	sort.SliceStable(installments, func(i, j int) bool {
		return installments[i].ExpectedDate.Before(installments[j].ExpectedDate)
	})
}
