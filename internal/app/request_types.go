package app

import (
	"fmt"
	"time"

	"installment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest is the input for creating a new installment sale.
type CreateSaleRequest struct {
	CustomerName   string
	PhoneNumber    string
	Note           string // product description: model, memory, color
	AppleID        string
	Comment        string
	Currency       string
	TotalPrice     decimal.Decimal
	DownPayment    decimal.Decimal
	DurationMonths int
	StartDate      string // YYYY-MM-DD; empty means today
}

// terms converts the request into validated-ready sale terms, resolving the
// start date against the given clock.
func (r CreateSaleRequest) terms(now time.Time) (core.SaleTerms, error) {
	start := core.DayOf(now)
	if r.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return core.SaleTerms{}, fmt.Errorf("%w: start date %q is not YYYY-MM-DD", core.ErrValidation, r.StartDate)
		}
		start = parsed
	}
	return core.SaleTerms{
		CustomerName:   r.CustomerName,
		PhoneNumber:    r.PhoneNumber,
		Note:           r.Note,
		AppleID:        r.AppleID,
		Comment:        r.Comment,
		Currency:       core.Currency(r.Currency),
		TotalPrice:     r.TotalPrice,
		DownPayment:    r.DownPayment,
		DurationMonths: r.DurationMonths,
		StartDate:      start,
	}, nil
}
