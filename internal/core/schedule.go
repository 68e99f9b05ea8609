package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// GenerateSchedule produces the installment obligations for a sale: the
// remainder after the down payment split over durationMonths monthly
// installments, due dates one month apart starting one month after startDate.
//
// The split front-loads the remainder: base = floor(remaining/n), and the
// earliest (remaining mod n) installments carry one extra unit, so amounts
// differ by at most one unit and their sum equals remaining exactly. A
// sub-unit fraction of the remainder, if any, lands on the first installment
// to keep the sum exact.
//
// Pure function: persisting the result is the sync coordinator's job, as is
// guaranteeing at-most-one generation per sale.
func GenerateSchedule(totalPrice, downPayment decimal.Decimal, durationMonths int, startDate time.Time) ([]Installment, error) {
	if durationMonths < 1 {
		return nil, fmt.Errorf("%w: duration must be at least 1 month, got %d", ErrInvalidSchedule, durationMonths)
	}
	if totalPrice.IsNegative() || downPayment.IsNegative() {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrInvalidSchedule)
	}
	if totalPrice.LessThan(downPayment) {
		return nil, fmt.Errorf("%w: total price %s is less than down payment %s",
			ErrInvalidSchedule, totalPrice, downPayment)
	}

	remaining := totalPrice.Sub(downPayment)
	n := decimal.NewFromInt(int64(durationMonths))
	base := remaining.Div(n).Floor()
	rem := remaining.Sub(base.Mul(n)) // in [0, n)
	extra := rem.Floor().IntPart()    // earliest installments carrying one extra unit
	frac := rem.Sub(rem.Floor())      // sub-unit leftover, attached to installment 0

	start := DayOf(startDate)
	installments := make([]Installment, 0, durationMonths)
	for i := 0; i < durationMonths; i++ {
		amount := base
		if int64(i) < extra {
			amount = amount.Add(one)
		}
		if i == 0 {
			amount = amount.Add(frac)
		}
		installments = append(installments, Installment{
			ExpectedAmount: amount,
			ExpectedDate:   start.AddDate(0, i+1, 0),
			PaidAmount:     decimal.Zero,
		})
	}
	return installments, nil
}

// DayOf truncates a timestamp to day granularity in its own location.
// All due-date comparisons happen at this granularity.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
