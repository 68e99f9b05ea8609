package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// The reconciler merges user edits to individual installments into a
// consistent schedule. All functions operate on deep copies and return the
// updated slice; the input is never mutated. A false found result means the
// targeted ID is not in the schedule — the edit is a no-op and the caller
// should log it as a stale reference.

// TogglePaid flips the paid flag of the installment with the given ID.
// Unpaid to paid records PaidAmount (the staged CustomAmount if one is set,
// otherwise ExpectedAmount) and stamps PaidAt. Paid to unpaid zeroes
// PaidAmount and clears PaidAt, leaving ExpectedAmount untouched.
func TogglePaid(installments []Installment, id int64, now time.Time) ([]Installment, bool) {
	out := CloneInstallments(installments)
	for idx := range out {
		if out[idx].ID != id {
			continue
		}
		if out[idx].Paid {
			out[idx].Paid = false
			out[idx].PaidAmount = decimal.Zero
			out[idx].PaidAt = nil
		} else {
			out[idx].Paid = true
			if out[idx].CustomAmount != nil {
				out[idx].PaidAmount = *out[idx].CustomAmount
			} else {
				out[idx].PaidAmount = out[idx].ExpectedAmount
			}
			t := now
			out[idx].PaidAt = &t
		}
		return out, true
	}
	return out, false
}

// SetAmount stages a per-installment amount override. If the installment is
// currently marked paid, PaidAmount is synced immediately so aggregates
// reflect the edit live; otherwise the override waits for the next toggle.
func SetAmount(installments []Installment, id int64, amount decimal.Decimal) ([]Installment, bool, error) {
	if amount.IsNegative() {
		return installments, false, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	out := CloneInstallments(installments)
	for idx := range out {
		if out[idx].ID != id {
			continue
		}
		override := amount
		out[idx].CustomAmount = &override
		if out[idx].Paid {
			out[idx].PaidAmount = amount
		}
		return out, true, nil
	}
	return out, false, nil
}

// SnapshotInstallments deep-copies a schedule as a committed baseline for
// later dirty detection. CustomAmount overrides are dropped: the baseline
// reflects only what the remote store has confirmed.
func SnapshotInstallments(installments []Installment) []Installment {
	out := CloneInstallments(installments)
	for idx := range out {
		out[idx].CustomAmount = nil
	}
	return out
}

// DirtyInstallments returns the installments whose Paid flag or PaidAmount
// differs from the committed baseline. Installments without a committed
// counterpart (freshly generated, not yet persisted) are always dirty. Only
// these need to be submitted on save.
func DirtyInstallments(current, committed []Installment) []Installment {
	baseline := make(map[int64]Installment, len(committed))
	for _, inst := range committed {
		baseline[inst.ID] = inst
	}
	var dirty []Installment
	for _, inst := range current {
		prev, ok := baseline[inst.ID]
		if !ok || prev.Paid != inst.Paid || !prev.PaidAmount.Equal(inst.PaidAmount) {
			dirty = append(dirty, inst.Clone())
		}
	}
	return dirty
}
