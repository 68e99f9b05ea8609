package core_test

import (
	"errors"
	"testing"
	"time"

	"installment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

func schedule() []core.Installment {
	return []core.Installment{
		{ID: 1, SaleID: 10, ExpectedAmount: d("100"), ExpectedDate: date(2024, time.February, 1), PaidAmount: decimal.Zero},
		{ID: 2, SaleID: 10, ExpectedAmount: d("100"), ExpectedDate: date(2024, time.March, 1), PaidAmount: decimal.Zero},
		{ID: 3, SaleID: 10, ExpectedAmount: d("99"), ExpectedDate: date(2024, time.April, 1), PaidAmount: decimal.Zero},
	}
}

func TestTogglePaid_RoundTrip(t *testing.T) {
	now := time.Date(2024, time.February, 2, 12, 0, 0, 0, time.UTC)

	paid, found := core.TogglePaid(schedule(), 2, now)
	if !found {
		t.Fatal("expected installment 2 to be found")
	}
	if !paid[1].Paid {
		t.Error("expected installment to be marked paid")
	}
	if !paid[1].PaidAmount.Equal(d("100")) {
		t.Errorf("expected paid amount 100, got %s", paid[1].PaidAmount)
	}
	if paid[1].PaidAt == nil || !paid[1].PaidAt.Equal(now) {
		t.Errorf("expected paid at %s, got %v", now, paid[1].PaidAt)
	}

	unpaid, found := core.TogglePaid(paid, 2, now.Add(time.Hour))
	if !found {
		t.Fatal("expected installment 2 to be found")
	}
	if unpaid[1].Paid {
		t.Error("expected installment to be unpaid again")
	}
	if !unpaid[1].PaidAmount.IsZero() {
		t.Errorf("expected paid amount restored to 0, got %s", unpaid[1].PaidAmount)
	}
	if unpaid[1].PaidAt != nil {
		t.Errorf("expected paid at cleared, got %v", unpaid[1].PaidAt)
	}
	if !unpaid[1].ExpectedAmount.Equal(d("100")) {
		t.Errorf("expected amount untouched, got %s", unpaid[1].ExpectedAmount)
	}
}

func TestTogglePaid_UsesStagedOverride(t *testing.T) {
	now := time.Now()
	staged, found, err := core.SetAmount(schedule(), 1, d("40"))
	if err != nil || !found {
		t.Fatalf("SetAmount: found=%v err=%v", found, err)
	}
	if !staged[0].PaidAmount.IsZero() {
		t.Errorf("unpaid installment must not take the override immediately, got %s", staged[0].PaidAmount)
	}

	paid, found := core.TogglePaid(staged, 1, now)
	if !found {
		t.Fatal("expected installment 1 to be found")
	}
	if !paid[0].PaidAmount.Equal(d("40")) {
		t.Errorf("expected override 40 to be recorded, got %s", paid[0].PaidAmount)
	}
}

func TestSetAmount_SyncsPaidInstallmentLive(t *testing.T) {
	now := time.Now()
	paid, _ := core.TogglePaid(schedule(), 3, now)

	edited, found, err := core.SetAmount(paid, 3, d("120"))
	if err != nil || !found {
		t.Fatalf("SetAmount: found=%v err=%v", found, err)
	}
	if !edited[2].PaidAmount.Equal(d("120")) {
		t.Errorf("expected paid amount synced to 120, got %s", edited[2].PaidAmount)
	}
}

func TestSetAmount_RejectsNegative(t *testing.T) {
	_, _, err := core.SetAmount(schedule(), 1, d("-5"))
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestReconcile_UnknownIDIsNoOp(t *testing.T) {
	before := schedule()
	after, found := core.TogglePaid(before, 999, time.Now())
	if found {
		t.Error("expected unknown ID to report not found")
	}
	for i := range after {
		if after[i].Paid != before[i].Paid || !after[i].PaidAmount.Equal(before[i].PaidAmount) {
			t.Errorf("installment %d mutated by a no-op toggle", i)
		}
	}

	_, found, err := core.SetAmount(before, 999, d("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected unknown ID to report not found")
	}
}

func TestReconcile_InputNeverMutated(t *testing.T) {
	before := schedule()
	_, _ = core.TogglePaid(before, 1, time.Now())
	if before[0].Paid {
		t.Error("TogglePaid mutated its input")
	}
	_, _, _ = core.SetAmount(before, 1, d("55"))
	if before[0].CustomAmount != nil {
		t.Error("SetAmount mutated its input")
	}
}

func TestDirtyInstallments(t *testing.T) {
	now := time.Now()
	committed := core.SnapshotInstallments(schedule())

	current, _ := core.TogglePaid(schedule(), 1, now)
	current, _, err := core.SetAmount(current, 1, d("60"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dirty := core.DirtyInstallments(current, committed)
	if len(dirty) != 1 {
		t.Fatalf("expected exactly 1 dirty installment, got %d", len(dirty))
	}
	if dirty[0].ID != 1 {
		t.Errorf("expected installment 1 dirty, got %d", dirty[0].ID)
	}
	if !dirty[0].PaidAmount.Equal(d("60")) {
		t.Errorf("expected dirty paid amount 60, got %s", dirty[0].PaidAmount)
	}
}

func TestDirtyInstallments_UnchangedScheduleIsClean(t *testing.T) {
	committed := core.SnapshotInstallments(schedule())
	if dirty := core.DirtyInstallments(schedule(), committed); len(dirty) != 0 {
		t.Errorf("expected no dirty installments, got %d", len(dirty))
	}
}

func TestDirtyInstallments_MissingBaselineIsDirty(t *testing.T) {
	current := schedule()
	committed := core.SnapshotInstallments(current[:2])
	dirty := core.DirtyInstallments(current, committed)
	if len(dirty) != 1 || dirty[0].ID != 3 {
		t.Fatalf("expected installment 3 (no baseline) to be dirty, got %+v", dirty)
	}
}

func TestSnapshotInstallments_DropsOverrides(t *testing.T) {
	staged, _, err := core.SetAmount(schedule(), 2, d("75"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := core.SnapshotInstallments(staged)
	if snap[1].CustomAmount != nil {
		t.Error("expected snapshot to drop staged overrides")
	}
}
