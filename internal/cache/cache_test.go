package cache_test

import (
	"testing"
	"time"

	"installment-tracker/internal/cache"
	"installment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func sale(id int64, name, phone string, start time.Time) core.Sale {
	return core.Sale{
		ID:             id,
		CustomerName:   name,
		PhoneNumber:    phone,
		Currency:       core.CurrencyUSD,
		TotalPrice:     d("600"),
		DownPayment:    d("0"),
		DurationMonths: 6,
		StartDate:      start,
		Installments: []core.Installment{
			{ID: id * 10, SaleID: id, ExpectedAmount: d("100"), ExpectedDate: start.AddDate(0, 1, 0), PaidAmount: decimal.Zero},
		},
	}
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestList_OrdersByStartDateDescending(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]core.Sale{
		sale(1, "Old", "+1", day(2023, time.May, 1)),
		sale(2, "New", "+2", day(2024, time.May, 1)),
		sale(3, "Mid", "+3", day(2023, time.December, 1)),
	})

	got := c.List()
	wantOrder := []int64{2, 3, 1}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("position %d: expected sale %d, got %d", i, want, got[i].ID)
		}
	}
}

func TestReadsAreCopies(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]core.Sale{sale(1, "A", "+1", day(2024, time.January, 1))})

	got, ok := c.Get(1)
	if !ok {
		t.Fatal("sale not found")
	}
	got.CustomerName = "mutated"
	got.Installments[0].Paid = true

	again, _ := c.Get(1)
	if again.CustomerName != "A" || again.Installments[0].Paid {
		t.Error("mutating a read copy leaked into the cache")
	}
}

func TestReplaceSchedule_NeverAppends(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]core.Sale{sale(1, "A", "+1", day(2024, time.January, 1))})

	fresh := []core.Installment{
		{ID: 101, SaleID: 1, ExpectedAmount: d("100"), ExpectedDate: day(2024, time.February, 1), PaidAmount: decimal.Zero},
		{ID: 102, SaleID: 1, ExpectedAmount: d("100"), ExpectedDate: day(2024, time.March, 1), PaidAmount: decimal.Zero},
	}
	// Apply twice, as a retry would.
	if !c.ReplaceSchedule(1, fresh) || !c.ReplaceSchedule(1, fresh) {
		t.Fatal("ReplaceSchedule reported unknown sale")
	}

	got, _ := c.Get(1)
	if len(got.Installments) != 2 {
		t.Fatalf("expected 2 installments after repeated replace, got %d", len(got.Installments))
	}
}

func TestPatchSaleFields_PreservesSchedule(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]core.Sale{sale(1, "A", "+1", day(2024, time.January, 1))})

	name := "Renamed"
	price := d("999")
	if !c.PatchSaleFields(1, core.SaleFieldPatch{CustomerName: &name, TotalPrice: &price}) {
		t.Fatal("patch reported unknown sale")
	}

	got, _ := c.Get(1)
	if got.CustomerName != "Renamed" || !got.TotalPrice.Equal(d("999")) {
		t.Errorf("patch not applied: %+v", got)
	}
	if len(got.Installments) != 1 {
		t.Errorf("patch must leave the schedule untouched, got %d installments", len(got.Installments))
	}
}

func TestMergeInstallment_ClearsOverride(t *testing.T) {
	c := cache.New()
	s := sale(1, "A", "+1", day(2024, time.January, 1))
	override := d("80")
	s.Installments[0].CustomAmount = &override
	c.ReplaceAll([]core.Sale{s})

	now := time.Now()
	confirmed := core.Installment{
		ID: 10, SaleID: 1, ExpectedAmount: d("100"),
		ExpectedDate: day(2024, time.February, 1),
		Paid:         true, PaidAmount: d("80"), PaidAt: &now,
	}
	if !c.MergeInstallment(1, confirmed) {
		t.Fatal("merge reported unknown installment")
	}

	got, _ := c.Get(1)
	inst := got.Installments[0]
	if !inst.Paid || !inst.PaidAmount.Equal(d("80")) {
		t.Errorf("server-confirmed fields not merged: %+v", inst)
	}
	if inst.CustomAmount != nil {
		t.Error("staged override must be cleared after a confirmed merge")
	}
}

func TestReplaceSale_InsertsWhenAbsent(t *testing.T) {
	c := cache.New()
	fresh := sale(7, "New", "+9", day(2024, time.June, 1))
	c.ReplaceSale(&fresh)
	if c.Len() != 1 {
		t.Fatalf("expected insert on unknown id, got %d sales", c.Len())
	}
	again := sale(7, "Renamed", "+9", day(2024, time.June, 1))
	c.ReplaceSale(&again)
	if c.Len() != 1 {
		t.Fatalf("replace must not append, got %d sales", c.Len())
	}
	got, _ := c.Get(7)
	if got.CustomerName != "Renamed" {
		t.Errorf("expected wholesale replacement, got %+v", got)
	}
}

func TestSearch(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]core.Sale{
		sale(1, "Eshmat Toshmatov", "+998901112233", day(2024, time.January, 1)),
		sale(2, "Karim Karimov", "+998905556677", day(2024, time.February, 1)),
	})

	if got := c.Search("eshmat"); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("case-insensitive name search failed: %+v", got)
	}
	if got := c.Search("555"); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("phone substring search failed: %+v", got)
	}
	if got := c.Search(""); len(got) != 2 {
		t.Errorf("empty term must return everything, got %d", len(got))
	}
}

func TestRemove_CascadesSchedule(t *testing.T) {
	c := cache.New()
	c.ReplaceAll([]core.Sale{sale(1, "A", "+1", day(2024, time.January, 1))})
	if !c.Remove(1) {
		t.Fatal("remove reported unknown sale")
	}
	if _, ok := c.Get(1); ok {
		t.Error("sale still present after remove")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}
