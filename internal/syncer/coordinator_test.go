package syncer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"installment-tracker/internal/cache"
	"installment-tracker/internal/core"
	"installment-tracker/internal/remote"
	"installment-tracker/internal/syncer"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// fakeStore is a scriptable in-memory remote.Store. Each method counts its
// calls and delegates to an optional hook; unset hooks succeed with echoes.
type fakeStore struct {
	mu sync.Mutex

	listCalls              int32
	getCalls               int32
	updateSaleCalls        int32
	createInstallmentCalls int32
	updateInstallmentCalls int32
	deleteCalls            int32

	nextInstallmentID int64

	onList              func() ([]core.Sale, error)
	onGet               func(id int64) (*core.Sale, error)
	onCreateSale        func(terms core.SaleTerms) (*core.Sale, error)
	onUpdateSale        func(sale *core.Sale) (*core.Sale, error)
	onCreateInstallment func(inst core.Installment) (*core.Installment, error)
	onUpdateInstallment func(inst core.Installment) (*core.Installment, error)

	updatedInstallments []core.Installment
}

func (f *fakeStore) SignIn(_ context.Context, _, _ string) (string, error) { return "tok", nil }

func (f *fakeStore) SignOut() {}

func (f *fakeStore) CreateSale(_ context.Context, terms core.SaleTerms) (*core.Sale, error) {
	if f.onCreateSale != nil {
		return f.onCreateSale(terms)
	}
	return &core.Sale{
		ID:             1,
		CustomerName:   terms.CustomerName,
		PhoneNumber:    terms.PhoneNumber,
		Currency:       terms.Currency,
		TotalPrice:     terms.TotalPrice,
		DownPayment:    terms.DownPayment,
		DurationMonths: terms.DurationMonths,
		StartDate:      terms.StartDate,
	}, nil
}

func (f *fakeStore) ListSales(_ context.Context, _, _ int, _ string) ([]core.Sale, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.onList != nil {
		return f.onList()
	}
	return nil, nil
}

func (f *fakeStore) GetSale(_ context.Context, id int64) (*core.Sale, error) {
	atomic.AddInt32(&f.getCalls, 1)
	if f.onGet != nil {
		return f.onGet(id)
	}
	return nil, &remote.RemoteError{Kind: remote.KindRejected, StatusCode: 404, Message: "not found"}
}

func (f *fakeStore) UpdateSale(_ context.Context, sale *core.Sale) (*core.Sale, error) {
	atomic.AddInt32(&f.updateSaleCalls, 1)
	if f.onUpdateSale != nil {
		return f.onUpdateSale(sale)
	}
	return sale.Clone(), nil
}

func (f *fakeStore) DeleteSale(_ context.Context, _ int64) error {
	atomic.AddInt32(&f.deleteCalls, 1)
	return nil
}

func (f *fakeStore) CreateInstallment(_ context.Context, inst core.Installment) (*core.Installment, error) {
	atomic.AddInt32(&f.createInstallmentCalls, 1)
	if f.onCreateInstallment != nil {
		return f.onCreateInstallment(inst)
	}
	f.mu.Lock()
	f.nextInstallmentID++
	inst.ID = f.nextInstallmentID
	f.mu.Unlock()
	out := inst.Clone()
	return &out, nil
}

func (f *fakeStore) UpdateInstallment(_ context.Context, inst core.Installment) (*core.Installment, error) {
	atomic.AddInt32(&f.updateInstallmentCalls, 1)
	if f.onUpdateInstallment != nil {
		return f.onUpdateInstallment(inst)
	}
	f.mu.Lock()
	f.updatedInstallments = append(f.updatedInstallments, inst.Clone())
	f.mu.Unlock()
	out := inst.Clone()
	return &out, nil
}

func seededSale() core.Sale {
	return core.Sale{
		ID:             1,
		CustomerName:   "Eshmat Toshmatov",
		PhoneNumber:    "+998901112233",
		Currency:       core.CurrencyUSD,
		TotalPrice:     d("1100"),
		DownPayment:    d("500"),
		DurationMonths: 6,
		StartDate:      day(2024, time.January, 15),
		Installments: []core.Installment{
			{ID: 11, SaleID: 1, ExpectedAmount: d("100"), ExpectedDate: day(2024, time.February, 15), PaidAmount: decimal.Zero},
			{ID: 12, SaleID: 1, ExpectedAmount: d("100"), ExpectedDate: day(2024, time.March, 15), PaidAmount: decimal.Zero},
			{ID: 13, SaleID: 1, ExpectedAmount: d("100"), ExpectedDate: day(2024, time.April, 15), PaidAmount: decimal.Zero},
		},
	}
}

// newSeeded builds a coordinator whose cache and committed baseline both hold
// seededSale, as after a successful refresh.
func newSeeded(t *testing.T, store *fakeStore) (*syncer.Coordinator, *cache.Cache) {
	t.Helper()
	store.onList = func() ([]core.Sale, error) {
		return []core.Sale{seededSale()}, nil
	}
	c := cache.New()
	coord := syncer.New(store, c, nil)
	if out := coord.RefreshList(context.Background()); !out.OK() {
		t.Fatalf("seed refresh failed: %+v", out)
	}
	return coord, c
}

func TestCommit_SubmitsOnlyDirtyInstallments(t *testing.T) {
	store := &fakeStore{}
	coord, _ := newSeeded(t, store)

	if out := coord.ToggleInstallment(1, 12); !out.OK() {
		t.Fatalf("toggle failed: %+v", out)
	}
	if out := coord.CommitPaymentEdits(context.Background(), 1); !out.OK() {
		t.Fatalf("commit failed: %+v", out)
	}

	if n := atomic.LoadInt32(&store.updateInstallmentCalls); n != 1 {
		t.Fatalf("expected exactly 1 installment update, got %d", n)
	}
	if got := store.updatedInstallments[0]; got.ID != 12 || !got.Paid {
		t.Errorf("wrong installment submitted: %+v", got)
	}
	if n := atomic.LoadInt32(&store.updateSaleCalls); n != 0 {
		t.Errorf("commit must never issue a sale-level update, got %d", n)
	}
}

func TestCommit_NoDirtyMeansZeroCalls(t *testing.T) {
	store := &fakeStore{}
	coord, _ := newSeeded(t, store)

	if out := coord.CommitPaymentEdits(context.Background(), 1); !out.OK() {
		t.Fatalf("commit failed: %+v", out)
	}
	if n := atomic.LoadInt32(&store.updateInstallmentCalls); n != 0 {
		t.Errorf("unchanged installments must generate zero outgoing calls, got %d", n)
	}
}

func TestCommit_SecondSaveResendsNothing(t *testing.T) {
	store := &fakeStore{}
	coord, _ := newSeeded(t, store)

	coord.ToggleInstallment(1, 11)
	if out := coord.CommitPaymentEdits(context.Background(), 1); !out.OK() {
		t.Fatalf("first commit failed: %+v", out)
	}
	if out := coord.CommitPaymentEdits(context.Background(), 1); !out.OK() {
		t.Fatalf("second commit failed: %+v", out)
	}
	if n := atomic.LoadInt32(&store.updateInstallmentCalls); n != 1 {
		t.Errorf("committed edits must not be resent, got %d updates total", n)
	}
}

func TestCommit_FailedInstallmentStaysDirty(t *testing.T) {
	store := &fakeStore{}
	var failed int32
	store.onUpdateInstallment = func(inst core.Installment) (*core.Installment, error) {
		if inst.ID == 12 && atomic.CompareAndSwapInt32(&failed, 0, 1) {
			return nil, &remote.RemoteError{Kind: remote.KindUnavailable, Message: "connection reset"}
		}
		out := inst.Clone()
		return &out, nil
	}
	coord, _ := newSeeded(t, store)

	coord.ToggleInstallment(1, 11)
	coord.ToggleInstallment(1, 12)
	out := coord.CommitPaymentEdits(context.Background(), 1)
	if out.Status != syncer.StatusRetryable {
		t.Fatalf("expected retryable outcome on partial failure, got %+v", out)
	}

	// Retry: only the failed installment goes out again.
	calls := atomic.LoadInt32(&store.updateInstallmentCalls)
	if out := coord.CommitPaymentEdits(context.Background(), 1); !out.OK() {
		t.Fatalf("retry failed: %+v", out)
	}
	if n := atomic.LoadInt32(&store.updateInstallmentCalls) - calls; n != 1 {
		t.Errorf("retry must resend only the failed installment, got %d calls", n)
	}
}

func TestGenerate_ReplacesScheduleOnRetry(t *testing.T) {
	store := &fakeStore{}
	coord, c := newSeeded(t, store)

	for i := 0; i < 2; i++ {
		if out := coord.GenerateSchedule(context.Background(), 1); !out.OK() {
			t.Fatalf("generation %d failed: %+v", i, out)
		}
	}

	got, _ := c.Get(1)
	if len(got.Installments) != 6 {
		t.Fatalf("expected 6 installments after repeated generation, got %d", len(got.Installments))
	}
	sum := decimal.Zero
	for _, inst := range got.Installments {
		sum = sum.Add(inst.ExpectedAmount)
	}
	if !sum.Equal(d("600")) {
		t.Errorf("schedule sums to %s, want 600", sum)
	}
}

func TestGenerate_FailureLeavesLocalUntouched(t *testing.T) {
	store := &fakeStore{}
	var n int32
	store.onCreateInstallment = func(inst core.Installment) (*core.Installment, error) {
		if atomic.AddInt32(&n, 1) == 3 {
			return nil, &remote.RemoteError{Kind: remote.KindUnavailable, Message: "timeout"}
		}
		out := inst.Clone()
		out.ID = int64(atomic.LoadInt32(&n))
		return &out, nil
	}
	coord, c := newSeeded(t, store)

	out := coord.GenerateSchedule(context.Background(), 1)
	if out.Status != syncer.StatusRetryable {
		t.Fatalf("expected retryable outcome, got %+v", out)
	}
	got, _ := c.Get(1)
	if len(got.Installments) != 3 {
		t.Errorf("failed generation must not touch the local schedule, got %d installments", len(got.Installments))
	}
	for _, inst := range got.Installments {
		if inst.ID != 11 && inst.ID != 12 && inst.ID != 13 {
			t.Errorf("original installment set disturbed: %+v", inst)
		}
	}
}

func TestPerSaleGuard_ReturnsBusy(t *testing.T) {
	store := &fakeStore{}
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	var seq int64
	store.onCreateInstallment = func(inst core.Installment) (*core.Installment, error) {
		once.Do(func() {
			close(entered)
			<-proceed
		})
		out := inst.Clone()
		out.ID = 100 + atomic.AddInt64(&seq, 1)
		return &out, nil
	}
	coord, _ := newSeeded(t, store)

	done := make(chan syncer.Outcome, 1)
	go func() { done <- coord.GenerateSchedule(context.Background(), 1) }()
	<-entered

	if out := coord.CommitPaymentEdits(context.Background(), 1); out.Status != syncer.StatusBusy {
		t.Errorf("expected busy while generation is in flight, got %+v", out)
	}
	if out := coord.GenerateSchedule(context.Background(), 1); out.Status != syncer.StatusBusy {
		t.Errorf("expected busy for concurrent generation, got %+v", out)
	}

	close(proceed)
	if out := <-done; !out.OK() {
		t.Fatalf("original generation failed: %+v", out)
	}
	// Guard released: the next commit goes through.
	if out := coord.CommitPaymentEdits(context.Background(), 1); !out.OK() {
		t.Errorf("expected ok after guard release, got %+v", out)
	}
}

func TestRefresh_CanceledContextLeavesCacheUntouched(t *testing.T) {
	store := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	store.onList = func() ([]core.Sale, error) {
		cancel() // view went away mid-flight
		return []core.Sale{seededSale()}, nil
	}
	c := cache.New()
	coord := syncer.New(store, c, nil)

	out := coord.RefreshList(ctx)
	if out.Status != syncer.StatusRetryable {
		t.Fatalf("expected retryable outcome for canceled refresh, got %+v", out)
	}
	if c.Len() != 0 {
		t.Error("canceled refresh must not mutate the cache")
	}
}

func TestUpdateSaleFields_PreservesScheduleAndChecksCrossField(t *testing.T) {
	store := &fakeStore{}
	coord, c := newSeeded(t, store)

	name := "Renamed"
	if out := coord.UpdateSaleFields(context.Background(), 1, core.SaleFieldPatch{CustomerName: &name}); !out.OK() {
		t.Fatalf("update failed: %+v", out)
	}
	got, _ := c.Get(1)
	if got.CustomerName != "Renamed" {
		t.Errorf("patch not applied: %+v", got)
	}
	if len(got.Installments) != 3 {
		t.Errorf("sale field update must preserve the schedule, got %d installments", len(got.Installments))
	}

	tooBig := d("5000")
	out := coord.UpdateSaleFields(context.Background(), 1, core.SaleFieldPatch{DownPayment: &tooBig})
	if out.Status != syncer.StatusInvalid {
		t.Errorf("expected invalid for down payment above total price, got %+v", out)
	}
	if n := atomic.LoadInt32(&store.updateSaleCalls); n != 1 {
		t.Errorf("rejected patch must not reach the store, got %d calls", n)
	}
}

func TestCreateSale_ValidatesBeforeAnyCall(t *testing.T) {
	store := &fakeStore{}
	var created int32
	store.onCreateSale = func(core.SaleTerms) (*core.Sale, error) {
		atomic.AddInt32(&created, 1)
		return nil, errors.New("unreachable")
	}
	coord := syncer.New(store, cache.New(), nil)

	_, out := coord.CreateSale(context.Background(), core.SaleTerms{})
	if out.Status != syncer.StatusInvalid {
		t.Fatalf("expected invalid for empty terms, got %+v", out)
	}
	if atomic.LoadInt32(&created) != 0 {
		t.Error("invalid terms must not reach the store")
	}
}

func TestOutcomeClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syncer.Status
	}{
		{"auth", &remote.RemoteError{Kind: remote.KindAuth, StatusCode: 401, Message: "token expired"}, syncer.StatusUnauthenticated},
		{"rejected", &remote.RemoteError{Kind: remote.KindRejected, StatusCode: 409, Message: "duplicate phone number"}, syncer.StatusRejected},
		{"unavailable", &remote.RemoteError{Kind: remote.KindUnavailable, Message: "dial tcp: refused"}, syncer.StatusRetryable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			store.onList = func() ([]core.Sale, error) { return nil, tt.err }
			coord := syncer.New(store, cache.New(), nil)
			out := coord.RefreshList(context.Background())
			if out.Status != tt.want {
				t.Fatalf("expected %s, got %+v", tt.want, out)
			}
			if tt.want == syncer.StatusRejected && out.Message != "duplicate phone number" {
				t.Errorf("rejection must carry the server message verbatim, got %q", out.Message)
			}
		})
	}
}

func TestDeleteSale_RemovesLocally(t *testing.T) {
	store := &fakeStore{}
	coord, c := newSeeded(t, store)

	if out := coord.DeleteSale(context.Background(), 1); !out.OK() {
		t.Fatalf("delete failed: %+v", out)
	}
	if _, ok := c.Get(1); ok {
		t.Error("sale still cached after delete")
	}
}

func TestStaleReference_IsInvalidNoOp(t *testing.T) {
	store := &fakeStore{}
	coord, c := newSeeded(t, store)

	out := coord.ToggleInstallment(1, 999)
	if out.Status != syncer.StatusInvalid {
		t.Fatalf("expected invalid for unknown installment, got %+v", out)
	}
	got, _ := c.Get(1)
	for _, inst := range got.Installments {
		if inst.Paid {
			t.Error("stale toggle must be a no-op")
		}
	}
}
