// Package syncer bridges the local cache and the remote store. It owns the
// tension between optimistic local correctness and eventual remote
// consistency: every cache mutation funnels through here, and every merge of
// a server response follows an explicit replace/patch/per-installment policy.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"installment-tracker/internal/cache"
	"installment-tracker/internal/core"
	"installment-tracker/internal/remote"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// listPageSize is the page requested on full refreshes. The store embeds
// schedules in the listing, so one page covers the whole working set without
// N+1 fetches.
const listPageSize = 200

const listSort = "startDate,desc"

// Coordinator orchestrates fetch/create/update calls against the remote
// store, applies local updates, and keeps stale server responses from
// clobbering local state.
type Coordinator struct {
	store remote.Store
	cache *cache.Cache
	log   *zap.Logger
	now   func() time.Time

	mu        sync.Mutex
	inFlight  map[int64]struct{}
	committed map[int64][]core.Installment // last server-confirmed schedule per sale
}

func New(store remote.Store, c *cache.Cache, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:     store,
		cache:     c,
		log:       log,
		now:       time.Now,
		inFlight:  make(map[int64]struct{}),
		committed: make(map[int64][]core.Installment),
	}
}

// SetClock overrides the coordinator's clock. Test hook.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// RefreshList fetches the authoritative sale listing and swaps the cache
// wholesale, resetting all committed snapshots.
func (c *Coordinator) RefreshList(ctx context.Context) Outcome {
	sales, err := c.store.ListSales(ctx, 0, listPageSize, listSort)
	if err != nil {
		return Classify(err)
	}
	if ctx.Err() != nil {
		return Classify(ctx.Err())
	}
	c.cache.ReplaceAll(sales)
	c.mu.Lock()
	c.committed = make(map[int64][]core.Installment, len(sales))
	for i := range sales {
		c.committed[sales[i].ID] = core.SnapshotInstallments(sales[i].Installments)
	}
	c.mu.Unlock()
	c.log.Info("sale list refreshed", zap.Int("count", len(sales)))
	return ok()
}

// CreateSale submits sale terms to the remote store. On success the full
// list is refreshed so the new sale appears with its authoritative shape; on
// failure local state is untouched.
func (c *Coordinator) CreateSale(ctx context.Context, terms core.SaleTerms) (int64, Outcome) {
	terms.Normalize()
	if err := terms.Validate(); err != nil {
		return 0, Classify(err)
	}

	created, err := c.store.CreateSale(ctx, terms)
	if err != nil {
		return 0, Classify(err)
	}
	if ctx.Err() != nil {
		return 0, Classify(ctx.Err())
	}
	c.log.Info("sale created", zap.Int64("sale_id", created.ID), zap.String("customer", created.CustomerName))

	if out := c.RefreshList(ctx); !out.OK() {
		// The create itself succeeded; fall back to merging the single
		// response so the caller still sees the sale.
		c.cache.ReplaceSale(created)
		c.setCommitted(created.ID, created.Installments)
		c.log.Warn("post-create refresh failed", zap.String("status", string(out.Status)), zap.Error(out.Err))
	}
	return created.ID, ok()
}

// LoadSale fetches the authoritative sale plus schedule and replaces the
// local entry wholesale — the guaranteed-freshness path for detail views.
func (c *Coordinator) LoadSale(ctx context.Context, id int64) (*core.Sale, Outcome) {
	fresh, err := c.store.GetSale(ctx, id)
	if err != nil {
		return nil, Classify(err)
	}
	if ctx.Err() != nil {
		// The view is gone; do not mutate state for a stale consumer.
		return nil, Classify(ctx.Err())
	}
	c.cache.ReplaceSale(fresh)
	c.setCommitted(fresh.ID, fresh.Installments)
	return fresh.Clone(), ok()
}

// GenerateSchedule derives the installment schedule for a sale and persists
// it one installment at a time (the store has no batch endpoint). The
// created installments replace — never append to — any local schedule, so a
// retry cannot leave duplicates behind. Serialized per sale against
// CommitPaymentEdits and itself.
func (c *Coordinator) GenerateSchedule(ctx context.Context, saleID int64) Outcome {
	if !c.acquire(saleID) {
		return busy(fmt.Sprintf("another operation is in flight for sale %d", saleID))
	}
	defer c.release(saleID)

	sale, found := c.cache.Get(saleID)
	if !found {
		return c.stale("generate schedule", saleID)
	}

	installments, err := core.GenerateSchedule(sale.TotalPrice, sale.DownPayment, sale.DurationMonths, sale.StartDate)
	if err != nil {
		return Classify(err)
	}

	created := make([]core.Installment, 0, len(installments))
	for _, inst := range installments {
		inst.SaleID = saleID
		confirmed, err := c.store.CreateInstallment(ctx, inst)
		if err != nil {
			// Local state stays untouched; the next successful attempt
			// replaces whatever this partial run left on the server once
			// the sale is reloaded.
			c.log.Warn("schedule generation aborted",
				zap.Int64("sale_id", saleID), zap.Int("created", len(created)), zap.Error(err))
			return Classify(err)
		}
		created = append(created, *confirmed)
	}
	if ctx.Err() != nil {
		return Classify(ctx.Err())
	}

	c.cache.ReplaceSchedule(saleID, created)
	c.setCommitted(saleID, created)
	c.log.Info("schedule generated", zap.Int64("sale_id", saleID), zap.Int("installments", len(created)))
	return ok()
}

// ToggleInstallment flips one installment's paid state locally. Synchronous
// and optimistic: nothing reaches the remote store until CommitPaymentEdits.
func (c *Coordinator) ToggleInstallment(saleID, installmentID int64) Outcome {
	sale, found := c.cache.Get(saleID)
	if !found {
		return c.stale("toggle", saleID)
	}
	updated, found := core.TogglePaid(sale.Installments, installmentID, c.now())
	if !found {
		return c.stale("toggle installment", installmentID)
	}
	c.cache.ReplaceSchedule(saleID, updated)
	return ok()
}

// SetInstallmentAmount stages a per-installment amount override locally.
func (c *Coordinator) SetInstallmentAmount(saleID, installmentID int64, amount decimal.Decimal) Outcome {
	sale, found := c.cache.Get(saleID)
	if !found {
		return c.stale("set amount", saleID)
	}
	updated, found, err := core.SetAmount(sale.Installments, installmentID, amount)
	if err != nil {
		return Classify(err)
	}
	if !found {
		return c.stale("set amount installment", installmentID)
	}
	c.cache.ReplaceSchedule(saleID, updated)
	return ok()
}

// CommitPaymentEdits persists the dirty installments of one sale, each via
// its own update call run concurrently, and merges the confirmed fields back
// per installment. It deliberately issues no sale-level update and no
// re-fetch of the parent: the sale update path resets installments when
// saved without its schedule, so when only payments changed it must not be
// touched at all.
func (c *Coordinator) CommitPaymentEdits(ctx context.Context, saleID int64) Outcome {
	if !c.acquire(saleID) {
		return busy(fmt.Sprintf("another operation is in flight for sale %d", saleID))
	}
	defer c.release(saleID)

	sale, found := c.cache.Get(saleID)
	if !found {
		return c.stale("commit payments", saleID)
	}

	dirty := core.DirtyInstallments(sale.Installments, c.committedFor(saleID))
	if len(dirty) == 0 {
		return ok()
	}

	type result struct {
		confirmed *core.Installment
		err       error
	}
	results := make([]result, len(dirty))
	var wg sync.WaitGroup
	for i, inst := range dirty {
		wg.Add(1)
		go func(i int, inst core.Installment) {
			defer wg.Done()
			confirmed, err := c.store.UpdateInstallment(ctx, inst)
			results[i] = result{confirmed: confirmed, err: err}
		}(i, inst)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return Classify(ctx.Err())
	}

	var firstErr error
	merged := 0
	for _, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		c.cache.MergeInstallment(saleID, *r.confirmed)
		c.updateCommitted(saleID, *r.confirmed)
		merged++
	}
	c.log.Info("payment edits committed",
		zap.Int64("sale_id", saleID), zap.Int("dirty", len(dirty)), zap.Int("merged", merged))
	if firstErr != nil {
		// Failed installments stay dirty and go out again on the next save.
		return Classify(firstErr)
	}
	return ok()
}

// UpdateSaleFields persists scalar sale fields and merges the response back
// field-by-field, preserving the local schedule across the call.
func (c *Coordinator) UpdateSaleFields(ctx context.Context, saleID int64, patch core.SaleFieldPatch) Outcome {
	if err := patch.Validate(); err != nil {
		return Classify(err)
	}
	sale, found := c.cache.Get(saleID)
	if !found {
		return c.stale("update sale", saleID)
	}

	patched := sale.Clone()
	patch.Apply(patched)
	if patched.DownPayment.GreaterThan(patched.TotalPrice) {
		return invalid(
			fmt.Sprintf("down payment %s exceeds total price %s", patched.DownPayment, patched.TotalPrice),
			core.ErrValidation)
	}

	updated, err := c.store.UpdateSale(ctx, patched)
	if err != nil {
		return Classify(err)
	}
	if ctx.Err() != nil {
		return Classify(ctx.Err())
	}
	c.cache.PatchSaleFields(saleID, scalarPatch(updated))
	c.log.Info("sale fields updated", zap.Int64("sale_id", saleID))
	return ok()
}

// DeleteSale removes the sale remotely, then locally with its schedule.
func (c *Coordinator) DeleteSale(ctx context.Context, saleID int64) Outcome {
	if err := c.store.DeleteSale(ctx, saleID); err != nil {
		return Classify(err)
	}
	if ctx.Err() != nil {
		return Classify(ctx.Err())
	}
	c.cache.Remove(saleID)
	c.mu.Lock()
	delete(c.committed, saleID)
	c.mu.Unlock()
	c.log.Info("sale deleted", zap.Int64("sale_id", saleID))
	return ok()
}

// ── internals ────────────────────────────────────────────────────────────────

func (c *Coordinator) acquire(saleID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.inFlight[saleID]; taken {
		return false
	}
	c.inFlight[saleID] = struct{}{}
	return true
}

func (c *Coordinator) release(saleID int64) {
	c.mu.Lock()
	delete(c.inFlight, saleID)
	c.mu.Unlock()
}

func (c *Coordinator) setCommitted(saleID int64, installments []core.Installment) {
	c.mu.Lock()
	c.committed[saleID] = core.SnapshotInstallments(installments)
	c.mu.Unlock()
}

func (c *Coordinator) committedFor(saleID int64) []core.Installment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.CloneInstallments(c.committed[saleID])
}

func (c *Coordinator) updateCommitted(saleID int64, confirmed core.Installment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := c.committed[saleID]
	for i := range snapshot {
		if snapshot[i].ID == confirmed.ID {
			clean := confirmed.Clone()
			clean.CustomAmount = nil
			snapshot[i] = clean
			return
		}
	}
	clean := confirmed.Clone()
	clean.CustomAmount = nil
	c.committed[saleID] = append(snapshot, clean)
}

// stale logs an operation against an ID that is no longer present locally.
// A caller bug by definition: the mutation is a no-op and the outcome points
// the caller at its stale reference.
func (c *Coordinator) stale(op string, id int64) Outcome {
	c.log.Warn("stale reference", zap.String("op", op), zap.Int64("id", id))
	return invalid(fmt.Sprintf("%s: id %d is not present locally", op, id), core.ErrStaleReference)
}

func scalarPatch(sale *core.Sale) core.SaleFieldPatch {
	return core.SaleFieldPatch{
		CustomerName: &sale.CustomerName,
		PhoneNumber:  &sale.PhoneNumber,
		Note:         &sale.Note,
		AppleID:      &sale.AppleID,
		Comment:      &sale.Comment,
		Currency:     &sale.Currency,
		TotalPrice:   &sale.TotalPrice,
		DownPayment:  &sale.DownPayment,
		StartDate:    &sale.StartDate,
		Completed:    &sale.Completed,
	}
}
