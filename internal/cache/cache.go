// Package cache holds the local view of all sales: the single source of
// truth for rendering. Only the sync coordinator writes to it, and every
// write goes through a named operation so the replace-vs-append-vs-patch
// policy stays auditable in one place. Reads hand out deep copies; callers
// never see shared mutable state.
package cache

import (
	"sort"
	"strings"
	"sync"

	"installment-tracker/internal/core"
)

type Cache struct {
	mu    sync.RWMutex
	sales []*core.Sale
	byID  map[int64]*core.Sale
}

func New() *Cache {
	return &Cache{byID: make(map[int64]*core.Sale)}
}

// ReplaceAll swaps the entire collection for a fresh authoritative listing.
func (c *Cache) ReplaceAll(sales []core.Sale) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sales = c.sales[:0]
	c.byID = make(map[int64]*core.Sale, len(sales))
	for i := range sales {
		sale := sales[i].Clone()
		c.sales = append(c.sales, sale)
		if sale.ID != 0 {
			c.byID[sale.ID] = sale
		}
	}
}

// ReplaceSale swaps one sale wholesale, schedule included — the merge policy
// for guaranteed-fresh detail loads. Inserts if the ID is new.
func (c *Cache) ReplaceSale(sale *core.Sale) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := sale.Clone()
	if existing, ok := c.byID[fresh.ID]; ok {
		for i, s := range c.sales {
			if s == existing {
				c.sales[i] = fresh
				break
			}
		}
	} else {
		c.sales = append(c.sales, fresh)
	}
	c.byID[fresh.ID] = fresh
}

// PatchSaleFields applies scalar field edits to one sale, deliberately
// leaving its schedule untouched. Reports false when the ID is unknown.
func (c *Cache) PatchSaleFields(id int64, patch core.SaleFieldPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sale, ok := c.byID[id]
	if !ok {
		return false
	}
	patch.Apply(sale)
	return true
}

// ReplaceSchedule swaps a sale's installment list. Replace, never append:
// retried generation must not leave duplicate schedules behind.
func (c *Cache) ReplaceSchedule(id int64, installments []core.Installment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sale, ok := c.byID[id]
	if !ok {
		return false
	}
	sale.Installments = core.CloneInstallments(installments)
	core.SortInstallments(sale.Installments)
	return true
}

// MergeInstallment folds server-confirmed fields of one installment back
// into its sale. The staged CustomAmount override is cleared — the server
// response supersedes it.
func (c *Cache) MergeInstallment(saleID int64, inst core.Installment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sale, ok := c.byID[saleID]
	if !ok {
		return false
	}
	for i := range sale.Installments {
		if sale.Installments[i].ID != inst.ID {
			continue
		}
		merged := inst.Clone()
		merged.CustomAmount = nil
		sale.Installments[i] = merged
		return true
	}
	return false
}

// Remove deletes a sale and, by ownership, its whole schedule.
func (c *Cache) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sale, ok := c.byID[id]
	if !ok {
		return false
	}
	delete(c.byID, id)
	c.removeLocked(sale)
	return true
}

func (c *Cache) removeLocked(target *core.Sale) {
	for i, s := range c.sales {
		if s == target {
			c.sales = append(c.sales[:i], c.sales[i+1:]...)
			return
		}
	}
}

// Get returns a deep copy of one sale.
func (c *Cache) Get(id int64) (*core.Sale, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sale, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return sale.Clone(), true
}

// List returns deep copies of all sales ordered by start date descending,
// newest sales first.
func (c *Cache) List() []core.Sale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Sale, 0, len(c.sales))
	for _, sale := range c.sales {
		out = append(out, *sale.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

// Search filters the listing by customer name (case-insensitive) or phone
// number substring.
func (c *Cache) Search(term string) []core.Sale {
	all := c.List()
	term = strings.TrimSpace(term)
	if term == "" {
		return all
	}
	lower := strings.ToLower(term)
	out := make([]core.Sale, 0, len(all))
	for _, sale := range all {
		if strings.Contains(strings.ToLower(sale.CustomerName), lower) ||
			strings.Contains(sale.PhoneNumber, term) {
			out = append(out, sale)
		}
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sales)
}
