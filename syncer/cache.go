package syncer

import (
	"sort"
	"sync"

	"garage-backend/models"
)

// InvoiceCache is the in-memory invoice collection shown to the user. It is
// mutated twice per offline edit: optimistically when the user acts, then
// authoritatively when the queued mutation is confirmed remotely.
// Last-writer-wins; there is no cross-device conflict versioning.
type InvoiceCache struct {
	mu       sync.RWMutex
	invoices map[string]*models.Invoice
}

func NewInvoiceCache() *InvoiceCache {
	return &InvoiceCache{invoices: make(map[string]*models.Invoice)}
}

// HydrateCompany merges an authoritative remote listing for one tenant.
// The tenant's cached entries are replaced by the fetched rows, except ids
// in keep (optimistic entries whose queued mutations are not confirmed yet,
// which stay as-is) and ids in drop (queued deletes, which must not be
// resurrected by a stale remote read). Other tenants' entries are untouched.
func (c *InvoiceCache) HydrateCompany(companyID string, invoices []models.Invoice, keep, drop map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, inv := range c.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if _, ok := keep[id]; ok {
			continue
		}
		delete(c.invoices, id)
	}
	for i := range invoices {
		inv := invoices[i]
		if _, ok := keep[inv.ID]; ok {
			continue
		}
		if _, ok := drop[inv.ID]; ok {
			continue
		}
		c.invoices[inv.ID] = &inv
	}
}

// Get returns a copy of the invoice with the given id, provided it belongs
// to companyID. Tenant scoping happens here so offline reads can never leak
// another company's invoices.
func (c *InvoiceCache) Get(companyID, id string) (*models.Invoice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inv, ok := c.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, false
	}
	cp := *inv
	return &cp, true
}

// List returns companyID's cached invoices, newest first.
func (c *InvoiceCache) List(companyID string) []models.Invoice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Invoice, 0, len(c.invoices))
	for _, inv := range c.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Upsert applies a client-visible projection of a mutation (the optimistic
// phase) or stores an authoritative result keyed by its current id.
func (c *InvoiceCache) Upsert(inv *models.Invoice) {
	cp := *inv
	c.mu.Lock()
	c.invoices[cp.ID] = &cp
	c.mu.Unlock()
}

// Remove drops an invoice from the collection (optimistic delete).
func (c *InvoiceCache) Remove(id string) {
	c.mu.Lock()
	delete(c.invoices, id)
	c.mu.Unlock()
}

// Reconcile replaces the entry stored under oldID with the authoritative
// remote result. On a confirmed create the server-assigned id differs from
// the local placeholder, so the old key is dropped.
func (c *InvoiceCache) Reconcile(oldID string, authoritative *models.Invoice) {
	cp := *authoritative
	c.mu.Lock()
	if oldID != cp.ID {
		delete(c.invoices, oldID)
	}
	c.invoices[cp.ID] = &cp
	c.mu.Unlock()
}

// Len reports the collection size.
func (c *InvoiceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.invoices)
}
