package syncer

import (
	"context"
	"fmt"

	"garage-backend/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RemoteStore is the contract the applier expects from the hosted backend.
// Implementations must report affected rows on deletes so a silent no-op
// (access-control rule eating a write) is distinguishable from success, and
// must classify failures via RemoteError kinds.
type RemoteStore interface {
	// NextInvoiceNumber atomically allocates the next display number for a
	// company and returns the configured prefix together with the allocated
	// value. A single server-side increment-and-return, never a separate
	// read and write, so near-simultaneous creates cannot share a number.
	NextInvoiceNumber(ctx context.Context, companyID string) (prefix string, number int, err error)

	// InsertInvoice writes a new header row and returns it with the
	// server-assigned id populated. The caller clears any local placeholder
	// id before the insert.
	InsertInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)

	// UpdateInvoice writes header fields keyed by id, failing with
	// KindZeroRowsAffected when no row matched.
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error

	// DeleteInvoice removes the header row and returns how many rows the
	// delete touched.
	DeleteInvoice(ctx context.Context, companyID, invoiceID string) (int64, error)

	InsertItems(ctx context.Context, items []models.InvoiceItem) error
	DeleteItemsByInvoice(ctx context.Context, companyID, invoiceID string) error
	DeletePaymentsByInvoice(ctx context.Context, companyID, invoiceID string) error
}

// Applier replays one queued mutation against the remote store.
type Applier struct {
	remote RemoteStore
	log    zerolog.Logger
}

func NewApplier(remote RemoteStore, log zerolog.Logger) *Applier {
	return &Applier{remote: remote, log: log}
}

// SetRemote swaps the backing store. Used when the remote connection is
// (re)established after starting offline.
func (a *Applier) SetRemote(remote RemoteStore) {
	a.remote = remote
}

// Apply dispatches m by kind. For create/update it returns the fully
// reconciled invoice (server-assigned header, freshly inserted items,
// payments preserved on update); for delete it returns nil.
//
// A failure at any step aborts the remaining steps without rollback: the
// whole mutation stays queued and is retried on a later pass. Retries are
// idempotent because an update replays the same full item replacement, and
// a stuck create still carries its placeholder id and is recognized as
// not-yet-created.
func (a *Applier) Apply(ctx context.Context, m *QueuedMutation) (*models.Invoice, error) {
	switch m.Kind {
	case KindCreate, KindUpdate:
		inv, err := m.Invoice()
		if err != nil {
			return nil, err
		}
		return a.applySave(ctx, inv)
	case KindDelete:
		id, err := m.InvoiceID()
		if err != nil {
			return nil, err
		}
		return nil, a.applyDelete(ctx, m.CompanyID, id)
	default:
		return nil, fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
}

// applySave performs a remote create or update of the invoice header plus a
// full replacement of its item set. Items are never diffed.
func (a *Applier) applySave(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	isUpdate := inv.ID != "" && !models.IsOfflineID(inv.ID)
	if isUpdate {
		return a.applyUpdate(ctx, inv)
	}
	return a.applyCreate(ctx, inv)
}

func (a *Applier) applyUpdate(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	// Header first. On failure the remote items are left untouched.
	if err := a.remote.UpdateInvoice(ctx, inv); err != nil {
		return nil, failStep(StepHeaderWrite, err)
	}

	// Full item replacement: delete all remote line-items, reinsert the
	// current set re-keyed with fresh ids.
	if err := a.remote.DeleteItemsByInvoice(ctx, inv.CompanyID, inv.ID); err != nil {
		return nil, failStep(StepItemDelete, err)
	}
	items := rekeyItems(inv.Items, inv.ID, inv.CompanyID)
	if len(items) > 0 {
		if err := a.remote.InsertItems(ctx, items); err != nil {
			return nil, failStep(StepItemInsert, err)
		}
	}

	result := *inv
	result.Items = items
	a.log.Info().Str("invoice", result.ID).Str("display", result.DisplayID).Msg("replayed invoice update")
	return &result, nil
}

func (a *Applier) applyCreate(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	// Allocate the sequential display id before the insert.
	prefix, number, err := a.remote.NextInvoiceNumber(ctx, inv.CompanyID)
	if err != nil {
		return nil, failStep(StepNumbering, err)
	}

	header := *inv
	header.DisplayID = FormatDisplayID(prefix, number)
	header.ID = "" // remote store assigns its own id
	header.Items = nil
	header.Payments = nil

	created, err := a.remote.InsertInvoice(ctx, &header)
	if err != nil {
		return nil, failStep(StepHeaderWrite, err)
	}

	items := rekeyItems(inv.Items, created.ID, inv.CompanyID)
	if len(items) > 0 {
		if err := a.remote.InsertItems(ctx, items); err != nil {
			return nil, failStep(StepItemInsert, err)
		}
	}

	result := *created
	result.Items = items
	result.Payments = []models.Payment{}
	a.log.Info().Str("invoice", result.ID).Str("display", result.DisplayID).Msg("replayed invoice create")
	return &result, nil
}

// applyDelete removes an invoice remotely, children before parent so
// referential constraints hold: payments, then items, then the header.
func (a *Applier) applyDelete(ctx context.Context, companyID, invoiceID string) error {
	if err := a.remote.DeletePaymentsByInvoice(ctx, companyID, invoiceID); err != nil {
		return failStep(StepPaymentDelete, err)
	}
	if err := a.remote.DeleteItemsByInvoice(ctx, companyID, invoiceID); err != nil {
		return failStep(StepItemDelete, err)
	}
	rows, err := a.remote.DeleteInvoice(ctx, companyID, invoiceID)
	if err != nil {
		return failStep(StepHeaderDelete, err)
	}
	if rows == 0 {
		// Transport-level success that removed nothing; usually an
		// access-control rule silently eating the delete.
		return &RemoteError{
			Step: StepHeaderDelete,
			Kind: KindZeroRowsAffected,
			Err:  fmt.Errorf("invoice %s: delete affected no rows", invoiceID),
		}
	}
	a.log.Info().Str("invoice", invoiceID).Msg("replayed invoice delete")
	return nil
}

// FormatDisplayID composes the human-facing invoice number from the
// company's prefix and counter value, zero-padded to 6 digits.
func FormatDisplayID(prefix string, number int) string {
	return fmt.Sprintf("%s%06d", prefix, number)
}

// rekeyItems returns a copy of items linked to the confirmed invoice id,
// each with a fresh unique id.
func rekeyItems(items []models.InvoiceItem, invoiceID, companyID string) []models.InvoiceItem {
	out := make([]models.InvoiceItem, len(items))
	for i := range items {
		out[i] = items[i]
		out[i].ID = uuid.NewString()
		out[i].InvoiceID = invoiceID
		out[i].CompanyID = companyID
	}
	return out
}
