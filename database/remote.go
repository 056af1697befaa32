package database

import (
	"context"
	"errors"
	"fmt"

	"garage-backend/models"
	"garage-backend/syncer"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newInvoiceID is the server-side id assignment for fresh headers.
func newInvoiceID() string {
	return uuid.NewString()
}

// RemoteInvoiceStore implements syncer.RemoteStore on the hosted Postgres
// database. Every statement filters by company id; deletes and header
// updates report affected rows so silent no-ops surface as failures.
type RemoteInvoiceStore struct {
	db *gorm.DB
}

func NewRemoteInvoiceStore(db *gorm.DB) *RemoteInvoiceStore {
	return &RemoteInvoiceStore{db: db}
}

// NextInvoiceNumber allocates the next display number for the company in a
// single atomic increment-and-return statement. Two near-simultaneous
// creates can never receive the same number.
func (r *RemoteInvoiceStore) NextInvoiceNumber(ctx context.Context, companyID string) (string, int, error) {
	var row struct {
		InvoicePrefix string
		Allocated     int
	}
	res := r.db.WithContext(ctx).Raw(`
		UPDATE companies
		SET invoice_next_number = invoice_next_number + 1
		WHERE id = ?
		RETURNING invoice_prefix, invoice_next_number - 1 AS allocated`,
		companyID).Scan(&row)
	if res.Error != nil {
		return "", 0, classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return "", 0, syncer.NewRemoteError(syncer.KindNotFound,
			fmt.Errorf("company %s: numbering settings missing", companyID))
	}
	return row.InvoicePrefix, row.Allocated, nil
}

func (r *RemoteInvoiceStore) InsertInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	stored := *inv
	if stored.ID == "" {
		stored.ID = newInvoiceID()
	}
	if err := r.db.WithContext(ctx).Omit("Items", "Payments").Create(&stored).Error; err != nil {
		return nil, classify(err)
	}
	return &stored, nil
}

func (r *RemoteInvoiceStore) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND company_id = ?", inv.ID, inv.CompanyID).
		Updates(map[string]any{
			"client_id":      inv.ClientID,
			"vehicle_id":     inv.VehicleID,
			"subtotal":       inv.Subtotal,
			"discount_type":  inv.DiscountType,
			"discount_value": inv.DiscountValue,
			"tax_enabled":    inv.TaxEnabled,
			"tax_rate":       inv.TaxRate,
			"total":          inv.Total,
			"currency":       inv.Currency,
			"notes":          inv.Notes,
			"issue_date":     inv.IssueDate,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return syncer.NewRemoteError(syncer.KindZeroRowsAffected,
			fmt.Errorf("invoice %s: header update matched no rows", inv.ID))
	}
	return nil
}

func (r *RemoteInvoiceStore) DeleteInvoice(ctx context.Context, companyID, invoiceID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", invoiceID, companyID).
		Delete(&models.Invoice{})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RemoteInvoiceStore) InsertItems(ctx context.Context, items []models.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (r *RemoteInvoiceStore) DeleteItemsByInvoice(ctx context.Context, companyID, invoiceID string) error {
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND company_id = ?", invoiceID, companyID).
		Delete(&models.InvoiceItem{}).Error
	if err != nil {
		return classify(err)
	}
	return nil
}

func (r *RemoteInvoiceStore) DeletePaymentsByInvoice(ctx context.Context, companyID, invoiceID string) error {
	err := r.db.WithContext(ctx).
		Where("invoice_id = ? AND company_id = ?", invoiceID, companyID).
		Delete(&models.Payment{}).Error
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify maps database errors onto the syncer's error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return syncer.NewRemoteError(syncer.KindNotFound, err)
	default:
		return syncer.NewRemoteError(syncer.KindTransport, err)
	}
}
