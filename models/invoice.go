package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfflineIDPrefix marks invoice ids generated locally before the first
// successful remote create. The remote store assigns its own id on insert.
const OfflineIDPrefix = "offline-"

// NewOfflineID returns a fresh locally-generated placeholder invoice id.
func NewOfflineID() string {
	return OfflineIDPrefix + uuid.NewString()
}

// IsOfflineID reports whether id is a locally-generated placeholder (i.e. the
// invoice has never been created remotely).
func IsOfflineID(id string) bool {
	return strings.HasPrefix(id, OfflineIDPrefix)
}

// Invoice statuses, derived on read (never stored).
const (
	StatusPending       = "pending"
	StatusPartiallyPaid = "partially_paid"
	StatusPaid          = "paid"
	StatusOverdue       = "overdue"
)

// Discount types.
const (
	DiscountFixed   = "fixed"
	DiscountPercent = "percent"
)

// OverduePeriod is how long an unpaid invoice may age before it is overdue.
const OverduePeriod = 30 * 24 * time.Hour

// paidEpsilon absorbs float rounding when comparing balance against zero.
const paidEpsilon = 0.01

// Invoice is the live state of a workshop invoice.
type Invoice struct {
	ID        string `json:"id" gorm:"primaryKey"`
	CompanyID string `json:"-" gorm:"index;not null"`

	// DisplayID is the human-facing sequential number (prefix + counter),
	// assigned exactly once by the remote store at creation time.
	DisplayID string `json:"display_id" gorm:"index:idx_invoices_company_display,unique"`

	ClientID  uint  `json:"client_id" gorm:"index"`
	VehicleID *uint `json:"vehicle_id"`

	Items    []InvoiceItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments []Payment     `json:"payments" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	Subtotal      float64 `json:"subtotal" gorm:"type:numeric(12,2)"`
	DiscountType  string  `json:"discount_type" gorm:"type:VARCHAR(10)"` // "fixed" | "percent"
	DiscountValue float64 `json:"discount_value" gorm:"type:numeric(12,2)"`
	TaxEnabled    bool    `json:"tax_enabled"`
	TaxRate       float64 `json:"tax_rate"` // percentage, e.g. 16 for 16%
	Total         float64 `json:"total" gorm:"type:numeric(12,2)"`

	Currency  string    `json:"currency" gorm:"type:VARCHAR(3)"`
	Notes     string    `json:"notes"`
	IssueDate time.Time `json:"issue_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceItem line kinds.
const (
	ItemService = "service"
	ItemPart    = "part"
	ItemCustom  = "custom"
)

type InvoiceItem struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	InvoiceID   string  `json:"-" gorm:"index;not null"`
	CompanyID   string  `json:"-" gorm:"index;not null"`
	Kind        string  `json:"kind" gorm:"type:VARCHAR(10)"` // "service" | "part" | "custom"
	Description string  `json:"description"`
	PartID      *string `json:"part_id" gorm:"index"` // set when Kind == "part"
	SupplierID  *uint   `json:"supplier_id"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:numeric(12,2)"`
	UnitCost    float64 `json:"unit_cost" gorm:"type:numeric(12,2)"`
}

func (item *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return
}

// LineTotal is quantity times unit price.
func (item *InvoiceItem) LineTotal() float64 {
	return item.Quantity * item.UnitPrice
}

type Payment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	InvoiceID string    `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1;not null"`
	CompanyID string    `json:"-" gorm:"index;not null"`
	Amount    float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return
}

// DiscountAmount resolves the configured discount against the subtotal.
// A percentage discount applies to the subtotal; either form is clamped so
// the discounted subtotal never drops below zero.
func (inv *Invoice) DiscountAmount() float64 {
	var d float64
	switch inv.DiscountType {
	case DiscountPercent:
		d = inv.Subtotal * inv.DiscountValue / 100
	case DiscountFixed:
		d = inv.DiscountValue
	}
	if d < 0 {
		d = 0
	}
	if d > inv.Subtotal {
		d = inv.Subtotal
	}
	return d
}

// TaxAmount applies the invoice tax rate to the post-discount subtotal,
// only when tax is enabled for this invoice.
func (inv *Invoice) TaxAmount() float64 {
	if !inv.TaxEnabled {
		return 0
	}
	return (inv.Subtotal - inv.DiscountAmount()) * inv.TaxRate / 100
}

// Recalculate recomputes Subtotal and Total from the current item set.
// Invariant: total = subtotal - discount + tax.
func (inv *Invoice) Recalculate() {
	var sub float64
	for i := range inv.Items {
		sub += inv.Items[i].LineTotal()
	}
	inv.Subtotal = round2(sub)
	inv.Total = round2(inv.Subtotal - inv.DiscountAmount() + inv.TaxAmount())
}

// PaidTotal sums all recorded payments.
func (inv *Invoice) PaidTotal() float64 {
	var paid float64
	for i := range inv.Payments {
		paid += inv.Payments[i].Amount
	}
	return paid
}

// Balance is the amount still owed.
func (inv *Invoice) Balance() float64 {
	return inv.Total - inv.PaidTotal()
}

// Status derives the invoice state at the given instant.
func (inv *Invoice) Status(now time.Time) string {
	balance := inv.Balance()
	hasPayment := len(inv.Payments) > 0

	switch {
	case balance <= paidEpsilon && inv.Total > 0:
		return StatusPaid
	case hasPayment && balance > paidEpsilon:
		return StatusPartiallyPaid
	case !hasPayment && now.Sub(inv.IssueDate) > OverduePeriod:
		return StatusOverdue
	default:
		return StatusPending
	}
}

// round2 mirrors utils.Round2; duplicated here so models stays free of
// intra-module imports.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
