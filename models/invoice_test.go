package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecalculate(t *testing.T) {
	tests := []struct {
		name         string
		items        []InvoiceItem
		discountType string
		discountVal  float64
		taxEnabled   bool
		taxRate      float64
		wantSubtotal float64
		wantTotal    float64
	}{
		{
			name: "no discount no tax",
			items: []InvoiceItem{
				{Kind: ItemService, Quantity: 2, UnitPrice: 50},
				{Kind: ItemPart, Quantity: 1, UnitPrice: 120.50},
			},
			wantSubtotal: 220.50,
			wantTotal:    220.50,
		},
		{
			name: "fixed discount",
			items: []InvoiceItem{
				{Kind: ItemService, Quantity: 1, UnitPrice: 100},
			},
			discountType: DiscountFixed,
			discountVal:  25,
			wantSubtotal: 100,
			wantTotal:    75,
		},
		{
			name: "percent discount",
			items: []InvoiceItem{
				{Kind: ItemService, Quantity: 1, UnitPrice: 200},
			},
			discountType: DiscountPercent,
			discountVal:  10,
			wantSubtotal: 200,
			wantTotal:    180,
		},
		{
			name: "tax applies after discount",
			items: []InvoiceItem{
				{Kind: ItemService, Quantity: 1, UnitPrice: 100},
			},
			discountType: DiscountFixed,
			discountVal:  20,
			taxEnabled:   true,
			taxRate:      16,
			wantSubtotal: 100,
			wantTotal:    92.80,
		},
		{
			name: "tax disabled means no tax",
			items: []InvoiceItem{
				{Kind: ItemService, Quantity: 1, UnitPrice: 100},
			},
			taxEnabled:   false,
			taxRate:      16,
			wantSubtotal: 100,
			wantTotal:    100,
		},
		{
			name: "fixed discount clamped to subtotal",
			items: []InvoiceItem{
				{Kind: ItemService, Quantity: 1, UnitPrice: 50},
			},
			discountType: DiscountFixed,
			discountVal:  500,
			wantSubtotal: 50,
			wantTotal:    0,
		},
		{
			name:         "empty item set",
			items:        nil,
			wantSubtotal: 0,
			wantTotal:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Invoice{
				Items:         tt.items,
				DiscountType:  tt.discountType,
				DiscountValue: tt.discountVal,
				TaxEnabled:    tt.taxEnabled,
				TaxRate:       tt.taxRate,
			}
			inv.Recalculate()
			assert.InDelta(t, tt.wantSubtotal, inv.Subtotal, 0.001)
			assert.InDelta(t, tt.wantTotal, inv.Total, 0.001)

			// total = subtotal - discount + tax must always hold
			assert.InDelta(t, inv.Subtotal-inv.DiscountAmount()+inv.TaxAmount(), inv.Total, 0.005)
		})
	}
}

func TestNegativeDiscountIgnored(t *testing.T) {
	inv := Invoice{
		Items:         []InvoiceItem{{Quantity: 1, UnitPrice: 100}},
		DiscountType:  DiscountFixed,
		DiscountValue: -10,
	}
	inv.Recalculate()
	assert.Equal(t, 100.0, inv.Total)
}

func TestStatus(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	recent := now.AddDate(0, 0, -5)
	old := now.AddDate(0, 0, -45)

	tests := []struct {
		name     string
		total    float64
		payments []Payment
		issued   time.Time
		want     string
	}{
		{
			name:   "fresh unpaid invoice is pending",
			total:  100,
			issued: recent,
			want:   StatusPending,
		},
		{
			name:     "fully paid",
			total:    100,
			payments: []Payment{{Amount: 100}},
			issued:   recent,
			want:     StatusPaid,
		},
		{
			name:     "paid within rounding epsilon",
			total:    100,
			payments: []Payment{{Amount: 99.995}},
			issued:   recent,
			want:     StatusPaid,
		},
		{
			name:     "partial payment",
			total:    100,
			payments: []Payment{{Amount: 40}},
			issued:   recent,
			want:     StatusPartiallyPaid,
		},
		{
			name:   "no payment past thirty days is overdue",
			total:  100,
			issued: old,
			want:   StatusOverdue,
		},
		{
			name:     "partial payment never goes overdue",
			total:    100,
			payments: []Payment{{Amount: 10}},
			issued:   old,
			want:     StatusPartiallyPaid,
		},
		{
			name:   "zero total invoice stays pending",
			total:  0,
			issued: recent,
			want:   StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Invoice{Total: tt.total, Payments: tt.payments, IssueDate: tt.issued}
			assert.Equal(t, tt.want, inv.Status(now))
		})
	}
}

func TestOfflineID(t *testing.T) {
	id := NewOfflineID()
	assert.True(t, IsOfflineID(id))
	assert.False(t, IsOfflineID("3a0f2c9e-1111-2222-3333-444455556666"))

	other := NewOfflineID()
	assert.NotEqual(t, id, other)
}
