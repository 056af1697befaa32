package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"garage-backend/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is an in-memory RemoteStore with per-method failure injection.
type fakeRemote struct {
	prefix     string
	nextNumber int

	invoices map[string]*models.Invoice
	items    map[string][]models.InvoiceItem
	payments map[string][]models.Payment

	calls              []string
	numberingCompanies []string

	failNumbering     error
	failInsertInvoice error
	failUpdateInvoice error
	failDeleteInvoice error
	failInsertItems   error
	failDeleteItems   error
	failDeletePays    error

	inserted int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		prefix:     "F-",
		nextNumber: 1,
		invoices:   make(map[string]*models.Invoice),
		items:      make(map[string][]models.InvoiceItem),
		payments:   make(map[string][]models.Payment),
	}
}

func (f *fakeRemote) NextInvoiceNumber(ctx context.Context, companyID string) (string, int, error) {
	f.calls = append(f.calls, "numbering")
	f.numberingCompanies = append(f.numberingCompanies, companyID)
	if f.failNumbering != nil {
		return "", 0, f.failNumbering
	}
	n := f.nextNumber
	f.nextNumber++
	return f.prefix, n, nil
}

func (f *fakeRemote) InsertInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	f.calls = append(f.calls, "insert invoice")
	if f.failInsertInvoice != nil {
		return nil, f.failInsertInvoice
	}
	f.inserted++
	stored := *inv
	stored.ID = fmt.Sprintf("srv-%d", f.inserted)
	f.invoices[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeRemote) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	f.calls = append(f.calls, "update invoice")
	if f.failUpdateInvoice != nil {
		return f.failUpdateInvoice
	}
	if _, ok := f.invoices[inv.ID]; !ok {
		return NewRemoteError(KindZeroRowsAffected, errors.New("no row matched"))
	}
	stored := *inv
	f.invoices[inv.ID] = &stored
	return nil
}

func (f *fakeRemote) DeleteInvoice(ctx context.Context, companyID, invoiceID string) (int64, error) {
	f.calls = append(f.calls, "delete invoice")
	if f.failDeleteInvoice != nil {
		return 0, f.failDeleteInvoice
	}
	if _, ok := f.invoices[invoiceID]; !ok {
		return 0, nil
	}
	delete(f.invoices, invoiceID)
	return 1, nil
}

func (f *fakeRemote) InsertItems(ctx context.Context, items []models.InvoiceItem) error {
	f.calls = append(f.calls, "insert items")
	if f.failInsertItems != nil {
		return f.failInsertItems
	}
	for _, it := range items {
		f.items[it.InvoiceID] = append(f.items[it.InvoiceID], it)
	}
	return nil
}

func (f *fakeRemote) DeleteItemsByInvoice(ctx context.Context, companyID, invoiceID string) error {
	f.calls = append(f.calls, "delete items")
	if f.failDeleteItems != nil {
		return f.failDeleteItems
	}
	delete(f.items, invoiceID)
	return nil
}

func (f *fakeRemote) DeletePaymentsByInvoice(ctx context.Context, companyID, invoiceID string) error {
	f.calls = append(f.calls, "delete payments")
	if f.failDeletePays != nil {
		return f.failDeletePays
	}
	delete(f.payments, invoiceID)
	return nil
}

func testInvoice(companyID string) *models.Invoice {
	inv := &models.Invoice{
		ID:        models.NewOfflineID(),
		CompanyID: companyID,
		ClientID:  7,
		Items: []models.InvoiceItem{
			{Kind: models.ItemService, Description: "oil change", Quantity: 1, UnitPrice: 60},
			{Kind: models.ItemPart, Description: "oil filter", Quantity: 2, UnitPrice: 15},
		},
		Currency: "USD",
	}
	inv.Recalculate()
	return inv
}

func mustCreateMutation(t *testing.T, inv *models.Invoice) QueuedMutation {
	t.Helper()
	m, err := NewInvoiceMutation(KindCreate, inv)
	require.NoError(t, err)
	return m
}

func TestApplyCreateAssignsSequentialNumbers(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())
	ctx := context.Background()

	var displays []string
	for i := 0; i < 3; i++ {
		m := mustCreateMutation(t, testInvoice("co-1"))
		got, err := a.Apply(ctx, &m)
		require.NoError(t, err)
		displays = append(displays, got.DisplayID)
		assert.False(t, models.IsOfflineID(got.ID))
	}

	assert.Equal(t, []string{"F-000001", "F-000002", "F-000003"}, displays)
	assert.Equal(t, 4, remote.nextNumber)

	// Numbering must be addressed to the mutation's tenant, never "".
	assert.Equal(t, []string{"co-1", "co-1", "co-1"}, remote.numberingCompanies)
}

func TestApplyCreateRekeysItems(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())

	inv := testInvoice("co-1")
	localItemID := "local-item-1"
	inv.Items[0].ID = localItemID

	m := mustCreateMutation(t, inv)
	got, err := a.Apply(context.Background(), &m)
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		assert.NotEqual(t, localItemID, it.ID)
		assert.Equal(t, got.ID, it.InvoiceID)
		assert.Equal(t, "co-1", it.CompanyID)
	}
	assert.Empty(t, got.Payments)
}

func TestApplyCreateNumberingFailureStopsEverything(t *testing.T) {
	remote := newFakeRemote()
	remote.failNumbering = NewRemoteError(KindTransport, errors.New("dial timeout"))
	a := NewApplier(remote, zerolog.Nop())

	m := mustCreateMutation(t, testInvoice("co-1"))
	_, err := a.Apply(context.Background(), &m)
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepNumbering, re.Step)
	assert.Equal(t, KindTransport, re.Kind)
	assert.Equal(t, 0, remote.inserted)
}

func TestApplyUpdateHeaderFailureLeavesItemsUntouched(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())
	ctx := context.Background()

	m := mustCreateMutation(t, testInvoice("co-1"))
	created, err := a.Apply(ctx, &m)
	require.NoError(t, err)
	itemsBefore := remote.items[created.ID]
	require.Len(t, itemsBefore, 2)

	remote.failUpdateInvoice = NewRemoteError(KindTransport, errors.New("connection reset"))
	created.Notes = "edited offline"
	um, err := NewInvoiceMutation(KindUpdate, created)
	require.NoError(t, err)

	_, err = a.Apply(ctx, &um)
	require.Error(t, err)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepHeaderWrite, re.Step)

	// Remote line items were never deleted or reinserted.
	assert.Equal(t, itemsBefore, remote.items[created.ID])
	assert.NotContains(t, remote.calls, "delete items")
}

func TestApplyUpdateReplacesItemSet(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())
	ctx := context.Background()

	m := mustCreateMutation(t, testInvoice("co-1"))
	created, err := a.Apply(ctx, &m)
	require.NoError(t, err)

	created.Items = []models.InvoiceItem{
		{Kind: models.ItemCustom, Description: "tow fee", Quantity: 1, UnitPrice: 80},
	}
	created.Recalculate()
	um, err := NewInvoiceMutation(KindUpdate, created)
	require.NoError(t, err)

	got, err := a.Apply(ctx, &um)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "tow fee", got.Items[0].Description)
	require.Len(t, remote.items[created.ID], 1)
}

func TestApplyDeleteCascadeOrder(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())
	ctx := context.Background()

	m := mustCreateMutation(t, testInvoice("co-1"))
	created, err := a.Apply(ctx, &m)
	require.NoError(t, err)

	remote.calls = nil
	dm, err := NewDeleteMutation("co-1", created.ID)
	require.NoError(t, err)
	_, err = a.Apply(ctx, &dm)
	require.NoError(t, err)

	assert.Equal(t, []string{"delete payments", "delete items", "delete invoice"}, remote.calls)
	assert.NotContains(t, remote.invoices, created.ID)
}

func TestApplyDeleteItemFailurePreservesHeader(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())
	ctx := context.Background()

	m := mustCreateMutation(t, testInvoice("co-1"))
	created, err := a.Apply(ctx, &m)
	require.NoError(t, err)

	remote.failDeleteItems = NewRemoteError(KindTransport, errors.New("connection reset"))
	dm, err := NewDeleteMutation("co-1", created.ID)
	require.NoError(t, err)

	_, err = a.Apply(ctx, &dm)
	require.Error(t, err)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepItemDelete, re.Step)

	// Header delete never ran; the invoice is still addressable for retry.
	assert.Contains(t, remote.invoices, created.ID)
	assert.NotContains(t, remote.calls, "delete invoice")
}

func TestApplyDeleteZeroRowsIsDistinctFailure(t *testing.T) {
	remote := newFakeRemote()
	a := NewApplier(remote, zerolog.Nop())

	dm, err := NewDeleteMutation("co-1", "no-such-invoice")
	require.NoError(t, err)
	_, err = a.Apply(context.Background(), &dm)
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepHeaderDelete, re.Step)
	assert.Equal(t, KindZeroRowsAffected, re.Kind)
}

func TestApplyRetriedCreateIsStillACreate(t *testing.T) {
	remote := newFakeRemote()
	remote.failInsertItems = NewRemoteError(KindTransport, errors.New("dial timeout"))
	a := NewApplier(remote, zerolog.Nop())
	ctx := context.Background()

	inv := testInvoice("co-1")
	m := mustCreateMutation(t, inv)
	_, err := a.Apply(ctx, &m)
	require.Error(t, err)

	// The queued payload still carries the offline placeholder id, so the
	// retry goes down the create path again rather than updating.
	remote.failInsertItems = nil
	got, err := a.Apply(ctx, &m)
	require.NoError(t, err)
	assert.False(t, models.IsOfflineID(got.ID))
	assert.Equal(t, 2, remote.inserted)
}

func TestFormatDisplayID(t *testing.T) {
	assert.Equal(t, "INV-000001", FormatDisplayID("INV-", 1))
	assert.Equal(t, "F-000042", FormatDisplayID("F-", 42))
	assert.Equal(t, "W-1000000", FormatDisplayID("W-", 1000000))
}
