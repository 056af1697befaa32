package syncer

import (
	"context"
	"path/filepath"
	"testing"

	"garage-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestQueue(t *testing.T) (*QueueStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	q, err := NewQueueStore(db)
	require.NoError(t, err)
	return q, path
}

func reopenQueue(t *testing.T, path string) *QueueStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	q, err := NewQueueStore(db)
	require.NoError(t, err)
	return q
}

func TestQueueFIFOOrder(t *testing.T) {
	q, _ := openTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		m, err := NewDeleteMutation("co-1", id)
		require.NoError(t, err)
		require.NoError(t, q.Enqueue(ctx, &m))
	}

	got, err := q.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, want := range []string{"a", "b", "c"} {
		id, err := got[i].InvoiceID()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestQueueSurvivesReopen(t *testing.T) {
	q, path := openTestQueue(t)
	ctx := context.Background()

	inv := &models.Invoice{ID: models.NewOfflineID(), CompanyID: "co-1", Total: 42}
	m, err := NewInvoiceMutation(KindCreate, inv)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, &m))

	q2 := reopenQueue(t, path)
	got, err := q2.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	decoded, err := got[0].Invoice()
	require.NoError(t, err)
	assert.Equal(t, inv.ID, decoded.ID)
	assert.Equal(t, 42.0, decoded.Total)
	assert.Equal(t, "co-1", got[0].CompanyID)
}

func TestInvoicePayloadKeepsTenant(t *testing.T) {
	inv := &models.Invoice{
		ID:        models.NewOfflineID(),
		CompanyID: "co-1",
		Items: []models.InvoiceItem{
			{Kind: models.ItemService, Description: "brake check", Quantity: 1, UnitPrice: 45},
		},
		Payments: []models.Payment{{Amount: 10}},
	}
	m, err := NewInvoiceMutation(KindUpdate, inv)
	require.NoError(t, err)

	// CompanyID is json:"-" on the wire models; the decode must restore it
	// from the queue record or every replay addresses an empty tenant.
	decoded, err := m.Invoice()
	require.NoError(t, err)
	assert.Equal(t, "co-1", decoded.CompanyID)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, "co-1", decoded.Items[0].CompanyID)
	assert.Equal(t, inv.ID, decoded.Items[0].InvoiceID)
	require.Len(t, decoded.Payments, 1)
	assert.Equal(t, "co-1", decoded.Payments[0].CompanyID)
}

func TestQueueRemoveIsIdempotent(t *testing.T) {
	q, _ := openTestQueue(t)
	ctx := context.Background()

	m, err := NewDeleteMutation("co-1", "inv-1")
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, &m))

	require.NoError(t, q.RemoveByID(ctx, m.ID))
	require.NoError(t, q.RemoveByID(ctx, m.ID))
	require.NoError(t, q.RemoveByID(ctx, "never-existed"))

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueueCount(t *testing.T) {
	q, _ := openTestQueue(t)
	ctx := context.Background()

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	m, err := NewDeleteMutation("co-1", "inv-1")
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, &m))
	assert.NotEmpty(t, m.ID)

	n, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
