package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"garage-backend/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, online bool) (*Orchestrator, *fakeRemote) {
	t.Helper()
	q, _ := openTestQueue(t)
	remote := newFakeRemote()
	tracker := NewTracker(online)
	o := NewOrchestrator(q, tracker, NewApplier(remote, zerolog.Nop()), NewInvoiceCache(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, o.Start(ctx))
	t.Cleanup(func() {
		o.Stop()
		cancel()
	})
	return o, remote
}

func waitForPending(t *testing.T, o *Orchestrator, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return o.Status().Pending == want
	}, 2*time.Second, 10*time.Millisecond, "pending never reached %d", want)
}

func TestSaveOnlineAppliesDirectly(t *testing.T) {
	o, _ := newTestEngine(t, true)

	got, queued, err := o.Save(context.Background(), testInvoice("co-1"))
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, "F-000001", got.DisplayID)
	assert.False(t, models.IsOfflineID(got.ID))
	assert.Equal(t, 0, o.Status().Pending)

	// The collection holds the authoritative copy.
	cached, ok := o.Cache().Get("co-1", got.ID)
	require.True(t, ok)
	assert.Equal(t, got.DisplayID, cached.DisplayID)
}

func TestSaveOfflineQueuesAndDrainsOnReconnect(t *testing.T) {
	o, remote := newTestEngine(t, false)
	ctx := context.Background()

	got, queued, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	assert.True(t, queued)
	assert.True(t, models.IsOfflineID(got.ID))
	assert.Equal(t, 1, o.Status().Pending)
	assert.Equal(t, 0, remote.inserted)

	o.Tracker().SetOnline(true)
	waitForPending(t, o, 0)

	// The placeholder entry was replaced by the authoritative invoice.
	_, stillThere := o.Cache().Get("co-1", got.ID)
	assert.False(t, stillThere)
	all := o.Cache().List("co-1")
	require.Len(t, all, 1)
	assert.Equal(t, "F-000001", all[0].DisplayID)
	assert.False(t, models.IsOfflineID(all[0].ID))
}

func TestSaveBehindPendingQueueStaysFIFO(t *testing.T) {
	o, _ := newTestEngine(t, false)
	ctx := context.Background()

	_, queued, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	require.True(t, queued)

	// Back online, but the first edit is still queued: the second edit must
	// queue behind it rather than jump ahead.
	o.Tracker().SetOnline(true)

	// Race the drain loop deliberately: whichever wins, the second save
	// never reorders ahead of the first.
	second := testInvoice("co-1")
	_, _, err = o.Save(ctx, second)
	require.NoError(t, err)

	waitForPending(t, o, 0)
	assert.Len(t, o.Cache().List("co-1"), 2)
}

func TestHeadOfQueueBlocksOnFailure(t *testing.T) {
	o, remote := newTestEngine(t, false)
	ctx := context.Background()

	_, _, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	_, _, err = o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	require.Equal(t, 2, o.Status().Pending)

	remote.failNumbering = NewRemoteError(KindTransport, errors.New("dial timeout"))
	o.Tracker().SetOnline(true)

	// The head fails in transport, the drain stops and flips back offline.
	require.Eventually(t, func() bool {
		return !o.Tracker().Online()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, o.Status().Pending)
	assert.Equal(t, 0, remote.inserted)

	// Connectivity restored: both replay in order.
	remote.failNumbering = nil
	o.Tracker().SetOnline(true)
	waitForPending(t, o, 0)
	assert.Equal(t, 2, remote.inserted)
}

func TestSaveTransportFailureFallsBackToQueue(t *testing.T) {
	o, remote := newTestEngine(t, true)
	remote.failNumbering = NewRemoteError(KindTransport, errors.New("connection refused"))

	got, queued, err := o.Save(context.Background(), testInvoice("co-1"))
	require.NoError(t, err)
	assert.True(t, queued)
	assert.True(t, models.IsOfflineID(got.ID))
	assert.False(t, o.Tracker().Online())
	assert.Equal(t, 1, o.Status().Pending)
}

func TestSaveNonTransportFailureSurfaces(t *testing.T) {
	o, remote := newTestEngine(t, true)
	remote.failNumbering = NewRemoteError(KindAuthorization, errors.New("jwt expired"))

	_, queued, err := o.Save(context.Background(), testInvoice("co-1"))
	require.Error(t, err)
	assert.False(t, queued)
	assert.Equal(t, KindAuthorization, KindOf(err))

	// Authorization failures are not connectivity loss.
	assert.True(t, o.Tracker().Online())
	assert.Equal(t, 0, o.Status().Pending)
}

func TestDeleteOfflineOnlyInvoiceCancelsQueuedCreate(t *testing.T) {
	o, remote := newTestEngine(t, false)
	ctx := context.Background()

	got, _, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	require.True(t, models.IsOfflineID(got.ID))
	require.Equal(t, 1, o.Status().Pending)

	queued, err := o.Delete(ctx, "co-1", got.ID)
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, 0, o.Status().Pending)
	_, stillThere := o.Cache().Get("co-1", got.ID)
	assert.False(t, stillThere)

	// Nothing ever reaches the remote, even after reconnect.
	o.Tracker().SetOnline(true)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, remote.inserted)
	assert.NotContains(t, remote.calls, "delete invoice")
}

func TestDeleteOnlineRemovesRemotely(t *testing.T) {
	o, remote := newTestEngine(t, true)
	ctx := context.Background()

	got, _, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)

	queued, err := o.Delete(ctx, "co-1", got.ID)
	require.NoError(t, err)
	assert.False(t, queued)
	assert.NotContains(t, remote.invoices, got.ID)
	_, stillThere := o.Cache().Get("co-1", got.ID)
	assert.False(t, stillThere)
}

func TestRefreshCachePreservesPendingOfflineCreate(t *testing.T) {
	o, _ := newTestEngine(t, false)
	ctx := context.Background()

	got, _, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	require.True(t, models.IsOfflineID(got.ID))
	require.Equal(t, 1, o.Status().Pending)

	// A list refresh that races the queued create (the remote does not know
	// the invoice yet) must not erase the optimistic entry.
	require.NoError(t, o.RefreshCache(ctx, "co-1", nil))

	cached, ok := o.Cache().Get("co-1", got.ID)
	require.True(t, ok)
	assert.Equal(t, got.ID, cached.ID)
	assert.Equal(t, 1, o.Status().Pending)
}

func TestRefreshCacheDoesNotResurrectQueuedDelete(t *testing.T) {
	o, _ := newTestEngine(t, false)
	ctx := context.Background()

	require.NoError(t, o.EnqueueDelete(ctx, "co-1", "srv-1"))

	// The remote still returns the row because the delete has not replayed
	// yet; the refresh must not bring it back into the collection.
	require.NoError(t, o.RefreshCache(ctx, "co-1", []models.Invoice{
		{ID: "srv-1", CompanyID: "co-1"},
		{ID: "srv-2", CompanyID: "co-1"},
	}))

	_, ok := o.Cache().Get("co-1", "srv-1")
	assert.False(t, ok)
	_, ok = o.Cache().Get("co-1", "srv-2")
	assert.True(t, ok)
}

func TestStaleOfflineNotificationDoesNotStrandQueue(t *testing.T) {
	o, remote := newTestEngine(t, false)
	ctx := context.Background()

	_, _, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	_, _, err = o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)

	// The failing drain flips the tracker offline from the loop goroutine,
	// leaving an offline notification buffered in its own subscription.
	remote.failNumbering = NewRemoteError(KindTransport, errors.New("dial timeout"))
	o.Tracker().SetOnline(true)
	require.Eventually(t, func() bool {
		return !o.Tracker().Online()
	}, 2*time.Second, time.Millisecond)

	// Reconnect immediately: even when the online flip is coalesced away
	// behind the stale offline one, the loop re-checks live state and the
	// queue still drains.
	remote.failNumbering = nil
	o.Tracker().SetOnline(true)
	waitForPending(t, o, 0)
	assert.Equal(t, 2, remote.inserted)
}

func TestStatusReflectsEngineState(t *testing.T) {
	o, _ := newTestEngine(t, false)

	st := o.Status()
	assert.False(t, st.Online)
	assert.False(t, st.Syncing)
	assert.Equal(t, 0, st.Pending)

	_, _, err := o.Save(context.Background(), testInvoice("co-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, o.Status().Pending)
}

func TestQueueSurvivesEngineRestart(t *testing.T) {
	q, path := openTestQueue(t)
	remote := newFakeRemote()
	tracker := NewTracker(false)
	o := NewOrchestrator(q, tracker, NewApplier(remote, zerolog.Nop()), NewInvoiceCache(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, o.Start(ctx))

	_, _, err := o.Save(ctx, testInvoice("co-1"))
	require.NoError(t, err)
	require.Equal(t, 1, o.Status().Pending)

	o.Stop()
	cancel()

	// A fresh engine over the same queue file picks the record up and
	// replays it once connectivity arrives.
	q2 := reopenQueue(t, path)
	o2 := NewOrchestrator(q2, NewTracker(true), NewApplier(remote, zerolog.Nop()), NewInvoiceCache(), zerolog.Nop())
	ctx2, cancel2 := context.WithCancel(context.Background())
	require.NoError(t, o2.Start(ctx2))
	t.Cleanup(func() {
		o2.Stop()
		cancel2()
	})

	waitForPending(t, o2, 0)
	assert.Equal(t, 1, remote.inserted)
}
