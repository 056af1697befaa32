package syncer

import (
	"context"
	"sync"

	"garage-backend/models"

	"github.com/rs/zerolog"
)

// Status is the process-wide sync state surfaced to the rest of the
// application (UI badges, status endpoint).
type Status struct {
	Online  bool `json:"is_online"`
	Syncing bool `json:"is_syncing"`
	Pending int  `json:"pending_count"`
}

// Orchestrator coordinates queue draining with connectivity. All drain
// decisions happen on one goroutine, so the syncing flag is a plain boolean
// guard rather than a full mutex around the drain itself.
type Orchestrator struct {
	queue   *QueueStore
	tracker *Tracker
	applier *Applier
	cache   *InvoiceCache
	log     zerolog.Logger

	// kick wakes the loop when the queue grows; capacity 1 coalesces bursts.
	kick chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	syncing bool
	pending int
}

func NewOrchestrator(queue *QueueStore, tracker *Tracker, applier *Applier, cache *InvoiceCache, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		queue:   queue,
		tracker: tracker,
		applier: applier,
		cache:   cache,
		log:     log,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Start loads the persisted pending count and launches the drain loop. The
// loop re-evaluates its trigger (online AND pending > 0 AND not draining)
// whenever connectivity flips or the queue grows.
func (o *Orchestrator) Start(ctx context.Context) error {
	n, err := o.queue.Count(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.pending = n
	o.mu.Unlock()

	connCh := o.tracker.Subscribe()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.tracker.Unsubscribe(connCh)
		o.maybeDrain(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-o.stop:
				return
			case <-connCh:
				// Re-check live state instead of trusting the received
				// value: a stale offline notification can sit buffered
				// ahead of a newer online flip, and acting on it would
				// strand a non-empty queue until the next Kick.
				o.maybeDrain(ctx)
			case <-o.kick:
				o.maybeDrain(ctx)
			}
		}
	}()
	return nil
}

// Stop terminates the drain loop. Records not yet confirmed stay queued,
// which is the desired at-least-once behavior.
func (o *Orchestrator) Stop() {
	close(o.stop)
	o.wg.Wait()
}

// Status reports connectivity, drain activity and the pending count.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		Online:  o.tracker.Online(),
		Syncing: o.syncing,
		Pending: o.pending,
	}
}

// Cache exposes the in-memory invoice collection.
func (o *Orchestrator) Cache() *InvoiceCache { return o.cache }

// Tracker exposes the connectivity signal.
func (o *Orchestrator) Tracker() *Tracker { return o.tracker }

// EnqueueSave records an offline create/update: the client-visible shape of
// the change goes into the in-memory collection immediately, the snapshot
// into the durable queue. Returns the (possibly placeholder) id under which
// the invoice is now visible.
func (o *Orchestrator) EnqueueSave(ctx context.Context, inv *models.Invoice) (string, error) {
	kind := KindUpdate
	if inv.ID == "" || models.IsOfflineID(inv.ID) {
		kind = KindCreate
		if inv.ID == "" {
			inv.ID = models.NewOfflineID()
		}
	}

	m, err := NewInvoiceMutation(kind, inv)
	if err != nil {
		return "", err
	}
	if err := o.queue.Enqueue(ctx, &m); err != nil {
		return "", err
	}
	o.cache.Upsert(inv)
	o.bumpPending(1)
	o.Kick()
	return inv.ID, nil
}

// EnqueueDelete records an offline delete and removes the invoice from the
// in-memory collection immediately. Deleting an invoice that was never
// created remotely just cancels its queued mutations.
func (o *Orchestrator) EnqueueDelete(ctx context.Context, companyID, invoiceID string) error {
	if models.IsOfflineID(invoiceID) {
		return o.cancelQueued(ctx, invoiceID)
	}
	m, err := NewDeleteMutation(companyID, invoiceID)
	if err != nil {
		return err
	}
	if err := o.queue.Enqueue(ctx, &m); err != nil {
		return err
	}
	o.cache.Remove(invoiceID)
	o.bumpPending(1)
	o.Kick()
	return nil
}

// Save persists an invoice mutation. When online with an empty queue the
// mutation is applied remotely right away and the authoritative result
// returned. Otherwise it takes the optimistic offline path: the queue must
// stay FIFO, so once anything is pending all further edits queue behind it.
// queued reports which path was taken.
func (o *Orchestrator) Save(ctx context.Context, inv *models.Invoice) (result *models.Invoice, queued bool, err error) {
	if o.mustQueue() {
		id, err := o.EnqueueSave(ctx, inv)
		if err != nil {
			return nil, false, err
		}
		out, _ := o.cache.Get(inv.CompanyID, id)
		return out, true, nil
	}

	kind := KindUpdate
	if inv.ID == "" || models.IsOfflineID(inv.ID) {
		kind = KindCreate
	}
	m, err := NewInvoiceMutation(kind, inv)
	if err != nil {
		return nil, false, err
	}
	res, err := o.applier.Apply(ctx, &m)
	if err != nil {
		if KindOf(err) == KindTransport {
			// Connectivity just dropped; fall back to the offline path.
			o.tracker.SetOnline(false)
			id, qerr := o.EnqueueSave(ctx, inv)
			if qerr != nil {
				return nil, false, qerr
			}
			out, _ := o.cache.Get(inv.CompanyID, id)
			return out, true, nil
		}
		return nil, false, err
	}
	o.cache.Reconcile(inv.ID, res)
	return res, false, nil
}

// Delete removes an invoice remotely, or queues the delete when offline.
func (o *Orchestrator) Delete(ctx context.Context, companyID, invoiceID string) (queued bool, err error) {
	if models.IsOfflineID(invoiceID) {
		return false, o.cancelQueued(ctx, invoiceID)
	}
	if o.mustQueue() {
		return true, o.EnqueueDelete(ctx, companyID, invoiceID)
	}

	m, err := NewDeleteMutation(companyID, invoiceID)
	if err != nil {
		return false, err
	}
	if _, err := o.applier.Apply(ctx, &m); err != nil {
		if KindOf(err) == KindTransport {
			o.tracker.SetOnline(false)
			return true, o.EnqueueDelete(ctx, companyID, invoiceID)
		}
		return false, err
	}
	o.cache.Remove(invoiceID)
	return false, nil
}

// RefreshCache replaces one tenant's cached invoices with an authoritative
// remote listing while queued work stays visible: invoices with a pending
// create/update keep their optimistic entries, and rows with a pending
// delete are not resurrected by the stale remote read.
func (o *Orchestrator) RefreshCache(ctx context.Context, companyID string, invoices []models.Invoice) error {
	snapshot, err := o.queue.ListAll(ctx)
	if err != nil {
		return err
	}
	keep := make(map[string]struct{})
	drop := make(map[string]struct{})
	for i := range snapshot {
		m := snapshot[i]
		if m.CompanyID != companyID {
			continue
		}
		if m.Kind == KindDelete {
			if id, derr := m.InvoiceID(); derr == nil {
				drop[id] = struct{}{}
			}
			continue
		}
		if inv, derr := m.Invoice(); derr == nil {
			keep[inv.ID] = struct{}{}
		}
	}
	o.cache.HydrateCompany(companyID, invoices, keep, drop)
	return nil
}

// cancelQueued drops every queued create/update for a placeholder invoice id
// and removes it from the collection. Nothing reached the remote store yet,
// so there is nothing to delete there.
func (o *Orchestrator) cancelQueued(ctx context.Context, invoiceID string) error {
	snapshot, err := o.queue.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range snapshot {
		m := snapshot[i]
		if m.Kind == KindDelete {
			continue
		}
		inv, derr := m.Invoice()
		if derr != nil || inv.ID != invoiceID {
			continue
		}
		if err := o.queue.RemoveByID(ctx, m.ID); err != nil {
			return err
		}
		o.bumpPending(-1)
	}
	o.cache.Remove(invoiceID)
	return nil
}

func (o *Orchestrator) mustQueue() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.tracker.Online() || o.pending > 0
}

// Kick nudges the drain loop; safe to call from any goroutine.
func (o *Orchestrator) Kick() {
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// maybeDrain enters a drain pass when all three trigger inputs line up.
// Runs only on the loop goroutine.
func (o *Orchestrator) maybeDrain(ctx context.Context) {
	o.mu.Lock()
	if o.syncing || o.pending == 0 || !o.tracker.Online() {
		o.mu.Unlock()
		return
	}
	o.syncing = true
	o.mu.Unlock()

	o.drain(ctx)

	o.mu.Lock()
	o.syncing = false
	again := o.pending > 0 && o.tracker.Online()
	o.mu.Unlock()
	if again {
		// Records enqueued during the pass; trigger re-evaluation.
		o.Kick()
	}
}

// drain replays the queue snapshot strictly in FIFO order. A record is
// removed only after the applier confirms success. The first failure stops
// the pass: skipping ahead could apply a later edit of the same invoice
// before an earlier one.
func (o *Orchestrator) drain(ctx context.Context) {
	snapshot, err := o.queue.ListAll(ctx)
	if err != nil {
		o.log.Error().Err(err).Msg("queue snapshot failed, drain aborted")
		return
	}
	o.log.Info().Int("pending", len(snapshot)).Msg("drain pass started")

	for i := range snapshot {
		m := snapshot[i]
		result, err := o.applier.Apply(ctx, &m)
		if err != nil {
			if KindOf(err) == KindTransport {
				o.tracker.SetOnline(false)
			}
			o.log.Error().Err(err).
				Str("mutation", m.ID).
				Str("kind", m.Kind).
				Msg("mutation replay failed, drain stopped")
			return
		}

		if err := o.queue.RemoveByID(ctx, m.ID); err != nil {
			// The remote apply succeeded; a retry of this record is
			// idempotent, so stop here and let the next pass re-remove.
			o.log.Error().Err(err).Str("mutation", m.ID).Msg("queue removal failed, drain stopped")
			return
		}
		o.bumpPending(-1)

		// Reconcile the in-memory collection with the authoritative result.
		if result != nil {
			localID := result.ID
			if inv, derr := m.Invoice(); derr == nil && inv.ID != "" {
				localID = inv.ID
			}
			o.cache.Reconcile(localID, result)
		}
	}
	o.log.Info().Msg("drain pass complete")
}

func (o *Orchestrator) bumpPending(delta int) {
	o.mu.Lock()
	o.pending += delta
	if o.pending < 0 {
		o.pending = 0
	}
	o.mu.Unlock()
}
