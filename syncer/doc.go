// Package syncer implements the offline invoice sync engine.
//
// While the workshop node has no connectivity, invoice mutations (create,
// update, delete) are applied optimistically to an in-memory invoice
// collection and recorded in a durable local queue backed by a SQLite file.
// When connectivity returns, the orchestrator drains the queue in strict
// FIFO order, replaying each mutation against the hosted remote database
// and removing a record only after the remote operation is confirmed.
//
// The moving parts, leaf first:
//
//   - QueueStore: durable FIFO queue of pending mutations (queue.go)
//   - Tracker: online/offline signal with synchronous subscriber
//     notification (tracker.go)
//   - Applier: replays one mutation against a RemoteStore, enforcing
//     sequential numbering on create, full item replacement on update and
//     children-before-parent ordering on delete (applier.go)
//   - Orchestrator: reacts to connectivity flips and queue growth, drains
//     serially and reconciles the in-memory collection with authoritative
//     remote results (orchestrator.go)
//
// Delivery is at-least-once: a process crash mid-drain leaves unconfirmed
// records queued for the next pass. A persistently failing record at the
// head of the queue blocks the records behind it; strict ordering is
// preferred over skipping because later edits to the same invoice must not
// land before earlier ones.
package syncer
