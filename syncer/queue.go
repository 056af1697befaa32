package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"garage-backend/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mutation kinds.
const (
	KindCreate = "create"
	KindUpdate = "update"
	KindDelete = "delete"
)

// QueuedMutation is one pending invoice mutation awaiting replay. Payload is
// a full Invoice snapshot for create/update, or a JSON-encoded invoice id
// string for delete.
type QueuedMutation struct {
	// Seq orders the queue; assigned by the local store on insert.
	Seq       uint           `json:"-" gorm:"primaryKey;autoIncrement"`
	ID        string         `json:"id" gorm:"uniqueIndex;size:64"`
	Kind      string         `json:"kind" gorm:"type:VARCHAR(10);not null"`
	CompanyID string         `json:"company_id" gorm:"size:64"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt int64          `json:"created_at" gorm:"autoCreateTime:milli"`
}

func (QueuedMutation) TableName() string { return "pending_mutations" }

// Invoice decodes the payload of a create/update mutation. Tenant columns
// carry `json:"-"` on the wire models, so the snapshot does not encode them;
// they are restored from the queue record here.
func (m *QueuedMutation) Invoice() (*models.Invoice, error) {
	var inv models.Invoice
	if err := json.Unmarshal(m.Payload, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice payload: %w", err)
	}
	inv.CompanyID = m.CompanyID
	for i := range inv.Items {
		inv.Items[i].CompanyID = m.CompanyID
		inv.Items[i].InvoiceID = inv.ID
	}
	for i := range inv.Payments {
		inv.Payments[i].CompanyID = m.CompanyID
	}
	return &inv, nil
}

// InvoiceID decodes the payload of a delete mutation.
func (m *QueuedMutation) InvoiceID() (string, error) {
	var id string
	if err := json.Unmarshal(m.Payload, &id); err != nil {
		return "", fmt.Errorf("decode invoice id payload: %w", err)
	}
	return id, nil
}

// NewInvoiceMutation snapshots inv into a create or update mutation.
func NewInvoiceMutation(kind string, inv *models.Invoice) (QueuedMutation, error) {
	raw, err := json.Marshal(inv)
	if err != nil {
		return QueuedMutation{}, fmt.Errorf("encode invoice payload: %w", err)
	}
	return QueuedMutation{Kind: kind, CompanyID: inv.CompanyID, Payload: raw}, nil
}

// NewDeleteMutation records a pending remote delete of invoiceID.
func NewDeleteMutation(companyID, invoiceID string) (QueuedMutation, error) {
	raw, err := json.Marshal(invoiceID)
	if err != nil {
		return QueuedMutation{}, fmt.Errorf("encode invoice id payload: %w", err)
	}
	return QueuedMutation{Kind: KindDelete, CompanyID: companyID, Payload: raw}, nil
}

// QueueStore persists mutation records across restarts until they are
// successfully applied remotely. Backed by a local SQLite database.
type QueueStore struct {
	db *gorm.DB
}

// NewQueueStore prepares the queue table on db. The schema migration is
// destructive on structural change: the table holds only transient replay
// state, so it is dropped and recreated rather than migrated in place.
func NewQueueStore(db *gorm.DB) (*QueueStore, error) {
	m := db.Migrator()
	if m.HasTable(&QueuedMutation{}) {
		stale := false
		for _, col := range []string{"seq", "id", "kind", "company_id", "payload", "created_at"} {
			if !m.HasColumn(&QueuedMutation{}, col) {
				stale = true
				break
			}
		}
		if stale {
			if err := m.DropTable(&QueuedMutation{}); err != nil {
				return nil, fmt.Errorf("drop stale queue table: %w", err)
			}
		}
	}
	if err := db.AutoMigrate(&QueuedMutation{}); err != nil {
		return nil, fmt.Errorf("migrate queue table: %w", err)
	}
	return &QueueStore{db: db}, nil
}

// Enqueue appends m to the queue, assigning a fresh id if absent. Storage
// errors propagate to the caller: a swallowed enqueue failure would be a
// silently lost user edit.
func (q *QueueStore) Enqueue(ctx context.Context, m *QueuedMutation) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := q.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("enqueue mutation %s: %w", m.ID, err)
	}
	return nil
}

// ListAll returns every queued record in insertion order.
func (q *QueueStore) ListAll(ctx context.Context) ([]QueuedMutation, error) {
	var out []QueuedMutation
	if err := q.db.WithContext(ctx).Order("seq ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list queued mutations: %w", err)
	}
	return out, nil
}

// RemoveByID deletes exactly one record. Removing an absent id is a no-op,
// not an error, so duplicate removal attempts are tolerated.
func (q *QueueStore) RemoveByID(ctx context.Context, id string) error {
	if err := q.db.WithContext(ctx).Where("id = ?", id).Delete(&QueuedMutation{}).Error; err != nil {
		return fmt.Errorf("remove mutation %s: %w", id, err)
	}
	return nil
}

// Count returns the number of pending records.
func (q *QueueStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := q.db.WithContext(ctx).Model(&QueuedMutation{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count queued mutations: %w", err)
	}
	return int(n), nil
}
