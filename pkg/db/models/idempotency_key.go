package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey records that an external event has already been applied.
// The (source, event_id) pair is unique, so a second insert for the same
// event affects zero rows.
type IdempotencyKey struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Source    string    `gorm:"column:source;type:text;not null;uniqueIndex:idx_idempotency_source_event"`
	EventID   string    `gorm:"column:event_id;type:text;not null;uniqueIndex:idx_idempotency_source_event"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
