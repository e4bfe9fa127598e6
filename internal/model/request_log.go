package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestLog is one entry of a request's audit trail.
// Entries are append-only: nothing updates or deletes them.
type RequestLog struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	RequestID   uuid.UUID `json:"request_id" gorm:"type:char(36);not null;index"`
	Action      string    `json:"action" gorm:"type:text;not null"`
	PerformedBy uuid.UUID `json:"performed_by" gorm:"type:char(36);not null;index"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`

	// Relations
	Performer User `json:"performer,omitempty" gorm:"foreignKey:PerformedBy"`
}

// BeforeCreate sets UUID and timestamp before creating the record.
func (l *RequestLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	return nil
}
