package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trailer is a physical transport unit. Trailers are shared between
// requests and are never deleted.
type Trailer struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	TrailerNumber string    `json:"trailer_number" gorm:"uniqueIndex;size:64;not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Trailer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// RequestTrailer links a request to one of the trailers carrying its parts.
type RequestTrailer struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	RequestID uuid.UUID `json:"request_id" gorm:"type:char(36);not null;uniqueIndex:idx_request_trailer"`
	TrailerID uuid.UUID `json:"trailer_id" gorm:"type:char(36);not null;uniqueIndex:idx_request_trailer"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Trailer Trailer `json:"trailer" gorm:"foreignKey:TrailerID"`
}

// BeforeCreate sets UUID before creating the record.
func (rt *RequestTrailer) BeforeCreate(tx *gorm.DB) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return nil
}
