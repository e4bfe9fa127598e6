package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestStatus represents the progress of a must-go request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
)

// RequestStatuses returns every known status in lifecycle order.
func RequestStatuses() []RequestStatus {
	return []RequestStatus{RequestStatusPending, RequestStatusInProgress, RequestStatusCompleted}
}

// ParseRequestStatus converts a raw string into a RequestStatus, reporting whether it is known.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	for _, st := range RequestStatuses() {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// MustGoRequest is an expedited shipment tracked from creation to completion.
type MustGoRequest struct {
	ID              uuid.UUID                   `json:"id" gorm:"type:char(36);primaryKey"`
	ShipmentNumber  string                      `json:"shipment_number" gorm:"size:100;not null;index"`
	Plant           *string                     `json:"plant,omitempty" gorm:"size:4"`
	PalletCount     int                         `json:"pallet_count" gorm:"not null"`
	Status          RequestStatus               `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RouteInfo       *string                     `json:"route_info,omitempty" gorm:"type:text"`
	AdditionalNotes *string                     `json:"additional_notes,omitempty" gorm:"type:text"`
	Notes           datatypes.JSONSlice[string] `json:"notes"`
	Deleted         bool                        `json:"deleted" gorm:"not null;default:false;index"`
	DeletedAt       *time.Time                  `json:"deleted_at"`
	CreatedBy       uuid.UUID                   `json:"created_by" gorm:"type:char(36);not null;index"`
	CreatedAt       time.Time                   `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time                   `json:"updated_at"`

	// Relations
	Creator     User             `json:"creator" gorm:"foreignKey:CreatedBy"`
	Trailers    []RequestTrailer `json:"trailers,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	PartDetails []PartDetail     `json:"part_details,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	Logs        []RequestLog     `json:"logs,omitempty" gorm:"foreignKey:RequestID"`
}

// BeforeCreate sets UUID and defaults before creating the record.
func (r *MustGoRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RequestStatusPending
	}
	if r.Notes == nil {
		r.Notes = datatypes.JSONSlice[string]{}
	}
	return nil
}

// PartDetail is a part number and quantity carried on one trailer for one request.
type PartDetail struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	PartNumber string    `json:"part_number" gorm:"size:100;not null;index"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	Position   int       `json:"position" gorm:"not null;default:0"`
	RequestID  uuid.UUID `json:"request_id" gorm:"type:char(36);not null;index"`
	TrailerID  uuid.UUID `json:"trailer_id" gorm:"type:char(36);not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Trailer *Trailer `json:"trailer,omitempty" gorm:"foreignKey:TrailerID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *PartDetail) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
