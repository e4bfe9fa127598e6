package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartInfo is a catalog entry describing a part number.
type PartInfo struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	PartNumber  string          `json:"part_number" gorm:"uniqueIndex;size:100;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Weight      decimal.Decimal `json:"weight" gorm:"type:decimal(12,3);not null;default:0"`
	Dimensions  string          `json:"dimensions" gorm:"size:255"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (p *PartInfo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
