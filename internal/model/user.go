package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level granted to a user.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleCustomerService Role = "CUSTOMER_SERVICE"
	RoleWarehouse       Role = "WAREHOUSE"
	RoleReportRunner    Role = "REPORT_RUNNER"
	RolePending         Role = "PENDING"
)

// Roles returns every known role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCustomerService, RoleWarehouse, RoleReportRunner, RolePending}
}

// ParseRole converts a raw string into a Role, reporting whether it is known.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// User represents an account that can sign in to the tracker.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role      `json:"role" gorm:"type:varchar(32);not null;default:'PENDING';index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID and the default role before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RolePending
	}
	return nil
}
