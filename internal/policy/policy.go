// Package policy decides what an authenticated user may do. Every function
// is a pure predicate; callers turn a false result into an authorization error.
package policy

import (
	"github.com/google/uuid"

	"mgtrako/internal/model"
)

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	ID   uuid.UUID  `json:"id"`
	Role model.Role `json:"role"`
}

// IsAdmin reports whether the actor is an administrator.
func IsAdmin(a Actor) bool {
	return a.Role == model.RoleAdmin
}

// IsWarehouse reports whether the actor works the warehouse floor. Admins qualify.
func IsWarehouse(a Actor) bool {
	switch a.Role {
	case model.RoleWarehouse, model.RoleAdmin:
		return true
	case model.RoleCustomerService, model.RoleReportRunner, model.RolePending:
		return false
	}
	return false
}

// IsCustomerService reports whether the actor raises requests. Admins qualify.
func IsCustomerService(a Actor) bool {
	switch a.Role {
	case model.RoleCustomerService, model.RoleAdmin:
		return true
	case model.RoleWarehouse, model.RoleReportRunner, model.RolePending:
		return false
	}
	return false
}

// IsActive reports whether the actor has been granted any role beyond PENDING.
func IsActive(a Actor) bool {
	switch a.Role {
	case model.RoleAdmin, model.RoleCustomerService, model.RoleWarehouse, model.RoleReportRunner:
		return true
	case model.RolePending:
		return false
	}
	return false
}

// CanCreateRequest reports whether the actor may raise a new request.
func CanCreateRequest(a Actor) bool {
	return IsCustomerService(a)
}

// CanEditRequest reports whether the actor may change a request's contents.
// Customer service may only edit requests they created.
func CanEditRequest(a Actor, req *model.MustGoRequest) bool {
	if IsAdmin(a) || IsWarehouse(a) {
		return true
	}
	return IsCustomerService(a) && req != nil && req.CreatedBy == a.ID
}

// CanUpdateStatus reports whether the actor may move a request through its
// lifecycle or add notes to it.
func CanUpdateStatus(a Actor, req *model.MustGoRequest) bool {
	return IsWarehouse(a) && req != nil && !req.Deleted
}

// CanDeleteRequest covers both soft delete and restore.
func CanDeleteRequest(a Actor) bool {
	return IsAdmin(a)
}

// CanViewDeleted reports whether soft-deleted requests are visible to the actor.
func CanViewDeleted(a Actor) bool {
	return IsAdmin(a)
}

// CanManageUsers reports whether the actor may list users and change roles.
func CanManageUsers(a Actor) bool {
	return IsAdmin(a)
}

// CanViewReports reports whether the actor may open the reports.
func CanViewReports(a Actor) bool {
	switch a.Role {
	case model.RoleAdmin, model.RoleReportRunner:
		return true
	case model.RoleCustomerService, model.RoleWarehouse, model.RolePending:
		return false
	}
	return false
}
