package models

import (
	"time"

	"github.com/google/uuid"
)

type Permission struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Permission names, formatted as resource:action. The migrations seed the same list.
const (
	PermClientsRead       = "clients:read"
	PermClientsWrite      = "clients:write"
	PermClientsDelete     = "clients:delete"
	PermAppointmentsRead  = "appointments:read"
	PermAppointmentsWrite = "appointments:write"
	PermTasksRead         = "tasks:read"
	PermTasksWrite        = "tasks:write"
	PermPortfolioRead     = "portfolio:read"
	PermPortfolioWrite    = "portfolio:write"
	PermCampaignsRead     = "campaigns:read"
	PermCampaignsWrite    = "campaigns:write"
	PermCampaignsSend     = "campaigns:send"
	PermCouponsRead       = "coupons:read"
	PermCouponsWrite      = "coupons:write"
	PermCouponsRedeem     = "coupons:redeem"
	PermSocialRead        = "social:read"
	PermSocialManage      = "social:manage"
	PermSocialMessages    = "social:messages"
	PermInventoryRead     = "inventory:read"
	PermInventoryWrite    = "inventory:write"
	PermExpensesRead      = "expenses:read"
	PermExpensesWrite     = "expenses:write"
	PermInsightsRead      = "insights:read"
	PermUsersRead         = "users:read"
	PermUsersManage       = "users:manage"
	PermRolesManage       = "roles:manage"
	PermTenantUpdate      = "tenant:update"
	PermAuditRead         = "audit:read"
)

// AllPermissions lists every permission known to the application.
var AllPermissions = []string{
	PermClientsRead, PermClientsWrite, PermClientsDelete,
	PermAppointmentsRead, PermAppointmentsWrite,
	PermTasksRead, PermTasksWrite,
	PermPortfolioRead, PermPortfolioWrite,
	PermCampaignsRead, PermCampaignsWrite, PermCampaignsSend,
	PermCouponsRead, PermCouponsWrite, PermCouponsRedeem,
	PermSocialRead, PermSocialManage, PermSocialMessages,
	PermInventoryRead, PermInventoryWrite,
	PermExpensesRead, PermExpensesWrite,
	PermInsightsRead,
	PermUsersRead, PermUsersManage,
	PermRolesManage, PermTenantUpdate, PermAuditRead,
}

// ownerOnly permissions are never granted to the manager role.
var ownerOnly = map[string]bool{
	PermRolesManage:  true,
	PermTenantUpdate: true,
	PermAuditRead:    true,
}

// DefaultRolePermissions returns the permission set seeded for each built-in role.
func DefaultRolePermissions() map[string][]string {
	manager := make([]string, 0, len(AllPermissions))
	for _, p := range AllPermissions {
		if ownerOnly[p] {
			continue
		}
		manager = append(manager, p)
	}

	return map[string][]string{
		RoleOwner:   append([]string(nil), AllPermissions...),
		RoleManager: manager,
		RoleStaff: {
			PermClientsRead,
			PermAppointmentsRead, PermAppointmentsWrite,
			PermTasksRead, PermTasksWrite,
			PermPortfolioRead, PermPortfolioWrite,
			PermInventoryRead,
		},
		RoleReceptionist: {
			PermClientsRead, PermClientsWrite,
			PermAppointmentsRead, PermAppointmentsWrite,
		},
	}
}
