package rbac

import (
	"fmt"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Role is the closed set of operator roles.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleCashier Role = "Cashier"
)

// RoleRecord is a row of the roles table.
type RoleRecord struct {
	ID   int64
	Name Role
}

var cashierCaps = []string{
	shared.PermCatalogView,
	shared.PermTransactionView,
	shared.PermTransactionCreate,
}

var managerCaps = append(append([]string{}, cashierCaps...),
	shared.PermCatalogManage,
	shared.PermReferenceManage,
	shared.PermTransactionDelete,
	shared.PermTransactionRestore,
	shared.PermDashboardView,
	shared.PermUsersView,
)

var capabilities = map[Role][]string{
	RoleCashier: cashierCaps,
	RoleManager: managerCaps,
	RoleAdmin:   shared.AllPermissions(),
}

// ParseRole maps a stored role name onto the enum. Matching ignores case.
func ParseRole(name string) (Role, error) {
	for role := range capabilities {
		if strings.EqualFold(string(role), strings.TrimSpace(name)) {
			return role, nil
		}
	}
	return "", fmt.Errorf("rbac: unknown role %q", name)
}

// Capabilities returns the permissions granted to role. Unknown roles get none.
func Capabilities(role Role) []string {
	caps := capabilities[role]
	out := make([]string, len(caps))
	copy(out, caps)
	return out
}

// Can reports whether role grants perm.
func Can(role Role, perm string) bool {
	for _, p := range capabilities[role] {
		if p == perm {
			return true
		}
	}
	return false
}
