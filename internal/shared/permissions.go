package shared

// Capabilities checked by route guards.
const (
	PermCatalogView        = "catalog.view"
	PermCatalogManage      = "catalog.manage"
	PermCatalogForceDelete = "catalog.force_delete"

	PermReferenceManage = "reference.manage"

	PermTransactionView        = "transaction.view"
	PermTransactionCreate      = "transaction.create"
	PermTransactionDelete      = "transaction.delete"
	PermTransactionRestore     = "transaction.restore"
	PermTransactionForceDelete = "transaction.force_delete"

	PermDashboardView = "dashboard.view"

	PermUsersView   = "users.view"
	PermUsersManage = "users.manage"
)

// AllPermissions lists every capability known to the application.
func AllPermissions() []string {
	return []string{
		PermCatalogView,
		PermCatalogManage,
		PermCatalogForceDelete,
		PermReferenceManage,
		PermTransactionView,
		PermTransactionCreate,
		PermTransactionDelete,
		PermTransactionRestore,
		PermTransactionForceDelete,
		PermDashboardView,
		PermUsersView,
		PermUsersManage,
	}
}
