package authz

// Роли приходят в токене (role_id), выдаёт их внешний сервис авторизации.
const (
	RoleSales      = 10 // менеджер продаж: заявки и туристы
	RoleOperations = 20 // операционный отдел: туры, размещение
	RoleAudit      = 30 // только чтение
	RoleManagement = 40
	RoleAdmin      = 50
)

// CatalogEditors могут менять туры и конструктор форм.
var CatalogEditors = []int{RoleOperations, RoleManagement, RoleAdmin}

func CanEditCatalog(roleID int) bool {
	for _, r := range CatalogEditors {
		if r == roleID {
			return true
		}
	}
	return false
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}
