package auth

import "github.com/RefractoryERP/RefractoryERP/internal/db/models"

// Modules guarded by the back office routes.
const (
	ModuleCategory     = "category"
	ModuleCategoryType = "category_type"
	ModuleEquipment    = "equipment"
	ModuleRefractory   = "refractory"
	ModuleRole         = "role"
	ModulePermission   = "permission"
	ModuleUser         = "user"
)

// Permission names checked by the routes.
var (
	PermCategoryCreate = models.PermissionName(ModuleCategory, models.ActionCreate)
	PermCategoryRead   = models.PermissionName(ModuleCategory, models.ActionRead)
	PermCategoryUpdate = models.PermissionName(ModuleCategory, models.ActionUpdate)
	PermCategoryDelete = models.PermissionName(ModuleCategory, models.ActionDelete)

	PermCategoryTypeCreate = models.PermissionName(ModuleCategoryType, models.ActionCreate)
	PermCategoryTypeRead   = models.PermissionName(ModuleCategoryType, models.ActionRead)
	PermCategoryTypeUpdate = models.PermissionName(ModuleCategoryType, models.ActionUpdate)
	PermCategoryTypeDelete = models.PermissionName(ModuleCategoryType, models.ActionDelete)

	PermEquipmentCreate = models.PermissionName(ModuleEquipment, models.ActionCreate)
	PermEquipmentRead   = models.PermissionName(ModuleEquipment, models.ActionRead)
	PermEquipmentUpdate = models.PermissionName(ModuleEquipment, models.ActionUpdate)
	PermEquipmentDelete = models.PermissionName(ModuleEquipment, models.ActionDelete)

	PermRefractoryCreate = models.PermissionName(ModuleRefractory, models.ActionCreate)
	PermRefractoryRead   = models.PermissionName(ModuleRefractory, models.ActionRead)

	PermRoleCreate = models.PermissionName(ModuleRole, models.ActionCreate)
	PermRoleRead   = models.PermissionName(ModuleRole, models.ActionRead)
	PermRoleUpdate = models.PermissionName(ModuleRole, models.ActionUpdate)
	PermRoleDelete = models.PermissionName(ModuleRole, models.ActionDelete)

	PermPermissionCreate = models.PermissionName(ModulePermission, models.ActionCreate)
	PermPermissionRead   = models.PermissionName(ModulePermission, models.ActionRead)
	PermPermissionUpdate = models.PermissionName(ModulePermission, models.ActionUpdate)
	PermPermissionDelete = models.PermissionName(ModulePermission, models.ActionDelete)

	PermUserCreate = models.PermissionName(ModuleUser, models.ActionCreate)
	PermUserRead   = models.PermissionName(ModuleUser, models.ActionRead)
	PermUserUpdate = models.PermissionName(ModuleUser, models.ActionUpdate)
)

// Modules returns every module the seed command creates a full permission group for.
func Modules() []string {
	return []string{
		ModuleCategory,
		ModuleCategoryType,
		ModuleEquipment,
		ModuleRefractory,
		ModuleRole,
		ModulePermission,
		ModuleUser,
	}
}
