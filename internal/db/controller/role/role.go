// Package role manages roles and the permissions they grant.
package role

import (
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/logger"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

const auditEntity = "role"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned when a role does not exist.
	ErrNotFound = errors.New("role not found")
	// ErrSystemRole is returned when deleting a role created by the seeder.
	ErrSystemRole = errors.New("system roles can not be deleted")
)

// CreateInput describes a new role.
type CreateInput struct {
	Name          string `json:"name" form:"name" validate:"required,max=100"`
	Description   string `json:"description" form:"description" validate:"max=255"`
	PermissionIDs []uint `json:"permission_ids" form:"permission_ids" validate:"dive,gt=0"`
}

// AssignInput replaces the permission set of a role.
type AssignInput struct {
	RoleID        uint   `json:"role_id" form:"role_id" validate:"required"`
	PermissionIDs []uint `json:"permission_ids" form:"permission_ids" validate:"dive,gt=0"`
}

// List returns all roles with their permissions ordered by name.
func List(db *gorm.DB) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role

	err := db.Preload("Permissions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("permissions.name")
	}).Order("name").Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

// GetByID returns a role with its permissions.
func GetByID(db *gorm.DB, id uint) (*models.Role, error) {
	return get(db, "id = ?", id)
}

// GetByName returns a role with its permissions.
func GetByName(db *gorm.DB, name string) (*models.Role, error) {
	return get(db, "name = ?", name)
}

func get(db *gorm.DB, query string, arg any) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role

	err := db.Preload("Permissions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("permissions.name")
	}).Where(query, arg).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get role: %w", err)
	}

	return &r, nil
}

// Create adds a role and grants it the given permissions.
func Create(db *gorm.DB, in CreateInput) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := validation.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	r := models.Role{Name: in.Name, Description: in.Description}

	err := db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Role{}).Where("name = ?", in.Name).Count(&taken).Error; err != nil {
			return fmt.Errorf("check role name: %w", err)
		}

		if taken > 0 {
			return validation.Field("name", validation.Taken("name"))
		}

		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("create role: %w", err)
		}

		return replacePermissions(tx, r.ID, in.PermissionIDs)
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "create").Str("role", r.Name).Uints("permission_ids", in.PermissionIDs).Msg("role created")

	return GetByID(db, r.ID)
}

// AssignPermissions makes the permission set of the role exactly in.PermissionIDs.
// Duplicates collapse and an empty list clears the role.
func AssignPermissions(db *gorm.DB, in AssignInput) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := validation.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var r models.Role
		if err := tx.First(&r, in.RoleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("get role: %w", err)
		}

		return replacePermissions(tx, r.ID, in.PermissionIDs)
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "assign_permissions").
		Uint("role_id", in.RoleID).
		Uints("permission_ids", in.PermissionIDs).
		Msg("role permissions replaced")

	return GetByID(db, in.RoleID)
}

// Delete removes a role with its permission and user links. System roles are refused.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	r, err := GetByID(db, id)
	if err != nil {
		return err
	}

	if r.IsSystem {
		return ErrSystemRole
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("delete permission links: %w", err)
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("delete user links: %w", err)
		}

		if err := tx.Delete(&models.Role{}, id).Error; err != nil {
			return fmt.Errorf("delete role: %w", err)
		}

		return nil
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "delete").Str("role", r.Name).Msg("role deleted")

	return nil
}

// replacePermissions must run inside a transaction.
func replacePermissions(tx *gorm.DB, roleID uint, permissionIDs []uint) error {
	ids := uniqueIDs(permissionIDs)

	if len(ids) > 0 {
		var found int64
		if err := tx.Model(&models.Permission{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return fmt.Errorf("check permissions: %w", err)
		}

		if int(found) != len(ids) {
			return validation.Field("permission_ids", validation.Invalid("permission_ids"))
		}
	}

	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return fmt.Errorf("clear permissions: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	links := make([]models.RolePermission, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.RolePermission{RoleID: roleID, PermissionID: id})
	}

	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link permissions: %w", err)
	}

	return nil
}

func uniqueIDs(in []uint) []uint {
	out := make([]uint, 0, len(in))
	for _, id := range in {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}
