// Package permission manages module.action permissions and their grouping by module.
package permission

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/logger"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

const auditEntity = "permission"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned when no permission has the requested id.
	ErrNotFound = errors.New("permission not found")
	// ErrModuleNotFound is returned when a module has no permissions.
	ErrModuleNotFound = errors.New("permission module not found")
)

// GroupInput creates or reshapes all permissions of one module.
type GroupInput struct {
	Module  string   `json:"module" form:"module" validate:"required,max=90,module"`
	Actions []string `json:"actions" form:"actions" validate:"required,min=1,dive,oneof=create read update delete"`
}

// GroupResult reports what a group call changed.
type GroupResult struct {
	Created []models.Permission `json:"created"`
	Skipped []string            `json:"skipped"`
}

// Group is a module with its permissions.
type Group struct {
	Module      string              `json:"module"`
	Permissions []models.Permission `json:"permissions"`
}

// List returns all permissions ordered by name.
func List(db *gorm.DB) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var permissions []models.Permission
	if err := db.Order("name").Find(&permissions).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	return permissions, nil
}

// Grouped returns permissions grouped by the module part of their name, ordered by module.
func Grouped(db *gorm.DB) ([]Group, error) {
	permissions, err := List(db)
	if err != nil {
		return nil, err
	}

	return GroupByModule(permissions), nil
}

// GroupByModule groups permissions by the module part of their name.
// Order within a group follows the input order.
func GroupByModule(permissions []models.Permission) []Group {
	index := map[string]int{}

	var groups []Group

	for _, p := range permissions {
		module, _, ok := models.SplitPermissionName(p.Name)
		if !ok {
			module = p.Name
		}

		i, seen := index[module]
		if !seen {
			i = len(groups)
			index[module] = i
			groups = append(groups, Group{Module: module})
		}

		groups[i].Permissions = append(groups[i].Permissions, p)
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		return strings.Compare(a.Module, b.Module)
	})

	return groups
}

// GetByID returns a single permission.
func GetByID(db *gorm.DB, id uint) (*models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Permission
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get permission: %w", err)
	}

	return &p, nil
}

// ByModule returns the permissions of module ordered by name.
func ByModule(db *gorm.DB, module string) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var permissions []models.Permission
	if err := db.Where("module = ?", module).Order("name").Find(&permissions).Error; err != nil {
		return nil, fmt.Errorf("list module permissions: %w", err)
	}

	return permissions, nil
}

// CreateGroup creates module.action for every requested action.
// Existing names are skipped, so calling it twice changes nothing the second time.
func CreateGroup(db *gorm.DB, in GroupInput) (*GroupResult, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := validation.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	actions := uniqueStrings(in.Actions)
	result := &GroupResult{Created: []models.Permission{}, Skipped: []string{}}

	err := db.Transaction(func(tx *gorm.DB) error {
		names := make([]string, 0, len(actions))
		for _, action := range actions {
			names = append(names, models.PermissionName(in.Module, action))
		}

		var existing []string
		if err := tx.Model(&models.Permission{}).Where("name IN ?", names).Pluck("name", &existing).Error; err != nil {
			return fmt.Errorf("lookup existing permissions: %w", err)
		}

		for _, action := range actions {
			name := models.PermissionName(in.Module, action)
			if slices.Contains(existing, name) {
				result.Skipped = append(result.Skipped, name)
				continue
			}

			p := models.Permission{
				Name:        name,
				Module:      in.Module,
				Action:      action,
				Description: describe(in.Module, action),
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("create permission %s: %w", name, err)
			}

			result.Created = append(result.Created, p)
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "create_group").
		Str("module", in.Module).
		Int("created", len(result.Created)).
		Strs("skipped", result.Skipped).
		Msg("permission group created")

	return result, nil
}

// UpdateGroup reshapes the permissions of module old into in.
// Kept actions are renamed to the new module, new actions created and dropped actions
// deleted together with their role links.
func UpdateGroup(db *gorm.DB, old string, in GroupInput) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := validation.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	actions := uniqueStrings(in.Actions)

	err := db.Transaction(func(tx *gorm.DB) error {
		var current []models.Permission
		if err := tx.Where("module = ?", old).Find(&current).Error; err != nil {
			return fmt.Errorf("load module %s: %w", old, err)
		}

		if len(current) == 0 {
			return ErrModuleNotFound
		}

		if in.Module != old {
			var clashes int64

			err := tx.Model(&models.Permission{}).Where("module = ?", in.Module).Count(&clashes).Error
			if err != nil {
				return fmt.Errorf("check module %s: %w", in.Module, err)
			}

			if clashes > 0 {
				return validation.Field("module", validation.Taken("module"))
			}
		}

		have := map[string]bool{}

		for _, p := range current {
			if !slices.Contains(actions, p.Action) {
				if err := deletePermissions(tx, []uint{p.ID}); err != nil {
					return err
				}

				continue
			}

			have[p.Action] = true

			if in.Module == old {
				continue
			}

			err := tx.Model(&p).Updates(map[string]any{
				"name":        models.PermissionName(in.Module, p.Action),
				"module":      in.Module,
				"description": describe(in.Module, p.Action),
			}).Error
			if err != nil {
				return fmt.Errorf("rename permission %s: %w", p.Name, err)
			}
		}

		for _, action := range actions {
			if have[action] {
				continue
			}

			p := models.Permission{
				Name:        models.PermissionName(in.Module, action),
				Module:      in.Module,
				Action:      action,
				Description: describe(in.Module, action),
			}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("create permission %s: %w", p.Name, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "update_group").
		Str("module", old).
		Str("new_module", in.Module).
		Strs("actions", actions).
		Msg("permission group updated")

	return ByModule(db, in.Module)
}

// Rename gives a single permission a new module.action name.
func Rename(db *gorm.DB, id uint, name string) (*models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)

	module, action, ok := models.SplitPermissionName(name)
	if !ok || !validation.Module(module) || !slices.Contains(models.Actions(), action) {
		return nil, validation.Field("name", "The name field format is invalid.")
	}

	p, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	var taken int64
	if err = db.Model(&models.Permission{}).Where("name = ? AND id <> ?", name, id).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check permission name: %w", err)
	}

	if taken > 0 {
		return nil, validation.Field("name", validation.Taken("name"))
	}

	oldName := p.Name

	err = db.Model(p).Updates(map[string]any{
		"name":        name,
		"module":      module,
		"action":      action,
		"description": describe(module, action),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("rename permission: %w", err)
	}

	logger.AuditEvent(auditEntity, "rename").Str("from", oldName).Str("to", name).Msg("permission renamed")

	return GetByID(db, id)
}

// DeleteModule removes every permission of module and their role links.
// It returns the number of deleted permissions.
func DeleteModule(db *gorm.DB, module string) (int, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var ids []uint

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Permission{}).Where("module = ?", module).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("load module %s: %w", module, err)
		}

		if len(ids) == 0 {
			return ErrModuleNotFound
		}

		return deletePermissions(tx, ids)
	})
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "delete_module").Str("module", module).Int("count", len(ids)).Msg("permission module deleted")

	return len(ids), nil
}

// Delete removes a single permission and its role links.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	p, err := GetByID(db, id)
	if err != nil {
		return err
	}

	if err = db.Transaction(func(tx *gorm.DB) error {
		return deletePermissions(tx, []uint{id})
	}); err != nil {
		return err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "delete").Str("name", p.Name).Msg("permission deleted")

	return nil
}

func deletePermissions(tx *gorm.DB, ids []uint) error {
	if err := tx.Where("permission_id IN ?", ids).Delete(&models.RolePermission{}).Error; err != nil {
		return fmt.Errorf("delete role links: %w", err)
	}

	if err := tx.Delete(&models.Permission{}, ids).Error; err != nil {
		return fmt.Errorf("delete permissions: %w", err)
	}

	return nil
}

func describe(module, action string) string {
	return fmt.Sprintf("Allows to %s %s records", action, strings.ReplaceAll(module, "_", " "))
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	return out
}
