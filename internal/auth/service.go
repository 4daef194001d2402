package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
)

// Service provides authorization checks against the role and permission tables.
type Service struct {
	db       *gorm.DB
	disabled bool
}

// NewService creates a new auth service.
// A disabled service lets every request through and is meant for local development only.
func NewService(db *gorm.DB, disabled bool) *Service {
	return &Service{db: db, disabled: disabled}
}

// Disabled reports whether login and permission checks are turned off.
func (s *Service) Disabled() bool {
	return s.disabled
}

// HasPermission checks if any role of the user carries the permission.
func (s *Service) HasPermission(userID uint, permission string) (bool, error) {
	var count int64

	err := s.db.Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Joins("JOIN users ON users.id = user_roles.user_id AND users.deleted_at IS NULL").
		Where("users.id = ? AND users.active = ? AND permissions.name = ?", userID, true, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(userID uint, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// HasAllPermissions checks if a user has all of the given permissions.
func (s *Service) HasAllPermissions(userID uint, permissions []string) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm)
		if err != nil {
			return false, err
		}

		if !has {
			return false, nil
		}
	}

	return true, nil
}

// GetUserPermissions retrieves all permission names the user holds through any role.
func (s *Service) GetUserPermissions(userID uint) ([]string, error) {
	return user.UserPermissions(s.db, userID) //nolint:wrapcheck
}
