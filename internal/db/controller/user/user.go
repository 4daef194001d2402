// Package user manages back office accounts and their role assignments.
package user

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/logger"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

const auditEntity = "user"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrRoleNotFound is returned when a role name does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrDeleted is returned when a directory login matches a deleted account.
	ErrDeleted = errors.New("user account is deleted")
	// ErrSourceMismatch is returned when a directory login matches an account of another auth source.
	ErrSourceMismatch = errors.New("user account belongs to another auth source")
)

// CreateInput describes a new local account.
type CreateInput struct {
	Username  string   `json:"username" form:"username" validate:"required,max=100"`
	Email     string   `json:"email" form:"email" validate:"required,email,max=255"`
	Password  string   `json:"password" form:"password" validate:"required,min=8,max=128"`
	FirstName string   `json:"first_name" form:"first_name" validate:"max=100"`
	LastName  string   `json:"last_name" form:"last_name" validate:"max=100"`
	Roles     []string `json:"roles" form:"roles" validate:"dive,required"`
}

// AssignRolesInput replaces the role set of a user.
type AssignRolesInput struct {
	UserID uint     `json:"user_id" form:"user_id" validate:"required"`
	Roles  []string `json:"roles" form:"roles" validate:"dive,required"`
}

// DirectoryUser is an account as seen by an external directory.
type DirectoryUser struct {
	// Source defaults to ldap.
	Source    models.AuthSource
	Username  string
	Email     string
	FirstName string
	LastName  string
	// DN is the LDAP DN or the OIDC subject.
	DN string
}

// List returns all live users with their roles ordered by username.
func List(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	if err := db.Preload("Roles").Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// GetByID returns a live user with roles.
func GetByID(db *gorm.DB, id uint) (*models.User, error) {
	return get(db, "id = ?", id)
}

// GetByUsername returns a live user with roles.
func GetByUsername(db *gorm.DB, username string) (*models.User, error) {
	return get(db, "username = ?", username)
}

func get(db *gorm.DB, query string, arg any) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.Preload("Roles").Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// Create adds an active local account.
func Create(db *gorm.DB, in CreateInput) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	u := models.User{
		Active:     true,
		Username:   in.Username,
		Email:      &in.Email,
		Password:   hash,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		AuthSource: models.AuthSourceLocal,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		errs := validation.Errors{}

		if taken, err := exists(tx, "username = ?", u.Username); err != nil {
			return err
		} else if taken {
			errs.Add("username", validation.Taken("username"))
		}

		if taken, err := exists(tx, "email = ?", in.Email); err != nil {
			return err
		} else if taken {
			errs.Add("email", validation.Taken("email"))
		}

		if err := errs.OrNil(); err != nil {
			return err
		}

		if err := tx.Create(&u).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		err := replaceRoles(tx, u.ID, in.Roles)
		if errors.Is(err, ErrRoleNotFound) {
			return validation.Field("roles", validation.Invalid("roles"))
		}

		return err
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "create").Str("username", u.Username).Strs("roles", in.Roles).Msg("user created")

	return GetByID(db, u.ID)
}

// AssignRoles makes the role set of the user exactly in.Roles.
// Nothing changes if the user or any role name is unknown.
func AssignRoles(db *gorm.DB, in AssignRolesInput) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := validation.Struct(in); err != nil {
		return nil, err //nolint:wrapcheck
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("get user: %w", err)
		}

		return replaceRoles(tx, u.ID, in.Roles)
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "assign_roles").Uint("user_id", in.UserID).Strs("roles", in.Roles).Msg("user roles replaced")

	return GetByID(db, in.UserID)
}

// SyncDirectoryUser creates or refreshes an account authenticated by a directory.
// If roles is not nil, the known role names in it replace the user's roles and unknown ones are skipped.
// Deleted accounts are not brought back and accounts of another auth source are not touched.
// An email address that is blank or used by another account is stored as NULL.
func SyncDirectoryUser(db *gorm.DB, du DirectoryUser, roles []string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if du.Source == "" {
		du.Source = models.AuthSourceLDAP
	}

	var u models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where("username = ?", du.Username).First(&u).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			email, err := directoryEmail(tx, du.Email, 0)
			if err != nil {
				return err
			}

			u = models.User{
				Active:     true,
				Username:   du.Username,
				Email:      email,
				FirstName:  du.FirstName,
				LastName:   du.LastName,
				AuthSource: du.Source,
				ExternalID: du.DN,
			}
			if err = tx.Create(&u).Error; err != nil {
				return fmt.Errorf("create directory user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("get directory user: %w", err)
		case u.DeletedAt.Valid:
			return ErrDeleted
		case u.AuthSource != du.Source:
			return fmt.Errorf("%w: %s", ErrSourceMismatch, u.AuthSource)
		default:
			email, err := directoryEmail(tx, du.Email, u.ID)
			if err != nil {
				return err
			}

			err = tx.Model(&u).Updates(map[string]any{
				"email":       email,
				"first_name":  du.FirstName,
				"last_name":   du.LastName,
				"external_id": du.DN,
			}).Error
			if err != nil {
				return fmt.Errorf("update directory user: %w", err)
			}
		}

		if roles == nil {
			return nil
		}

		var known []string
		if err = tx.Model(&models.Role{}).Where("name IN ?", roles).Pluck("name", &known).Error; err != nil {
			return fmt.Errorf("resolve directory roles: %w", err)
		}

		return replaceRoles(tx, u.ID, known)
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if roles != nil {
		logger.AuditEvent(auditEntity, "sync_roles").
			Str("username", u.Username).
			Str("auth_source", string(du.Source)).
			Strs("directory_groups", roles).
			Msg("directory roles synced")
	}

	return GetByID(db, u.ID)
}

// directoryEmail returns the address to store for a directory account, nil if it is
// blank or held by an account other than exceptID.
func directoryEmail(tx *gorm.DB, email string, exceptID uint) (*string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil //nolint:nilnil
	}

	var count int64

	err := tx.Unscoped().Model(&models.User{}).Where("email = ? AND id <> ?", email, exceptID).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check directory email: %w", err)
	}

	if count > 0 {
		log.Warn().Str("email", email).Msg("directory email already in use, stored without email")
		return nil, nil //nolint:nilnil
	}

	return &email, nil
}

// UserPermissions returns the names of all permissions the user holds through any role.
func UserPermissions(db *gorm.DB, userID uint) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var names []string

	err := db.Model(&models.Permission{}).
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("load user permissions: %w", err)
	}

	return names, nil
}

func exists(tx *gorm.DB, query string, arg any) (bool, error) {
	var count int64
	if err := tx.Unscoped().Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}

	return count > 0, nil
}

// replaceRoles must run inside a transaction.
func replaceRoles(tx *gorm.DB, userID uint, names []string) error {
	var unique []string
	for _, name := range names {
		if !slices.Contains(unique, name) {
			unique = append(unique, name)
		}
	}

	var roles []models.Role
	if len(unique) > 0 {
		if err := tx.Where("name IN ?", unique).Find(&roles).Error; err != nil {
			return fmt.Errorf("resolve roles: %w", err)
		}
	}

	if len(roles) != len(unique) {
		for _, name := range unique {
			if !slices.ContainsFunc(roles, func(r models.Role) bool { return r.Name == name }) {
				return fmt.Errorf("%w: %s", ErrRoleNotFound, name)
			}
		}
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}

	if len(roles) == 0 {
		return nil
	}

	links := make([]models.UserRole, 0, len(roles))
	for _, r := range roles {
		links = append(links, models.UserRole{UserID: userID, RoleID: r.ID})
	}

	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("link roles: %w", err)
	}

	return nil
}
