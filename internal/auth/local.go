package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a user against the local database.
func (p *LocalProvider) Authenticate(username, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where("username = ? AND auth_source = ?", username, models.AuthSourceLocal).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// ResetPassword sets a new password for a local user.
func (p *LocalProvider) ResetPassword(userID uint, newPassword string) error {
	hashedPassword, err := models.HashPassword(newPassword)
	if err != nil {
		return err //nolint:wrapcheck
	}

	res := p.db.Model(&models.User{}).
		Where("id = ? AND auth_source = ?", userID, models.AuthSourceLocal).
		Update("password", hashedPassword)
	if res.Error != nil {
		return fmt.Errorf("failed to reset password: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
