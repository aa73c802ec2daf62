package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
)

// LocalProvider verifies and maintains local identity credentials. It is the
// fallback authentication path when the external directory rejects a login
// or is unreachable.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local credential provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{db: db}
}

// Authenticate verifies the submitted credentials against the local store.
// Username lookup is case-insensitive. Any mismatch, including an unknown
// username, yields ErrInvalidCredentials so callers cannot distinguish
// which field was wrong.
func (p *LocalProvider) Authenticate(username, password string) (*models.Identity, error) {
	var identity models.Identity

	err := p.db.Where("LOWER(username) = ?", strings.ToLower(username)).First(&identity).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	if !identity.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return &identity, nil
}

// ChangePassword replaces an identity's password after verifying the old
// one, and clears the provisional-password flag.
func (p *LocalProvider) ChangePassword(identityID uint64, oldPassword, newPassword string) error {
	var identity models.Identity

	err := p.db.First(&identity, identityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrIdentityNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to load identity: %w", err)
	}

	if !identity.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.db.Model(&identity).Updates(map[string]interface{}{
		"password":             models.HashPassword(newPassword),
		"provisional_password": false,
	}).Error
}

// ResetPassword sets a new password without verifying the old one (admin
// function) and marks it provisional so the user must change it.
func (p *LocalProvider) ResetPassword(identityID uint64, newPassword string) error {
	return p.db.Model(&models.Identity{}).
		Where("id = ?", identityID).
		Updates(map[string]interface{}{
			"password":             models.HashPassword(newPassword),
			"provisional_password": true,
		}).Error
}
