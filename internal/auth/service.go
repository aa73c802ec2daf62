package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
)

// Service provides authorization checks for identities.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasPermission checks if an identity has a specific permission.
func (s *Service) HasPermission(identityID uint64, permission string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN identity_permissions ON identity_permissions.permission_id = permissions.id").
		Where("identity_permissions.identity_id = ? AND permissions.name = ?", identityID, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if an identity has at least one of the given permissions.
func (s *Service) HasAnyPermission(identityID uint64, permissions []string) (bool, error) {
	for _, permission := range permissions {
		has, err := s.HasPermission(identityID, permission)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// GetPermissions retrieves all permission names granted to an identity.
func (s *Service) GetPermissions(identityID uint64) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Select("DISTINCT permissions.name").
		Joins("JOIN identity_permissions ON identity_permissions.permission_id = permissions.id").
		Where("identity_permissions.identity_id = ?", identityID).
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}

	return permissions, nil
}

// Grant assigns a named permission to an identity, creating the permission
// record if it does not exist yet.
func (s *Service) Grant(identityID uint64, name string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var permission models.Permission

		err := tx.Where("name = ?", name).
			FirstOrCreate(&permission, models.Permission{Name: name}).Error
		if err != nil {
			return fmt.Errorf("failed to create/get permission %s: %w", name, err)
		}

		var identity models.Identity

		if err := tx.First(&identity, identityID).Error; err != nil {
			return fmt.Errorf("failed to load identity: %w", err)
		}

		if err := tx.Model(&identity).Association("Permissions").Append(&permission); err != nil {
			return fmt.Errorf("failed to grant permission: %w", err)
		}

		return nil
	})
}
