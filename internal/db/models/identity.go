package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// Identity is a login account bound to exactly one Employee. The username
// stays empty until the identity is linked to a directory account, either by
// an accepted link suggestion or during an externally authenticated login.
type Identity struct {
	// ID is the unique identifier for the identity.
	ID uint64 `gorm:"primaryKey"`
	// Username is the directory short username once linked; empty until then.
	Username string `gorm:"size:100;index"`
	// Email is the login email address.
	Email string `gorm:"unique;size:120;not null"`
	// Password is the Argon2id hashed password used on the local fallback path.
	Password string `gorm:"size:255;not null"`
	// EmployeeID references the owning employee (1:1).
	EmployeeID uint64 `gorm:"uniqueIndex;not null"`
	// Employee is the owning employee.
	Employee *Employee `gorm:"foreignKey:EmployeeID"`
	// ProvisionalPassword indicates the user must change the password on first use.
	ProvisionalPassword bool `gorm:"not null;default:true"`
	// FirstLoginDone records whether the onboarding hook already ran.
	FirstLoginDone bool `gorm:"not null;default:false"`
	// LastLoginAt is the time of the last successful login.
	LastLoginAt *time.Time
	// Permissions are the permissions granted to this identity.
	Permissions []Permission `gorm:"many2many:identity_permissions"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the stored hash using
// constant-time comparison.
func (i *Identity) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, i.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
