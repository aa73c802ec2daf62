package models

import "time"

// LinkSuggestion is a reviewable proposal linking an employee to a directory
// account, produced in bulk by the analysis job and destroyed individually
// on accept or reject. Suggestions below the configured similarity threshold
// are never persisted.
type LinkSuggestion struct {
	// ID is the unique identifier for the suggestion.
	ID uint64 `gorm:"primaryKey"`
	// EmployeeID references the employee the suggestion is for.
	EmployeeID uint64 `gorm:"not null;index"`
	// EmployeeName is the employee's name as of generation time.
	EmployeeName string `gorm:"size:120;not null"`
	// DirectoryUsername is the candidate account's short username.
	DirectoryUsername string `gorm:"size:100;not null"`
	// DirectoryDisplayName is the candidate account's display name.
	DirectoryDisplayName string `gorm:"size:120;not null"`
	// Score is the similarity confidence in [0,100].
	Score int `gorm:"not null"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time
}
