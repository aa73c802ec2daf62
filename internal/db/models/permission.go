package models

// Permission is a named capability granted to identities.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Name is the unique permission name, e.g. "directory.admin".
	Name string `gorm:"unique;size:100;not null"`
	// Description explains what the permission allows.
	Description string `gorm:"size:255"`
}
