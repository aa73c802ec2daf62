package models

import "time"

// EmployeeStatus represents the lifecycle status of an employee record.
type EmployeeStatus string

const (
	// EmployeeActive marks an employee that may access the system.
	EmployeeActive EmployeeStatus = "Active"
	// EmployeeSuspended marks an employee whose access is blocked.
	EmployeeSuspended EmployeeStatus = "Suspended"
)

// Employee is the HR profile of a person. It is owned by the broader HR
// system; the identity subsystem reads names and emails and drives the
// external account lifecycle from the status.
type Employee struct {
	// ID is the unique identifier for the employee.
	ID uint64 `gorm:"primaryKey"`
	// Name is the employee's full name.
	Name string `gorm:"size:120;not null"`
	// RegistrationNumber is the unique business identifier. Auto-provisioned
	// employees receive a synthetic one derived from the directory username.
	RegistrationNumber string `gorm:"unique;size:25;not null"`
	// Email is the employee's work email address.
	Email string `gorm:"size:120;not null"`
	// Department is the organizational unit the employee belongs to.
	Department string `gorm:"size:100"`
	// Title is the employee's job title.
	Title string `gorm:"size:100"`
	// Status is Active or Suspended.
	Status EmployeeStatus `gorm:"type:varchar(50);not null;default:'Active'"`
	// Identity is the login identity bound to this employee, if any (1:1).
	Identity *Identity `gorm:"foreignKey:EmployeeID"`
	// CreatedAt is managed by GORM.
	CreatedAt time.Time
	// UpdatedAt is managed by GORM.
	UpdatedAt time.Time
}
