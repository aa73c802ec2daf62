package models

import "time"

// DocumentRequestPending is the initial status of an onboarding request.
const DocumentRequestPending = "Pending"

// DocumentType describes a category of HR document. Types marked
// RequiredOnHire drive the onboarding requests generated on an identity's
// first successful login.
type DocumentType struct {
	// ID is the unique identifier for the document type.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique type name.
	Name string `gorm:"unique;size:100;not null"`
	// RequiredOnHire marks types requested automatically at onboarding.
	RequiredOnHire bool `gorm:"not null;default:false"`
}

// DocumentRequest asks an employee to hand in a document of a given type.
// The wider document workflow (upload, review) lives outside this subsystem;
// the identity subsystem only creates pending requests at onboarding.
type DocumentRequest struct {
	// ID is the unique identifier for the request.
	ID uint64 `gorm:"primaryKey"`
	// EmployeeID references the employee the document is requested from.
	EmployeeID uint64 `gorm:"not null;index"`
	// DocumentTypeID references the requested document type.
	DocumentTypeID uint64 `gorm:"not null"`
	// Status is the workflow status, Pending when created here.
	Status string `gorm:"size:50;not null;default:'Pending'"`
	// RequestedAt is when the request was generated.
	RequestedAt time.Time
}
