package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
	"github.com/GoHR-Admin/GoHR-Admin/internal/matcher"
	"github.com/GoHR-Admin/GoHR-Admin/internal/uniuri"
)

// randomPasswordLen is the length of the unusable random password assigned
// to identities whose authentication is authoritative in the directory.
const randomPasswordLen = 32

// Directory is the subset of the directory connector the orchestrator needs.
type Directory interface {
	// BindUser authenticates a fresh session as the given principal.
	BindUser(principal, password string) error
	// Connect opens a privileged session as the service account.
	Connect() (directory.Session, error)
}

// Orchestrator coordinates a login attempt: external directory first, local
// credentials as fallback, with auto-provisioning of local records for
// externally authenticated identities that have no local counterpart yet.
type Orchestrator struct {
	db    *gorm.DB
	dir   Directory
	cfg   *directory.Config
	local *LocalProvider
}

// NewOrchestrator creates a login orchestrator.
func NewOrchestrator(db *gorm.DB, dir Directory, cfg *directory.Config) *Orchestrator {
	return &Orchestrator{
		db:    db,
		dir:   dir,
		cfg:   cfg,
		local: NewLocalProvider(db),
	}
}

// Login authenticates the submitted credentials and returns the resolved
// identity. Any credential failure, on either path, yields the generic
// ErrInvalidCredentials; a suspended employee yields ErrAccountSuspended.
func (o *Orchestrator) Login(username, password string) (*models.Identity, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	identity, err := o.authenticateExternal(username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).
			Msg("external directory authentication failed, trying local fallback")

		identity, err = o.local.Authenticate(username, password)
		if err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	return o.finishLogin(identity)
}

// authenticateExternal binds as the user, verifies the account with a
// privileged attribute search and resolves (or creates) the local identity.
func (o *Orchestrator) authenticateExternal(username, password string) (*models.Identity, error) {
	principal := username
	if !strings.Contains(principal, "@") {
		principal = username + "@" + o.cfg.Domain()
	}

	if err := o.dir.BindUser(principal, password); err != nil {
		return nil, fmt.Errorf("user bind: %w", err)
	}

	// A successful bind alone is not trusted: the account must also be
	// retrievable with its canonical attributes.
	sess, err := o.dir.Connect()
	if err != nil {
		return nil, err
	}

	defer sess.Close()

	entries, err := sess.Search(
		fmt.Sprintf("(&(objectClass=person)(sAMAccountName=%s))", ldap.EscapeFilter(username)),
		[]string{"cn", "mail", "sAMAccountName"},
	)
	if err != nil {
		return nil, fmt.Errorf("attribute verification: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: bind succeeded but account attributes are not readable", directory.ErrNotFound)
	}

	entry := entries[0]

	displayName := entry.GetAttributeValue("cn")

	shortName := entry.GetAttributeValue("sAMAccountName")
	if shortName == "" {
		shortName = username
	}

	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = shortName + "@" + o.cfg.Domain()
	}

	return o.resolveLocal(shortName, displayName, email)
}

// resolveLocal finds the local identity for an externally authenticated
// account, creating one (and if necessary its employee) when missing. The
// multi-step writes run in one transaction.
func (o *Orchestrator) resolveLocal(username, displayName, email string) (*models.Identity, error) {
	var resolved *models.Identity

	err := o.db.Transaction(func(tx *gorm.DB) error {
		var identity models.Identity

		err := tx.Where("LOWER(username) = ?", strings.ToLower(username)).First(&identity).Error

		switch {
		case err == nil:
			resolved = &identity

			return o.reconcileDrift(tx, &identity, displayName, email)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to query identity: %w", err)
		}

		employee, err := o.findUnboundEmployee(tx, displayName)
		if err != nil {
			return err
		}

		if employee == nil {
			employee, err = o.createEmployee(tx, username, displayName, email)
			if err != nil {
				return err
			}
		} else {
			log.Info().Str("username", username).Uint64("employee_id", employee.ID).
				Msg("binding directory account to existing employee")
		}

		// External auth is authoritative for this identity: the local
		// password is random and unusable, and no provisional change is
		// required.
		identity = models.Identity{
			Username:            username,
			Email:               email,
			Password:            models.HashPassword(uniuri.NewLen(randomPasswordLen)),
			EmployeeID:          employee.ID,
			ProvisionalPassword: false,
		}

		if err := tx.Create(&identity).Error; err != nil {
			return fmt.Errorf("failed to create identity: %w", err)
		}

		resolved = &identity

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

// reconcileDrift updates email and employee name when the directory values
// moved away from the local copies. Password, permissions and username are
// never touched here.
func (o *Orchestrator) reconcileDrift(tx *gorm.DB, identity *models.Identity, displayName, email string) error {
	if email != "" && !strings.EqualFold(identity.Email, email) {
		if err := tx.Model(identity).Update("email", email).Error; err != nil {
			return fmt.Errorf("failed to reconcile identity email: %w", err)
		}
	}

	if displayName == "" {
		return nil
	}

	var employee models.Employee

	err := tx.First(&employee, identity.EmployeeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}

	if !strings.EqualFold(employee.Name, displayName) {
		if err := tx.Model(&employee).Update("name", displayName).Error; err != nil {
			return fmt.Errorf("failed to reconcile employee name: %w", err)
		}
	}

	return nil
}

// findUnboundEmployee looks for an employee without an identity whose
// normalized name matches the external display name.
func (o *Orchestrator) findUnboundEmployee(tx *gorm.DB, displayName string) (*models.Employee, error) {
	if displayName == "" {
		return nil, nil
	}

	var unbound []models.Employee

	err := tx.
		Joins("LEFT JOIN identities ON identities.employee_id = employees.id").
		Where("identities.id IS NULL").
		Find(&unbound).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query unbound employees: %w", err)
	}

	target := matcher.Normalize(displayName)

	for i := range unbound {
		if matcher.Normalize(unbound[i].Name) == target {
			return &unbound[i], nil
		}
	}

	return nil, nil
}

// createEmployee auto-provisions an employee record from directory data,
// with a synthetic registration number derived from the directory username.
func (o *Orchestrator) createEmployee(tx *gorm.DB, username, displayName, email string) (*models.Employee, error) {
	if displayName == "" {
		displayName = username
	}

	registration := "EMP-AD-" + strings.ToLower(username)

	var existing models.Employee

	err := tx.Where("registration_number = ?", registration).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("employee with synthetic registration number %s already exists", registration)
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check registration number: %w", err)
	}

	employee := models.Employee{
		Name:               displayName,
		RegistrationNumber: registration,
		Email:              email,
		Status:             models.EmployeeActive,
	}

	if err := tx.Create(&employee).Error; err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	log.Info().Str("username", username).Uint64("employee_id", employee.ID).
		Msg("auto-provisioned employee from directory account")

	return &employee, nil
}

// finishLogin applies the post-auth gate: suspended employees are rejected,
// the first successful login generates outstanding onboarding document
// requests (non-fatal on failure) and the login timestamp is stamped.
func (o *Orchestrator) finishLogin(identity *models.Identity) (*models.Identity, error) {
	var employee models.Employee

	err := o.db.First(&employee, identity.EmployeeID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	if err == nil && employee.Status == models.EmployeeSuspended {
		return nil, ErrAccountSuspended
	}

	if !identity.FirstLoginDone {
		if err := o.generateOnboardingRequests(identity.EmployeeID); err != nil {
			// Onboarding generation must not block login.
			log.Error().Err(err).Uint64("identity_id", identity.ID).
				Msg("failed to generate onboarding document requests")
		}
	}

	now := time.Now()
	identity.FirstLoginDone = true
	identity.LastLoginAt = &now

	err = o.db.Model(identity).Updates(map[string]interface{}{
		"first_login_done": true,
		"last_login_at":    now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return identity, nil
}

// generateOnboardingRequests creates a pending document request for every
// required-on-hire document type the employee does not have one for yet.
func (o *Orchestrator) generateOnboardingRequests(employeeID uint64) error {
	var types []models.DocumentType

	if err := o.db.Where("required_on_hire = ?", true).Find(&types).Error; err != nil {
		return fmt.Errorf("failed to load required document types: %w", err)
	}

	for _, documentType := range types {
		var count int64

		err := o.db.Model(&models.DocumentRequest{}).
			Where("employee_id = ? AND document_type_id = ?", employeeID, documentType.ID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check existing request: %w", err)
		}

		if count > 0 {
			continue
		}

		request := models.DocumentRequest{
			EmployeeID:     employeeID,
			DocumentTypeID: documentType.ID,
			Status:         models.DocumentRequestPending,
			RequestedAt:    time.Now(),
		}

		if err := o.db.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create onboarding request: %w", err)
		}
	}

	return nil
}
