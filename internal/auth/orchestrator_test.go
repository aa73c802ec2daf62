package auth_test

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoHR-Admin/GoHR-Admin/internal/auth"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
)

// fakeSession serves a fixed attribute search result.
type fakeSession struct {
	entries   []*ldap.Entry
	searchErr error
}

func (f *fakeSession) Search(_ string, _ []string) ([]*ldap.Entry, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	return f.entries, nil
}

func (f *fakeSession) Add(string, []ldap.Attribute) error       { return nil }
func (f *fakeSession) Modify(string, map[string][]string) error { return nil }
func (f *fakeSession) Replace(string, string, []string) error   { return nil }
func (f *fakeSession) Del(string) error                         { return nil }
func (f *fakeSession) Close()                                   {}

// fakeDirectory scripts the external directory behavior for a login attempt.
type fakeDirectory struct {
	bindErr    error
	connectErr error
	sess       *fakeSession

	boundPrincipal string
}

func (f *fakeDirectory) BindUser(principal, _ string) error {
	f.boundPrincipal = principal

	return f.bindErr
}

func (f *fakeDirectory) Connect() (directory.Session, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}

	return f.sess, nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Employee{},
		&models.Identity{},
		&models.Permission{},
		&models.DocumentType{},
		&models.DocumentRequest{},
	))

	return db
}

func testDirectoryConfig() *directory.Config {
	return &directory.Config{
		Host:   "dc01.corp.example.com",
		Port:   636,
		BaseDN: "dc=corp,dc=example,dc=com",
	}
}

func personEntry(username, displayName, email string) *ldap.Entry {
	return ldap.NewEntry("CN="+displayName+",OU=Employees,DC=corp,DC=example,DC=com", map[string][]string{
		"cn":             {displayName},
		"mail":           {email},
		"sAMAccountName": {username},
	})
}

func createLocalIdentity(t *testing.T, db *gorm.DB, username, password string, status models.EmployeeStatus) *models.Identity {
	t.Helper()

	employee := models.Employee{
		Name:               "Local " + username,
		RegistrationNumber: "EMP-" + username,
		Status:             status,
	}
	require.NoError(t, db.Create(&employee).Error)

	identity := models.Identity{
		Username:   username,
		Email:      username + "@corp.example.com",
		Password:   models.HashPassword(password),
		EmployeeID: employee.ID,
	}
	require.NoError(t, db.Create(&identity).Error)

	return &identity
}

func TestLoginEmptyCredentials(t *testing.T) {
	orchestrator := auth.NewOrchestrator(testDB(t), &fakeDirectory{}, testDirectoryConfig())

	_, err := orchestrator.Login("", "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = orchestrator.Login("jsilva", "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginLocalFallback(t *testing.T) {
	db := testDB(t)

	createLocalIdentity(t, db, "jsilva", "secret123", models.EmployeeActive)

	dir := &fakeDirectory{bindErr: errors.New("directory down")}
	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	identity, err := orchestrator.Login("JSilva", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "jsilva", identity.Username)
	assert.True(t, identity.FirstLoginDone)
	require.NotNil(t, identity.LastLoginAt)

	// UPN was derived from the base DN before the external attempt failed
	assert.Equal(t, "JSilva@corp.example.com", dir.boundPrincipal)
}

func TestLoginGenericFailure(t *testing.T) {
	db := testDB(t)

	createLocalIdentity(t, db, "jsilva", "secret123", models.EmployeeActive)

	dir := &fakeDirectory{bindErr: errors.New("invalid credentials")}
	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	_, err := orchestrator.Login("jsilva", "wrong-password")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = orchestrator.Login("ghost", "whatever")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginSuspendedEmployee(t *testing.T) {
	db := testDB(t)

	createLocalIdentity(t, db, "jsilva", "secret123", models.EmployeeSuspended)

	dir := &fakeDirectory{bindErr: errors.New("directory down")}
	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	_, err := orchestrator.Login("jsilva", "secret123")

	assert.ErrorIs(t, err, auth.ErrAccountSuspended)
}

func TestLoginExternalAutoProvisionsEverything(t *testing.T) {
	db := testDB(t)

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		personEntry("carlos.lima", "Carlos Lima", "carlos.lima@corp.example.com"),
	}}}

	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	identity, err := orchestrator.Login("carlos.lima", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "carlos.lima", identity.Username)
	assert.Equal(t, "carlos.lima@corp.example.com", identity.Email)
	assert.False(t, identity.ProvisionalPassword,
		"externally authenticated identities never carry a provisional password")

	var employee models.Employee

	require.NoError(t, db.First(&employee, identity.EmployeeID).Error)
	assert.Equal(t, "Carlos Lima", employee.Name)
	assert.Equal(t, "EMP-AD-carlos.lima", employee.RegistrationNumber)
	assert.Equal(t, models.EmployeeActive, employee.Status)

	// the random local password must not match the submitted one
	assert.False(t, identity.VerifyPassword("secret123"))
}

func TestLoginExternalBindsToUnboundEmployee(t *testing.T) {
	db := testDB(t)

	employee := models.Employee{
		Name:               "Fernanda Alves",
		RegistrationNumber: "EMP-1001",
		Status:             models.EmployeeActive,
	}
	require.NoError(t, db.Create(&employee).Error)

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		personEntry("falves", "Fernanda ALVES", "falves@corp.example.com"),
	}}}

	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	identity, err := orchestrator.Login("falves", "secret123")

	require.NoError(t, err)
	assert.Equal(t, employee.ID, identity.EmployeeID,
		"identity must bind to the existing employee by normalized name")

	var employeeCount int64

	require.NoError(t, db.Model(&models.Employee{}).Count(&employeeCount).Error)
	assert.EqualValues(t, 1, employeeCount, "no duplicate employee may be created")
}

func TestLoginExternalReconcilesDrift(t *testing.T) {
	db := testDB(t)

	identity := createLocalIdentity(t, db, "jsilva", "secret123", models.EmployeeActive)

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		personEntry("jsilva", "Joao Silva Junior", "joao.junior@corp.example.com"),
	}}}

	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	_, err := orchestrator.Login("jsilva", "secret123")
	require.NoError(t, err)

	var refreshed models.Identity

	require.NoError(t, db.First(&refreshed, identity.ID).Error)
	assert.Equal(t, "joao.junior@corp.example.com", refreshed.Email)

	var employee models.Employee

	require.NoError(t, db.First(&employee, identity.EmployeeID).Error)
	assert.Equal(t, "Joao Silva Junior", employee.Name)
}

func TestLoginExternalBindOkButUnreadableAttributes(t *testing.T) {
	db := testDB(t)

	// bind succeeds but the attribute search comes back empty, so the
	// external path fails and there is no local record either
	dir := &fakeDirectory{sess: &fakeSession{}}
	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	_, err := orchestrator.Login("ghost", "secret123")

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUPNPassedThrough(t *testing.T) {
	db := testDB(t)

	createLocalIdentity(t, db, "jsilva", "secret123", models.EmployeeActive)

	dir := &fakeDirectory{bindErr: errors.New("down")}
	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	_, err := orchestrator.Login("jsilva@other.example.org", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	// an explicit UPN is used as-is
	assert.Equal(t, "jsilva@other.example.org", dir.boundPrincipal)
}

func TestFirstLoginCreatesOnboardingRequests(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&models.DocumentType{Name: "Identity document", RequiredOnHire: true}).Error)
	require.NoError(t, db.Create(&models.DocumentType{Name: "Parking card", RequiredOnHire: false}).Error)

	identity := createLocalIdentity(t, db, "jsilva", "secret123", models.EmployeeActive)

	dir := &fakeDirectory{bindErr: errors.New("directory down")}
	orchestrator := auth.NewOrchestrator(db, dir, testDirectoryConfig())

	_, err := orchestrator.Login("jsilva", "secret123")
	require.NoError(t, err)

	var requests []models.DocumentRequest

	require.NoError(t, db.Where("employee_id = ?", identity.EmployeeID).Find(&requests).Error)
	require.Len(t, requests, 1, "only required-on-hire types generate requests")
	assert.Equal(t, models.DocumentRequestPending, requests[0].Status)

	// a second login must not duplicate the request
	_, err = orchestrator.Login("jsilva", "secret123")
	require.NoError(t, err)

	var count int64

	require.NoError(t, db.Model(&models.DocumentRequest{}).
		Where("employee_id = ?", identity.EmployeeID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
