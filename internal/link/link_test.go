package link_test

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
	"github.com/GoHR-Admin/GoHR-Admin/internal/link"
)

// fakeSession serves a fixed directory account listing.
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

func (f *fakeSession) Add(string, []ldap.Attribute) error      { return nil }
func (f *fakeSession) Modify(string, map[string][]string) error { return nil }
func (f *fakeSession) Replace(string, string, []string) error  { return nil }
func (f *fakeSession) Del(string) error                        { return nil }
func (f *fakeSession) Close()                                  {}

type fakeDirectory struct {
	sess       *fakeSession
	connectErr error
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
		&models.LinkSuggestion{},
	))

	return db
}

func accountEntry(username, displayName string) *ldap.Entry {
	return ldap.NewEntry("CN="+displayName+",OU=Employees,DC=corp,DC=example,DC=com", map[string][]string{
		"sAMAccountName": {username},
		"displayName":    {displayName},
	})
}

func createEmployee(t *testing.T, db *gorm.DB, name, registration, username string) *models.Employee {
	t.Helper()

	employee := models.Employee{
		Name:               name,
		RegistrationNumber: registration,
		Status:             models.EmployeeActive,
	}
	require.NoError(t, db.Create(&employee).Error)

	identity := models.Identity{
		Username:   username,
		Email:      registration + "@corp.example.com",
		Password:   models.HashPassword("changeme"),
		EmployeeID: employee.ID,
	}
	require.NoError(t, db.Create(&identity).Error)

	return &employee
}

func TestRunAnalysisCreatesSuggestions(t *testing.T) {
	db := testDB(t)

	createEmployee(t, db, "Maria Clara Souza", "EMP-0001", "")

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		accountEntry("jsilva", "Joao Silva"),
		accountEntry("mclara", "Maria C Souza"),
	}}}

	service := link.New(db, dir, 80)

	created, err := service.RunAnalysis()

	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var suggestions []models.LinkSuggestion

	require.NoError(t, db.Find(&suggestions).Error)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "mclara", suggestions[0].DirectoryUsername)
	assert.Equal(t, "Maria Clara Souza", suggestions[0].EmployeeName)
	assert.GreaterOrEqual(t, suggestions[0].Score, 80)
}

func TestRunAnalysisThresholdFiltersWeakMatches(t *testing.T) {
	db := testDB(t)

	createEmployee(t, db, "Roberto Carlos Nascimento", "EMP-0002", "")

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		accountEntry("aalbuquerque", "Amanda Albuquerque"),
	}}}

	service := link.New(db, dir, 80)

	created, err := service.RunAnalysis()

	require.NoError(t, err)
	assert.Zero(t, created)

	var count int64

	require.NoError(t, db.Model(&models.LinkSuggestion{}).Count(&count).Error)
	assert.Zero(t, count, "no suggestion below the threshold is ever persisted")
}

func TestRunAnalysisSkipsAlreadyLinkedEmployees(t *testing.T) {
	db := testDB(t)

	createEmployee(t, db, "Joao Silva", "EMP-0003", "jsilva")

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		accountEntry("jsilva", "Joao Silva"),
	}}}

	service := link.New(db, dir, 80)

	created, err := service.RunAnalysis()

	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestRunAnalysisReplacesPreviousSuggestions(t *testing.T) {
	db := testDB(t)

	employee := createEmployee(t, db, "Maria Clara Souza", "EMP-0004", "")

	stale := models.LinkSuggestion{
		EmployeeID:        employee.ID,
		EmployeeName:      employee.Name,
		DirectoryUsername: "stale",
		Score:             99,
	}
	require.NoError(t, db.Create(&stale).Error)

	dir := &fakeDirectory{sess: &fakeSession{entries: []*ldap.Entry{
		accountEntry("mclara", "Maria C Souza"),
	}}}

	service := link.New(db, dir, 80)

	_, err := service.RunAnalysis()
	require.NoError(t, err)

	var suggestions []models.LinkSuggestion

	require.NoError(t, db.Find(&suggestions).Error)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "mclara", suggestions[0].DirectoryUsername)
}

func TestRunAnalysisConnectFailure(t *testing.T) {
	db := testDB(t)

	service := link.New(db, &fakeDirectory{connectErr: errors.New("unreachable")}, 80)

	_, err := service.RunAnalysis()

	assert.Error(t, err)
}

func TestAcceptLinksIdentity(t *testing.T) {
	db := testDB(t)

	employee := createEmployee(t, db, "Maria Clara Souza", "EMP-0005", "")

	suggestion := models.LinkSuggestion{
		EmployeeID:        employee.ID,
		EmployeeName:      employee.Name,
		DirectoryUsername: "mclara",
		Score:             87,
	}
	require.NoError(t, db.Create(&suggestion).Error)

	service := link.New(db, &fakeDirectory{}, 80)

	require.NoError(t, service.Accept(suggestion.ID))

	var identity models.Identity

	require.NoError(t, db.Where("employee_id = ?", employee.ID).First(&identity).Error)
	assert.Equal(t, "mclara", identity.Username)

	var count int64

	require.NoError(t, db.Model(&models.LinkSuggestion{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAcceptWithoutIdentityFails(t *testing.T) {
	db := testDB(t)

	employee := models.Employee{
		Name:               "Sem Identidade",
		RegistrationNumber: "EMP-0006",
		Status:             models.EmployeeActive,
	}
	require.NoError(t, db.Create(&employee).Error)

	suggestion := models.LinkSuggestion{
		EmployeeID:        employee.ID,
		EmployeeName:      employee.Name,
		DirectoryUsername: "sidentidade",
		Score:             95,
	}
	require.NoError(t, db.Create(&suggestion).Error)

	service := link.New(db, &fakeDirectory{}, 80)

	assert.ErrorIs(t, service.Accept(suggestion.ID), link.ErrIdentityMissing)

	// the suggestion survives a failed accept
	var count int64

	require.NoError(t, db.Model(&models.LinkSuggestion{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAcceptUnknownSuggestion(t *testing.T) {
	db := testDB(t)
	service := link.New(db, &fakeDirectory{}, 80)

	assert.ErrorIs(t, service.Accept(12345), link.ErrSuggestionNotFound)
}

func TestRejectDeletesOnly(t *testing.T) {
	db := testDB(t)

	employee := createEmployee(t, db, "Maria Clara Souza", "EMP-0007", "")

	suggestion := models.LinkSuggestion{
		EmployeeID:        employee.ID,
		EmployeeName:      employee.Name,
		DirectoryUsername: "mclara",
		Score:             87,
	}
	require.NoError(t, db.Create(&suggestion).Error)

	service := link.New(db, &fakeDirectory{}, 80)

	require.NoError(t, service.Reject(suggestion.ID))

	var identity models.Identity

	require.NoError(t, db.Where("employee_id = ?", employee.ID).First(&identity).Error)
	assert.Empty(t, identity.Username, "rejecting must not link anything")

	assert.ErrorIs(t, service.Reject(suggestion.ID), link.ErrSuggestionNotFound)
}

func TestPendingOrderedByScore(t *testing.T) {
	db := testDB(t)

	first := createEmployee(t, db, "Alpha Um", "EMP-0008", "")
	second := createEmployee(t, db, "Beta Dois", "EMP-0009", "")

	require.NoError(t, db.Create(&models.LinkSuggestion{
		EmployeeID: first.ID, EmployeeName: first.Name, DirectoryUsername: "alpha", Score: 82,
	}).Error)
	require.NoError(t, db.Create(&models.LinkSuggestion{
		EmployeeID: second.ID, EmployeeName: second.Name, DirectoryUsername: "beta", Score: 97,
	}).Error)

	service := link.New(db, &fakeDirectory{}, 80)

	pending, err := service.Pending()

	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "beta", pending[0].DirectoryUsername)
	assert.Equal(t, "alpha", pending[1].DirectoryUsername)
}
