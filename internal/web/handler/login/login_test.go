package login_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoHR-Admin/GoHR-Admin/internal/auth"
	"github.com/GoHR-Admin/GoHR-Admin/internal/config"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/handler/login"
	"github.com/GoHR-Admin/GoHR-Admin/internal/web/session"
)

type fakeDirectory struct{}

func (f *fakeDirectory) BindUser(string, string) error {
	return errors.New("directory unavailable")
}

func (f *fakeDirectory) Connect() (directory.Session, error) {
	return nil, errors.New("directory unavailable")
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Employee{},
		&models.Identity{},
		&models.Permission{},
		&models.DocumentType{},
		&models.DocumentRequest{},
	))

	session.Init(nil)

	cfg := &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost:8080",
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Directory: directory.Config{
			Host:   "dc01.corp.example.com",
			BaseDN: "dc=corp,dc=example,dc=com",
		},
	}

	app := fiber.New()

	orchestrator := auth.NewOrchestrator(db, &fakeDirectory{}, &cfg.Directory)
	require.NoError(t, login.Handler.Init(app, cfg, db, orchestrator))

	return app, db
}

func createIdentity(t *testing.T, db *gorm.DB, status models.EmployeeStatus) {
	t.Helper()

	employee := models.Employee{
		Name:               "Joao Silva",
		RegistrationNumber: "EMP-0001",
		Status:             status,
	}
	require.NoError(t, db.Create(&employee).Error)

	identity := models.Identity{
		Username:   "jsilva",
		Email:      "jsilva@corp.example.com",
		Password:   models.HashPassword("secret123"),
		EmployeeID: employee.ID,
	}
	require.NoError(t, db.Create(&identity).Error)
}

func postLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	request := httptest.NewRequest(fiber.MethodPost, login.Path, strings.NewReader(body))
	request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	response, err := app.Test(request, 10000)
	require.NoError(t, err)

	return response
}

func TestLoginSuccessSetsSessionCookie(t *testing.T) {
	app, db := setupApp(t)

	createIdentity(t, db, models.EmployeeActive)

	response := postLogin(t, app, `{"username":"jsilva","password":"secret123"}`)

	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	cookies := response.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "session", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestLoginInvalidCredentialsIsGeneric(t *testing.T) {
	app, db := setupApp(t)

	createIdentity(t, db, models.EmployeeActive)

	response := postLogin(t, app, `{"username":"jsilva","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, response.StatusCode)

	response = postLogin(t, app, `{"username":"ghost","password":"secret123"}`)
	assert.Equal(t, fiber.StatusUnauthorized, response.StatusCode)
}

func TestLoginSuspendedEmployee(t *testing.T) {
	app, db := setupApp(t)

	createIdentity(t, db, models.EmployeeSuspended)

	response := postLogin(t, app, `{"username":"jsilva","password":"secret123"}`)

	assert.Equal(t, fiber.StatusForbidden, response.StatusCode)
}

func TestLoginRejectsMissingFields(t *testing.T) {
	app, _ := setupApp(t)

	response := postLogin(t, app, `{"username":"jsilva"}`)

	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}
