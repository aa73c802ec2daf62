package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoHR-Admin/GoHR-Admin/internal/auth"
	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
)

func TestGrantAndHasPermission(t *testing.T) {
	db := testDB(t)

	identity := createLocalIdentity(t, db, "admin", "changeme", models.EmployeeActive)

	service := auth.NewService(db)

	has, err := service.HasPermission(identity.ID, auth.PermDirectoryAdmin)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, service.Grant(identity.ID, auth.PermDirectoryAdmin))

	has, err = service.HasPermission(identity.ID, auth.PermDirectoryAdmin)
	require.NoError(t, err)
	assert.True(t, has)

	// granting twice is idempotent
	require.NoError(t, service.Grant(identity.ID, auth.PermDirectoryAdmin))

	permissions, err := service.GetPermissions(identity.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.PermDirectoryAdmin}, permissions)
}

func TestHasAnyPermission(t *testing.T) {
	db := testDB(t)

	identity := createLocalIdentity(t, db, "hr", "changeme", models.EmployeeActive)

	service := auth.NewService(db)

	require.NoError(t, service.Grant(identity.ID, auth.PermEmployeesManage))

	has, err := service.HasAnyPermission(identity.ID, []string{
		auth.PermDirectoryAdmin,
		auth.PermEmployeesManage,
	})
	require.NoError(t, err)
	assert.True(t, has)

	has, err = service.HasAnyPermission(identity.ID, []string{auth.PermDirectoryAdmin})
	require.NoError(t, err)
	assert.False(t, has)
}
