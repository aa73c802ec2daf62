package auth

// Permission constants define the capabilities the identity subsystem
// checks before administrative actions.
const (
	// PermDirectoryAdmin allows running link analysis, resolving suggestions
	// and driving the external account lifecycle.
	PermDirectoryAdmin = "directory.admin"

	// PermEmployeesManage allows managing employee records.
	PermEmployeesManage = "employees.manage"
)
