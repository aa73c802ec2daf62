// Package main provides the entry point for the GoHR-Admin HR portal.
// It initializes and runs a web server using the Fiber framework that keeps
// employee records, local identities and the corporate directory service in
// sync: directory account provisioning, identity link suggestions and
// directory-backed authentication with a local credential fallback. The
// application uses gorm for data persistence.
package main
