// Package auth orchestrates login against the external directory with a
// local credential fallback, and provides permission checks for the
// administrative API.
//
// # Login orchestration
//
// Orchestrator.Login drives a single synchronous state machine per request:
// an external bind as the submitted user, a privileged attribute search to
// confirm the bound account really exists, local identity resolution (which
// may reconcile attribute drift, bind the identity to an existing employee,
// or auto-provision a brand-new employee and identity), a local password
// fallback when the directory rejects or is unreachable, and a final gate
// that blocks suspended employees and triggers first-login onboarding.
//
// Directory failures never leak to the login caller: every failed path
// collapses into the one generic ErrInvalidCredentials.
//
// # Local credentials
//
// LocalProvider verifies and maintains Argon2id password hashes for
// identities that authenticate locally, including the provisional-password
// change flow.
//
// # Authorization
//
// Service answers permission questions from the identity_permissions
// mapping, and RequirePermission wraps it as a Fiber middleware for the
// administrative routes:
//
//	app.Post("/admin/directory/analysis",
//	    auth.RequirePermission(authService, auth.PermDirectoryAdmin),
//	    handler,
//	)
package auth
