package provision

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
)

// userAccountControl values for a normal account.
const (
	accountEnabled  = "512"
	accountDisabled = "514"
)

// Enable sets the account with the given short username to the enabled
// state. An absent account is a successful no-op, so that enabling never
// fails merely because the account was never provisioned.
func (e *Engine) Enable(username string) (string, error) {
	return e.setControlState(username, accountEnabled, "enabled")
}

// Disable sets the account with the given short username to the disabled
// state. An absent account is a successful no-op.
func (e *Engine) Disable(username string) (string, error) {
	return e.setControlState(username, accountDisabled, "disabled")
}

// Remove deletes the account with the given short username. An absent
// account is a successful no-op, so that removing a local employee never
// fails merely because the external account is already gone.
func (e *Engine) Remove(username string) (string, error) {
	sess, entry, err := e.locate(username)
	if err != nil {
		return "", err
	}

	defer sess.Close()

	if entry == nil {
		return "account " + username + " not found in directory, no action needed", nil
	}

	if err := sess.Del(entry.DN); err != nil {
		return "", fmt.Errorf("remove account %s: %w", username, err)
	}

	return "account " + username + " removed from directory", nil
}

func (e *Engine) setControlState(username, state, verb string) (string, error) {
	sess, entry, err := e.locate(username)
	if err != nil {
		return "", err
	}

	defer sess.Close()

	if entry == nil {
		return "account " + username + " not found in directory, no action needed", nil
	}

	if err := sess.Replace(entry.DN, "userAccountControl", []string{state}); err != nil {
		return "", fmt.Errorf("set account %s %s: %w", username, verb, err)
	}

	return "account " + username + " " + verb + " in directory", nil
}

// locate opens a session and searches for the account. A nil entry with nil
// error means the account does not exist. The caller owns the session and
// must close it unless an error is returned.
func (e *Engine) locate(username string) (directory.Session, *ldap.Entry, error) {
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username is empty", directory.ErrValidation)
	}

	sess, err := e.dir.Connect()
	if err != nil {
		return nil, nil, err
	}

	entries, err := sess.Search(
		fmt.Sprintf("(sAMAccountName=%s)", ldap.EscapeFilter(username)),
		[]string{"userAccountControl"},
	)
	if err != nil {
		sess.Close()

		return nil, nil, fmt.Errorf("account lookup: %w", err)
	}

	if len(entries) == 0 {
		return sess, nil, nil
	}

	return sess, entries[0], nil
}
