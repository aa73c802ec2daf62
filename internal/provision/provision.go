// Package provision ensures external directory accounts exist and stay
// attribute-synchronized for local employees, and drives the account
// lifecycle (enable, disable, remove).
//
// The engine never mutates local storage; callers persist the resolved
// principal name onto the local identity themselves.
package provision

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GoHR-Admin/GoHR-Admin/internal/db/models"
	"github.com/GoHR-Admin/GoHR-Admin/internal/directory"
	"github.com/GoHR-Admin/GoHR-Admin/internal/matcher"
)

// Directory opens authenticated sessions against the external directory.
type Directory interface {
	Connect() (directory.Session, error)
}

// Options tune a single EnsureProvisioned call.
type Options struct {
	// ManualUsername overrides the derived username entirely (lowercased).
	ManualUsername string
	// LinkOnly computes and returns the principal name without contacting
	// the directory, supporting a "link now, provision later" flow.
	LinkOnly bool
}

// Outcome is the result of a provisioning operation.
type Outcome struct {
	// PrincipalName is the resolved username@domain form.
	PrincipalName string
	// Message is an operator-facing summary of what happened.
	Message string
	// Created reports whether a new account was created (as opposed to an
	// existing account being synchronized).
	Created bool
}

// Engine provisions and synchronizes external directory accounts.
type Engine struct {
	dir Directory
	cfg *directory.Config
}

// New creates a provisioning engine.
func New(dir Directory, cfg *directory.Config) *Engine {
	return &Engine{dir: dir, cfg: cfg}
}

// Username derives the canonical short username from an employee name:
// the normalized first and last name tokens joined with a dot, or the single
// normalized token for one-word names. Deterministic for any given name.
func Username(name string) string {
	tokens := strings.Fields(matcher.Normalize(name))

	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0]
	default:
		return tokens[0] + "." + tokens[len(tokens)-1]
	}
}

// EnsureProvisioned makes sure a directory account exists for the employee
// and is attribute-synchronized. Existing accounts get display name,
// department and title updates only; credentials and enablement state are
// never touched on that path. Missing accounts are created enabled, with the
// configured initial password and the "must change password at next logon"
// flag set, as separate individually-checked steps.
//
// Sub-step failures abort without compensation: the account may be left
// partially configured and the returned error names the failed step for
// manual operator cleanup.
func (e *Engine) EnsureProvisioned(employee *models.Employee, opts Options) (Outcome, error) {
	username := Username(employee.Name)
	if opts.ManualUsername != "" {
		username = strings.ToLower(opts.ManualUsername)
	}

	if username == "" {
		return Outcome{}, fmt.Errorf("%w: employee name is empty", directory.ErrValidation)
	}

	principal := username + "@" + e.cfg.Domain()

	if opts.LinkOnly {
		return Outcome{
			PrincipalName: principal,
			Message:       "link-only requested, directory not contacted",
		}, nil
	}

	sess, err := e.dir.Connect()
	if err != nil {
		return Outcome{}, err
	}

	defer sess.Close()

	entries, err := sess.Search(
		fmt.Sprintf("(sAMAccountName=%s)", ldap.EscapeFilter(username)),
		[]string{"displayName", "department", "title"},
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("account lookup: %w", err)
	}

	if len(entries) > 0 {
		return e.syncAttributes(sess, entries[0], employee, principal)
	}

	return e.createAccount(sess, employee, username, principal)
}

// syncAttributes updates display name, department and title on an existing
// account, only for fields that are set locally and differ in the directory.
func (e *Engine) syncAttributes(
	sess directory.Session,
	entry *ldap.Entry,
	employee *models.Employee,
	principal string,
) (Outcome, error) {
	replace := make(map[string][]string)

	desired := map[string]string{
		"displayName": employee.Name,
		"department":  employee.Department,
		"title":       employee.Title,
	}

	for attribute, value := range desired {
		if value != "" && entry.GetAttributeValue(attribute) != value {
			replace[attribute] = []string{value}
		}
	}

	if len(replace) == 0 {
		return Outcome{
			PrincipalName: principal,
			Message:       "account already exists and is up to date",
		}, nil
	}

	if err := sess.Modify(entry.DN, replace); err != nil {
		return Outcome{}, fmt.Errorf("attribute sync: %w", err)
	}

	log.Info().Str("principal", principal).Int("attributes", len(replace)).
		Msg("synchronized directory account attributes")

	return Outcome{
		PrincipalName: principal,
		Message:       "account already exists, attributes synchronized",
	}, nil
}

// createAccount creates the account object and then, as separate sequential
// calls, sets the initial password, enables the account and forces a
// password change at next logon. Each step's result is checked individually.
func (e *Engine) createAccount(
	sess directory.Session,
	employee *models.Employee,
	username, principal string,
) (Outcome, error) {
	if e.cfg.DefaultPassword == "" {
		return Outcome{}, fmt.Errorf("%w: default initial password is not set", directory.ErrConfiguration)
	}

	// With a manual username the employee name may be empty.
	displayName := employee.Name
	if displayName == "" {
		displayName = username
	}

	nameTokens := strings.Fields(displayName)
	title := cases.Title(language.Und)

	givenName := title.String(nameTokens[0])
	surname := ""

	if len(nameTokens) > 1 {
		surname = title.String(strings.Join(nameTokens[1:], " "))
	}

	attributes := []ldap.Attribute{
		{Type: "objectClass", Vals: []string{"top", "person", "organizationalPerson", "user"}},
		{Type: "cn", Vals: []string{displayName}},
		{Type: "givenName", Vals: []string{givenName}},
		{Type: "displayName", Vals: []string{displayName}},
		{Type: "userPrincipalName", Vals: []string{principal}},
		{Type: "sAMAccountName", Vals: []string{username}},
	}

	// The directory rejects empty attribute values, so optional fields are
	// only sent when set.
	optional := []ldap.Attribute{
		{Type: "sn", Vals: []string{surname}},
		{Type: "mail", Vals: []string{employee.Email}},
		{Type: "department", Vals: []string{employee.Department}},
		{Type: "title", Vals: []string{employee.Title}},
	}

	for _, attribute := range optional {
		if attribute.Vals[0] != "" {
			attributes = append(attributes, attribute)
		}
	}

	dn := "CN=" + ldap.EscapeDN(displayName) + "," + e.cfg.UserOU

	log.Info().Str("principal", principal).Str("dn", dn).Msg("provisioning directory account")

	if err := sess.Add(dn, attributes); err != nil {
		return Outcome{}, fmt.Errorf("create account object: %w", err)
	}

	if err := sess.Replace(dn, "unicodePwd", []string{EncodePassword(e.cfg.DefaultPassword)}); err != nil {
		return Outcome{}, fmt.Errorf("set initial password (account left partially configured): %w", err)
	}

	if err := sess.Replace(dn, "userAccountControl", []string{accountEnabled}); err != nil {
		return Outcome{}, fmt.Errorf("enable account (account left partially configured): %w", err)
	}

	if err := sess.Replace(dn, "pwdLastSet", []string{"0"}); err != nil {
		return Outcome{}, fmt.Errorf("force password change at next logon (account left partially configured): %w", err)
	}

	return Outcome{
		PrincipalName: principal,
		Message:       "account created and enabled, password change required at next logon",
		Created:       true,
	}, nil
}

// EncodePassword encodes a password for the unicodePwd attribute: the
// password wrapped in double quotes, as UTF-16 little endian.
func EncodePassword(password string) string {
	encoded := utf16.Encode([]rune(`"` + password + `"`))

	buf := make([]byte, len(encoded)*2)
	for i, r := range encoded {
		binary.LittleEndian.PutUint16(buf[i*2:], r)
	}

	return string(buf)
}
