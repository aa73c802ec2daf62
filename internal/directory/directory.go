// Package directory manages secured sessions against the enterprise
// directory service and exposes the primitive operations the rest of the
// identity subsystem builds on: bind, search, add, modify and delete.
//
// The package performs no retries; a failure is surfaced once and the
// caller decides. Every session is released on every exit path.
package directory

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Config holds the directory service settings.
type Config struct {
	// Host is the directory server hostname or IP address.
	Host string
	// Port is the directory server port (typically 389 for LDAP, 636 for LDAPS).
	Port int
	// UseSSL enables LDAPS on connect.
	UseSSL bool
	// UseTLS upgrades a plain connection with StartTLS.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool
	// BindDN is the distinguished name of the service account.
	BindDN string
	// BindPassword is the service account password.
	BindPassword string
	// BaseDN is the base distinguished name for searches.
	BaseDN string
	// UserOU is the organizational unit new accounts are created under.
	UserOU string
	// DefaultPassword is the initial password assigned to newly provisioned accounts.
	DefaultPassword string
	// SuggestionThreshold is the minimum similarity score for link suggestions.
	SuggestionThreshold int
	// Timeout is the connection and search timeout in seconds.
	Timeout int
}

// Domain derives the account domain by joining the values of the dc=
// components of BaseDN with dots, e.g. "dc=corp,dc=example,dc=com"
// yields "corp.example.com".
func (c *Config) Domain() string {
	var parts []string

	for _, component := range strings.Split(c.BaseDN, ",") {
		component = strings.TrimSpace(component)

		if value, found := strings.CutPrefix(strings.ToLower(component), "dc="); found {
			parts = append(parts, value)
		}
	}

	return strings.Join(parts, ".")
}

// Session is an authenticated directory session. Implementations report
// provider rejections as *ProtocolError; an empty search result is a normal
// outcome, not an error.
type Session interface {
	// Search runs a whole-subtree search below the configured base DN.
	Search(filter string, attributes []string) ([]*ldap.Entry, error)
	// Add creates a new entry.
	Add(dn string, attributes []ldap.Attribute) error
	// Modify replaces the given attributes on an entry in one operation.
	Modify(dn string, replace map[string][]string) error
	// Replace replaces a single attribute on an entry.
	Replace(dn, attribute string, values []string) error
	// Del removes an entry.
	Del(dn string) error
	// Close releases the underlying connection.
	Close()
}

// Connector creates directory sessions from a fixed configuration.
// The configuration is injected explicitly; the connector never reads
// ambient application state.
type Connector struct {
	cfg *Config
}

// New creates a Connector for the given configuration.
func New(cfg *Config) *Connector {
	return &Connector{cfg: cfg}
}

// Connect establishes a TLS-secured connection and binds the configured
// service account. Any failure is reported as *ConnectionError.
func (c *Connector) Connect() (Session, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		closeConn(conn)

		return nil, &ConnectionError{Err: fmt.Errorf("service account bind: %w", err)}
	}

	return &session{conn: conn, cfg: c.cfg}, nil
}

// BindUser opens a fresh connection, binds as the given principal and
// releases the connection before returning. It is used to verify end-user
// credentials during login; rejected credentials surface as *ProtocolError
// (invalid credentials result code), transport problems as *ConnectionError.
func (c *Connector) BindUser(principal, password string) error {
	if principal == "" || password == "" {
		return fmt.Errorf("%w: principal and password are required", ErrValidation)
	}

	conn, err := c.dial()
	if err != nil {
		return &ConnectionError{Err: err}
	}

	defer closeConn(conn)

	if err := conn.Bind(principal, password); err != nil {
		return classify("bind", err)
	}

	return nil
}

// dial opens the raw connection, negotiating TLS as configured.
func (c *Connector) dial() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	var ldapURL string
	if c.cfg.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if c.cfg.UseSSL || c.cfg.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.cfg.SkipVerify, //nolint:gosec // explicit opt-in for test setups
			ServerName:         c.cfg.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to directory server: %w", err)
	}

	if !c.cfg.UseSSL && c.cfg.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	if c.cfg.Timeout > 0 {
		conn.SetTimeout(time.Duration(c.cfg.Timeout) * time.Second)
	}

	return conn, nil
}

// session wraps an authenticated connection.
type session struct {
	conn *ldap.Conn
	cfg  *Config
}

// Search implements Session.
func (s *session) Search(filter string, attributes []string) ([]*ldap.Entry, error) {
	request := ldap.NewSearchRequest(
		s.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, // no size limit
		s.cfg.Timeout,
		false,
		filter,
		attributes,
		nil,
	)

	result, err := s.conn.Search(request)
	if err != nil {
		return nil, classify("search", err)
	}

	return result.Entries, nil
}

// Add implements Session.
func (s *session) Add(dn string, attributes []ldap.Attribute) error {
	request := ldap.NewAddRequest(dn, nil)
	for _, attribute := range attributes {
		request.Attribute(attribute.Type, attribute.Vals)
	}

	if err := s.conn.Add(request); err != nil {
		return classify("add", err)
	}

	return nil
}

// Modify implements Session.
func (s *session) Modify(dn string, replace map[string][]string) error {
	request := ldap.NewModifyRequest(dn, nil)
	for attribute, values := range replace {
		request.Replace(attribute, values)
	}

	if err := s.conn.Modify(request); err != nil {
		return classify("modify", err)
	}

	return nil
}

// Replace implements Session.
func (s *session) Replace(dn, attribute string, values []string) error {
	return s.Modify(dn, map[string][]string{attribute: values})
}

// Del implements Session.
func (s *session) Del(dn string) error {
	if err := s.conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
		return classify("delete", err)
	}

	return nil
}

// Close implements Session.
func (s *session) Close() {
	closeConn(s.conn)
}

func closeConn(conn *ldap.Conn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close directory connection")
	}
}
