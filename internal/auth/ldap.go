package auth

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
)

const (
	usernameAttr  = "uid"
	emailAttr     = "mail"
	firstNameAttr = "givenName"
	lastNameAttr  = "sn"
	groupNameAttr = "cn"

	defaultLDAPTimeout = 10
)

// LDAPProvider handles LDAP authentication.
type LDAPProvider struct {
	config config.LDAP
	db     *gorm.DB
}

// NewLDAPProvider creates a new LDAP provider.
func NewLDAPProvider(cfg config.LDAP, db *gorm.DB) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultLDAPTimeout
	}

	if cfg.UserFilter == "" {
		cfg.UserFilter = "(" + usernameAttr + "={username})"
	}

	if cfg.GroupFilter == "" {
		cfg.GroupFilter = "(member={userdn})"
	}

	return &LDAPProvider{
		config: cfg,
		db:     db,
	}, nil
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	var ldapURL string
	if p.config.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         p.config.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// StartTLS only for plain connections
	if !p.config.UseSSL && p.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(p.config.Timeout) * time.Second)

	return conn, nil
}

// Authenticate authenticates a user against LDAP and returns the synced local account.
// With SyncRoles enabled the account's roles are replaced by the roles named like its groups.
func (p *LDAPProvider) Authenticate(username, password string) (*models.User, error) {
	if password == "" {
		// an empty password is an anonymous bind on most servers
		return nil, ErrInvalidPassword
	}

	conn, err := p.Connect()
	if err != nil {
		return nil, err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if errBind := p.bindService(conn); errBind != nil {
		return nil, errBind
	}

	userEntry, errSearch := p.searchUserEntry(conn, username)
	if errSearch != nil {
		return nil, errSearch
	}

	if errAuth := conn.Bind(userEntry.DN, password); errAuth != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPassword, errAuth)
	}

	var groups []string

	if p.config.SyncRoles {
		if errRebind := p.bindService(conn); errRebind != nil {
			return nil, errRebind
		}

		groups, err = p.getUserGroups(conn, userEntry.DN)
		if err != nil {
			return nil, fmt.Errorf("failed to get user groups: %w", err)
		}

		if groups == nil {
			groups = []string{}
		}
	}

	du := DirectoryUserFromEntry(userEntry, username)

	return syncDirectoryUser(p.db, du, groups)
}

// syncDirectoryUser stores a directory login and refuses deleted, foreign or inactive accounts.
func syncDirectoryUser(db *gorm.DB, du user.DirectoryUser, groups []string) (*models.User, error) {
	u, err := user.SyncDirectoryUser(db, du, groups)

	switch {
	case errors.Is(err, user.ErrDeleted), errors.Is(err, user.ErrSourceMismatch):
		log.Warn().Err(err).Str("username", du.Username).Str("auth_source", string(du.Source)).Msg("directory login refused")
		return nil, ErrUserAccountDisabled
	case err != nil:
		return nil, fmt.Errorf("failed to sync directory user: %w", err)
	case !u.Active:
		return nil, ErrUserAccountDisabled
	}

	return u, nil
}

// DirectoryUserFromEntry maps a directory entry onto the account fields.
func DirectoryUserFromEntry(entry *ldap.Entry, username string) user.DirectoryUser {
	if uid := entry.GetAttributeValue(usernameAttr); uid != "" {
		username = uid
	}

	return user.DirectoryUser{
		Source:    models.AuthSourceLDAP,
		Username:  username,
		Email:     entry.GetAttributeValue(emailAttr),
		FirstName: entry.GetAttributeValue(firstNameAttr),
		LastName:  entry.GetAttributeValue(lastNameAttr),
		DN:        entry.DN,
	}
}

// bindService binds with the configured service account, if any.
func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

// searchUserEntry searches LDAP for the given username and returns a single entry.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		UserFilter(p.config.UserFilter, username),
		[]string{usernameAttr, emailAttr, firstNameAttr, lastNameAttr, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// getUserGroups returns the names of the groups the user belongs to.
func (p *LDAPProvider) getUserGroups(conn *ldap.Conn, userDN string) ([]string, error) {
	if p.config.GroupBaseDN == "" {
		return nil, nil
	}

	searchRequest := ldap.NewSearchRequest(
		p.config.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.Timeout,
		false,
		GroupFilter(p.config.GroupFilter, userDN),
		[]string{groupNameAttr, "dn"},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for groups: %w", err)
	}

	groups := make([]string, 0, len(searchResult.Entries))
	for _, entry := range searchResult.Entries {
		if name := entry.GetAttributeValue(groupNameAttr); name != "" {
			groups = append(groups, name)
		}
	}

	return groups, nil
}

// TestConnection connects and binds with the configured service account.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	return p.bindService(conn)
}

// UserFilter fills the {username} placeholder with the escaped username.
func UserFilter(filter, username string) string {
	return strings.ReplaceAll(filter, "{username}", ldap.EscapeFilter(username))
}

// GroupFilter fills the {userdn} placeholder with the escaped user DN.
func GroupFilter(filter, userDN string) string {
	return strings.ReplaceAll(filter, "{userdn}", ldap.EscapeFilter(userDN))
}
