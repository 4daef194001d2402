package config

import (
	"time"

	"github.com/RefractoryERP/RefractoryERP/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	CheckAliveURI  string  // path answering load balancer health checks
	Session        Session // session settings
}

// Auth holds the authentication settings.
type Auth struct {
	// Disabled turns off login and permission checks (local development only).
	Disabled bool
	LDAP     LDAP
	OIDC     OIDC
}

// LDAP holds the directory login settings.
type LDAP struct {
	Enabled      bool
	Host         string
	Port         int
	UseSSL       bool
	UseTLS       bool
	SkipVerify   bool
	BindDN       string
	BindPassword string
	BaseDN       string
	UserFilter   string
	GroupBaseDN  string
	GroupFilter  string
	// SyncRoles replaces the user's roles with the roles named like the user's directory groups.
	SyncRoles bool
	Timeout   int
}

// OIDC holds the OpenID Connect login settings.
type OIDC struct {
	Enabled bool
	// ProviderURL is the issuer, e.g. "https://accounts.google.com".
	ProviderURL  string
	ClientID     string
	ClientSecret string
	// RedirectURL must point at /auth/oidc/callback of this server.
	RedirectURL string
	// Scopes default to openid, profile and email.
	Scopes []string
	// GroupsClaim names the ID token claim with the user's groups. Default: groups.
	GroupsClaim string
	// SyncRoles replaces the user's roles with the roles named like the groups claim.
	SyncRoles bool
}

// Seed holds the initial data settings used by the seed command.
type Seed struct {
	AdminUsername string
	AdminEmail    string
	// AdminPassword is generated and logged once when left empty.
	AdminPassword string
}
