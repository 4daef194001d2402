package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
)

const defaultGroupsClaim = "groups"

// OIDCProvider handles OpenID Connect authentication.
type OIDCProvider struct {
	config   config.OIDC
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	db       *gorm.DB
	// client from the discovery context, reused for code exchanges.
	client *http.Client
}

// IDClaims are the ID token claims mapped onto an account.
type IDClaims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	EmailVerified     *bool  `json:"email_verified"`
	PreferredUsername string `json:"preferred_username"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

// NewOIDCProvider discovers the provider configuration at cfg.ProviderURL.
func NewOIDCProvider(ctx context.Context, cfg config.OIDC, db *gorm.DB) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	if cfg.GroupsClaim == "" {
		cfg.GroupsClaim = defaultGroupsClaim
	}

	client, _ := ctx.Value(oauth2.HTTPClient).(*http.Client)

	return &OIDCProvider{
		client:   client,
		config:   cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		db: db,
	}, nil
}

// OIDCClientContext makes discovery, key fetches and code exchanges use client.
func OIDCClientContext(ctx context.Context, client *http.Client) context.Context {
	return oidc.ClientContext(ctx, client)
}

// AuthCodeURL returns the authorization URL carrying state.
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback exchanges code, verifies the ID token and returns the synced local account.
// With SyncRoles enabled the account's roles are replaced by the roles named in the groups claim.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*models.User, error) {
	if p.client != nil {
		ctx = oidc.ClientContext(ctx, p.client)
	}

	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims IDClaims
	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	var groups []string

	if p.config.SyncRoles {
		var all map[string]any
		if err = idToken.Claims(&all); err != nil {
			return nil, fmt.Errorf("failed to parse claims: %w", err)
		}

		groups = GroupsFromClaims(all, p.config.GroupsClaim)
	}

	return syncDirectoryUser(p.db, DirectoryUserFromClaims(claims), groups)
}

// DirectoryUserFromClaims maps ID token claims onto the account fields.
// The username is preferred_username, else the email, else the subject.
// Unverified addresses are not stored.
func DirectoryUserFromClaims(claims IDClaims) user.DirectoryUser {
	email := strings.TrimSpace(claims.Email)
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		email = ""
	}

	username := strings.TrimSpace(claims.PreferredUsername)
	if username == "" {
		username = email
	}

	if username == "" {
		username = claims.Sub
	}

	return user.DirectoryUser{
		Source:    models.AuthSourceOIDC,
		Username:  username,
		Email:     email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		DN:        claims.Sub,
	}
}

// GroupsFromClaims reads the group names under claim. A missing claim yields no groups.
func GroupsFromClaims(claims map[string]any, claim string) []string {
	switch v := claims[claim].(type) {
	case string:
		if v == "" {
			return []string{}
		}

		return []string{v}
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok && s != "" {
				groups = append(groups, s)
			}
		}

		return groups
	default:
		return []string{}
	}
}
