package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefractoryERP/RefractoryERP/internal/auth/oidctest"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/role"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
)

func oidcConfig(issuer string) config.OIDC {
	return config.OIDC{
		Enabled:      true,
		ProviderURL:  issuer,
		ClientID:     oidctest.ClientID,
		ClientSecret: oidctest.ClientSecret,
		RedirectURL:  "http://localhost/auth/oidc/callback",
		SyncRoles:    true,
	}
}

func TestNewOIDCProviderDisabled(t *testing.T) {
	_, err := NewOIDCProvider(context.Background(), config.OIDC{}, nil)
	require.ErrorIs(t, err, ErrOIDCDisabled)
}

func TestOIDCHandleCallback(t *testing.T) {
	db := testdb.New(t)
	idp := oidctest.New(t)

	for _, name := range []string{"storekeeper", "auditor"} {
		_, err := role.Create(db, role.CreateInput{Name: name})
		require.NoError(t, err)
	}

	p, err := NewOIDCProvider(context.Background(), oidcConfig(idp.URL), db)
	require.NoError(t, err)
	assert.Contains(t, p.AuthCodeURL("xyz"), "state=xyz")

	idp.Issue("code-1", map[string]any{
		"sub":                "8f2c",
		"preferred_username": "erin",
		"email":              "erin@example.com",
		"email_verified":     true,
		"given_name":         "Erin",
		"family_name":        "Hart",
		"groups":             []string{"storekeeper", "unknown"},
	})

	u, err := p.HandleCallback(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "erin", u.Username)
	assert.Equal(t, models.AuthSourceOIDC, u.AuthSource)
	assert.Equal(t, "8f2c", u.ExternalID)
	assert.Equal(t, "erin@example.com", u.EmailAddress())
	require.Len(t, u.Roles, 1)
	assert.Equal(t, "storekeeper", u.Roles[0].Name)

	// groups move on the next login
	idp.Issue("code-2", map[string]any{"sub": "8f2c", "preferred_username": "erin", "groups": []string{"auditor"}})

	u, err = p.HandleCallback(context.Background(), "code-2")
	require.NoError(t, err)
	require.Len(t, u.Roles, 1)
	assert.Equal(t, "auditor", u.Roles[0].Name)

	// codes are single use
	_, err = p.HandleCallback(context.Background(), "code-2")
	require.Error(t, err)
}

func TestOIDCHandleCallbackRejectsForeignAudience(t *testing.T) {
	db := testdb.New(t)
	idp := oidctest.New(t)

	p, err := NewOIDCProvider(context.Background(), oidcConfig(idp.URL), db)
	require.NoError(t, err)

	idp.Issue("code", map[string]any{"sub": "1", "preferred_username": "mallory", "aud": "other-client"})

	_, err = p.HandleCallback(context.Background(), "code")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOIDCRefusesLocalAccount(t *testing.T) {
	db := testdb.New(t)
	idp := oidctest.New(t)
	seedUser(t, db, "alice")

	p, err := NewOIDCProvider(context.Background(), oidcConfig(idp.URL), db)
	require.NoError(t, err)

	idp.Issue("code", map[string]any{"sub": "a1", "preferred_username": "alice"})

	_, err = p.HandleCallback(context.Background(), "code")
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestDirectoryUserFromClaims(t *testing.T) {
	unverified := false

	tests := []struct {
		name         string
		claims       IDClaims
		wantUsername string
		wantEmail    string
	}{
		{
			name:         "preferred username",
			claims:       IDClaims{Sub: "s1", PreferredUsername: " frank ", Email: "frank@example.com"},
			wantUsername: "frank",
			wantEmail:    "frank@example.com",
		},
		{
			name:         "email as username",
			claims:       IDClaims{Sub: "s2", Email: "gina@example.com"},
			wantUsername: "gina@example.com",
			wantEmail:    "gina@example.com",
		},
		{
			name:         "unverified email dropped",
			claims:       IDClaims{Sub: "s3", Email: "henk@example.com", EmailVerified: &unverified},
			wantUsername: "s3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			du := DirectoryUserFromClaims(tt.claims)
			assert.Equal(t, tt.wantUsername, du.Username)
			assert.Equal(t, tt.wantEmail, du.Email)
			assert.Equal(t, tt.claims.Sub, du.DN)
			assert.Equal(t, models.AuthSourceOIDC, du.Source)
		})
	}
}

func TestGroupsFromClaims(t *testing.T) {
	claims := map[string]any{
		"groups": []any{"storekeeper", 7, "", "auditor"},
		"role":   "admin",
	}

	assert.Equal(t, []string{"storekeeper", "auditor"}, GroupsFromClaims(claims, "groups"))
	assert.Equal(t, []string{"admin"}, GroupsFromClaims(claims, "role"))
	assert.Equal(t, []string{}, GroupsFromClaims(claims, "missing"))
}
