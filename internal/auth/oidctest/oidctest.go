// Package oidctest runs an in-process OpenID Connect provider for tests.
// It serves discovery, the signing keys and a token endpoint answering codes registered with Issue.
package oidctest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/require"
)

const (
	// ClientID is the client the issued tokens are meant for.
	ClientID = "refractory-erp"
	// ClientSecret is accepted but not checked.
	ClientSecret = "secret"

	keyID = "test-key"
)

// Server is a running provider.
type Server struct {
	*httptest.Server

	key   *rsa.PrivateKey
	mu    sync.Mutex
	codes map[string]map[string]any
}

// New starts a provider closed at the end of the test.
func New(t *testing.T) *Server {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048) //nolint:mnd
	require.NoError(t, err)

	s := &Server{key: key, codes: map[string]map[string]any{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", s.discovery)
	mux.HandleFunc("GET /jwks", s.keys)
	mux.HandleFunc("POST /token", s.token)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// Issue registers code. Exchanging it returns an ID token with claims plus iss, aud, iat and exp.
func (s *Server) Issue(code string, claims map[string]any) {
	now := time.Now()

	full := map[string]any{
		"iss": s.URL,
		"aud": ClientID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		full[k] = v
	}

	s.mu.Lock()
	s.codes[code] = full
	s.mu.Unlock()
}

func (s *Server) discovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                s.URL,
		"authorization_endpoint":                s.URL + "/authorize",
		"token_endpoint":                        s.URL + "/token",
		"jwks_uri":                              s.URL + "/jwks",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{string(jose.RS256)},
	})
}

func (s *Server) keys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &s.key.PublicKey,
		KeyID:     keyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	code := r.PostForm.Get("code")

	s.mu.Lock()
	claims, ok := s.codes[code]
	delete(s.codes, code)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	idToken, err := s.sign(claims)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "access-" + code,
		"token_type":   "Bearer",
		"expires_in":   3600, //nolint:mnd
		"id_token":     idToken,
	})
}

func (s *Server) sign(claims map[string]any) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: s.key, KeyID: keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return jws.CompactSerialize() //nolint:wrapcheck
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
