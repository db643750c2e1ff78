package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/yapplr/internal/client/api"
	"github.com/yapplr/yapplr/internal/client/config"
	"github.com/yapplr/yapplr/internal/netx"
)

type fakeAPI struct {
	gotServer   string
	regReq      api.RegisterRequest
	loginEmail  string
	loginPass   string
	forgotEmail string
	resetToken  string
	resetPass   string
	meToken     string

	err   error
	meErr error
}

func (f *fakeAPI) session(username string) *api.AuthResponse {
	return &api.AuthResponse{Token: "jwt-" + username, ExpiresAt: time.Now().Add(time.Hour), User: api.User{Username: username}}
}

func (f *fakeAPI) Register(_ context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	f.regReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.session(req.Username), nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*api.AuthResponse, error) {
	f.loginEmail, f.loginPass = email, password
	if f.err != nil {
		return nil, f.err
	}
	return f.session("alice"), nil
}

func (f *fakeAPI) ForgotPassword(_ context.Context, email string) (string, error) {
	f.forgotEmail = email
	return "If that email is registered, a reset link is on its way.", f.err
}

func (f *fakeAPI) ResetPassword(_ context.Context, token, pw string) (string, error) {
	f.resetToken, f.resetPass = token, pw
	return "Password updated", f.err
}

func (f *fakeAPI) Me(_ context.Context, token string) (*api.User, error) {
	f.meToken = token
	if f.meErr != nil {
		return nil, f.meErr
	}
	return &api.User{ID: "u1", Username: "alice", Email: "alice@example.com", Pronouns: "she/her"}, nil
}

type harness struct {
	api       *fakeAPI
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{api: &fakeAPI{}, tokenFile: filepath.Join(t.TempDir(), "token")}
	old := newAuthClient
	t.Cleanup(func() { newAuthClient = old })
	newAuthClient = func(cfg *config.Config) AuthClient {
		h.api.gotServer = cfg.ServerURL
		return h.api
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--token-file", h.tokenFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) storedToken(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(h.tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func TestRegister_PromptsAndStoresToken(t *testing.T) {
	h := newHarness(t)
	stubPasswords(t, "correct-horse", "correct-horse")

	out, err := h.run(t, "alice@example.com\nalice\n", "register", "--pronouns", "she/her")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered as alice")

	assert.Equal(t, api.RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "correct-horse", Pronouns: "she/her"}, h.api.regReq)
	assert.Equal(t, "jwt-alice", h.storedToken(t))
}

func TestRegister_PasswordMismatchSendsNothing(t *testing.T) {
	h := newHarness(t)
	stubPasswords(t, "correct-horse", "battery-staple")

	_, err := h.run(t, "", "register", "--email", "a@b.c", "--username", "alice")
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.Empty(t, h.api.regReq.Email)
	assert.Empty(t, h.storedToken(t))
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t)
		stubPasswords(t, "correct-horse")

		out, err := h.run(t, "", "login", "--email", "alice@example.com", "--server", "https://api.example")
		require.NoError(t, err)
		assert.Contains(t, out, "Logged in as alice")
		assert.Equal(t, "https://api.example", h.api.gotServer)
		assert.Equal(t, "alice@example.com", h.api.loginEmail)
		assert.Equal(t, "correct-horse", h.api.loginPass)
		assert.Equal(t, "jwt-alice", h.storedToken(t))
	})

	t.Run("rejected", func(t *testing.T) {
		h := newHarness(t)
		stubPasswords(t, "wrong")
		h.api.err = &netx.HTTPError{StatusCode: http.StatusUnauthorized, Detail: "invalid email or password"}

		_, err := h.run(t, "alice@example.com\n", "login")
		require.Error(t, err)
		assert.True(t, api.IsUnauthorized(err))
		assert.Empty(t, h.storedToken(t))
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "alice@example.com\n", "forgot-password")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", h.api.forgotEmail)
	assert.Contains(t, out, "reset link is on its way")

	stubPasswords(t, "brand-new-pass", "brand-new-pass")
	out, err = h.run(t, "", "reset-password", "--token", "tok123")
	require.NoError(t, err)
	assert.Equal(t, "tok123", h.api.resetToken)
	assert.Equal(t, "brand-new-pass", h.api.resetPass)
	assert.Contains(t, out, "Password updated")
}

func TestMe(t *testing.T) {
	t.Run("not logged in", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "me")
		require.ErrorIs(t, err, errNotLoggedIn)
	})

	t.Run("prints account", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, tokenStore{path: h.tokenFile}.Save("jwt-alice"))

		out, err := h.run(t, "", "me")
		require.NoError(t, err)
		assert.Equal(t, "jwt-alice", h.api.meToken)
		assert.Contains(t, out, "username:  alice")
		assert.Contains(t, out, "pronouns:  she/her")
	})

	t.Run("expired session clears token", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, tokenStore{path: h.tokenFile}.Save("stale"))
		h.api.meErr = &netx.HTTPError{StatusCode: http.StatusUnauthorized}

		_, err := h.run(t, "", "me")
		require.ErrorIs(t, err, errNotLoggedIn)
		assert.Empty(t, h.storedToken(t))
	})

	t.Run("server error keeps token", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, tokenStore{path: h.tokenFile}.Save("jwt-alice"))
		h.api.meErr = errors.New("connection refused")

		_, err := h.run(t, "", "me")
		require.Error(t, err)
		assert.Equal(t, "jwt-alice", h.storedToken(t))
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, tokenStore{path: h.tokenFile}.Save("jwt-alice"))

	out, err := h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.Empty(t, h.storedToken(t))

	// twice is fine
	_, err = h.run(t, "", "logout")
	require.NoError(t, err)
}

func TestRoot_BadConfigFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "--config", filepath.Join(t.TempDir(), "missing.json"), "logout")
	require.Error(t, err)
}

func TestTokenStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	_, err := tokenStore{path: path}.Load()
	require.ErrorIs(t, err, errNotLoggedIn)
}
