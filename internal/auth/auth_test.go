package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Walendziak1912/CDA/internal/config"
	"github.com/Walendziak1912/CDA/internal/errs"
	"github.com/Walendziak1912/CDA/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body><form><input name="_token" value="csrf-abc"></form></body></html>`

func testConfig(serverURL string) *config.Config {
	cfg := config.Default()
	cfg.BaseURL = serverURL
	cfg.LoginURL = serverURL + "/login"
	return cfg
}

func newAuthenticator(t *testing.T, serverURL string) *Authenticator {
	t.Helper()
	cfg := testConfig(serverURL)
	sess, err := session.New(cfg)
	require.NoError(t, err)
	return New(sess, cfg)
}

func TestLoginSuccess(t *testing.T) {
	var submittedToken, submittedRemember string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = fmt.Fprint(w, loginPage)
			return
		}
		require.NoError(t, r.ParseForm())
		submittedToken = r.PostFormValue("_token")
		submittedRemember = r.PostFormValue("remember")
		_, _ = fmt.Fprint(w, `<html><body>Witaj JKowalski! Twoje konto PREMIUM jest aktywne.</body></html>`)
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	ok, err := a.Login(context.Background(), "jkowalski", "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, a.IsAuthenticated())
	assert.Equal(t, "jkowalski", a.Username())
	assert.Equal(t, "csrf-abc", submittedToken)
	assert.Equal(t, "1", submittedRemember)
}

func TestLoginRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = fmt.Fprint(w, loginPage)
			return
		}
		// Response mentions neither premium nor the username.
		_, _ = fmt.Fprint(w, `<html><body>Nieprawidłowe dane logowania.</body></html>`)
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	ok, err := a.Login(context.Background(), "jkowalski", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, a.IsAuthenticated())
}

func TestLoginMissingUsernameInBodyFails(t *testing.T) {
	// The heuristic needs both the premium marker and the username.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = fmt.Fprint(w, loginPage)
			return
		}
		_, _ = fmt.Fprint(w, `<html><body>Kup konto premium już dziś!</body></html>`)
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	ok, err := a.Login(context.Background(), "jkowalski", "secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginPropagatesTokenNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>No token anywhere.</body></html>`)
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	_, err := a.Login(context.Background(), "user", "pass")

	var notFound *errs.TokenNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.False(t, a.IsAuthenticated())
}

func TestLoginWhileAuthenticatedIsNoop(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method == http.MethodGet {
			_, _ = fmt.Fprint(w, loginPage)
			return
		}
		_, _ = fmt.Fprint(w, `premium anna`)
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	ok, err := a.Login(context.Background(), "anna", "pass")
	require.NoError(t, err)
	require.True(t, ok)

	before := requests
	ok, err = a.Login(context.Background(), "anna", "pass")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, requests, "second login must not hit the server")
}

func TestLogout(t *testing.T) {
	var logoutHit bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/logout":
			logoutHit = true
			_, _ = fmt.Fprint(w, "bye")
		case r.Method == http.MethodGet:
			_, _ = fmt.Fprint(w, loginPage)
		default:
			_, _ = fmt.Fprint(w, `premium anna`)
		}
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	_, err := a.Login(context.Background(), "anna", "pass")
	require.NoError(t, err)

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, logoutHit)
	assert.False(t, a.IsAuthenticated())
	assert.Empty(t, a.Username())
}

func TestLogoutWhileAnonymousIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous logout must not hit the server")
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)
	assert.NoError(t, a.Logout(context.Background()))
}

func TestEnsureAuthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = fmt.Fprint(w, loginPage)
			return
		}
		_, _ = fmt.Fprint(w, `premium anna`)
	}))
	defer server.Close()

	a := newAuthenticator(t, server.URL)

	var required *errs.AuthRequiredError
	require.ErrorAs(t, a.EnsureAuthenticated(), &required)

	_, err := a.Login(context.Background(), "anna", "pass")
	require.NoError(t, err)
	assert.NoError(t, a.EnsureAuthenticated())
}
