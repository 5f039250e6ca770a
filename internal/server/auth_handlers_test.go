package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/config"
)

func codeFromMail(t *testing.T, app *testApp) string {
	t.Helper()
	msg, ok := app.outbox.Last()
	require.True(t, ok, "no mail sent")
	i := strings.Index(msg.Body, "http")
	require.GreaterOrEqual(t, i, 0, msg.Body)
	link, err := url.Parse(strings.TrimSpace(msg.Body[i:]))
	require.NoError(t, err)
	return link.Query().Get("code")
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	app := newTestApp(t)
	signup := map[string]string{
		"email":            "new@example.com",
		"name":             "Newcomer",
		"password":         "s3cret-pass",
		"password_confirm": "s3cret-pass",
	}

	rec := app.json(http.MethodPost, "/signup", signup, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.False(t, decode[map[string]any](t, rec)["is_active"].(bool))

	msg, _ := app.outbox.Last()
	assert.Equal(t, "[Todo] Email verification link for Newcomer", msg.Subject)
	assert.Contains(t, msg.Body, "http://example.com/verify/?code=")

	login := map[string]string{"email": "new@example.com", "password": "s3cret-pass"}
	rec = app.json(http.MethodPost, "/login", login, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unverified accounts cannot log in")

	rec = app.do(http.MethodGet, "/verify/?code=garbage", nil, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or has expired")

	rec = app.do(http.MethodGet, "/verify/?code="+url.QueryEscape(codeFromMail(t, app)), nil, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Thanks Newcomer")

	rec = app.json(http.MethodPost, "/login", login, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	rec = app.do(http.MethodGet, "/todos", nil, "", session)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodPost, "/logout", nil, "", session)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestVerifyMissingCode(t *testing.T) {
	app := newTestApp(t)
	for _, target := range []string{"/verify/", "/verify", "/verify/?code="} {
		rec := app.do(http.MethodGet, target, nil, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Verification failed", target)
	}
}

func TestVerifyUnknownUser(t *testing.T) {
	app := newTestApp(t)
	code, err := app.server.verifier.Mint("ghost@example.com")
	require.NoError(t, err)

	rec := app.do(http.MethodGet, "/verify/?code="+url.QueryEscape(code), nil, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://todo.example.com/signup", nil)
	assert.Equal(t, "http://todo.example.com", origin(r))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://todo.example.com", origin(r))

	tls := httptest.NewRequest(http.MethodPost, "https://todo.example.com/signup", nil)
	assert.Equal(t, "https://todo.example.com", origin(tls))
}

func TestSignupErrors(t *testing.T) {
	app := newTestApp(t)
	app.user("taken@example.com", false)

	rec := app.json(http.MethodPost, "/signup", map[string]string{
		"email": "taken@example.com", "name": "Dup", "password": "s3cret-pass", "password_confirm": "s3cret-pass",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Fields, "email")

	rec = app.json(http.MethodPost, "/signup", map[string]string{
		"email": "bad", "name": "", "password": "short", "password_confirm": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[errorResponse](t, rec).Fields, 3)

	rec = app.do(http.MethodPost, "/signup", strings.NewReader(`{"email":`), "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodPost, "/signup", strings.NewReader(`{"admin":true}`), "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field")
}

func TestResendVerification(t *testing.T) {
	app := newTestApp(t)

	rec := app.json(http.MethodPost, "/resend-verification", map[string]string{"email": "nobody@example.com"}, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, app.outbox.Messages())

	rec = app.json(http.MethodPost, "/signup", map[string]string{
		"email": "late@example.com", "name": "Late", "password": "s3cret-pass", "password_confirm": "s3cret-pass",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.json(http.MethodPost, "/resend-verification", map[string]string{"email": "late@example.com"}, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, app.outbox.Messages(), 2)

	rec = app.do(http.MethodGet, "/verify/?code="+url.QueryEscape(codeFromMail(t, app)), nil, "", nil)
	assert.Contains(t, rec.Body.String(), "Email verified")
}

func TestAuthRateLimit(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.AuthRatePerMinute = 2 })
	login := map[string]string{"email": "x@example.com", "password": "wrong-password"}

	for i := 0; i < 2; i++ {
		rec := app.json(http.MethodPost, "/login", login, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := app.json(http.MethodPost, "/login", login, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Other routes are not limited.
	rec = app.do(http.MethodGet, "/", nil, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
