package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/config"
	"github.com/Tomlord1122/todo-homework/internal/database"
	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/mail"
	"github.com/Tomlord1122/todo-homework/internal/storage"
)

type testApp struct {
	t       *testing.T
	server  *Server
	handler http.Handler
	outbox  *mail.Outbox
	store   *storage.Memory
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               8080,
		SecretKey:          "test-secret",
		MediaRoot:          "unused",
		MediaURL:           "/media/",
		DefaultFromEmail:   "webmaster@localhost",
		CORSAllowedOrigins: []string{"https://*", "http://*"},
		MaxUploadBytes:     1 << 20,
		AuthRatePerMinute:  100,
	}
}

func newTestApp(t *testing.T, edit ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig()
	for _, f := range edit {
		f(cfg)
	}

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")+"?_foreign_keys=on"), "silent")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	app := &testApp{t: t, outbox: &mail.Outbox{}, store: storage.NewMemory(cfg.MediaURL)}
	app.server = New(cfg, db, app.store, app.outbox, prometheus.NewRegistry())
	app.handler = app.server.RegisterRoutes()
	return app
}

// user stores an active account and returns a session cookie for it.
func (a *testApp) user(email string, superuser bool) (*domain.User, *http.Cookie) {
	a.t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(a.t, err)
	u := &domain.User{
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
	}
	require.NoError(a.t, a.server.users.Create(context.Background(), u))

	token, _, err := a.server.sessions.Issue(u.ID)
	require.NoError(a.t, err)
	return u, &http.Cookie{Name: auth.CookieName, Value: token}
}

func (a *testApp) do(method, target string, body io.Reader, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) json(method, target string, payload any, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(a.t, err)
		body = bytes.NewReader(raw)
	}
	return a.do(method, target, body, "application/json", cookie)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody builds a form with the given fields and, when filename is
// set, a completed_image file part.
func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("completed_image", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHelloAndHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/", nil, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello World from Todo Backend!"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/health", nil, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", decode[map[string]string](t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/", nil, "", nil)
	app.do(http.MethodGet, "/todos", nil, "", nil)

	rec := app.do(http.MethodGet, "/metrics", nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `todo_http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, body, `route="/todos/*",status="401"`)
}

func TestTodosRequireLogin(t *testing.T) {
	app := newTestApp(t)
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/todos"},
		{http.MethodPost, "/todos"},
		{http.MethodGet, "/todos/1"},
		{http.MethodPut, "/comments/1"},
	} {
		rec := app.do(tc.method, tc.target, nil, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.target)
	}
}
