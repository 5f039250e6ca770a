package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/database"
	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/mail"
	"github.com/Tomlord1122/todo-homework/internal/repository"
	"github.com/Tomlord1122/todo-homework/internal/signing"
	"github.com/Tomlord1122/todo-homework/internal/storage"
)

const testSecret = "test-secret"

var t0 = time.Date(2025, 7, 24, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	users    repository.UserRepository
	todos    repository.TodoRepository
	comments repository.CommentRepository
	store    *storage.Memory
	outbox   *mail.Outbox

	now      time.Time
	verifier *VerificationService
	accounts *UserService
	todoSvc  TodoService
	comSvc   CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	svc, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")+"?_foreign_keys=on"), "silent")
	require.NoError(t, err)
	require.NoError(t, svc.Migrate())
	t.Cleanup(func() { _ = svc.Close() })
	db := svc.GetDB()

	env := &testEnv{
		users:    repository.NewGormUserRepository(db),
		todos:    repository.NewGormTodoRepository(db),
		comments: repository.NewGormCommentRepository(db),
		store:    storage.NewMemory("/media/"),
		outbox:   &mail.Outbox{},
		now:      t0,
	}
	env.verifier = NewVerificationService(testSecret, env.users, env.outbox, signing.WithClock(env.clock))
	env.accounts = NewUserService(env.users, env.verifier)
	env.accounts.now = env.clock
	env.todoSvc = NewTodoService(env.todos, env.comments, env.store)
	env.comSvc = NewCommentService(env.comments, env.todos)
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

// user stores an account directly, skipping signup.
func (e *testEnv) user(t *testing.T, email string, active bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	u := &domain.User{Email: email, Name: strings.Split(email, "@")[0], PasswordHash: hash, IsActive: active}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
