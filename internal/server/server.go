package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/config"
	"github.com/Tomlord1122/todo-homework/internal/database"
	"github.com/Tomlord1122/todo-homework/internal/mail"
	"github.com/Tomlord1122/todo-homework/internal/repository"
	"github.com/Tomlord1122/todo-homework/internal/service"
	"github.com/Tomlord1122/todo-homework/internal/storage"
)

type Server struct {
	cfg *config.Config
	db  database.Service

	users    repository.UserRepository
	todos    service.TodoService
	comments service.CommentService
	accounts *service.UserService
	verifier *service.VerificationService
	sessions *auth.Sessions
	store    storage.Storage

	metrics  *Metrics
	registry *prometheus.Registry
	limiter  *ipLimiter
	views    *views
}

// New wires the repositories and services on top of db and returns a server
// ready to route requests. Metrics are registered on registry.
func New(cfg *config.Config, db database.Service, store storage.Storage, mailer mail.Mailer, registry *prometheus.Registry) *Server {
	gormDB := db.GetDB()
	users := repository.NewGormUserRepository(gormDB)
	todoRepo := repository.NewGormTodoRepository(gormDB)
	commentRepo := repository.NewGormCommentRepository(gormDB)
	verifier := service.NewVerificationService(cfg.SecretKey, users, mailer)

	return &Server{
		cfg:      cfg,
		db:       db,
		users:    users,
		todos:    service.NewTodoService(todoRepo, commentRepo, store),
		comments: service.NewCommentService(commentRepo, todoRepo),
		accounts: service.NewUserService(users, verifier),
		verifier: verifier,
		sessions: auth.NewSessions(cfg.SecretKey, cfg.SessionCookieSecure),
		store:    store,
		metrics:  NewMetrics(registry),
		registry: registry,
		limiter:  newIPLimiter(cfg.AuthRatePerMinute),
		views:    mustParseViews(),
	}
}

// NewServer builds the HTTP server listening on cfg.Port.
func NewServer(cfg *config.Config, db database.Service, store storage.Storage, mailer mail.Mailer) *http.Server {
	appServer := New(cfg, db, store, mailer, prometheus.NewRegistry())

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
