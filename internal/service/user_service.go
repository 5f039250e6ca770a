package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/repository"
)

const passwordMinLen = 8

type SignupRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type UserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	LastLogin string `json:"last_login,omitempty"`
	CreatedAt string `json:"created_at"`
}

func ToUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(timeFormat),
	}
	if u.LastLogin != nil {
		resp.LastLogin = u.LastLogin.Format(timeFormat)
	}
	return resp
}

// UserService registers and authenticates accounts.
type UserService struct {
	users    repository.UserRepository
	verifier *VerificationService
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, verifier *VerificationService) *UserService {
	return &UserService{users: users, verifier: verifier, now: time.Now}
}

// Signup creates an inactive account and mails it a verification link rooted
// at origin. A failed delivery is logged and does not undo the signup.
func (s *UserService) Signup(ctx context.Context, req SignupRequest, origin string) (*UserResponse, error) {
	u := &domain.User{Email: domain.NormalizeEmail(req.Email), Name: strings.TrimSpace(req.Name)}

	verr := &domain.ValidationError{}
	if err := u.Validate(); err != nil {
		errors.As(err, &verr)
	}
	validatePassword(verr, req.Password, req.PasswordConfirm)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			verr.Add("email", "a user with this email already exists")
			return nil, fmt.Errorf("%w: %w", domain.ErrConflict, verr)
		}
		return nil, err
	}
	log.Printf("User %d signed up as %s", u.ID, u.Email)

	if err := s.verifier.SendVerification(ctx, u, origin); err != nil {
		log.Printf("Error sending verification mail for user %d: %v", u.ID, err)
	}
	resp := ToUserResponse(u)
	return &resp, nil
}

// ResendVerification mails a new link when email belongs to an inactive
// account. Unknown and already active emails are ignored so callers cannot
// probe which addresses are registered.
func (s *UserService) ResendVerification(ctx context.Context, email, origin string) error {
	u, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.IsActive {
		return nil
	}
	return s.verifier.SendVerification(ctx, u, origin)
}

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("not the password")
	if err != nil {
		return ""
	}
	return hash
})

// Login checks the credentials of an active account and records the login.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		auth.CheckPassword(dummyHash(), password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) || !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	u.LastLogin = &now
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateSuperuser creates an active account with every permission.
func (s *UserService) CreateSuperuser(ctx context.Context, email, name, password string) (*domain.User, error) {
	u := &domain.User{
		Email:       domain.NormalizeEmail(email),
		Name:        strings.TrimSpace(name),
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	verr := &domain.ValidationError{}
	if err := u.Validate(); err != nil {
		errors.As(err, &verr)
	}
	validatePassword(verr, password, password)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func validatePassword(verr *domain.ValidationError, password, confirm string) {
	switch {
	case password == "":
		verr.Add("password", "this field is required")
	case utf8.RuneCountInString(password) < passwordMinLen:
		verr.Add("password", fmt.Sprintf("this password is too short, it must contain at least %d characters", passwordMinLen))
	case strings.Trim(password, "0123456789") == "":
		verr.Add("password", "this password is entirely numeric")
	case password != confirm:
		verr.Add("password_confirm", "the two password fields didn't match")
	}
}
