package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/mail"
	"github.com/Tomlord1122/todo-homework/internal/repository"
	"github.com/Tomlord1122/todo-homework/internal/signing"
)

// VerificationMaxAge is how long a verification link stays valid.
const VerificationMaxAge = 300 * time.Second

const (
	signerSalt     = "todo.verification"
	serializerSalt = "todo.verification.link"
)

// VerificationService mints email verification links and redeems them.
//
// A link code is two signing layers deep: the email is signed together with
// its issue time, and that signed value is serialized again into the opaque
// code placed in the URL.
type VerificationService struct {
	signer     *signing.Signer
	serializer *signing.Serializer
	users      repository.UserRepository
	mailer     mail.Mailer
	maxAge     time.Duration
}

func NewVerificationService(secret string, users repository.UserRepository, mailer mail.Mailer, opts ...signing.Option) *VerificationService {
	return &VerificationService{
		signer:     signing.NewSigner(secret, signerSalt, opts...),
		serializer: signing.NewSerializer(secret, serializerSalt, opts...),
		users:      users,
		mailer:     mailer,
		maxAge:     VerificationMaxAge,
	}
}

// Mint returns a fresh verification code for email.
func (s *VerificationService) Mint(email string) (string, error) {
	signed, err := s.signer.Sign(email)
	if err != nil {
		return "", err
	}
	return s.serializer.Dumps(signed)
}

// Link builds the verification URL for code below origin, e.g.
// "https://todo.example.com".
func Link(origin, code string) string {
	return strings.TrimSuffix(origin, "/") + "/verify/?code=" + url.QueryEscape(code)
}

// SendVerification mails u a verification link rooted at origin.
func (s *VerificationService) SendVerification(ctx context.Context, u *domain.User, origin string) error {
	code, err := s.Mint(u.Email)
	if err != nil {
		return fmt.Errorf("mint verification code: %w", err)
	}
	msg := mail.Message{
		Subject: fmt.Sprintf("[Todo] Email verification link for %s", u.Name),
		Body:    fmt.Sprintf("Click the link below to complete email verification.\n\n%s\n", Link(origin, code)),
		To:      u.Email,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification mail to %s: %w", u.Email, err)
	}
	return nil
}

// Verify redeems code and activates the account it was minted for. Every
// problem with the code itself yields ErrInvalidToken. A valid code for an
// email without an account yields domain.ErrNotFound. Verifying an active
// account again succeeds.
func (s *VerificationService) Verify(ctx context.Context, code string) (*domain.User, error) {
	var signed string
	if err := s.serializer.Loads(code, &signed); err != nil {
		log.Printf("Rejected verification code: %v", err)
		return nil, ErrInvalidToken
	}
	email, err := s.signer.Unsign(signed, s.maxAge)
	if err != nil {
		log.Printf("Rejected verification code: %v", err)
		return nil, ErrInvalidToken
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("verify %s: %w", email, err)
		}
		return nil, err
	}
	u.MarkActive()
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("User %d verified %s", u.ID, u.Email)
	return u, nil
}
