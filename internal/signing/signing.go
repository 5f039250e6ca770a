// Package signing produces tamper-evident, optionally time-bounded strings.
//
// A Signer binds a single string value to an issue time. A Serializer carries
// any JSON value and is used as an outer transport layer around signed values.
// Both emit compact HS256 JWS tokens, which are URL safe. Keys are derived from
// the server secret and a per-purpose salt, so a token minted for one purpose
// never verifies for another.
package signing

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadSignature     = errors.New("bad signature")
	ErrSignatureExpired = fmt.Errorf("%w: signature expired", ErrBadSignature)
)

var validMethods = []string{jwt.SigningMethodHS256.Alg()}

// Option configures a Signer or Serializer.
type Option func(*core)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

type core struct {
	key []byte
	now func() time.Time
}

func newCore(secret, salt string, opts []Option) core {
	sum := sha256.Sum256([]byte(salt + "signer" + secret))
	c := core{key: sum[:], now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c core) sign(claims jwt.Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return token, nil
}

func (c core) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods(validMethods), jwt.WithoutClaimsValidation())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !parsed.Valid {
		return ErrBadSignature
	}
	return nil
}

// Signer signs a string together with its issue time.
type Signer struct {
	core
}

func NewSigner(secret, salt string, opts ...Option) *Signer {
	return &Signer{core: newCore(secret, salt, opts)}
}

// Sign returns a token embedding value, the current time and a signature over
// both.
func (s *Signer) Sign(value string) (string, error) {
	return s.sign(jwt.RegisteredClaims{
		Subject:  value,
		IssuedAt: jwt.NewNumericDate(s.now()),
	})
}

// Unsign verifies token and returns the signed value. A maxAge of zero
// disables the age check; otherwise tokens older than maxAge fail with
// ErrSignatureExpired.
func (s *Signer) Unsign(token string, maxAge time.Duration) (string, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(token, &claims); err != nil {
		return "", err
	}
	if claims.IssuedAt == nil {
		return "", fmt.Errorf("%w: missing timestamp", ErrBadSignature)
	}
	if age := s.now().Sub(claims.IssuedAt.Time); maxAge > 0 && age > maxAge {
		return "", fmt.Errorf("%w: age %s > %s", ErrSignatureExpired, age.Round(time.Second), maxAge)
	}
	return claims.Subject, nil
}

// Serializer signs arbitrary JSON values.
type Serializer struct {
	core
}

func NewSerializer(secret, salt string, opts ...Option) *Serializer {
	return &Serializer{core: newCore(secret, salt, opts)}
}

type payloadClaims struct {
	Value json.RawMessage `json:"v"`
	jwt.RegisteredClaims
}

// Dumps encodes v as JSON and signs it.
func (s *Serializer) Dumps(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return s.sign(payloadClaims{
		Value:            raw,
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(s.now())},
	})
}

// Loads verifies token and decodes its payload into v.
func (s *Serializer) Loads(token string, v any) error {
	var claims payloadClaims
	if err := s.parse(token, &claims); err != nil {
		return err
	}
	if len(claims.Value) == 0 {
		return fmt.Errorf("%w: empty payload", ErrBadSignature)
	}
	if err := json.Unmarshal(claims.Value, v); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrBadSignature, err)
	}
	return nil
}
