package signing

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 7, 24, 10, 0, 0, 0, time.UTC)}
}

func TestSignerRoundTrip(t *testing.T) {
	clock := newClock()
	s := NewSigner("secret", "verify", WithClock(clock.Now))

	token, err := s.Sign("user@example.com")
	require.NoError(t, err)
	assert.NotContains(t, token, "user@example.com", "the value is not readable as plain text")

	got, err := s.Unsign(token, 0)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got)
}

func TestSignerMaxAge(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "fresh", elapsed: 0},
		{name: "just inside", elapsed: 299 * time.Second},
		{name: "boundary", elapsed: 300 * time.Second},
		{name: "expired", elapsed: 301 * time.Second, wantErr: ErrSignatureExpired},
		{name: "long expired", elapsed: 48 * time.Hour, wantErr: ErrSignatureExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			s := NewSigner("secret", "verify", WithClock(clock.Now))
			token, err := s.Sign("user@example.com")
			require.NoError(t, err)

			clock.Advance(tt.elapsed)
			got, err := s.Unsign(token, 300*time.Second)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrBadSignature, "expiry is a kind of bad signature")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user@example.com", got)
		})
	}
}

func TestSignerRejectsTampering(t *testing.T) {
	s := NewSigner("secret", "verify")
	token, err := s.Sign("user@example.com")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "admin@example.com",
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString([]byte("guessed key"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:  "admin@example.com",
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"garbage":       "definitely not a token",
		"swapped body":  parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2],
		"wrong key":     forged,
		"alg none":      unsigned,
		"truncated sig": token[:len(token)-4],
		"other salt":    mustSign(t, NewSigner("secret", "password-reset"), "user@example.com"),
		"other secret":  mustSign(t, NewSigner("another", "verify"), "user@example.com"),
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Unsign(bad, time.Hour)
			assert.ErrorIs(t, err, ErrBadSignature)
		})
	}
}

func TestSignerMissingTimestamp(t *testing.T) {
	s := NewSigner("secret", "verify")
	token, err := s.sign(jwt.RegisteredClaims{Subject: "user@example.com"})
	require.NoError(t, err)

	_, err = s.Unsign(token, 0)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func mustSign(t *testing.T, s *Signer, v string) string {
	t.Helper()
	token, err := s.Sign(v)
	require.NoError(t, err)
	return token
}

func TestSerializerRoundTrip(t *testing.T) {
	ser := NewSerializer("secret", "transport")

	token, err := ser.Dumps("inner.signed.value")
	require.NoError(t, err)

	var got string
	require.NoError(t, ser.Loads(token, &got))
	assert.Equal(t, "inner.signed.value", got)

	type pair struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	token, err = ser.Dumps(pair{A: 1, B: "two"})
	require.NoError(t, err)
	var p pair
	require.NoError(t, ser.Loads(token, &p))
	assert.Equal(t, pair{A: 1, B: "two"}, p)
}

func TestSerializerRejectsBadInput(t *testing.T) {
	ser := NewSerializer("secret", "transport")
	other := NewSerializer("secret", "elsewhere")

	foreign, err := other.Dumps("x")
	require.NoError(t, err)
	signerToken := mustSign(t, NewSigner("secret", "transport"), "x")

	var target int
	numeric, err := ser.Dumps("not a number")
	require.NoError(t, err)

	for name, bad := range map[string]string{
		"empty":       "",
		"garbage":     "%%%",
		"other salt":  foreign,
		"no payload":  signerToken,
		"wrong shape": numeric,
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ser.Loads(bad, &target), ErrBadSignature)
		})
	}
}
