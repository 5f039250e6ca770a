package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// User is an account. New accounts stay inactive until their email address is
// verified.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"size:50;not null" json:"name"`
	PasswordHash string     `gorm:"not null" json:"-"`
	IsActive     bool       `gorm:"not null;default:false" json:"is_active"`
	IsStaff      bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null;default:false" json:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	Timestamps
}

// NormalizeEmail lower-cases the domain part the way most mail systems treat it.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// MarkActive flags the account as verified. Calling it on an active account is a no-op.
func (u *User) MarkActive() {
	u.IsActive = true
}

func (u *User) Validate() error {
	verr := &ValidationError{}
	if u.Email == "" {
		verr.Add("email", "this field is required")
	} else if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		verr.Add("email", "enter a valid email address")
	}
	switch n := utf8.RuneCountInString(u.Name); {
	case n == 0:
		verr.Add("name", "this field is required")
	case n > UserNameMaxLen:
		verr.Add("name", "ensure this value has at most 50 characters")
	}
	return verr.OrNil()
}
