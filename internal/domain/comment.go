package domain

import "unicode/utf8"

type Comment struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	TodoID  uint   `gorm:"not null;index" json:"todo_id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Message string `gorm:"size:200;not null" json:"message"`

	Timestamps
}

// AuthoredBy reports whether u may modify the comment.
func (c *Comment) AuthoredBy(u *User) bool {
	return u != nil && (u.IsSuperuser || c.UserID == u.ID)
}

func (c *Comment) Validate() error {
	verr := &ValidationError{}
	switch n := utf8.RuneCountInString(c.Message); {
	case n == 0:
		verr.Add("message", "this field is required")
	case n > CommentMaxLen:
		verr.Add("message", "ensure this value has at most 200 characters")
	}
	return verr.OrNil()
}
