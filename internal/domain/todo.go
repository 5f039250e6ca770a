package domain

import "unicode/utf8"

const (
	TodoTitleMaxLen  = 50
	CommentMaxLen    = 200
	UserNameMaxLen   = 50
	TodoPageSize     = 10
	CommentsPageSize = 5
)

type Todo struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:50;not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StartDate   Date   `gorm:"not null" json:"start_date"`
	EndDate     Date   `gorm:"not null" json:"end_date"`
	IsCompleted bool   `gorm:"not null;default:false" json:"is_completed"`

	// Storage paths relative to the media root; empty when absent.
	CompletedImage string `gorm:"size:255;not null;default:''" json:"completed_image"`
	Thumbnail      string `gorm:"size:255;not null;default:''" json:"thumbnail"`

	Comments []Comment `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Timestamps
}

// OwnedBy reports whether u may modify the todo.
func (t *Todo) OwnedBy(u *User) bool {
	return u != nil && (u.IsSuperuser || t.UserID == u.ID)
}

// Validate checks the field constraints enforced before persisting. Date
// ordering is intentionally not checked.
func (t *Todo) Validate() error {
	verr := &ValidationError{}
	switch n := utf8.RuneCountInString(t.Title); {
	case n == 0:
		verr.Add("title", "this field is required")
	case n > TodoTitleMaxLen:
		verr.Add("title", "ensure this value has at most 50 characters")
	}
	if t.StartDate.IsZero() {
		verr.Add("start_date", "this field is required")
	}
	if t.EndDate.IsZero() {
		verr.Add("end_date", "this field is required")
	}
	return verr.OrNil()
}
