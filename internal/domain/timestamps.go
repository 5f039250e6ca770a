package domain

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps is embedded in every persisted entity. CreatedAt is set on the
// first persist only, ModifiedAt on every persist.
type Timestamps struct {
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	ModifiedAt time.Time `gorm:"not null" json:"modified_at"`
}

// Touch stamps the entity as being persisted at now.
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.ModifiedAt = now
}

// BeforeSave runs for Create and Save and uses the store's clock.
func (t *Timestamps) BeforeSave(tx *gorm.DB) error {
	t.Touch(tx.NowFunc())
	return nil
}
