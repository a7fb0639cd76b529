package learner

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	// UnknownName is used when an ingested actor carries no display name.
	UnknownName = "Unknown Learner"
)

type Learner struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID string    `gorm:"column:learner_id;size:255;not null;uniqueIndex:idx_learner_learner_id" json:"learner_id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Email     string    `gorm:"column:email;size:255;not null;uniqueIndex:idx_learner_email" json:"email"`
	Phone     *string   `gorm:"column:phone;size:20" json:"phone"`
	Notes     *string   `gorm:"column:notes;type:text" json:"notes"`
	Status    string    `gorm:"column:status;size:16;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Learner) TableName() string { return "learner" }

func (l *Learner) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
	return nil
}

func (l *Learner) IsActive() bool { return l != nil && l.Status == StatusActive }

// ValidStatus reports whether s is one of the recognised learner statuses.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

// WithStatementCount is a learner row annotated with its statement total,
// as shown on the management list.
type WithStatementCount struct {
	Learner
	StatementsCount int64 `gorm:"column:xapi_statements_count" json:"xapi_statements_count"`
}
