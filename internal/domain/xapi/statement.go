package xapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/xapi-mis-backend/internal/domain/learner"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultObjectType applies when the payload object carries no objectType.
	DefaultObjectType = "Activity"
	// UnknownVerb is the token for verb URIs that yield no usable segment.
	UnknownVerb = "unknown"
)

// Statement is a normalized xAPI statement owned by exactly one learner.
// Rows are immutable once written and only disappear with their learner.
type Statement struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StatementID string           `gorm:"column:statement_id;size:64;not null;uniqueIndex:idx_xapi_statement_statement_id" json:"statement_id"`
	LearnerID   uuid.UUID        `gorm:"type:uuid;column:learner_id;not null;index:idx_xapi_statement_learner_verb,priority:1;index:idx_xapi_statement_learner_ts,priority:1" json:"learner_id"`
	Learner     *learner.Learner `gorm:"constraint:OnDelete:CASCADE;foreignKey:LearnerID;references:ID" json:"learner,omitempty"`

	Verb       string  `gorm:"column:verb;size:255;not null;index;index:idx_xapi_statement_verb_ts,priority:1;index:idx_xapi_statement_learner_verb,priority:2" json:"verb"`
	ObjectType string  `gorm:"column:object_type;size:255;not null;index" json:"object_type"`
	ObjectID   string  `gorm:"column:object_id;type:text;not null" json:"object_id"`
	ObjectName *string `gorm:"column:object_name;type:text" json:"object_name"`

	RawStatement       datatypes.JSON `gorm:"column:raw_statement;not null" json:"raw_statement"`
	StatementTimestamp time.Time      `gorm:"column:statement_timestamp;not null;index;index:idx_xapi_statement_verb_ts,priority:2;index:idx_xapi_statement_learner_ts,priority:2" json:"statement_timestamp"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Statement) TableName() string { return "xapi_statement" }

func (s *Statement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.ObjectType == "" {
		s.ObjectType = DefaultObjectType
	}
	s.StatementTimestamp = s.StatementTimestamp.UTC().Truncate(time.Microsecond)
	return nil
}

// VerbCount is one row of a verb group-by.
type VerbCount struct {
	Verb  string `gorm:"column:verb" json:"verb"`
	Count int64  `gorm:"column:count" json:"count"`
}

// DailyCount is the number of statements whose event time falls on Date
// (YYYY-MM-DD, UTC).
type DailyCount struct {
	Date  string `gorm:"column:date" json:"date"`
	Count int64  `gorm:"column:count" json:"count"`
}

// Filter narrows a statement query. Zero values mean "no constraint".
// FromDate and ToDate are inclusive calendar days in UTC.
type Filter struct {
	LearnerRef string
	Verb       string
	FromDate   *time.Time
	ToDate     *time.Time
}
