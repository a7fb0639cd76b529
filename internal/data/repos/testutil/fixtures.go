package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedLearner(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID, email string) *types.Learner {
	tb.Helper()
	l := &types.Learner{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Name:      "Learner " + learnerID,
		Email:     email,
		Status:    types.LearnerStatusActive,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed learner: %v", err)
	}
	return l
}

// SeedStatement stores one statement for learner with the given verb at ts.
func SeedStatement(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, verb string, ts time.Time) *types.XapiStatement {
	tb.Helper()
	id := uuid.NewString()
	raw := fmt.Sprintf(`{"id":%q,"verb":{"id":"http://adlnet.gov/expapi/verbs/%s"}}`, id, verb)
	s := &types.XapiStatement{
		ID:                 uuid.New(),
		StatementID:        id,
		LearnerID:          learnerID,
		Verb:               verb,
		ObjectType:         "Activity",
		ObjectID:           "http://example.com/activities/" + strings.ToLower(verb),
		RawStatement:       datatypes.JSON([]byte(raw)),
		StatementTimestamp: ts,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed statement: %v", err)
	}
	return s
}

// SeedStatements stores n statements with the same verb, one minute apart,
// ending at end.
func SeedStatements(tb testing.TB, ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, verb string, n int, end time.Time) []*types.XapiStatement {
	tb.Helper()
	out := make([]*types.XapiStatement, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, SeedStatement(tb, ctx, tx, learnerID, verb, end.Add(-time.Duration(i)*time.Minute)))
	}
	return out
}

func PtrTime(v time.Time) *time.Time { return &v }

func Day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
