package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	learnerrepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/learner"
	xapirepo "github.com/yungbote/xapi-mis-backend/internal/data/repos/xapi"
	types "github.com/yungbote/xapi-mis-backend/internal/domain"
	"github.com/yungbote/xapi-mis-backend/internal/platform/dbctx"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

const (
	DefaultActive   = 50
	DefaultInactive = 10

	learnerRefAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	objectIDPrefix     = "http://example.com/courses/"
	verbIDPrefix       = "http://adlnet.gov/expapi/verbs/"
	timestampWindow    = 30 * 24 * time.Hour
)

// Verbs are the tokens seeded statements draw from.
var Verbs = []string{"completed", "experienced", "attempted", "passed", "failed", "answered", "interacted"}

type Options struct {
	Active   int
	Inactive int
	// RandSeed makes a run reproducible; zero seeds from the clock.
	RandSeed int64
	Now      func() time.Time
}

type Result struct {
	Learners   int
	Statements int
}

type Seeder struct {
	db         *gorm.DB
	log        *logger.Logger
	learners   learnerrepo.LearnerRepo
	statements xapirepo.StatementRepo
	opts       Options
	rnd        *rand.Rand
	usedEmails map[string]bool
}

func New(db *gorm.DB, log *logger.Logger, learners learnerrepo.LearnerRepo, statements xapirepo.StatementRepo, opts Options) *Seeder {
	if opts.Active < 0 {
		opts.Active = 0
	}
	if opts.Inactive < 0 {
		opts.Inactive = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RandSeed == 0 {
		opts.RandSeed = time.Now().UnixNano()
	}
	return &Seeder{
		db:         db,
		log:        log.With("service", "Seeder"),
		learners:   learners,
		statements: statements,
		opts:       opts,
		rnd:        rand.New(rand.NewSource(opts.RandSeed)),
		usedEmails: map[string]bool{},
	}
}

// Run creates the configured active learners with 5-15 statements each and
// inactive learners with 1-3 each. Every learner is written together with
// its statements in one transaction.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	batches := []struct {
		status   string
		count    int
		min, max int
	}{
		{types.LearnerStatusActive, s.opts.Active, 5, 15},
		{types.LearnerStatusInactive, s.opts.Inactive, 1, 3},
	}
	for _, b := range batches {
		for i := 0; i < b.count; i++ {
			n := b.min + s.rnd.Intn(b.max-b.min+1)
			if err := s.seedLearner(ctx, b.status, n); err != nil {
				return res, err
			}
			res.Learners++
			res.Statements += n
		}
	}
	s.log.Info("seed complete", "learners", res.Learners, "statements", res.Statements)
	return res, nil
}

func (s *Seeder) seedLearner(ctx context.Context, status string, statements int) error {
	l := s.newLearner(status)
	rows := make([]*types.XapiStatement, 0, statements)
	for i := 0; i < statements; i++ {
		st, err := s.newStatement(l)
		if err != nil {
			return err
		}
		rows = append(rows, st)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.learners.Create(dbc, []*types.Learner{l}); err != nil {
			return fmt.Errorf("seed learner %s: %w", l.LearnerID, err)
		}
		if _, err := s.statements.Create(dbc, rows); err != nil {
			return fmt.Errorf("seed statements for %s: %w", l.LearnerID, err)
		}
		return nil
	})
}

func (s *Seeder) newLearner(status string) *types.Learner {
	first := firstNames[s.rnd.Intn(len(firstNames))]
	last := lastNames[s.rnd.Intn(len(lastNames))]
	ref := s.LearnerRef()

	email := fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last))
	for n := 2; s.usedEmails[email]; n++ {
		email = fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), n)
	}
	s.usedEmails[email] = true

	l := &types.Learner{
		ID:        uuid.New(),
		LearnerID: ref,
		Name:      first + " " + last,
		Email:     email,
		Status:    status,
	}
	if s.rnd.Intn(2) == 0 {
		phone := fmt.Sprintf("+1-555-01%02d", s.rnd.Intn(100))
		l.Phone = &phone
	}
	if s.rnd.Intn(2) == 0 {
		notes := s.sentence(6)
		l.Notes = &notes
	}
	return l
}

func (s *Seeder) newStatement(l *types.Learner) (*types.XapiStatement, error) {
	verb := Verbs[s.rnd.Intn(len(Verbs))]
	title := s.sentence(3)
	objectID := objectIDPrefix + Slug(title)
	id := uuid.NewString()
	now := s.opts.Now().UTC()
	ts := now.Add(-time.Duration(s.rnd.Int63n(int64(timestampWindow)))).Truncate(time.Second)

	raw, err := json.Marshal(map[string]interface{}{
		"id": id,
		"actor": map[string]interface{}{
			"mbox": "mailto:" + l.Email,
			"name": l.Name,
		},
		"verb": map[string]interface{}{
			"id":      verbIDPrefix + verb,
			"display": map[string]string{"en-US": verb},
		},
		"object": map[string]interface{}{
			"id": objectID,
			"definition": map[string]interface{}{
				"name": map[string]string{"en-US": title},
			},
		},
		"timestamp": ts.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode raw statement: %w", err)
	}
	return &types.XapiStatement{
		ID:                 uuid.New(),
		StatementID:        id,
		LearnerID:          l.ID,
		Verb:               verb,
		ObjectType:         "Activity",
		ObjectID:           objectID,
		ObjectName:         &title,
		RawStatement:       datatypes.JSON(raw),
		StatementTimestamp: ts,
	}, nil
}

// LearnerRef returns "LRN-" and eight random upper-case alphanumerics.
func (s *Seeder) LearnerRef() string {
	var b strings.Builder
	b.WriteString("LRN-")
	for i := 0; i < 8; i++ {
		b.WriteByte(learnerRefAlphabet[s.rnd.Intn(len(learnerRefAlphabet))])
	}
	return b.String()
}

func (s *Seeder) sentence(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = lexicon[s.rnd.Intn(len(lexicon))]
	}
	parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	return strings.Join(parts, " ") + "."
}

// Slug lower-cases title and joins its alphanumeric runs with dashes.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}

var firstNames = []string{
	"Ada", "Alan", "Grace", "Linus", "Margaret", "Dennis", "Barbara", "Ken",
	"Frances", "Edsger", "Radia", "Donald", "Hedy", "Niklaus", "Katherine", "John",
}

var lastNames = []string{
	"Lovelace", "Turing", "Hopper", "Torvalds", "Hamilton", "Ritchie", "Liskov", "Thompson",
	"Allen", "Dijkstra", "Perlman", "Knuth", "Lamarr", "Wirth", "Johnson", "McCarthy",
}

var lexicon = []string{
	"introduction", "advanced", "safety", "data", "analysis", "leadership", "onboarding",
	"compliance", "security", "fundamentals", "workshop", "design", "patterns", "project",
	"management", "communication", "quality", "customer", "service", "finance", "essentials",
}
