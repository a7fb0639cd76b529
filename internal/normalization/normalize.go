package normalization

import (
	"strings"
	"time"

	"github.com/yungbote/xapi-mis-backend/internal/domain/xapi"
)

// verbKeywords is checked in order against the lower-cased verb URI; the
// first keyword contained in it wins.
var verbKeywords = []struct {
	pattern string
	token   string
}{
	{"completed", "completed"},
	{"experienced", "experienced"},
	{"attempted", "attempted"},
	{"passed", "passed"},
	{"failed", "failed"},
	{"answered", "answered"},
	{"interacted", "interacted"},
	{"imported", "imported"},
	{"created", "created"},
	{"shared", "shared"},
}

// ExtractVerb maps a verb URI to its canonical, lower-case token.
func ExtractVerb(verbURI string) string {
	lower := ParseInputString(verbURI)
	for _, kw := range verbKeywords {
		if strings.Contains(lower, kw.pattern) {
			return kw.token
		}
	}
	parts := strings.Split(lower, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if seg := strings.TrimSpace(parts[i]); seg != "" {
			return seg
		}
	}
	return xapi.UnknownVerb
}

// ResolveObjectName picks en-US, then en, then the first entry in document
// order. Empty maps resolve to nil.
func ResolveObjectName(names LanguageMap) *string {
	if v, ok := names.Get("en-US"); ok {
		return &v
	}
	if v, ok := names.Get("en"); ok {
		return &v
	}
	if len(names) > 0 {
		v := names[0].Value
		return &v
	}
	return nil
}

// ActorEmail strips the mailto: scheme from an mbox IRI.
func ActorEmail(mbox string) string {
	mbox = strings.TrimSpace(mbox)
	if len(mbox) >= len("mailto:") && strings.EqualFold(mbox[:len("mailto:")], "mailto:") {
		return mbox[len("mailto:"):]
	}
	return mbox
}

// NormalizedStatement is a validated statement reduced to the columns the
// store keeps, plus what learner resolution needs.
type NormalizedStatement struct {
	StatementID string
	ActorEmail  string
	ActorName   *string
	Verb        string
	ObjectType  string
	ObjectID    string
	ObjectName  *string
	Timestamp   time.Time
	Raw         []byte
}

// Normalize derives the stored form of p. now supplies the event time when
// the payload carries none.
func Normalize(p *StatementPayload, raw []byte, now time.Time) NormalizedStatement {
	out := NormalizedStatement{
		StatementID: p.ID,
		ActorEmail:  ActorEmail(p.Actor.Mbox),
		Verb:        ExtractVerb(p.Verb.ID),
		ObjectType:  xapi.DefaultObjectType,
		ObjectID:    p.Object.ID,
		Timestamp:   now.UTC(),
		Raw:         raw,
	}
	if p.Actor.Name != nil && strings.TrimSpace(*p.Actor.Name) != "" {
		name := strings.TrimSpace(*p.Actor.Name)
		out.ActorName = &name
	}
	if p.Object.ObjectType != nil && *p.Object.ObjectType != "" {
		out.ObjectType = *p.Object.ObjectType
	}
	if p.Object.Definition != nil {
		out.ObjectName = ResolveObjectName(p.Object.Definition.Name)
	}
	if p.Timestamp != nil {
		if ts, ok := ParseTimestamp(*p.Timestamp); ok {
			out.Timestamp = ts
		}
	}
	return out
}
