// Package opportunity defines the catalog records the rest of the service
// operates on. Unknown enum values are rejected here, at the boundary, so the
// filtering and scoring code never has to deal with free-form type strings.
package opportunity

import (
	"fmt"
	"strings"
	"time"
)

// Type enumerates the supported opportunity kinds.
type Type string

const (
	TypeScholarship Type = "Scholarship"
	TypeInternship  Type = "Internship"
	TypeGrant       Type = "Grant"
	TypeHackathon   Type = "Hackathon"
)

// Types lists all kinds in presentation order.
func Types() []Type {
	return []Type{TypeScholarship, TypeInternship, TypeHackathon, TypeGrant}
}

// ParseType normalizes a raw type string. Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scholarship":
		return TypeScholarship, nil
	case "internship":
		return TypeInternship, nil
	case "grant":
		return TypeGrant, nil
	case "hackathon":
		return TypeHackathon, nil
	default:
		return "", fmt.Errorf("unknown opportunity type: %q", s)
	}
}

// Degree is the optional academic level an opportunity targets.
type Degree string

const (
	DegreeHS Degree = "HS"
	DegreeBS Degree = "BS"
	DegreeMS Degree = "MS"
)

// ParseDegree normalizes a raw degree string. Empty input is valid and means
// the opportunity is not restricted to a degree level.
func ParseDegree(s string) (Degree, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "HS":
		return DegreeHS, nil
	case "BS":
		return DegreeBS, nil
	case "MS":
		return DegreeMS, nil
	default:
		return "", fmt.Errorf("unknown degree: %q", s)
	}
}

// Field is the optional field of interest an opportunity belongs to.
type Field string

const (
	FieldTech     Field = "Tech"
	FieldFinance  Field = "Finance"
	FieldResearch Field = "Research"
	FieldDesign   Field = "Design"
	FieldGeneral  Field = "General"
)

// ParseField normalizes a raw field-of-interest string. Empty input is valid.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "tech":
		return FieldTech, nil
	case "finance":
		return FieldFinance, nil
	case "research":
		return FieldResearch, nil
	case "design":
		return FieldDesign, nil
	case "general":
		return FieldGeneral, nil
	default:
		return "", fmt.Errorf("unknown field of interest: %q", s)
	}
}

// Opportunity is a single time-bounded posting. Records are immutable once
// they enter the catalog; expiry is evaluated against the deadline at filter
// time, never cached.
type Opportunity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        Type      `json:"type"`
	Deadline    time.Time `json:"deadline"`
	Eligibility string    `json:"eligibility"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Degree      Degree    `json:"degree,omitempty"`
	Field       Field     `json:"fieldOfInterest,omitempty"`
}

// TextContains reports whether s appears as a case-insensitive substring of
// the title or the eligibility text.
func (o *Opportunity) TextContains(s string) bool {
	if s == "" {
		return false
	}
	s = strings.ToLower(s)
	return strings.Contains(strings.ToLower(o.Title), s) ||
		strings.Contains(strings.ToLower(o.Eligibility), s)
}

// Expired reports whether the deadline is strictly in the past. An
// opportunity expiring exactly at now is still live.
func (o *Opportunity) Expired(now time.Time) bool {
	return o.Deadline.Before(now)
}

// List is an ordered collection of opportunities. Order is catalog-insertion
// order and is the tie-break basis for ranking, so every operation here
// preserves it.
type List struct {
	Items []*Opportunity `json:"items"`
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) FindByID(id string) *Opportunity {
	for _, o := range l.Items {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (l *List) IDs() []string {
	ids := make([]string, 0, len(l.Items))
	for _, o := range l.Items {
		ids = append(ids, o.ID)
	}
	return ids
}

// Clone returns a shallow copy sharing the underlying records, so filters can
// narrow a list without mutating the caller's view of the catalog.
func (l *List) Clone() *List {
	items := make([]*Opportunity, len(l.Items))
	copy(items, l.Items)
	return &List{Items: items}
}

// Retain keeps only the items for which keep returns true, preserving order,
// and returns the ids of the dropped items.
func (l *List) Retain(keep func(*Opportunity) bool) []string {
	var dropped []string
	kept := l.Items[:0]
	for _, o := range l.Items {
		if keep(o) {
			kept = append(kept, o)
			continue
		}
		dropped = append(dropped, o.ID)
	}
	l.Items = kept
	return dropped
}
