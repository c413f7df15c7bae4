package filtering

import (
	"strings"
	"time"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

type trustedSourcesFilter struct {
	allowed map[string]struct{}
}

// NewTrustedSources creates a filter that drops opportunities whose source is
// not on the allow-list.
func NewTrustedSources(sources []string) Filter {
	allowed := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		allowed[s] = struct{}{}
	}
	return &trustedSourcesFilter{allowed: allowed}
}

func (f *trustedSourcesFilter) Name() string { return "trusted_sources" }

func (f *trustedSourcesFilter) Apply(l *opportunity.List) (Step, error) {
	initial := l.Len()
	dropped := l.Retain(func(o *opportunity.Opportunity) bool {
		_, ok := f.allowed[o.Source]
		return ok
	})
	return Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

type deadlineFilter struct {
	now time.Time
}

// NewDeadline creates a filter that drops opportunities whose deadline is
// strictly before now. A deadline equal to now is retained.
func NewDeadline(now time.Time) Filter {
	return &deadlineFilter{now: now}
}

func (f *deadlineFilter) Name() string { return "deadline" }

func (f *deadlineFilter) Apply(l *opportunity.List) (Step, error) {
	initial := l.Len()
	dropped := l.Retain(func(o *opportunity.Opportunity) bool {
		return !o.Expired(f.now)
	})
	return Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

type facetsFilter struct {
	q Query
}

// NewFacets creates a filter applying the degree, field and type facets.
// Unset facets match everything.
func NewFacets(q Query) Filter {
	return &facetsFilter{q: q}
}

func (f *facetsFilter) Name() string { return "facets" }

func (f *facetsFilter) Apply(l *opportunity.List) (Step, error) {
	initial := l.Len()
	dropped := l.Retain(func(o *opportunity.Opportunity) bool {
		if f.q.Degree != "" && o.Degree != f.q.Degree {
			return false
		}
		if f.q.Field != "" && o.Field != f.q.Field {
			return false
		}
		if f.q.Type != "" && o.Type != f.q.Type {
			return false
		}
		return true
	})
	return Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

type searchFilter struct {
	query string
}

// NewSearch creates a filter that retains opportunities whose title or
// eligibility text contains the query, case-insensitively. An empty query
// retains everything.
func NewSearch(query string) Filter {
	return &searchFilter{query: strings.TrimSpace(query)}
}

func (f *searchFilter) Name() string { return "search" }

func (f *searchFilter) Apply(l *opportunity.List) (Step, error) {
	initial := l.Len()
	if f.query == "" {
		return Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}
	dropped := l.Retain(func(o *opportunity.Opportunity) bool {
		return o.TextContains(f.query)
	})
	return Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}
