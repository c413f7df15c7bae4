// Package filtering removes categorically unusable opportunities before
// scoring: untrusted sources, past deadlines, and user-selected facets. The
// pipeline is pure: it takes the catalog, the query and the evaluation time
// as explicit arguments and never touches a clock or any shared state.
package filtering

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

// Filter represents a single filtering step applied to opportunities.
type Filter interface {
	Name() string
	Apply(l *opportunity.List) (Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains the settings consumed when building a pipeline.
type Config struct {
	// TrustedSources is the allow-list of origin names. Opportunities from
	// any other origin are never surfaced.
	TrustedSources []string
	// LegacySearch restores the original behavior where a non-empty search
	// query alone decides inclusion once source and expiry checks pass,
	// ignoring the degree/field/type facets.
	LegacySearch bool
}

// Query holds the user-selected facets for a browse request. Zero values mean
// the facet is not active.
type Query struct {
	Degree opportunity.Degree
	Field  opportunity.Field
	Type   opportunity.Type
	Search string
}

// Eligibility builds the baseline pipeline every consumer runs: trusted
// sources and deadline expiry.
func Eligibility(cfg *Config, now time.Time) []Filter {
	return []Filter{
		NewTrustedSources(cfg.TrustedSources),
		NewDeadline(now),
	}
}

// Browse builds the full pipeline for a browse request: eligibility plus the
// requested facets and text search. With LegacySearch set and a non-empty
// query the facet step is omitted, reproducing the original short-circuit.
func Browse(cfg *Config, q Query, now time.Time) []Filter {
	steps := Eligibility(cfg, now)
	if !(cfg.LegacySearch && q.Search != "") {
		steps = append(steps, NewFacets(q))
	}
	steps = append(steps, NewSearch(q.Search))
	return steps
}

// Run executes the supplied filters sequentially against a copy of the list,
// returning the filtered result. The input list is left untouched.
func Run(logger *zap.Logger, steps []Filter, l *opportunity.List) (*opportunity.List, error) {
	l = l.Clone()
	for _, step := range steps {
		info, err := step.Apply(l)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil && info.Dropped > 0 {
			logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}
	}
	return l, nil
}
