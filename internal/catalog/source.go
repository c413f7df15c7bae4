package catalog

import (
	"fmt"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

// trustedByType pins each opportunity type to the single origin allowed to
// publish it.
var trustedByType = map[opportunity.Type]string{
	opportunity.TypeInternship:  "Internshala",
	opportunity.TypeHackathon:   "Devpost",
	opportunity.TypeScholarship: "Scholarships.com",
	opportunity.TypeGrant:       "Govt Portal",
}

// TrustedSources returns the default allow-list, in type order.
func TrustedSources() []string {
	sources := make([]string, 0, len(trustedByType))
	for _, t := range opportunity.Types() {
		sources = append(sources, trustedByType[t])
	}
	return sources
}

// ValidateSource checks that the opportunity's source matches the trusted
// origin for its type.
func ValidateSource(o *opportunity.Opportunity) error {
	expected, ok := trustedByType[o.Type]
	if !ok {
		return fmt.Errorf("no trusted source configured for type %q", o.Type)
	}
	if o.Source != expected {
		return fmt.Errorf("invalid source %q for %s: expected %q", o.Source, o.Type, expected)
	}
	return nil
}
