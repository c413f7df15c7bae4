package recommend

import (
	"sort"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

// DefaultTopMatches is the size of the global top-matches slice.
const DefaultTopMatches = 6

// View is the ranked recommendation set handed to the presentation layer: a
// global top slice plus one bucket per opportunity type, all ordered by the
// same score ranking.
type View struct {
	TopMatches   []*Recommendation
	Scholarships []*Recommendation
	Internships  []*Recommendation
	Hackathons   []*Recommendation
	Grants       []*Recommendation
}

// Rank sorts recommendations by descending score and partitions them. The
// sort is stable: equal scores keep their relative input order, which is
// catalog order, so repeated runs over the same inputs are byte-identical.
func Rank(recs []*Recommendation, topN int) *View {
	if topN <= 0 {
		topN = DefaultTopMatches
	}

	ranked := make([]*Recommendation, len(recs))
	copy(ranked, recs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	view := &View{}
	if len(ranked) > topN {
		view.TopMatches = ranked[:topN]
	} else {
		view.TopMatches = ranked
	}

	for _, rec := range ranked {
		switch rec.Opportunity.Type {
		case opportunity.TypeScholarship:
			view.Scholarships = append(view.Scholarships, rec)
		case opportunity.TypeInternship:
			view.Internships = append(view.Internships, rec)
		case opportunity.TypeHackathon:
			view.Hackathons = append(view.Hackathons, rec)
		case opportunity.TypeGrant:
			view.Grants = append(view.Grants, rec)
		}
	}
	return view
}

// Bucket returns the per-type bucket for t.
func (v *View) Bucket(t opportunity.Type) []*Recommendation {
	switch t {
	case opportunity.TypeScholarship:
		return v.Scholarships
	case opportunity.TypeInternship:
		return v.Internships
	case opportunity.TypeHackathon:
		return v.Hackathons
	case opportunity.TypeGrant:
		return v.Grants
	default:
		return nil
	}
}
