package recommend

import (
	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
	"github.com/Soniya561/LAVAPUNK/internal/profile"
)

// Recommendation pairs an opportunity with its accumulated score and the
// ordered, deduplicated reason tags that produced it. It is recomputed on
// every invocation and never persisted.
type Recommendation struct {
	Opportunity *opportunity.Opportunity
	Score       int
	Reasons     []string
}

// Score evaluates the full rule table against one opportunity. It returns nil
// when no rule fires, which excludes the opportunity from recommendations
// without excluding it from plain browsing.
func Score(o *opportunity.Opportunity, p *profile.Profile) *Recommendation {
	var (
		score   int
		reasons []string
		fired   = make(map[string]bool, len(ReasonTags))
	)

	for _, rule := range Rules() {
		if rule.SuppressedBy != "" && fired[rule.SuppressedBy] {
			continue
		}
		if !rule.Matches(o, p) {
			continue
		}
		score += rule.Weight
		if !fired[rule.Tag] {
			fired[rule.Tag] = true
			reasons = append(reasons, rule.Tag)
		}
	}

	if len(reasons) == 0 {
		return nil
	}
	return &Recommendation{Opportunity: o, Score: score, Reasons: reasons}
}

// ScoreAll scores every opportunity in catalog order, keeping only those with
// at least one fired rule. Input order is preserved so the ranker's stable
// tie-break reflects catalog order.
func ScoreAll(l *opportunity.List, p *profile.Profile) []*Recommendation {
	recs := make([]*Recommendation, 0, l.Len())
	for _, o := range l.Items {
		if rec := Score(o, p); rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs
}

// ReasonTags lists every tag the rule table can produce, in rule order.
var ReasonTags = []string{
	ReasonEligiblePercentage,
	ReasonHighPerformance,
	ReasonInterestMatch,
	ReasonSkillsMatch,
	ReasonGeneralInterest,
	ReasonTechSkills,
}
