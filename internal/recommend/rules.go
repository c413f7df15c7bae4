// Package recommend turns a filtered catalog and a user profile into a
// ranked, reason-annotated recommendation set. Matching is deterministic rule
// evaluation: each rule contributes a fixed weight and a human-readable tag
// when it fires, and an opportunity with no fired rule is excluded.
package recommend

import (
	"strings"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
	"github.com/Soniya561/LAVAPUNK/internal/profile"
)

// Reason tags, in rule order.
const (
	ReasonEligiblePercentage = "Eligible by Percentage"
	ReasonHighPerformance    = "High Academic Performance"
	ReasonInterestMatch      = "Matched by Interest"
	ReasonSkillsMatch        = "Matched by Skills"
	ReasonGeneralInterest    = "Relevant to Your Interests"
	ReasonTechSkills         = "Tech Skills Match"
)

// techKeywords participate in the skill match for Tech opportunities: a
// profile skill containing any of these substrings counts as relevant.
var techKeywords = []string{"python", "javascript", "react", "java", "c++", "machine learning"}

// canonicalTechSkills is the fixed set matched by the tech-skills bonus rule.
// Matching here is an exact, case-sensitive label comparison.
var canonicalTechSkills = []string{"Python", "JavaScript", "React", "Java", "Machine Learning", "Data Analysis"}

// Rule is one independent predicate over (opportunity, profile). Rules are
// evaluated in table order; SuppressedBy names a tag whose presence keeps
// this rule from firing, which makes the cross-rule dependencies explicit
// instead of buried in control flow.
type Rule struct {
	Tag          string
	Weight       int
	SuppressedBy string
	Matches      func(o *opportunity.Opportunity, p *profile.Profile) bool
}

// Rules returns the scoring table. The slice is freshly allocated so callers
// may not corrupt the canonical order.
func Rules() []Rule {
	return []Rule{
		{
			Tag:     ReasonEligiblePercentage,
			Weight:  30,
			Matches: eligibleByPercentage,
		},
		{
			Tag:     ReasonHighPerformance,
			Weight:  10,
			Matches: highAcademicPerformance,
		},
		{
			Tag:     ReasonInterestMatch,
			Weight:  25,
			Matches: matchedByInterest,
		},
		{
			Tag:     ReasonSkillsMatch,
			Weight:  30,
			Matches: matchedBySkills,
		},
		{
			Tag:          ReasonGeneralInterest,
			Weight:       15,
			SuppressedBy: ReasonInterestMatch,
			Matches:      relevantToInterests,
		},
		{
			Tag:          ReasonTechSkills,
			Weight:       20,
			SuppressedBy: ReasonSkillsMatch,
			Matches:      techSkillsMatch,
		},
	}
}

// MaxScore is the sum of all rule weights; no recommendation can exceed it.
func MaxScore() int {
	total := 0
	for _, r := range Rules() {
		total += r.Weight
	}
	return total
}

// academicTypes reports whether the percentage rules apply to this kind.
func academicType(t opportunity.Type) bool {
	return t == opportunity.TypeScholarship || t == opportunity.TypeInternship
}

// validPercentage guards the academic rules: values outside [0,100] are
// treated as not eligible rather than as an error.
func validPercentage(p float64) bool {
	return p >= 0 && p <= 100
}

func percentageThreshold(t opportunity.Type) float64 {
	if t == opportunity.TypeScholarship {
		return 60
	}
	return 70
}

func eligibleByPercentage(o *opportunity.Opportunity, p *profile.Profile) bool {
	return academicType(o.Type) &&
		validPercentage(p.Percentage) &&
		p.Percentage >= percentageThreshold(o.Type)
}

func highAcademicPerformance(o *opportunity.Opportunity, p *profile.Profile) bool {
	return academicType(o.Type) &&
		validPercentage(p.Percentage) &&
		p.Percentage >= 85
}

func matchedByInterest(o *opportunity.Opportunity, p *profile.Profile) bool {
	return o.Field != "" && p.HasInterest(string(o.Field))
}

func matchedBySkills(o *opportunity.Opportunity, p *profile.Profile) bool {
	if o.Type != opportunity.TypeHackathon && o.Type != opportunity.TypeGrant {
		return false
	}
	for _, skill := range p.Skills {
		if o.TextContains(skill) {
			return true
		}
		if o.Field != opportunity.FieldTech {
			continue
		}
		lower := strings.ToLower(skill)
		for _, kw := range techKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func relevantToInterests(o *opportunity.Opportunity, p *profile.Profile) bool {
	for _, interest := range p.Interests {
		if o.TextContains(interest) {
			return true
		}
	}
	return false
}

func techSkillsMatch(o *opportunity.Opportunity, p *profile.Profile) bool {
	if o.Field != opportunity.FieldTech {
		return false
	}
	for _, skill := range p.Skills {
		for _, canonical := range canonicalTechSkills {
			if skill == canonical {
				return true
			}
		}
	}
	return false
}
