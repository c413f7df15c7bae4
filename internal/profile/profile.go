// Package profile holds the user's declared snapshot: academic percentage,
// interests and skills. A profile is replaced wholesale on edit and discarded
// at logout; the recommendation engine receives it as an immutable value.
package profile

import "strings"

// Interests available during profile setup. The first five mirror the
// opportunity field-of-interest enum; the rest only participate in free-text
// interest matching.
var Interests = []string{
	"Tech", "Finance", "Research", "Design", "General",
	"AI/ML", "Web Development", "Data Science", "Blockchain",
	"Healthcare", "Education", "Marketing", "Entrepreneurship",
}

// Skills is the canonical skill catalog used for resume extraction.
var Skills = []string{
	"Python", "JavaScript", "React", "Node.js", "Java", "C++",
	"Machine Learning", "Data Analysis", "UI/UX Design", "SQL",
	"AWS", "Docker", "Git", "Figma", "Excel", "Leadership",
	"Communication", "Project Management", "Research", "Writing",
}

// Profile is a user's declared snapshot. Percentage outside [0,100] is kept
// as-is; the scoring rules simply treat it as not eligible.
type Profile struct {
	Percentage float64  `json:"percentage"`
	Interests  []string `json:"interests"`
	Skills     []string `json:"skills"`
	ResumeText string   `json:"resumeText,omitempty"`
}

// HasInterest reports whether the profile declares the given interest tag
// verbatim.
func (p *Profile) HasInterest(tag string) bool {
	for _, i := range p.Interests {
		if i == tag {
			return true
		}
	}
	return false
}

// ExtractSkills returns every canonical skill that appears, case-insensitively,
// in the resume text. Order follows the skill catalog so extraction is
// deterministic.
func ExtractSkills(resumeText string) []string {
	if strings.TrimSpace(resumeText) == "" {
		return nil
	}
	lower := strings.ToLower(resumeText)
	var found []string
	for _, skill := range Skills {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}
