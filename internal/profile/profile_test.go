package profile

import "testing"

func TestHasInterest(t *testing.T) {
	p := &Profile{Interests: []string{"Tech", "Finance"}}

	if !p.HasInterest("Tech") {
		t.Fatalf("expected Tech interest")
	}
	if p.HasInterest("tech") {
		t.Fatalf("interest match is verbatim, lowercase must not match")
	}
	if p.HasInterest("Design") {
		t.Fatalf("unexpected Design interest")
	}
}

func TestExtractSkills(t *testing.T) {
	resume := "Built dashboards in python and react, shipped on AWS with Docker. Strong communication."

	got := ExtractSkills(resume)
	want := []string{"Python", "React", "AWS", "Docker", "Communication"}

	if len(got) != len(want) {
		t.Fatalf("expected skills %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected skills %v in catalog order, got %v", want, got)
		}
	}
}

func TestExtractSkillsBlankResume(t *testing.T) {
	if got := ExtractSkills("   "); got != nil {
		t.Fatalf("expected nil for blank resume, got %v", got)
	}
}

func TestExtractSkillsReturnsCanonicalLabels(t *testing.T) {
	got := ExtractSkills("experienced in MACHINE LEARNING and sql")

	if len(got) != 2 || got[0] != "Machine Learning" || got[1] != "SQL" {
		t.Fatalf("expected canonical labels, got %v", got)
	}
}
