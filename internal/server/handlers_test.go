package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/activity"
	"github.com/Soniya561/LAVAPUNK/internal/catalog"
	"github.com/Soniya561/LAVAPUNK/internal/filtering"
	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
	"github.com/Soniya561/LAVAPUNK/internal/profile"
	"github.com/Soniya561/LAVAPUNK/internal/session"
)

var fixedNow = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

const publisherToken = "publish-secret"

// fakeCatalog implements Catalog in memory, with the same publish semantics
// as the Postgres store: source validation first, then duplicate rejection.
type fakeCatalog struct {
	list *opportunity.List
}

func (f *fakeCatalog) List(_ context.Context) (*opportunity.List, error) {
	return f.list, nil
}

func (f *fakeCatalog) Publish(_ context.Context, o *opportunity.Opportunity) error {
	if err := catalog.ValidateSource(o); err != nil {
		return err
	}
	if f.list.FindByID(o.ID) != nil {
		return catalog.ErrDuplicate
	}
	f.list.Items = append(f.list.Items, o)
	return nil
}

func fixtureCatalog() *fakeCatalog {
	return &fakeCatalog{list: &opportunity.List{Items: []*opportunity.Opportunity{
		{
			ID:          "sch-1",
			Title:       "National Merit Scholarship",
			Type:        opportunity.TypeScholarship,
			Deadline:    fixedNow.Add(30 * 24 * time.Hour),
			Eligibility: "12th grade students with 60%+",
			Link:        "https://www.scholarships.com/sch-1",
			Source:      "Scholarships.com",
			Degree:      opportunity.DegreeHS,
			Field:       opportunity.FieldGeneral,
		},
		{
			ID:       "int-1",
			Title:    "Software Engineering Internship",
			Type:     opportunity.TypeInternship,
			Deadline: fixedNow.Add(14 * 24 * time.Hour),
			Link:     "https://internshala.com/int-1",
			Source:   "Internshala",
			Degree:   opportunity.DegreeBS,
			Field:    opportunity.FieldTech,
		},
		{
			ID:       "hack-1",
			Title:    "AI Innovation Hackathon",
			Type:     opportunity.TypeHackathon,
			Deadline: fixedNow.Add(7 * 24 * time.Hour),
			Link:     "https://devpost.com/hack-1",
			Source:   "Devpost",
			Field:    opportunity.FieldTech,
		},
		{
			ID:       "spam-1",
			Title:    "Totally Real Scholarship",
			Type:     opportunity.TypeScholarship,
			Deadline: fixedNow.Add(30 * 24 * time.Hour),
			Source:   "RandomBlog",
		},
		{
			ID:       "old-1",
			Title:    "Last Year's Grant",
			Type:     opportunity.TypeGrant,
			Deadline: fixedNow.Add(-time.Hour),
			Source:   "Govt Portal",
		},
	}}}
}

func newTestServer(t *testing.T) (*Server, *fakeCatalog) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cat := fixtureCatalog()
	s := New(
		&Config{
			TopMatches: 6,
			Filtering:  &filtering.Config{TrustedSources: catalog.TrustedSources()},
			SourceURLs: map[string]string{
				"Devpost": "https://devpost.com/",
			},
			PublisherToken: publisherToken,
		},
		zap.NewNop(),
		cat,
		profile.NewStore(rdb),
		session.NewManager(rdb, time.Hour),
		activity.NewTracker(rdb),
	)
	s.now = func() time.Time { return fixedNow }
	return s, cat
}

func doJSON(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %s", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %s", rec.Body.String(), err)
	}
	return v
}

func login(t *testing.T, h http.Handler, email string) *session.Session {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	sess := decode[*session.Session](t, rec)
	return sess
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

type browseResponse struct {
	Opportunities []struct {
		ID       string `json:"id"`
		ApplyURL string `json:"applyUrl"`
	} `json:"opportunities"`
}

func TestBrowseDropsUntrustedAndExpired(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/opportunities", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	resp := decode[browseResponse](t, rec)
	want := []string{"sch-1", "int-1", "hack-1"}
	if len(resp.Opportunities) != len(want) {
		t.Fatalf("expected ids %v, got %+v", want, resp.Opportunities)
	}
	for i := range want {
		if resp.Opportunities[i].ID != want[i] {
			t.Fatalf("expected ids %v in catalog order, got %+v", want, resp.Opportunities)
		}
	}
}

func TestBrowseFacetsAndSearch(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/opportunities?field=tech&q=hackathon", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	resp := decode[browseResponse](t, rec)
	if len(resp.Opportunities) != 1 || resp.Opportunities[0].ID != "hack-1" {
		t.Fatalf("expected only hack-1, got %+v", resp.Opportunities)
	}
	// Devpost resolves through the configured source url, not the raw link.
	if resp.Opportunities[0].ApplyURL != "https://devpost.com/" {
		t.Fatalf("unexpected apply url: %q", resp.Opportunities[0].ApplyURL)
	}
}

func TestBrowseRejectsUnknownFacet(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/opportunities?type=fellowship", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRecommendationsRequireLogin(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/recommendations", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRecommendationsRequireProfile(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	sess := login(t, h, "student@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/recommendations", sess.Token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without a profile, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecommendationsEndToEnd(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	sess := login(t, h, "student@example.com")

	put := doJSON(t, h, http.MethodPut, "/api/v1/profile", sess.Token, profile.Profile{
		Percentage: 90,
		Interests:  []string{"Tech"},
		Skills:     []string{"Python"},
	})
	if put.Code != http.StatusOK {
		t.Fatalf("saving profile: %d %s", put.Code, put.Body.String())
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/recommendations", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	view := decode[recommendationView](t, rec)

	// int-1: percentage (30) + high performance (10) + field interest (25)
	// + tech skills bonus (20). sch-1: percentage (30) + high performance
	// (10). hack-1: tech keyword skills match (30).
	want := []struct {
		id    string
		score int
	}{
		{"int-1", 85},
		{"sch-1", 40},
		{"hack-1", 30},
	}
	if len(view.TopMatches) != len(want) {
		t.Fatalf("expected %d top matches, got %+v", len(want), view.TopMatches)
	}
	for i, w := range want {
		got := view.TopMatches[i]
		if got.OpportunityID != w.id || got.Score != w.score {
			t.Fatalf("top match %d: expected %s/%d, got %+v", i, w.id, w.score, got)
		}
		if len(got.Reasons) == 0 {
			t.Fatalf("every recommendation must carry reasons, got %+v", got)
		}
	}

	if len(view.Scholarships) != 1 || len(view.Internships) != 1 || len(view.Hackathons) != 1 || len(view.Grants) != 0 {
		t.Fatalf("unexpected buckets: %+v", view)
	}
}

func TestPutProfileExtractsSkillsFromResume(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	sess := login(t, h, "student@example.com")

	rec := doJSON(t, h, http.MethodPut, "/api/v1/profile", sess.Token, map[string]any{
		"percentage": 75,
		"interests":  []string{"Tech"},
		"resumeText": "Projects in Python and React, deployed with Docker.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	p := decode[profile.Profile](t, rec)
	want := []string{"Python", "React", "Docker"}
	if len(p.Skills) != len(want) {
		t.Fatalf("expected skills %v, got %v", want, p.Skills)
	}
	for i := range want {
		if p.Skills[i] != want[i] {
			t.Fatalf("expected skills %v, got %v", want, p.Skills)
		}
	}
}

func TestPublishTokenGating(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	body := map[string]string{
		"id":       "hack-2",
		"title":    "Climate Data Hackathon",
		"type":     "Hackathon",
		"deadline": fixedNow.Add(48 * time.Hour).Format(time.RFC3339),
		"source":   "Devpost",
	}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/opportunities", "", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without the publisher token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/opportunities", marshalBody(t, body))
	req.Header.Set(publisherTokenHeader, publisherToken)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", res.Code, res.Body.String())
	}

	// Same id again is a conflict.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/opportunities", marshalBody(t, body))
	req.Header.Set(publisherTokenHeader, publisherToken)
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate id, got %d", res.Code)
	}
}

func TestPublishRejectsWrongSource(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	body := map[string]string{
		"id":       "hack-3",
		"title":    "Backyard Hackathon",
		"type":     "Hackathon",
		"deadline": fixedNow.Add(48 * time.Hour).Format(time.RFC3339),
		"source":   "Internshala",
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/opportunities", marshalBody(t, body))
	req.Header.Set(publisherTokenHeader, publisherToken)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a source/type mismatch, got %d %s", res.Code, res.Body.String())
	}
}

func marshalBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encoding body: %s", err)
	}
	return &buf
}

func TestActivityFlow(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	sess := login(t, h, "student@example.com")

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/opportunities/hack-1/view", sess.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("recording view: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/opportunities/int-1/apply", sess.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("recording apply: %d %s", rec.Code, rec.Body.String())
	}

	save := doJSON(t, h, http.MethodPost, "/api/v1/opportunities/sch-1/save", sess.Token, nil)
	if save.Code != http.StatusOK {
		t.Fatalf("toggling save: %d %s", save.Code, save.Body.String())
	}
	if saved := decode[map[string]bool](t, save); !saved["saved"] {
		t.Fatalf("first toggle must save")
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/opportunities/nope/view", sess.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown opportunity, got %d", rec.Code)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/activity", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("loading activity: %d %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Activity     activity.Snapshot `json:"activity"`
		Applications []struct {
			ID string `json:"id"`
		} `json:"applications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding activity response: %s", err)
	}

	if len(resp.Activity.Viewed) != 1 || resp.Activity.Viewed[0] != "hack-1" {
		t.Fatalf("unexpected viewed set: %v", resp.Activity.Viewed)
	}
	if len(resp.Activity.Saved) != 1 || resp.Activity.Saved[0] != "sch-1" {
		t.Fatalf("unexpected saved set: %v", resp.Activity.Saved)
	}
	if len(resp.Applications) != 1 || resp.Applications[0].ID != "int-1" {
		t.Fatalf("expected applied details for int-1, got %+v", resp.Applications)
	}
}

func TestLogoutDiscardsSessionState(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	sess := login(t, h, "student@example.com")

	if rec := doJSON(t, h, http.MethodPut, "/api/v1/profile", sess.Token, profile.Profile{Percentage: 80}); rec.Code != http.StatusOK {
		t.Fatalf("saving profile: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/opportunities/hack-1/view", sess.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("recording view: %d", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", sess.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logging out: %d %s", rec.Code, rec.Body.String())
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/v1/profile", sess.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}

	// Fresh login for the same email sees a clean slate.
	fresh := login(t, h, "student@example.com")
	if fresh.UserID != sess.UserID {
		t.Fatalf("expected a stable user id, got %q and %q", sess.UserID, fresh.UserID)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/v1/profile", fresh.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for the discarded profile, got %d", rec.Code)
	}

	act := doJSON(t, h, http.MethodGet, "/api/v1/activity", fresh.Token, nil)
	var resp struct {
		Activity activity.Snapshot `json:"activity"`
	}
	if err := json.Unmarshal(act.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding activity response: %s", err)
	}
	if len(resp.Activity.Viewed) != 0 {
		t.Fatalf("expected cleared activity, got %v", resp.Activity.Viewed)
	}
}
