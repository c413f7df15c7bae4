package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/catalog"
	"github.com/Soniya561/LAVAPUNK/internal/filtering"
	"github.com/Soniya561/LAVAPUNK/internal/logger"
	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
	"github.com/Soniya561/LAVAPUNK/internal/profile"
	"github.com/Soniya561/LAVAPUNK/internal/recommend"
	"github.com/Soniya561/LAVAPUNK/internal/session"
)

const publisherTokenHeader = "X-Publisher-Token"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// userID resolves the session token on the request, writing a 401 on failure.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.sessions.Resolve(r.Context(), bearerToken(r))
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "login required")
		} else {
			s.logger.Error("resolving session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "session lookup failed")
		}
		return "", false
	}
	return userID, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "oppify"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessions.Login(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("user logged in", zap.String("user_id", sess.UserID))
	writeJSON(w, http.StatusOK, sess)
}

// handleLogout invalidates the session and discards the session-owned state:
// the profile snapshot and the activity sets.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, err := s.sessions.Logout(r.Context(), bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	if err := s.profiles.Delete(r.Context(), userID); err != nil {
		s.logger.Warn("discarding profile on logout", zap.Error(err))
	}
	if err := s.activities.Clear(r.Context(), userID); err != nil {
		s.logger.Warn("clearing activity on logout", zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

type browseEntry struct {
	*opportunity.Opportunity
	ApplyURL string `json:"applyUrl"`
}

// handleBrowse lists live opportunities narrowed by the facet query. Browsing
// is filtered but never scored, so zero-rule opportunities still show up.
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.catalog.List(r.Context())
	if err != nil {
		s.logger.Error("loading catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	filtered, err := filtering.Run(s.logger, filtering.Browse(s.cfg.Filtering, q, s.now()), list)
	if err != nil {
		s.logger.Error("filtering catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "filtering failed")
		return
	}

	entries := make([]browseEntry, 0, filtered.Len())
	for _, o := range filtered.Items {
		entries = append(entries, browseEntry{Opportunity: o, ApplyURL: s.applyURL(o)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": entries})
}

func parseQuery(r *http.Request) (filtering.Query, error) {
	var (
		q   filtering.Query
		err error
	)
	params := r.URL.Query()

	if v := params.Get("degree"); v != "" {
		if q.Degree, err = opportunity.ParseDegree(v); err != nil {
			return q, err
		}
	}
	if v := params.Get("field"); v != "" {
		if q.Field, err = opportunity.ParseField(v); err != nil {
			return q, err
		}
	}
	if v := params.Get("type"); v != "" {
		if q.Type, err = opportunity.ParseType(v); err != nil {
			return q, err
		}
	}
	q.Search = params.Get("q")
	return q, nil
}

type publishRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Deadline    string `json:"deadline"`
	Eligibility string `json:"eligibility"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	Degree      string `json:"degree"`
	Field       string `json:"fieldOfInterest"`
}

// handlePublish adds an opportunity to the catalog. Guarded by the publisher
// token; the source-per-type mapping is enforced by the catalog.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.cfg.PublisherToken == "" || r.Header.Get(publisherTokenHeader) != s.cfg.PublisherToken {
		writeError(w, http.StatusForbidden, "publisher token required")
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := req.toOpportunity()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch err := s.catalog.Publish(r.Context(), o); {
	case errors.Is(err, catalog.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		// Source mismatches surface here as validation failures.
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Info("opportunity published",
			zap.String("opportunity_id", o.ID),
			zap.String("type", string(o.Type)),
			zap.String("source", o.Source),
		)
		writeJSON(w, http.StatusCreated, o)
	}
}

func (req *publishRequest) toOpportunity() (*opportunity.Opportunity, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, errors.New("id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.New("title is required")
	}

	o := &opportunity.Opportunity{
		ID:          req.ID,
		Title:       req.Title,
		Eligibility: req.Eligibility,
		Link:        req.Link,
		Source:      req.Source,
	}

	var err error
	if o.Type, err = opportunity.ParseType(req.Type); err != nil {
		return nil, err
	}
	if o.Deadline, err = time.Parse(time.RFC3339, req.Deadline); err != nil {
		return nil, errors.New("deadline must be an RFC3339 timestamp")
	}
	if o.Degree, err = opportunity.ParseDegree(req.Degree); err != nil {
		return nil, err
	}
	if o.Field, err = opportunity.ParseField(req.Field); err != nil {
		return nil, err
	}
	return o, nil
}

type recommendationEntry struct {
	OpportunityID string   `json:"opportunityId"`
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	Score         int      `json:"score"`
	Reasons       []string `json:"reasons"`
	ApplyURL      string   `json:"applyUrl"`
}

type recommendationView struct {
	TopMatches   []recommendationEntry `json:"topMatches"`
	Scholarships []recommendationEntry `json:"scholarships"`
	Internships  []recommendationEntry `json:"internships"`
	Hackathons   []recommendationEntry `json:"hackathons"`
	Grants       []recommendationEntry `json:"grants"`
}

// handleRecommendations runs the full pipeline for the logged-in user:
// eligibility filter, rule scoring, stable ranking and grouping.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	p, err := s.profiles.Get(r.Context(), userID)
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusConflict, "complete your profile to get personalized recommendations")
		return
	}
	if err != nil {
		s.logger.Error("loading profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}

	list, err := s.catalog.List(r.Context())
	if err != nil {
		s.logger.Error("loading catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	eligible, err := filtering.Run(s.logger, filtering.Eligibility(s.cfg.Filtering, s.now()), list)
	if err != nil {
		s.logger.Error("filtering catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "filtering failed")
		return
	}

	view := recommend.Rank(recommend.ScoreAll(eligible, p), s.cfg.TopMatches)

	writeJSON(w, http.StatusOK, recommendationView{
		TopMatches:   s.toEntries(view.TopMatches),
		Scholarships: s.toEntries(view.Scholarships),
		Internships:  s.toEntries(view.Internships),
		Hackathons:   s.toEntries(view.Hackathons),
		Grants:       s.toEntries(view.Grants),
	})
}

func (s *Server) toEntries(recs []*recommend.Recommendation) []recommendationEntry {
	entries := make([]recommendationEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, recommendationEntry{
			OpportunityID: rec.Opportunity.ID,
			Title:         rec.Opportunity.Title,
			Type:          string(rec.Opportunity.Type),
			Score:         rec.Score,
			Reasons:       rec.Reasons,
			ApplyURL:      s.applyURL(rec.Opportunity),
		})
	}
	return entries
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	p, err := s.profiles.Get(r.Context(), userID)
	if errors.Is(err, profile.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not set up")
		return
	}
	if err != nil {
		s.logger.Error("loading profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutProfile replaces the profile wholesale. When no skills are sent
// but resume text is, skills are extracted from the resume by keyword match.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(p.Skills) == 0 && p.ResumeText != "" {
		p.Skills = profile.ExtractSkills(p.ResumeText)
		s.logger.Debug("extracted skills from resume",
			zap.String("user_id", userID),
			zap.Strings("skills", p.Skills),
			zap.String("resume", logger.TruncateForLog(p.ResumeText, 80)),
		)
	}

	if err := s.profiles.Save(r.Context(), userID, &p); err != nil {
		s.logger.Error("saving profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "saving profile failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleActivity builds a handler recording a view or apply interaction.
func (s *Server) handleActivity(record func(Activities, context.Context, string, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.userID(w, r)
		if !ok {
			return
		}

		id, ok := s.knownOpportunity(w, r)
		if !ok {
			return
		}

		if err := record(s.activities, r.Context(), userID, id); err != nil {
			s.logger.Error("recording activity", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "recording activity failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleToggleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	id, ok := s.knownOpportunity(w, r)
	if !ok {
		return
	}

	saved, err := s.activities.ToggleSave(r.Context(), userID, id)
	if err != nil {
		s.logger.Error("toggling save", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recording activity failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

// knownOpportunity validates the path id against the catalog.
func (s *Server) knownOpportunity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	list, err := s.catalog.List(r.Context())
	if err != nil {
		s.logger.Error("loading catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return "", false
	}
	if list.FindByID(id) == nil {
		writeError(w, http.StatusNotFound, "unknown opportunity")
		return "", false
	}
	return id, true
}

// handleGetActivity returns the raw id sets plus details for applied
// opportunities, mirroring the "my applications" listing.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	snap, err := s.activities.Snapshot(r.Context(), userID)
	if err != nil {
		s.logger.Error("loading activity", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "activity unavailable")
		return
	}

	list, err := s.catalog.List(r.Context())
	if err != nil {
		s.logger.Error("loading catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	applied := make([]browseEntry, 0, len(snap.Applied))
	for _, id := range snap.Applied {
		if o := list.FindByID(id); o != nil {
			applied = append(applied, browseEntry{Opportunity: o, ApplyURL: s.applyURL(o)})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activity":     snap,
		"applications": applied,
	})
}
