// Package server exposes the JSON API. It is a thin presentation boundary:
// all matching decisions live in filtering and recommend, which receive the
// catalog, the profile and the evaluation time as explicit arguments.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Soniya561/LAVAPUNK/internal/activity"
	"github.com/Soniya561/LAVAPUNK/internal/filtering"
	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
	"github.com/Soniya561/LAVAPUNK/internal/profile"
	"github.com/Soniya561/LAVAPUNK/internal/session"
)

// Catalog supplies the ordered opportunity snapshot.
type Catalog interface {
	List(ctx context.Context) (*opportunity.List, error)
	Publish(ctx context.Context, o *opportunity.Opportunity) error
}

// Profiles stores per-user profile snapshots.
type Profiles interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Save(ctx context.Context, userID string, p *profile.Profile) error
	Delete(ctx context.Context, userID string) error
}

// Sessions issues and resolves opaque login tokens.
type Sessions interface {
	Login(ctx context.Context, email string) (*session.Session, error)
	Resolve(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) (string, error)
}

// Activities records user interactions with opportunities.
type Activities interface {
	RecordView(ctx context.Context, userID, opportunityID string) error
	RecordApply(ctx context.Context, userID, opportunityID string) error
	ToggleSave(ctx context.Context, userID, opportunityID string) (bool, error)
	Snapshot(ctx context.Context, userID string) (*activity.Snapshot, error)
	Clear(ctx context.Context, userID string) error
}

// Config holds the presentation-layer settings.
type Config struct {
	Address    string
	TopMatches int
	Filtering  *filtering.Config
	// SourceURLs maps a trusted source name to its canonical apply
	// destination. Unknown sources fall back to the opportunity link.
	SourceURLs map[string]string
	// PublisherToken guards the publish endpoint. Empty disables publishing.
	PublisherToken string
}

// Server wires the collaborators behind the HTTP API.
type Server struct {
	cfg        *Config
	logger     *zap.Logger
	catalog    Catalog
	profiles   Profiles
	sessions   Sessions
	activities Activities

	// now is the evaluation clock, injectable for tests.
	now func() time.Time
}

func New(cfg *Config, logger *zap.Logger, catalog Catalog, profiles Profiles, sessions Sessions, activities Activities) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		catalog:    catalog,
		profiles:   profiles,
		sessions:   sessions,
		activities: activities,
		now:        time.Now,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)

	mux.HandleFunc("GET /api/v1/opportunities", s.handleBrowse)
	mux.HandleFunc("POST /api/v1/opportunities", s.handlePublish)
	mux.HandleFunc("POST /api/v1/opportunities/{id}/view", s.handleActivity(Activities.RecordView))
	mux.HandleFunc("POST /api/v1/opportunities/{id}/apply", s.handleActivity(Activities.RecordApply))
	mux.HandleFunc("POST /api/v1/opportunities/{id}/save", s.handleToggleSave)

	mux.HandleFunc("GET /api/v1/recommendations", s.handleRecommendations)

	mux.HandleFunc("GET /api/v1/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/v1/profile", s.handlePutProfile)

	mux.HandleFunc("GET /api/v1/activity", s.handleGetActivity)

	return mux
}

// ListenAndServe runs the API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("api listening", zap.String("address", s.cfg.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// applyURL resolves the click-through destination for an opportunity: the
// canonical URL for its source when configured, its own link otherwise.
func (s *Server) applyURL(o *opportunity.Opportunity) string {
	if url, ok := s.cfg.SourceURLs[o.Source]; ok {
		return url
	}
	return o.Link
}
