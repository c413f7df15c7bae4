// Package catalog supplies the ordered opportunity snapshot the engine
// consumes. Postgres is the source of truth; a Redis snapshot cache sits in
// front of it and is refreshed on a schedule.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Soniya561/LAVAPUNK/internal/opportunity"
)

// ErrDuplicate is returned when publishing an opportunity whose id already
// exists in the catalog.
var ErrDuplicate = errors.New("opportunity already exists")

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
	position    BIGSERIAL PRIMARY KEY,
	id          TEXT        NOT NULL UNIQUE,
	title       TEXT        NOT NULL,
	type        TEXT        NOT NULL,
	deadline    TIMESTAMPTZ NOT NULL,
	eligibility TEXT        NOT NULL DEFAULT '',
	link        TEXT        NOT NULL DEFAULT '',
	source      TEXT        NOT NULL,
	degree      TEXT        NOT NULL DEFAULT '',
	field       TEXT        NOT NULL DEFAULT ''
)`

// Store persists opportunities in Postgres. The position column records
// insertion order; List always returns it, because the ranker's tie-break
// depends on stable catalog order.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the schema when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating opportunities table: %w", err)
	}
	return nil
}

// List returns the full catalog in insertion order.
func (s *Store) List(ctx context.Context) (*opportunity.List, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, type, deadline, eligibility, link, source, degree, field
		 FROM opportunities
		 ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying opportunities: %w", err)
	}
	defer rows.Close()

	list := &opportunity.List{}
	for rows.Next() {
		var (
			o                  opportunity.Opportunity
			typ, degree, field string
		)
		if err := rows.Scan(&o.ID, &o.Title, &typ, &o.Deadline, &o.Eligibility,
			&o.Link, &o.Source, &degree, &field); err != nil {
			return nil, fmt.Errorf("scanning opportunity: %w", err)
		}

		// Rows were validated on insert; a row that no longer parses is a
		// corrupted record and is skipped rather than failing the listing.
		if o.Type, err = opportunity.ParseType(typ); err != nil {
			continue
		}
		if o.Degree, err = opportunity.ParseDegree(degree); err != nil {
			continue
		}
		if o.Field, err = opportunity.ParseField(field); err != nil {
			continue
		}
		list.Items = append(list.Items, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading opportunities: %w", err)
	}
	return list, nil
}

// Publish validates the source-per-type mapping and inserts the opportunity.
// Duplicate ids are reported as ErrDuplicate, not silently dropped.
func (s *Store) Publish(ctx context.Context, o *opportunity.Opportunity) error {
	if err := ValidateSource(o); err != nil {
		return err
	}
	return s.Insert(ctx, o)
}

// Insert stores an opportunity without source validation. Used by bulk
// seeding: the raw catalog may legitimately contain untrusted sources, which
// the eligibility filter drops at read time.
func (s *Store) Insert(ctx context.Context, o *opportunity.Opportunity) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO opportunities (id, title, type, deadline, eligibility, link, source, degree, field)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		 WHERE NOT EXISTS (SELECT 1 FROM opportunities WHERE id = $1)`,
		o.ID, o.Title, string(o.Type), o.Deadline, o.Eligibility,
		o.Link, o.Source, string(o.Degree), string(o.Field),
	)
	if err != nil {
		return fmt.Errorf("inserting opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}
