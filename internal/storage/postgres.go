package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
)

// PostgresStore is the external persistence boundary: it supplies the two
// URL pools and receives per-listing outcome reports. The core never mutates
// processed-state directly; it goes through ReportOutcome.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// FetchBacklog returns unprocessed, newly discovered listing URLs.
func (s *PostgresStore) FetchBacklog(ctx context.Context, limit int) ([]domain.ListingTarget, error) {
	rows, err := s.db.Query(ctx,
		`SELECT url FROM backlog_urls WHERE processed = FALSE ORDER BY id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch backlog: %w", err)
	}
	defer rows.Close()

	var targets []domain.ListingTarget
	for rows.Next() {
		var t domain.ListingTarget
		if err := rows.Scan(&t.URL); err != nil {
			return nil, err
		}
		t.Origin = domain.OriginBacklog
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// FetchRevisitPool returns historical URLs scheduled for re-extraction,
// least recently visited first so the whole set is eventually re-covered.
func (s *PostgresStore) FetchRevisitPool(ctx context.Context, limit int) ([]domain.ListingTarget, error) {
	rows, err := s.db.Query(ctx,
		`SELECT url, last_scraped FROM revisit_urls
		 ORDER BY last_scraped ASC NULLS FIRST
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch revisit pool: %w", err)
	}
	defer rows.Close()

	var targets []domain.ListingTarget
	for rows.Next() {
		var t domain.ListingTarget
		if err := rows.Scan(&t.URL, &t.LastScraped); err != nil {
			return nil, err
		}
		t.Origin = domain.OriginRevisit
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// ReportOutcome translates one ExtractionOutcome into a processed-state
// update. Success marks a backlog URL processed or refreshes a revisit URL's
// last_scraped; hard failures on backlog URLs are marked processed too so a
// dead listing is not retried forever; soft failures leave the URL eligible
// for a future attempt.
func (s *PostgresStore) ReportOutcome(ctx context.Context, outcome domain.ExtractionOutcome) error {
	if outcome.Kind == domain.OutcomeSoftFailure {
		return nil
	}

	switch outcome.Target.Origin {
	case domain.OriginBacklog:
		_, err := s.db.Exec(ctx,
			`UPDATE backlog_urls SET processed = TRUE, fail_reason = $2, updated_at = NOW() WHERE url = $1`,
			outcome.Target.URL, outcome.Reason,
		)
		if err != nil {
			return fmt.Errorf("mark processed %s: %w", outcome.Target.URL, err)
		}
	case domain.OriginRevisit:
		_, err := s.db.Exec(ctx,
			`UPDATE revisit_urls SET last_scraped = NOW() WHERE url = $1`,
			outcome.Target.URL,
		)
		if err != nil {
			return fmt.Errorf("touch last_scraped %s: %w", outcome.Target.URL, err)
		}
	}
	return nil
}
