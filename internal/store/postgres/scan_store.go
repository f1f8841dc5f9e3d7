package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tonarb/giftarb/internal/domain"
)

// ScanStore implements domain.ScanStore using PostgreSQL. It records scan
// requests and their emitted candidates for auditing; raw market quotes are
// never stored.
type ScanStore struct {
	pool *pgxpool.Pool
}

// NewScanStore creates a new ScanStore backed by the given connection pool.
func NewScanStore(pool *pgxpool.Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

const candidateSelectCols = `id, gift, model, buy_market, sell_market,
	buy_price, sell_price, profit, profit_percent, clean, strategy, detected_at`

// RecordScan stores the scan record together with its candidates in one
// transaction, so a scan either appears fully or not at all.
func (s *ScanStore) RecordScan(ctx context.Context, rec domain.ScanRecord, candidates []domain.Candidate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin record scan: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertScan = `
		INSERT INTO scans (
			id, price_min, price_max, min_profit_percent,
			requested_by, candidates, warnings, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := tx.Exec(ctx, insertScan,
		rec.ID, rec.PriceMin, rec.PriceMax, rec.MinProfitPercent,
		rec.RequestedBy, rec.Candidates, rec.Warnings, rec.StartedAt, rec.FinishedAt,
	); err != nil {
		return fmt.Errorf("postgres: insert scan %s: %w", rec.ID, err)
	}

	const insertCandidate = `
		INSERT INTO scan_candidates (
			id, scan_id, gift, model, buy_market, sell_market,
			buy_price, sell_price, profit, profit_percent,
			clean, strategy, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	batch := &pgx.Batch{}
	for _, c := range candidates {
		batch.Queue(insertCandidate,
			c.ID, rec.ID, c.Gift, c.Model, c.BuyMarket, c.SellMarket,
			c.BuyPrice, c.SellPrice, c.Profit, c.ProfitPercent,
			c.Clean, c.Strategy, c.DetectedAt,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("postgres: insert candidates for scan %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit scan %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecentCandidates returns the most recently detected candidates across
// all scans, newest first.
func (s *ScanStore) ListRecentCandidates(ctx context.Context, limit int) ([]domain.Candidate, error) {
	query := `SELECT ` + candidateSelectCols + ` FROM scan_candidates ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(
			&c.ID, &c.Gift, &c.Model, &c.BuyMarket, &c.SellMarket,
			&c.BuyPrice, &c.SellPrice, &c.Profit, &c.ProfitPercent,
			&c.Clean, &c.Strategy, &c.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan candidate row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent candidates rows: %w", err)
	}
	return out, nil
}

// ListScansBefore returns scan records finished strictly before the cutoff,
// oldest first, for archival.
func (s *ScanStore) ListScansBefore(ctx context.Context, before time.Time) ([]domain.ScanRecord, error) {
	const query = `
		SELECT id, price_min, price_max, min_profit_percent,
		       requested_by, candidates, warnings, started_at, finished_at
		FROM scans
		WHERE finished_at < $1
		ORDER BY finished_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list scans before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var out []domain.ScanRecord
	for rows.Next() {
		var rec domain.ScanRecord
		if err := rows.Scan(
			&rec.ID, &rec.PriceMin, &rec.PriceMax, &rec.MinProfitPercent,
			&rec.RequestedBy, &rec.Candidates, &rec.Warnings, &rec.StartedAt, &rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan record row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list scans rows: %w", err)
	}
	return out, nil
}

// DeleteScansBefore removes scans finished before the cutoff. Candidates go
// with them via the foreign key cascade.
func (s *ScanStore) DeleteScansBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE finished_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete scans before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.ScanStore = (*ScanStore)(nil)
