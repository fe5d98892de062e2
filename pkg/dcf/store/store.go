// Package store archives analysis runs in SQLite.
//
// The archive is write-mostly: the engine never reads it back for a
// computation. It serves `dcf history`, `dcf analyze --rerun` and the API.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
	"github.com/stex99/dcf-tool/pkg/dcf/valuation"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one archived analysis.
type Run struct {
	ID        string
	CreatedAt time.Time
	Params    valuation.Params
	Tolerance float64
	Summary   types.Summary
}

// RunInfo is a run without its rows.
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Params    valuation.Params
	Tolerance float64
	Total     float64
	Holdings  int
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path and applies pending
// migrations. Use ":memory:" for a throwaway archive.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// SaveRun writes a run and its rows in one transaction. Unavailable values
// are stored as NULL.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run (id, created_at, discount_rate, growth_rate, projection_years, tolerance, total_estimated_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.Params.DiscountRate,
		run.Params.GrowthRate,
		run.Params.ProjectionYears,
		run.Tolerance,
		run.Summary.TotalEstimatedValue,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_holding (run_id, position, identifier, shares, intrinsic_value, value_per_share,
			market_price, difference, upside_percent, valuation, holding_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range run.Summary.Results {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.Identifier, r.Shares,
			nullable(r.IntrinsicValue),
			nullable(r.ValuePerShare),
			nullable(r.MarketPrice),
			nullable(r.Difference),
			nullable(r.UpsidePercent),
			r.Flag.String(),
			nullable(r.HoldingValue),
		)
		if err != nil {
			return fmt.Errorf("insert holding %s of run %s: %w", r.Identifier, run.ID, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, runInfoQuery+`
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		ri, err := scanRunInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

// GetRun returns the header of one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	row := s.db.QueryRowContext(ctx, runInfoQuery+`
		WHERE r.id = ?
		GROUP BY r.id`, runID)
	ri, err := scanRunInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return &ri, nil
}

const runInfoQuery = `
	SELECT r.id, r.created_at, r.discount_rate, r.growth_rate, r.projection_years, r.tolerance,
		r.total_estimated_value, COUNT(h.position)
	FROM run r
	LEFT JOIN run_holding h ON h.run_id = r.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanRunInfo(sc scanner) (RunInfo, error) {
	var (
		ri      RunInfo
		created string
	)
	if err := sc.Scan(&ri.ID, &created, &ri.Params.DiscountRate, &ri.Params.GrowthRate,
		&ri.Params.ProjectionYears, &ri.Tolerance, &ri.Total, &ri.Holdings); err != nil {
		return RunInfo{}, err
	}
	var err error
	if ri.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return RunInfo{}, fmt.Errorf("run %s: bad created_at %q: %w", ri.ID, created, err)
	}
	return ri, nil
}

// Results returns the stored rows of a run in input order.
func (s *Store) Results(ctx context.Context, runID string) ([]types.HoldingResult, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, shares, intrinsic_value, value_per_share, market_price, difference,
			upside_percent, valuation, holding_value
		FROM run_holding WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.HoldingResult
	for rows.Next() {
		var (
			r                         types.HoldingResult
			iv, vps, mp, diff, up, hv sql.NullFloat64
			flag                      string
		)
		if err := rows.Scan(&r.Identifier, &r.Shares, &iv, &vps, &mp, &diff, &up, &flag, &hv); err != nil {
			return nil, err
		}
		r.IntrinsicValue, r.ValuePerShare, r.MarketPrice = ptr(iv), ptr(vps), ptr(mp)
		r.Difference, r.UpsidePercent, r.HoldingValue = ptr(diff), ptr(up), ptr(hv)
		r.Flag = types.ParseFlag(flag)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Holdings returns the input holdings of a run in their original order.
func (s *Store) Holdings(ctx context.Context, runID string) ([]types.Holding, error) {
	results, err := s.Results(ctx, runID)
	if err != nil {
		return nil, err
	}
	hs := make([]types.Holding, len(results))
	for i, r := range results {
		hs[i] = types.Holding{Identifier: r.Identifier, Shares: r.Shares}
	}
	return hs, nil
}

func (s *Store) exists(ctx context.Context, runID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM run WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, runID)
	}
	return err
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return types.Float(n.Float64)
}
