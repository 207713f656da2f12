/*
Package sqlite provides SQLite-backed persistence for Batua.

PURPOSE:
  Stores what the calculators themselves never keep: custom tax regimes,
  the history of tax calculations a user chose to save, and named budget
  plans. The calculators stay pure; this package is the only stateful
  layer below the API.

KEY TABLES:
  regimes:          Custom slab schedules as regime JSON (versioned)
  tax_calculations: Saved tax results (append-only history)
  budget_plans:     Named income/allocation snapshots

APPEND-ONLY:
  tax_calculations is never updated. A recalculation is a new row.

AMOUNTS:
  Decimal amounts are stored as TEXT and parsed with shopspring/decimal so
  no precision is lost to REAL columns.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql.

USAGE:
  store, err := sqlite.New("./data/batua.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - factory/regime.go: Produces and parses the regime JSON stored here
  - budget/plan.go: Plan type persisted in budget_plans
  - api/handlers.go: The only writer
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/money"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// timeLayout is fixed width so created_at / updated_at sort as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists regimes, calculations and plans.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Custom regimes
	CREATE TABLE IF NOT EXISTS regimes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Saved calculations (append-only)
	CREATE TABLE IF NOT EXISTS tax_calculations (
		id TEXT PRIMARY KEY,
		regime TEXT NOT NULL,
		income TEXT NOT NULL,
		total_tax TEXT NOT NULL,
		effective_rate TEXT,
		profile_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_calculations_created
		ON tax_calculations(created_at DESC);

	-- Budget plans
	CREATE TABLE IF NOT EXISTS budget_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mode TEXT NOT NULL,
		income TEXT NOT NULL,
		allocations_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_budget_plans_updated
		ON budget_plans(updated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REGIME STORE
// =============================================================================

// RegimeRecord is a stored regime with its JSON config.
type RegimeRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveRegime inserts a regime or bumps its version.
func (s *Store) SaveRegime(ctx context.Context, r RegimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO regimes (id, name, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = regimes.version + 1,
			updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, query, r.ID, r.Name, r.ConfigJSON, now, now)
	if err != nil {
		return fmt.Errorf("save regime %s: %w", r.ID, err)
	}
	return nil
}

// GetRegime retrieves a regime by ID.
func (s *Store) GetRegime(ctx context.Context, id string) (*RegimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r RegimeRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM regimes WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Name, &r.ConfigJSON, &r.Version, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("regime %s: %w", id, money.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// ListRegimes returns all stored regimes ordered by id.
func (s *Store) ListRegimes(ctx context.Context) ([]RegimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM regimes ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegimeRecord
	for rows.Next() {
		var r RegimeRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.Name, &r.ConfigJSON, &r.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRegime removes a regime.
func (s *Store) DeleteRegime(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM regimes WHERE id = ?", id)
	return notFoundIfNone(res, err, "regime", id)
}

// =============================================================================
// CALCULATION HISTORY
// =============================================================================

// CalculationRecord is one saved tax calculation. EffectiveRate is empty
// when no rate was produced.
type CalculationRecord struct {
	ID            string
	Regime        string
	IncomeINR     decimal.Decimal
	TotalTaxINR   decimal.Decimal
	EffectiveRate string
	ProfileJSON   string
	ResultJSON    string
	CreatedAt     time.Time
}

// SaveCalculation appends a calculation.
func (s *Store) SaveCalculation(ctx context.Context, c CalculationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tax_calculations (id, regime, income, total_tax, effective_rate, profile_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Regime, c.IncomeINR.String(), c.TotalTaxINR.String(), nullString(c.EffectiveRate),
		c.ProfileJSON, c.ResultJSON, formatTime(c.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &money.InvalidInputError{Field: "id", Value: c.ID, Reason: "calculation already saved"}
		}
		return fmt.Errorf("save calculation: %w", err)
	}
	return nil
}

// ListCalculations returns the most recent calculations first.
func (s *Store) ListCalculations(ctx context.Context, limit int) ([]CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, regime, income, total_tax, effective_rate, profile_json, result_json, created_at
		FROM tax_calculations ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalculationRecord
	for rows.Next() {
		var c CalculationRecord
		var income, total, createdAt string
		var rate sql.NullString
		if err := rows.Scan(&c.ID, &c.Regime, &income, &total, &rate, &c.ProfileJSON, &c.ResultJSON, &createdAt); err != nil {
			return nil, err
		}
		c.IncomeINR = parseDecimal(income)
		c.TotalTaxINR = parseDecimal(total)
		c.EffectiveRate = rate.String
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// BUDGET PLANS
// =============================================================================

// SavePlan inserts or replaces a plan. CreatedAt is kept from the first save.
func (s *Store) SavePlan(ctx context.Context, p budget.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocJSON, err := encodeAllocations(p.Allocations)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO budget_plans (id, name, mode, income, allocations_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			mode = excluded.mode,
			income = excluded.income,
			allocations_json = excluded.allocations_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.Name, string(p.Mode), p.Income.String(), allocJSON,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", p.ID, err)
	}
	return nil
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (*budget.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, mode, income, allocations_json, created_at, updated_at FROM budget_plans WHERE id = ?",
		id,
	)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, money.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlans returns plans most recently updated first.
func (s *Store) ListPlans(ctx context.Context) ([]budget.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, mode, income, allocations_json, created_at, updated_at FROM budget_plans ORDER BY updated_at DESC, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []budget.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePlan removes a plan.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM budget_plans WHERE id = ?", id)
	return notFoundIfNone(res, err, "plan", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (budget.Plan, error) {
	var p budget.Plan
	var mode, income, allocJSON, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &mode, &income, &allocJSON, &createdAt, &updatedAt); err != nil {
		return budget.Plan{}, err
	}

	set, err := decodeAllocations(allocJSON)
	if err != nil {
		return budget.Plan{}, fmt.Errorf("plan %s: %w", p.ID, err)
	}

	p.Mode = budget.Mode(mode)
	p.Income = parseDecimal(income)
	p.Allocations = set
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"tax_calculations", "budget_plans", "regimes"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func encodeAllocations(set budget.AllocationSet) (string, error) {
	m := make(map[string]string, len(set))
	for b, v := range set.Normalized() {
		m[string(b)] = v.String()
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode allocations: %w", err)
	}
	return string(b), nil
}

func decodeAllocations(s string) (budget.AllocationSet, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode allocations: %w", err)
	}
	set := make(budget.AllocationSet, len(m))
	for k, v := range m {
		set[budget.Bucket(k)] = parseDecimal(v)
	}
	return set.Normalized(), nil
}

func notFoundIfNone(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, money.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
