package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one solved game as recorded in the history.
type Run struct {
	ID               string
	GameName         string
	NumPlayers       int
	Policy           string
	AllPay           bool
	NoTies           bool
	CatalogueSizes   []int
	NFGPath          string
	TableHash        string
	SealedReport     string // base64 COSE_Sign1, empty when sealing is disabled
	Equilibria       [][]string
	EquilibriumCount int
	CreatedAt        time.Time
}

// SQLiteStore keeps the run history in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != MemoryPath {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun records run and its equilibria in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run has no id")
	}
	sizes, err := json.Marshal(run.CatalogueSizes)
	if err != nil {
		return fmt.Errorf("marshal catalogue sizes: %w", err)
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (
    id, game_name, num_players, policy, all_pay, no_ties, catalogue_sizes_json,
    nfg_path, table_hash, sealed_report, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.GameName, run.NumPlayers, run.Policy, boolToInt(run.AllPay), boolToInt(run.NoTies),
		string(sizes), run.NFGPath, run.TableHash, run.SealedReport, createdAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for i, eq := range run.Equilibria {
		_, err = tx.ExecContext(ctx, `
INSERT INTO equilibria (run_id, idx, probabilities)
VALUES (?, ?, ?)
`, run.ID, i, strings.Join(eq, ","))
		if err != nil {
			return fmt.Errorf("insert equilibrium %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `
    r.id, r.game_name, r.num_players, r.policy, r.all_pay, r.no_ties, r.catalogue_sizes_json,
    r.nfg_path, r.table_hash, r.sealed_report, r.created_at_ms,
    (SELECT COUNT(*) FROM equilibria e WHERE e.run_id = r.id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		allPay      int
		noTies      int
		sizesJSON   string
		createdAtMs int64
	)
	err := row.Scan(&run.ID, &run.GameName, &run.NumPlayers, &run.Policy, &allPay, &noTies, &sizesJSON,
		&run.NFGPath, &run.TableHash, &run.SealedReport, &createdAtMs, &run.EquilibriumCount)
	if err != nil {
		return nil, err
	}
	run.AllPay = allPay != 0
	run.NoTies = noTies != 0
	run.CreatedAt = time.UnixMilli(createdAtMs).UTC()
	if err := json.Unmarshal([]byte(sizesJSON), &run.CatalogueSizes); err != nil {
		return nil, fmt.Errorf("parse catalogue sizes of run %s: %w", run.ID, err)
	}
	return &run, nil
}

// GetRun returns the run with its equilibria.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT`+runColumns+` FROM runs r WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT probabilities FROM equilibria WHERE run_id = ? ORDER BY idx ASC
`, id)
	if err != nil {
		return nil, fmt.Errorf("load equilibria of run %s: %w", id, err)
	}
	defer rows.Close()

	run.Equilibria = make([][]string, 0, run.EquilibriumCount)
	for rows.Next() {
		var probabilities string
		if err := rows.Scan(&probabilities); err != nil {
			return nil, fmt.Errorf("scan equilibrium of run %s: %w", id, err)
		}
		run.Equilibria = append(run.Equilibria, strings.Split(probabilities, ","))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first, without their equilibria.
// limit <= 0 returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT`+runColumns+`
FROM runs r
ORDER BY r.created_at_ms DESC, r.id ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    game_name TEXT NOT NULL,
    num_players INTEGER NOT NULL,
    policy TEXT NOT NULL DEFAULT '',
    all_pay INTEGER NOT NULL DEFAULT 0,
    no_ties INTEGER NOT NULL DEFAULT 0,
    catalogue_sizes_json TEXT NOT NULL DEFAULT '[]',
    nfg_path TEXT NOT NULL DEFAULT '',
    table_hash TEXT NOT NULL DEFAULT '',
    sealed_report TEXT NOT NULL DEFAULT '',
    created_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at_ms DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_game_name ON runs(game_name)`,
		`
CREATE TABLE IF NOT EXISTS equilibria (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    probabilities TEXT NOT NULL,
    PRIMARY KEY (run_id, idx)
)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
