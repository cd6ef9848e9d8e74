// Package corpus stores recorded traces so a benchmark workload can
// be captured once and replayed deterministically across many runs
// and platforms, per spec.md §6's determinism requirement. This is
// corpus storage, not RangeTracker state persistence: a tracker is
// still built empty in memory and replayed into on every run.
package corpus

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gaby/rangetracker/internal/tracefmt"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the corpus database at path,
// following the same WAL + busy_timeout pragma convention the
// teacher's job store uses for concurrent-reader safety.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("corpus: mkdir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("corpus: open: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(4)

	s := &Store{db: sqlDB}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS traces (
		name TEXT PRIMARY KEY,
		op_count INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("corpus: migrate: %w", err)
	}
	return nil
}

// SaveTrace stores ops under name, overwriting any prior trace with
// that name.
func (s *Store) SaveTrace(name string, ops []tracefmt.Op) error {
	var buf bytes.Buffer
	if err := tracefmt.WriteBinary(&buf, ops); err != nil {
		return fmt.Errorf("corpus: encode trace %q: %w", name, err)
	}
	_, err := s.db.Exec(
		`INSERT INTO traces(name, op_count, recorded_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET op_count=excluded.op_count, recorded_at=excluded.recorded_at, payload=excluded.payload`,
		name, len(ops), time.Now().Unix(), buf.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("corpus: save trace %q: %w", name, err)
	}
	return nil
}

// LoadTrace retrieves a previously-saved trace by name.
func (s *Store) LoadTrace(name string) ([]tracefmt.Op, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM traces WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("corpus: no trace named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("corpus: load trace %q: %w", name, err)
	}
	ops, err := tracefmt.ReadBinary(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("corpus: decode trace %q: %w", name, err)
	}
	return ops, nil
}

// ListTraces returns the names of every stored trace, most recently
// recorded first.
func (s *Store) ListTraces() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM traces ORDER BY recorded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("corpus: list traces: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("corpus: scan trace name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
