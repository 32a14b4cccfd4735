// Package store persists per-grid-point hourly time series in a local
// SQLite file, keyed by the A<id> series key, a field name, and the year.
// Series are write-once: the upstream physical-model step produces them,
// the aggregation step only reads.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/reegis/coastdat-cli/internal/model"
	"github.com/reegis/coastdat-cli/internal/series"
)

// ErrSeriesNotFound is returned when no series exists for a key/field/year.
var ErrSeriesNotFound = eris.New("store: series not found")

// ErrDuplicateSeries is returned when a write-once key is written twice.
var ErrDuplicateSeries = eris.New("store: series already exists")

// Store is a SQLite-backed per-grid-point series store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at the given path and configures WAL.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "store: create directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS series (
	key        TEXT    NOT NULL,
	field      TEXT    NOT NULL,
	year       INTEGER NOT NULL,
	data       BLOB    NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (key, field, year)
);

CREATE INDEX IF NOT EXISTS idx_series_year_field ON series(year, field);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutSeries stores one series. The key is validated at the store boundary;
// writing an existing (key, field, year) is an error.
func (s *Store) PutSeries(ctx context.Context, key model.SeriesKey, field string, sr *series.Series) error {
	if _, err := model.DecodeSeriesKey(key); err != nil {
		return err
	}
	if field == "" {
		return eris.New("store: empty field")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO series (key, field, year, data) VALUES (?, ?, ?, ?)`,
		string(key), field, sr.Year, packValues(sr.Values),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return eris.Wrapf(ErrDuplicateSeries, "%s/%s/%d", key, field, sr.Year)
		}
		return eris.Wrapf(err, "store: insert %s/%s/%d", key, field, sr.Year)
	}
	return nil
}

// GetSeries reads one series.
func (s *Store) GetSeries(ctx context.Context, key model.SeriesKey, field string, year int) (*series.Series, error) {
	if _, err := model.DecodeSeriesKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM series WHERE key = ? AND field = ? AND year = ?`,
		string(key), field, year,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrSeriesNotFound, "%s/%s/%d", key, field, year)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get %s/%s/%d", key, field, year)
	}

	return &series.Series{Year: year, Values: unpackValues(data)}, nil
}

// HasSeries reports whether a series exists.
func (s *Store) HasSeries(ctx context.Context, key model.SeriesKey, field string, year int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM series WHERE key = ? AND field = ? AND year = ?`,
		string(key), field, year,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "store: has series")
	}
	return n > 0, nil
}

// Keys returns the distinct series keys stored for a year, sorted.
func (s *Store) Keys(ctx context.Context, year int) ([]model.SeriesKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT key FROM series WHERE year = ? ORDER BY key`, year)
	if err != nil {
		return nil, eris.Wrap(err, "store: list keys")
	}
	defer rows.Close() //nolint:errcheck

	var keys []model.SeriesKey
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "store: scan key")
		}
		keys = append(keys, model.SeriesKey(k))
	}
	return keys, eris.Wrap(rows.Err(), "store: iterate keys")
}

// Fields returns the distinct field names stored for a year, sorted.
func (s *Store) Fields(ctx context.Context, year int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT field FROM series WHERE year = ? ORDER BY field`, year)
	if err != nil {
		return nil, eris.Wrap(err, "store: list fields")
	}
	defer rows.Close() //nolint:errcheck

	var fields []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, eris.Wrap(err, "store: scan field")
		}
		fields = append(fields, f)
	}
	return fields, eris.Wrap(rows.Err(), "store: iterate fields")
}

// SnapshotKeys writes the full key list for a year to a CSV file, the
// on-disk raw-key snapshot reused by later invocations. An existing
// non-empty snapshot is left untouched.
func (s *Store) SnapshotKeys(ctx context.Context, year int, path string) error {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return nil
	}

	keys, err := s.Keys(ctx, year)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "store: create snapshot dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "store: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"key"}); err != nil {
		return eris.Wrap(err, "store: write snapshot header")
	}
	for _, k := range keys {
		if err := w.Write([]string{string(k)}); err != nil {
			return eris.Wrap(err, "store: write snapshot row")
		}
	}
	w.Flush()
	return eris.Wrapf(w.Error(), "store: flush %s", path)
}

// packValues encodes float64 values as a little-endian blob.
func packValues(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func unpackValues(data []byte) []float64 {
	values := make([]float64, len(data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return values
}
