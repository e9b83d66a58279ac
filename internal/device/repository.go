package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Repository persists fixture snapshots and their record history.
type Repository interface {
	// Get retrieves a fixture by ID. Returns ErrFixtureNotFound if absent.
	Get(ctx context.Context, id string) (*Fixture, error)

	// List retrieves all fixtures ordered by ID.
	List(ctx context.Context) ([]Fixture, error)

	// Create inserts a new fixture. Returns ErrFixtureExists on duplicate ID.
	Create(ctx context.Context, f *Fixture) error

	// Save overwrites the snapshot fields of an existing fixture.
	// Returns ErrFixtureNotFound if the row is gone.
	Save(ctx context.Context, f *Fixture) error

	// Delete removes a fixture. History rows are kept.
	Delete(ctx context.Context, id string) error

	// AppendRecord stores one entry of a fixture's record stream.
	AppendRecord(ctx context.Context, rec fixture.Record) error

	// History returns the most recent records of a fixture, newest first.
	History(ctx context.Context, id string, limit int) ([]fixture.Record, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const fixtureColumns = `id, name, state, power, switch_intent, linked_switch, grid, x, y, seq, created_at, updated_at`

// Get retrieves a fixture by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Fixture, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fixtureColumns+` FROM fixtures WHERE id = ?`, id)
	f, err := scanFixture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFixtureNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List retrieves all fixtures.
func (r *SQLiteRepository) List(ctx context.Context) ([]Fixture, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fixtureColumns+` FROM fixtures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []Fixture
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixtures: %w", err)
	}
	return fixtures, nil
}

// Create inserts a new fixture and sets its timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, f *Fixture) error {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixtures (`+fixtureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.Name,
		f.State.String(),
		f.Power.String(),
		boolToInt(f.SwitchIntent),
		f.LinkedSwitch,
		f.Position.Grid,
		f.Position.X,
		f.Position.Y,
		int64(f.Seq), //nolint:gosec // sequence numbers stay far below MaxInt64
		f.CreatedAt.Format(time.RFC3339Nano),
		f.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrFixtureExists
		}
		return fmt.Errorf("inserting fixture: %w", err)
	}
	return nil
}

// Save overwrites the snapshot fields of an existing fixture.
func (r *SQLiteRepository) Save(ctx context.Context, f *Fixture) error {
	f.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE fixtures
		 SET name = ?, state = ?, power = ?, switch_intent = ?, linked_switch = ?,
		     grid = ?, x = ?, y = ?, seq = ?, updated_at = ?
		 WHERE id = ?`,
		f.Name,
		f.State.String(),
		f.Power.String(),
		boolToInt(f.SwitchIntent),
		f.LinkedSwitch,
		f.Position.Grid,
		f.Position.X,
		f.Position.Y,
		int64(f.Seq), //nolint:gosec // sequence numbers stay far below MaxInt64
		f.UpdatedAt.Format(time.RFC3339Nano),
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating fixture: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a fixture row.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fixtures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting fixture: %w", err)
	}
	return requireAffected(result)
}

// AppendRecord stores one record. Replayed records (same fixture and seq)
// are ignored.
func (r *SQLiteRepository) AppendRecord(ctx context.Context, rec fixture.Record) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fixture_records (fixture_id, seq, kind, old_state, new_state, power, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.FixtureID,
		int64(rec.Seq), //nolint:gosec // sequence numbers stay far below MaxInt64
		string(rec.Kind),
		rec.Old.String(),
		rec.New.String(),
		rec.Power.String(),
		rec.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting fixture record: %w", err)
	}
	return nil
}

// History returns up to limit records for id, newest first
// (default 50, max 500).
func (r *SQLiteRepository) History(ctx context.Context, id string, limit int) ([]fixture.Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT fixture_id, seq, kind, old_state, new_state, power, at
		 FROM fixture_records
		 WHERE fixture_id = ?
		 ORDER BY seq DESC
		 LIMIT ?`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying fixture records: %w", err)
	}
	defer rows.Close()

	records := make([]fixture.Record, 0, limit)
	for rows.Next() {
		var (
			rec                   fixture.Record
			seq                   int64
			kind, oldS, newS, pwr string
			at                    string
		)
		if err := rows.Scan(&rec.FixtureID, &seq, &kind, &oldS, &newS, &pwr, &at); err != nil {
			return nil, fmt.Errorf("scanning fixture record: %w", err)
		}
		rec.Seq = uint64(seq) //nolint:gosec // stored from uint64
		rec.Kind = fixture.RecordKind(kind)
		if rec.Old, err = fixture.ParseState(oldS); err != nil {
			return nil, err
		}
		if rec.New, err = fixture.ParseState(newS); err != nil {
			return nil, err
		}
		if rec.Power, err = fixture.ParsePowerLevel(pwr); err != nil {
			return nil, err
		}
		if rec.At, err = parseTimestamp(at); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixture records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFixture(row rowScanner) (*Fixture, error) {
	var (
		f                    Fixture
		state, power         string
		switchIntent         int
		seq                  int64
		createdAt, updatedAt string
	)
	err := row.Scan(
		&f.ID, &f.Name, &state, &power, &switchIntent, &f.LinkedSwitch,
		&f.Position.Grid, &f.Position.X, &f.Position.Y, &seq, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning fixture: %w", err)
	}

	if f.State, err = fixture.ParseState(state); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", f.ID, err)
	}
	if f.Power, err = fixture.ParsePowerLevel(power); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", f.ID, err)
	}
	f.SwitchIntent = switchIntent != 0
	f.Seq = uint64(seq) //nolint:gosec // stored from uint64
	if f.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrFixtureNotFound
	}
	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", value, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: fixtures.id")
}
