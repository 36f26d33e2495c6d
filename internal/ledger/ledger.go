package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"tally/internal/convert"
)

var (
	// ErrInconsistent signals that the ledger's reverse index and its primary
	// region disagree. Never repaired automatically: silent repair could mask
	// remote data loss.
	ErrInconsistent = errors.New("ledger cross-reference is inconsistent")
	// ErrLocked is returned when another process holds the ledger.
	ErrLocked = errors.New("ledger is locked by another process")
)

// Ledger is the durable mapping between created remote records and the
// source-record identities that produced them.
//
// It holds two regions kept consistent together: (model, remote id, ref)
// rows recording what was created and why, and a (model, ref) -> remote id
// reverse index used for "already uploaded" lookups. Both are mutated in one
// transaction per change so the file never holds a half-written state.
type Ledger struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Entry is one recorded remote record with its source identities.
type Entry struct {
	RemoteID int64
	Refs     []int64
}

const schema = `
CREATE TABLE IF NOT EXISTS ledger_records (
    model     TEXT    NOT NULL,
    remote_id INTEGER NOT NULL,
    ref       INTEGER NOT NULL,
    PRIMARY KEY (model, remote_id, ref)
);
CREATE TABLE IF NOT EXISTS ledger_refs (
    model     TEXT    NOT NULL,
    ref       INTEGER NOT NULL,
    remote_id INTEGER NOT NULL,
    PRIMARY KEY (model, ref)
);
`

// Open connects to (or creates) the ledger database and takes an exclusive
// lock for the duration of the run.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	// synchronous=FULL makes every commit a durable flush, which is what
	// bounds the damage of an abrupt termination to the in-flight record.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	return &Ledger{db: db, path: path, lock: lock}, nil
}

// Close releases the database connection and the process lock.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	var firstErr error
	if l.db != nil {
		firstErr = l.db.Close()
	}
	if l.lock != nil {
		if err := l.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// MatchRefs resolves each source identity through the reverse index and
// returns the union of the identity sets stored under the resulting remote
// ids. An index entry pointing at a record with no primary rows is an
// ErrInconsistent.
func (l *Ledger) MatchRefs(ctx context.Context, model string, refs convert.RefSet) (convert.RefSet, error) {
	stored := convert.NewRefSet()
	seen := make(map[int64]struct{})
	for _, ref := range refs.Sorted() {
		var remoteID int64
		err := l.db.QueryRowContext(ctx,
			`SELECT remote_id FROM ledger_refs WHERE model = ? AND ref = ?`, model, ref,
		).Scan(&remoteID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup ref %d: %w", ref, err)
		}
		if _, ok := seen[remoteID]; ok {
			continue
		}
		seen[remoteID] = struct{}{}

		recordRefs, err := l.recordRefs(ctx, model, remoteID)
		if err != nil {
			return nil, err
		}
		if len(recordRefs) == 0 {
			return nil, fmt.Errorf("%w: index references %s record %d with no primary entry", ErrInconsistent, model, remoteID)
		}
		stored.Union(convert.NewRefSet(recordRefs...))
	}
	return stored, nil
}

// recordRefs reads the primary-region identity set stored under one remote
// record.
func (l *Ledger) recordRefs(ctx context.Context, model string, remoteID int64) ([]int64, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT ref FROM ledger_records WHERE model = ? AND remote_id = ?`, model, remoteID)
	if err != nil {
		return nil, fmt.Errorf("read refs for %s record %d: %w", model, remoteID, err)
	}
	defer rows.Close()

	var refs []int64
	for rows.Next() {
		var ref int64
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// RemoteIDs maps stored source identities back to their distinct remote ids.
// Every identity passed here must be present in the reverse index; a miss
// means the index diverged from the caller's view of it.
func (l *Ledger) RemoteIDs(ctx context.Context, model string, refs convert.RefSet) ([]int64, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, ref := range refs.Sorted() {
		var remoteID int64
		err := l.db.QueryRowContext(ctx,
			`SELECT remote_id FROM ledger_refs WHERE model = ? AND ref = ?`, model, ref,
		).Scan(&remoteID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: stored ref %d has no index entry for %s", ErrInconsistent, ref, model)
		}
		if err != nil {
			return nil, fmt.Errorf("lookup ref %d: %w", ref, err)
		}
		if _, ok := seen[remoteID]; !ok {
			seen[remoteID] = struct{}{}
			ids = append(ids, remoteID)
		}
	}
	return ids, nil
}

// Record stores a newly created remote record together with its source
// identities, updating both regions in one durable transaction.
func (l *Ledger) Record(ctx context.Context, model string, remoteID int64, refs convert.RefSet) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	for _, ref := range refs.Sorted() {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO ledger_records (model, remote_id, ref) VALUES (?, ?, ?)`,
			model, remoteID, ref,
		); err != nil {
			return fmt.Errorf("record %s %d ref %d: %w", model, remoteID, ref, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_refs (model, ref, remote_id) VALUES (?, ?, ?)
             ON CONFLICT (model, ref) DO UPDATE SET remote_id = excluded.remote_id`,
			model, ref, remoteID,
		); err != nil {
			return fmt.Errorf("index %s ref %d: %w", model, ref, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// Remove drops the given remote records and every reverse-index entry
// pointing at them, in one durable transaction.
func (l *Ledger) Remove(ctx context.Context, model string, remoteIDs []int64) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	for _, id := range remoteIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ledger_records WHERE model = ? AND remote_id = ?`, model, id,
		); err != nil {
			return fmt.Errorf("remove %s record %d: %w", model, id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ledger_refs WHERE model = ? AND remote_id = ?`, model, id,
		); err != nil {
			return fmt.Errorf("remove %s index entries for %d: %w", model, id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// Models returns the distinct remote model names present in the ledger.
func (l *Ledger) Models(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT model FROM ledger_records ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("list ledger models: %w", err)
	}
	defer rows.Close()

	var models []string
	for rows.Next() {
		var model string
		if err := rows.Scan(&model); err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, rows.Err()
}

// Entries returns every recorded remote record for a model with its refs,
// ordered by remote id.
func (l *Ledger) Entries(ctx context.Context, model string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT remote_id, ref FROM ledger_records WHERE model = ? ORDER BY remote_id, ref`, model)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var remoteID, ref int64
		if err := rows.Scan(&remoteID, &ref); err != nil {
			return nil, err
		}
		if len(entries) == 0 || entries[len(entries)-1].RemoteID != remoteID {
			entries = append(entries, Entry{RemoteID: remoteID})
		}
		last := &entries[len(entries)-1]
		last.Refs = append(last.Refs, ref)
	}
	return entries, rows.Err()
}

// Check verifies the two regions against each other in both directions and
// reports the first divergence found. It never repairs.
func (l *Ledger) Check(ctx context.Context) error {
	row := l.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM ledger_refs i
        WHERE NOT EXISTS (
            SELECT 1 FROM ledger_records r
            WHERE r.model = i.model AND r.remote_id = i.remote_id AND r.ref = i.ref
        )`)
	var orphanedIndex int
	if err := row.Scan(&orphanedIndex); err != nil {
		return fmt.Errorf("check reverse index: %w", err)
	}
	if orphanedIndex > 0 {
		return fmt.Errorf("%w: %d index entries without matching records", ErrInconsistent, orphanedIndex)
	}

	row = l.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM ledger_records r
        WHERE NOT EXISTS (
            SELECT 1 FROM ledger_refs i
            WHERE i.model = r.model AND i.ref = r.ref AND i.remote_id = r.remote_id
        )`)
	var unindexed int
	if err := row.Scan(&unindexed); err != nil {
		return fmt.Errorf("check records: %w", err)
	}
	if unindexed > 0 {
		return fmt.Errorf("%w: %d record rows missing from the reverse index", ErrInconsistent, unindexed)
	}
	return nil
}
