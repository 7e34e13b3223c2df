package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/database"
	"github.com/MuchTitan/go-log-transport/internal/transport"
	"github.com/sirupsen/logrus"
)

// MaxPending bounds the entries buffered between two flushes.
const MaxPending = 10000

// Entry is one row of the delivery journal.
type Entry struct {
	Time    time.Time
	Target  string
	Path    string
	Bytes   int
	Outcome transport.Outcome
	Error   string
}

type Repository interface {
	CreateTables(ctx context.Context) error
	Record(ctx context.Context, entries ...Entry) error
	CleanupOldEntries(ctx context.Context, thresholdDays int) (int64, error)
	Close() error
}

type SQLiteRepository struct {
	db *database.DBManager
}

func NewSQLiteRepository(dbFile string) (*SQLiteRepository, error) {
	dbManager, err := database.NewDBManager(dbFile)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: dbManager}, nil
}

func (r *SQLiteRepository) CreateTables(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS deliveries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        created_at INTEGER NOT NULL,
        target TEXT NOT NULL,
        path TEXT NOT NULL,
        bytes INTEGER NOT NULL,
        outcome TEXT NOT NULL,
        error TEXT NOT NULL DEFAULT ''
    )`
	if _, err := r.db.ExecuteWrite(ctx, query); err != nil {
		return fmt.Errorf("could not create db table deliveries: %w", err)
	}
	if _, err := r.db.ExecuteWrite(ctx, `CREATE INDEX IF NOT EXISTS deliveries_created_at ON deliveries (created_at)`); err != nil {
		return fmt.Errorf("could not create deliveries index: %w", err)
	}
	return nil
}

// Record inserts all entries in one transaction.
func (r *SQLiteRepository) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
        INSERT INTO deliveries
        (created_at, target, path, bytes, outcome, error)
        VALUES ($1, $2, $3, $4, $5, $6)`

	return r.db.ExecuteWriteTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx,
				e.Time.UnixMilli(),
				e.Target,
				e.Path,
				e.Bytes,
				string(e.Outcome),
				e.Error,
			); err != nil {
				return fmt.Errorf("could not insert delivery of %s: %w", e.Target, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) CleanupOldEntries(ctx context.Context, thresholdDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -thresholdDays).UnixMilli()
	res, err := r.db.ExecuteWrite(ctx, "DELETE FROM deliveries WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Journal buffers delivery attempts in memory and writes them to a
// Repository on Flush. Skipped attempts are not recorded.
type Journal struct {
	repo Repository

	mu      sync.Mutex
	pending []Entry
}

func NewJournal(repo Repository) *Journal {
	return &Journal{repo: repo}
}

func (j *Journal) Observe(d transport.Delivery) {
	if d.Outcome == transport.OutcomeSkipped {
		return
	}
	entry := Entry{
		Time:    d.Time,
		Target:  d.Target,
		Path:    d.Path,
		Bytes:   d.Bytes,
		Outcome: d.Outcome,
	}
	if d.Err != nil {
		entry.Error = d.Err.Error()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = append(j.pending, entry)
	j.trimLocked()
}

// trimLocked drops the oldest entries beyond MaxPending.
func (j *Journal) trimLocked() {
	over := len(j.pending) - MaxPending
	if over <= 0 {
		return
	}
	j.pending = j.pending[over:]
	logrus.WithField("dropped", over).Warn("delivery history buffer full, dropping oldest entries")
}

// Flush writes the buffered entries and returns how many were written. On
// error the entries stay buffered for the next flush.
func (j *Journal) Flush(ctx context.Context) (int, error) {
	j.mu.Lock()
	batch := j.pending
	j.pending = nil
	j.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	if err := j.repo.Record(ctx, batch...); err != nil {
		j.mu.Lock()
		j.pending = append(batch, j.pending...)
		j.trimLocked()
		j.mu.Unlock()
		return 0, err
	}
	return len(batch), nil
}

// Maintain flushes the buffer and removes entries older than retentionDays.
// It runs outside the transport cycle.
func (j *Journal) Maintain(ctx context.Context, retentionDays int) {
	written, err := j.Flush(ctx)
	if err != nil {
		logrus.WithError(err).Warn("could not record deliveries")
	} else if written > 0 {
		logrus.Debugf("recorded %d deliveries", written)
	}

	deletedCount, err := j.repo.CleanupOldEntries(ctx, retentionDays)
	if err != nil {
		logrus.WithError(err).Error("could not clean up delivery history")
		return
	}
	if deletedCount > 0 {
		logrus.Debugf("cleaned %d old entries in deliveries db", deletedCount)
	}
}
