package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// DBManager serialises writes to a single SQLite file.
type DBManager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewDBManager(dbPath string) (*DBManager, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("could not open sqlite3 database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach sqlite3 database %s: %w", dbPath, err)
	}

	logrus.WithField("file", dbPath).Debug("Opening Sqlite3 database.")

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &DBManager{db: db}, nil
}

// ExecuteWrite performs a write operation safely
func (dm *DBManager) ExecuteWrite(ctx context.Context, query string, args ...any) (sql.Result, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	return dm.db.ExecContext(ctx, query, args...)
}

// ExecuteWriteTx performs multiple write operations in a single transaction
func (dm *DBManager) ExecuteWriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	tx, err := dm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (dm *DBManager) Close() error {
	return dm.db.Close()
}
