package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBManager_WriteTxRollsBack(t *testing.T) {
	dm, err := NewDBManager(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer dm.Close()
	ctx := context.Background()

	_, err = dm.ExecuteWrite(ctx, `CREATE TABLE items (name TEXT NOT NULL)`)
	require.NoError(t, err)

	err = dm.ExecuteWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items (name) VALUES ('kept')`); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)

	err = dm.ExecuteWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items (name) VALUES ('dropped')`); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.Error(t, err)

	rows, err := dm.db.QueryContext(ctx, `SELECT name FROM items`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	assert.Equal(t, []string{"kept"}, names)
}
