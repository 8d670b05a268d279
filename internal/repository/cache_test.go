package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
	"github.com/jbweber/homelab/hostdb/internal/testutil"
)

func TestPreparedStatementCache(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestPreparedStatementCache")
	defer cleanup()

	cache := NewPreparedStatementCache(db)
	defer cache.Close()

	const query = "SELECT COUNT(*) FROM domains"
	first, err := cache.Get(query)
	require.NoError(t, err)
	second, err := cache.Get(query)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Size())

	require.NoError(t, cache.Prepare(query, "SELECT COUNT(*) FROM hosts"))
	assert.Equal(t, 2, cache.Size())

	// The driver compiles statements on first use
	bad, err := cache.Get("SELECT nope FROM")
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Size())
	_, err = bad.QueryContext(context.Background())
	assert.Error(t, err)
	_, err = bad.ExecContext(context.Background())
	assert.Error(t, err)

	require.NoError(t, cache.Close())
	assert.Zero(t, cache.Size())
}

func TestPreparedStatementCache_InTx(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestPreparedStatementCache_InTx")
	defer cleanup()

	cache := NewPreparedStatementCache(db)
	defer cache.Close()

	ctx := context.Background()
	err := datastore.WithTx(ctx, db, func(tx *sql.Tx) error {
		stmt, err := cache.InTx(ctx, tx, "INSERT INTO locations (name) VALUES (?)")
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, "lab")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPreparedStatementCache_InTxBadQuery(t *testing.T) {
	db, cleanup := testutil.SetupTestDBWithMigrations(t, "TestPreparedStatementCache_InTxBadQuery")
	defer cleanup()

	cache := NewPreparedStatementCache(db)
	defer cache.Close()

	ctx := context.Background()
	err := datastore.WithTx(ctx, db, func(tx *sql.Tx) error {
		stmt, err := cache.InTx(ctx, tx, "UPDATE nowhere SET x = ?")
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, 1)
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}
