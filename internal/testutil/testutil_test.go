package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	db, cleanup := SetupTestDB(t, "TestSetupTestDB")
	defer cleanup()

	require.NotNil(t, db)
	require.NoError(t, db.Ping())

	var result string
	require.NoError(t, db.QueryRow("SELECT 'test'").Scan(&result))
	assert.Equal(t, "test", result)
}

func TestSetupTestDBWithMigrations(t *testing.T) {
	db, cleanup := SetupTestDBWithMigrations(t, "TestSetupTestDBWithMigrations")
	defer cleanup()

	tables := []string{"schema_migrations", "domains", "locations", "subnets", "hostgroups", "hosts", "nics"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "expected table %s to exist", table)
	}
}

func TestCleanupTestDB(t *testing.T) {
	assert.NoError(t, CleanupTestDB(NewTestDSN("test-cleanup")))
	assert.NoError(t, CleanupTestDB("file:does-not-exist.db"))
	assert.Error(t, CleanupTestDB("invalid-dsn"))
}

func TestCleanupTestDB_IdempotentCalls(t *testing.T) {
	dsn := NewTestDSN("test-idempotent")

	assert.NoError(t, CleanupTestDB(dsn))
	assert.NoError(t, CleanupTestDB(dsn))
	assert.NoError(t, CleanupTestDB(dsn))
}

func TestSetupTestDB_MultipleInstances(t *testing.T) {
	db1, cleanup1 := SetupTestDB(t, "TestSetupTestDB_MultipleInstances_1")
	defer cleanup1()

	db2, cleanup2 := SetupTestDB(t, "TestSetupTestDB_MultipleInstances_2")
	defer cleanup2()

	assert.NoError(t, db1.Ping())
	assert.NoError(t, db2.Ping())
	assert.NotSame(t, db1, db2)
}

func TestLoadFixtures(t *testing.T) {
	db, cleanup := SetupTestDBWithMigrations(t, "TestLoadFixtures")
	defer cleanup()

	f := LoadFixtures(t, db)

	mydomain := f.Domains["mydomain"]
	assert.Equal(t, "mydomain.net", mydomain.Name)
	assert.Equal(t, int64(1), mydomain.HostgroupsCount)
	assert.Equal(t, int64(0), mydomain.TotalHosts)
	assert.Equal(t, int64(0), f.Domains["yourdomain"].HostgroupsCount)

	assert.Equal(t, []int64{mydomain.ID}, f.Subnets["one"].DomainIDs)
	require.NotNil(t, f.Hostgroups["common"].DomainID)
	assert.Equal(t, mydomain.ID, *f.Hostgroups["common"].DomainID)
	assert.Nil(t, f.Hostgroups["db"].DomainID)

	var locationID int64
	err := db.QueryRow("SELECT location_id FROM domain_locations WHERE domain_id = ?", mydomain.ID).Scan(&locationID)
	require.NoError(t, err)
	assert.Equal(t, f.Locations["location1"].ID, locationID)
}
