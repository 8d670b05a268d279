package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

// testDSN returns a unique in-memory SQLite DSN for each test.
// This ensures tests do not share state and remain independent.
func testDSN(testID string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", testID)
}

func TestNew_InMemory(t *testing.T) {
	ds, err := New(testDSN("TestNew_InMemory"))
	if err != nil {
		t.Fatalf("failed to create datastore: %v", err)
	}
	defer ds.Close()

	if ds.DB == nil {
		t.Fatal("expected DB to be initialized")
	}

	for _, query := range []string{
		"SELECT id, name, fullname, total_hosts, hostgroups_count FROM domains",
		"SELECT id, host_id, domain_id, is_primary FROM nics",
		"SELECT id, name, domain_id FROM hostgroups",
	} {
		rows, err := ds.DB.Query(query)
		if err != nil {
			t.Fatalf("query %q failed: %v", query, err)
		}
		rows.Close()
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	ds, err := New(testDSN("TestNew_ForeignKeysEnabled"))
	if err != nil {
		t.Fatalf("failed to create datastore: %v", err)
	}
	defer ds.Close()

	var enabled bool
	if err := ds.DB.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("failed to read foreign_keys pragma: %v", err)
	}
	if !enabled {
		t.Error("expected foreign keys to be enabled")
	}
}

func TestWithTx_Commit(t *testing.T) {
	ds, err := New(testDSN("TestWithTx_Commit"))
	if err != nil {
		t.Fatalf("failed to create datastore: %v", err)
	}
	defer ds.Close()

	err = WithTx(context.Background(), ds.DB, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO domains (name) VALUES (?)", "committed.net")
		return err
	})
	if err != nil {
		t.Fatalf("expected commit, got %v", err)
	}

	var count int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM domains WHERE name = ?", "committed.net").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 committed row, got %d", count)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ds, err := New(testDSN("TestWithTx_RollbackOnError"))
	if err != nil {
		t.Fatalf("failed to create datastore: %v", err)
	}
	defer ds.Close()

	boom := errors.New("boom")
	err = WithTx(context.Background(), ds.DB, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO domains (name) VALUES (?)", "rolledback.net"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM domains WHERE name = ?", "rolledback.net").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback, found %d rows", count)
	}
}
