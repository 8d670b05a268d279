package migrations

import (
	"database/sql"
)

// GetInitialMigrations returns all initial migrations
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_domains_and_locations",
			Up: func(tx *sql.Tx) error {
				return execAll(tx,
					`CREATE TABLE locations (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE TABLE domains (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						fullname TEXT UNIQUE,
						total_hosts INTEGER NOT NULL DEFAULT 0,
						hostgroups_count INTEGER NOT NULL DEFAULT 0,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE TABLE domain_locations (
						domain_id INTEGER NOT NULL,
						location_id INTEGER NOT NULL,
						PRIMARY KEY (domain_id, location_id),
						FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE CASCADE,
						FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE CASCADE
					)`,
				)
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx,
					`DROP TABLE IF EXISTS domain_locations`,
					`DROP TABLE IF EXISTS domains`,
					`DROP TABLE IF EXISTS locations`,
				)
			},
		},
		{
			Version: 2,
			Name:    "create_subnets",
			Up: func(tx *sql.Tx) error {
				return execAll(tx,
					`CREATE TABLE subnets (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						network TEXT NOT NULL,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE TABLE subnet_domains (
						subnet_id INTEGER NOT NULL,
						domain_id INTEGER NOT NULL,
						PRIMARY KEY (subnet_id, domain_id),
						FOREIGN KEY (subnet_id) REFERENCES subnets(id) ON DELETE CASCADE,
						FOREIGN KEY (domain_id) REFERENCES domains(id)
					)`,
				)
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx,
					`DROP TABLE IF EXISTS subnet_domains`,
					`DROP TABLE IF EXISTS subnets`,
				)
			},
		},
		{
			Version: 3,
			Name:    "create_hosts_and_interfaces",
			Up: func(tx *sql.Tx) error {
				return execAll(tx,
					`CREATE TABLE hostgroups (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						domain_id INTEGER,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE SET NULL
					)`,
					`CREATE TABLE hosts (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL UNIQUE,
						location_id INTEGER,
						hostgroup_id INTEGER,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (location_id) REFERENCES locations(id) ON DELETE SET NULL,
						FOREIGN KEY (hostgroup_id) REFERENCES hostgroups(id) ON DELETE SET NULL
					)`,
					`CREATE TABLE nics (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						host_id INTEGER NOT NULL,
						name TEXT NOT NULL DEFAULT '',
						ip TEXT NOT NULL DEFAULT '',
						mac TEXT NOT NULL DEFAULT '',
						domain_id INTEGER,
						is_primary INTEGER NOT NULL DEFAULT 0,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						FOREIGN KEY (host_id) REFERENCES hosts(id) ON DELETE CASCADE,
						FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE SET NULL
					)`,
					`CREATE UNIQUE INDEX idx_nics_one_primary ON nics(host_id) WHERE is_primary = 1`,
				)
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx,
					`DROP INDEX IF EXISTS idx_nics_one_primary`,
					`DROP TABLE IF EXISTS nics`,
					`DROP TABLE IF EXISTS hosts`,
					`DROP TABLE IF EXISTS hostgroups`,
				)
			},
		},
	}
}

// execAll runs each statement in order, stopping at the first failure
func execAll(tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
