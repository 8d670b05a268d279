package migrations

import (
	"database/sql"
)

// GetPerformanceMigrations returns performance optimization migrations
func GetPerformanceMigrations() []Migration {
	return []Migration{
		{
			Version: 10,
			Name:    "add_performance_indices",
			Up: func(tx *sql.Tx) error {
				// Counter recomputation and the deletion guard join through these columns
				return execAll(tx,
					"CREATE INDEX IF NOT EXISTS idx_nics_domain_primary ON nics(domain_id, is_primary)",
					"CREATE INDEX IF NOT EXISTS idx_nics_host_id ON nics(host_id)",
					"CREATE INDEX IF NOT EXISTS idx_hosts_location_id ON hosts(location_id)",
					"CREATE INDEX IF NOT EXISTS idx_hostgroups_domain_id ON hostgroups(domain_id)",
					"CREATE INDEX IF NOT EXISTS idx_subnet_domains_domain_id ON subnet_domains(domain_id)",
					"CREATE INDEX IF NOT EXISTS idx_domain_locations_location_id ON domain_locations(location_id)",
				)
			},
			Down: func(tx *sql.Tx) error {
				return execAll(tx,
					"DROP INDEX IF EXISTS idx_nics_domain_primary",
					"DROP INDEX IF EXISTS idx_nics_host_id",
					"DROP INDEX IF EXISTS idx_hosts_location_id",
					"DROP INDEX IF EXISTS idx_hostgroups_domain_id",
					"DROP INDEX IF EXISTS idx_subnet_domains_domain_id",
					"DROP INDEX IF EXISTS idx_domain_locations_location_id",
				)
			},
		},
	}
}
