package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// HostRepository defines domain-specific operations for hosts
type HostRepository interface {
	Repository[domain.Host, int64]
	FindByName(ctx context.Context, name string) (domain.Host, error)
	FindByDomainID(ctx context.Context, domainID int64) ([]domain.Host, error)
}

const selectHostSQL = `
	SELECT h.id, h.name, h.location_id, h.hostgroup_id, n.ip, n.domain_id
	FROM hosts h
	LEFT JOIN nics n ON n.host_id = h.id AND n.is_primary = 1`

// hostRepositoryImpl implements HostRepository
type hostRepositoryImpl struct {
	db       *sql.DB
	counters *Counters
}

// NewHostRepository creates a new host repository
func NewHostRepository(db *sql.DB, counters *Counters) HostRepository {
	return &hostRepositoryImpl{
		db:       db,
		counters: counters,
	}
}

// Save creates or updates a host together with its primary interface.
// Moving the primary interface between domains moves the host between
// the domains' total_hosts.
func (r *hostRepositoryImpl) Save(ctx context.Context, host domain.Host) (domain.Host, error) {
	host.Name = strings.TrimSpace(host.Name)

	var saved domain.Host
	err := datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.validate(ctx, tx, host); err != nil {
			return err
		}

		var err error
		if host.ID == 0 {
			err = r.createHost(ctx, tx, &host)
		} else {
			err = r.updateHost(ctx, tx, host)
		}
		if err != nil {
			return err
		}

		saved, err = findHost(ctx, tx, "WHERE h.id = ?", host.ID)
		return err
	})
	if err != nil {
		return domain.Host{}, err
	}
	return saved, nil
}

func (r *hostRepositoryImpl) validate(ctx context.Context, q queryer, host domain.Host) error {
	errs := newValidationErrors("host")

	if host.Name == "" {
		errs.Add("name", PresenceMissing, "can't be blank")
	} else if err := checkUnique(ctx, q, errs, "hosts", "name", host.Name, host.ID); err != nil {
		return err
	}

	refs := []struct {
		table, field string
		id           *int64
	}{
		{"domains", "domain_id", host.DomainID},
		{"locations", "location_id", host.LocationID},
		{"hostgroups", "hostgroup_id", host.HostgroupID},
	}
	for _, ref := range refs {
		if err := checkReference(ctx, q, errs, ref.table, ref.field, ref.id); err != nil {
			return err
		}
	}

	return errs.err()
}

// createHost inserts the host and its primary interface
func (r *hostRepositoryImpl) createHost(ctx context.Context, tx *sql.Tx, host *domain.Host) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO hosts (name, location_id, hostgroup_id) VALUES (?, ?, ?)",
		host.Name, nullInt64(host.LocationID), nullInt64(host.HostgroupID))
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueViolation("host", err)
		}
		return fmt.Errorf("failed to create host: %w", err)
	}
	if host.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get host ID: %w", err)
	}

	return r.insertPrimaryInterface(ctx, tx, *host)
}

// updateHost updates the host row and moves its primary interface
func (r *hostRepositoryImpl) updateHost(ctx context.Context, tx *sql.Tx, host domain.Host) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE hosts SET name = ?, location_id = ?, hostgroup_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		host.Name, nullInt64(host.LocationID), nullInt64(host.HostgroupID), host.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueViolation("host", err)
		}
		return fmt.Errorf("failed to update host: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("host with ID %d: %w", host.ID, ErrNotFound)
	}

	var nicID int64
	var oldDomainID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT id, domain_id FROM nics WHERE host_id = ? AND is_primary = 1", host.ID).
		Scan(&nicID, &oldDomainID)
	if err == sql.ErrNoRows {
		// The primary flag was moved off every interface
		if host.DomainID == nil && host.IP == "" {
			return nil
		}
		return r.insertPrimaryInterface(ctx, tx, host)
	}
	if err != nil {
		return fmt.Errorf("failed to find primary interface: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE nics SET domain_id = ?, ip = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		nullInt64(host.DomainID), host.IP, nicID); err != nil {
		return fmt.Errorf("failed to update primary interface: %w", err)
	}

	return r.counters.PrimaryLinkChanged(ctx, tx,
		PrimaryLink{DomainID: int64Ptr(oldDomainID), Primary: true},
		PrimaryLink{DomainID: host.DomainID, Primary: true})
}

func (r *hostRepositoryImpl) insertPrimaryInterface(ctx context.Context, tx *sql.Tx, host domain.Host) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO nics (host_id, name, ip, domain_id, is_primary) VALUES (?, ?, ?, ?, 1)",
		host.ID, host.Name, host.IP, nullInt64(host.DomainID)); err != nil {
		return fmt.Errorf("failed to create primary interface: %w", err)
	}
	return r.counters.PrimaryLinkChanged(ctx, tx,
		PrimaryLink{},
		PrimaryLink{DomainID: host.DomainID, Primary: true})
}

// FindByID retrieves a host by its ID
func (r *hostRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Host, error) {
	return findHost(ctx, r.db, "WHERE h.id = ?", id)
}

// FindByName retrieves a host by its name
func (r *hostRepositoryImpl) FindByName(ctx context.Context, name string) (domain.Host, error) {
	return findHost(ctx, r.db, "WHERE h.name = ?", name)
}

// FindAll retrieves all hosts ordered by name
func (r *hostRepositoryImpl) FindAll(ctx context.Context) ([]domain.Host, error) {
	return r.findHosts(ctx, selectHostSQL+" ORDER BY h.name")
}

// FindByDomainID retrieves the hosts whose primary interface is in the domain
func (r *hostRepositoryImpl) FindByDomainID(ctx context.Context, domainID int64) ([]domain.Host, error) {
	return r.findHosts(ctx, selectHostSQL+" WHERE n.domain_id = ? ORDER BY h.name", domainID)
}

func (r *hostRepositoryImpl) findHosts(ctx context.Context, query string, args ...any) (_ []domain.Host, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find hosts: %w", err)
	}
	defer closeRows(rows, &err)

	hosts := []domain.Host{}
	for rows.Next() {
		host, err := scanHost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hosts: %w", err)
	}

	return hosts, nil
}

// DeleteByID deletes a host and its interfaces
func (r *hostRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	return datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		host, err := findHost(ctx, tx, "WHERE h.id = ?", id)
		if err != nil {
			return err
		}

		var hasPrimary bool
		if hasPrimary, err = exists(ctx, tx, "SELECT COUNT(*) FROM nics WHERE host_id = ? AND is_primary = 1", id); err != nil {
			return fmt.Errorf("failed to find primary interface: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM nics WHERE host_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete host interfaces: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM hosts WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete host: %w", err)
		}

		return r.counters.PrimaryLinkChanged(ctx, tx,
			PrimaryLink{DomainID: host.DomainID, Primary: hasPrimary},
			PrimaryLink{})
	})
}

// ExistsByID checks if a host exists by its ID
func (r *hostRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	found, err := exists(ctx, r.db, "SELECT COUNT(*) FROM hosts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to check host existence: %w", err)
	}
	return found, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHost(s rowScanner) (domain.Host, error) {
	var host domain.Host
	var locationID, hostgroupID, domainID sql.NullInt64
	var ip sql.NullString
	if err := s.Scan(&host.ID, &host.Name, &locationID, &hostgroupID, &ip, &domainID); err != nil {
		return domain.Host{}, err
	}
	host.LocationID = int64Ptr(locationID)
	host.HostgroupID = int64Ptr(hostgroupID)
	host.DomainID = int64Ptr(domainID)
	host.IP = ip.String
	return host, nil
}

// findHost loads one host matching where
func findHost(ctx context.Context, q queryer, where string, arg any) (domain.Host, error) {
	host, err := scanHost(q.QueryRowContext(ctx, selectHostSQL+" "+where, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Host{}, fmt.Errorf("host %v: %w", arg, ErrNotFound)
		}
		return domain.Host{}, fmt.Errorf("failed to find host: %w", err)
	}
	return host, nil
}
