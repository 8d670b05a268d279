package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// DomainRepository defines domain-specific operations for DNS domains
type DomainRepository interface {
	Repository[domain.Domain, int64]
	FindByName(ctx context.Context, name string) (domain.Domain, error)

	// ResetCounters recomputes total_hosts and hostgroups_count from source rows
	ResetCounters(ctx context.Context, id int64) (domain.Domain, error)

	// AssignLocations replaces the explicitly selected locations of a domain
	AssignLocations(ctx context.Context, domainID int64, locationIDs []int64) error
	SelectedLocationIDs(ctx context.Context, domainID int64) ([]int64, error)
	// UsedLocationIDs returns the locations of hosts in the domain
	UsedLocationIDs(ctx context.Context, domainID int64) ([]int64, error)
	UsedOrSelectedLocationIDs(ctx context.Context, domainID int64) ([]int64, error)

	// AssignSubnets replaces the subnets serving a domain
	AssignSubnets(ctx context.Context, domainID int64, subnetIDs []int64) error
	SubnetIDs(ctx context.Context, domainID int64) ([]int64, error)
}

const selectDomainSQL = `
	SELECT id, name, COALESCE(fullname, ''), total_hosts, hostgroups_count
	FROM domains`

// hostsInDomainSQL joins hosts to the domain of their primary interface
const hostsInDomainSQL = `
	FROM hosts h
	JOIN nics n ON n.host_id = h.id AND n.is_primary = 1
	WHERE n.domain_id = ?`

// domainRepositoryImpl implements DomainRepository
type domainRepositoryImpl struct {
	db       *sql.DB
	counters *Counters
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *sql.DB, counters *Counters) DomainRepository {
	return &domainRepositoryImpl{
		db:       db,
		counters: counters,
	}
}

// Save validates, normalizes and creates or updates a domain. The
// counters are owned by Counters and are never written from d.
func (r *domainRepositoryImpl) Save(ctx context.Context, d domain.Domain) (domain.Domain, error) {
	d.Name = domain.NormalizeName(d.Name)
	d.Fullname = strings.TrimSpace(d.Fullname)

	var saved domain.Domain
	err := datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.validate(ctx, tx, d); err != nil {
			return err
		}

		if d.ID == 0 {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO domains (name, fullname) VALUES (?, ?)",
				d.Name, nullString(d.Fullname))
			if err != nil {
				if isUniqueViolation(err) {
					return uniqueViolation("domain", err)
				}
				return fmt.Errorf("failed to create domain: %w", err)
			}
			if d.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get domain ID: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx,
				"UPDATE domains SET name = ?, fullname = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
				d.Name, nullString(d.Fullname), d.ID)
			if err != nil {
				if isUniqueViolation(err) {
					return uniqueViolation("domain", err)
				}
				return fmt.Errorf("failed to update domain: %w", err)
			}
			if err := requireAffected(res, d.ID); err != nil {
				return err
			}
		}

		var err error
		saved, err = findDomain(ctx, tx, "WHERE id = ?", d.ID)
		return err
	})
	if err != nil {
		return domain.Domain{}, err
	}
	return saved, nil
}

// validate checks presence and uniqueness of name and fullname
func (r *domainRepositoryImpl) validate(ctx context.Context, q queryer, d domain.Domain) error {
	errs := newValidationErrors("domain")

	if d.Name == "" {
		errs.Add("name", PresenceMissing, "can't be blank")
	} else if err := checkUnique(ctx, q, errs, "domains", "name", d.Name, d.ID); err != nil {
		return err
	}

	if d.Fullname != "" {
		if err := checkUnique(ctx, q, errs, "domains", "fullname", d.Fullname, d.ID); err != nil {
			return err
		}
	}

	return errs.err()
}

// FindByID retrieves a domain by its ID
func (r *domainRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Domain, error) {
	return findDomain(ctx, r.db, "WHERE id = ?", id)
}

// FindByName retrieves a domain by its normalized name
func (r *domainRepositoryImpl) FindByName(ctx context.Context, name string) (domain.Domain, error) {
	return findDomain(ctx, r.db, "WHERE name = ?", domain.NormalizeName(name))
}

// FindAll retrieves all domains ordered by name
func (r *domainRepositoryImpl) FindAll(ctx context.Context) (_ []domain.Domain, err error) {
	rows, err := r.db.QueryContext(ctx, selectDomainSQL+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to find domains: %w", err)
	}
	defer closeRows(rows, &err)

	domains := []domain.Domain{}
	for rows.Next() {
		var d domain.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.Fullname, &d.TotalHosts, &d.HostgroupsCount); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}

	return domains, nil
}

// DeleteByID deletes a domain unless hosts or subnets still use it.
// Hostgroups and non-primary interfaces pointing at it are detached.
func (r *domainRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	return datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		d, err := findDomain(ctx, tx, "WHERE id = ?", id)
		if err != nil {
			return err
		}

		if err := r.ensureNotUsed(ctx, tx, d); err != nil {
			return err
		}

		detach := []string{
			"UPDATE hostgroups SET domain_id = NULL WHERE domain_id = ?",
			"UPDATE nics SET domain_id = NULL WHERE domain_id = ?",
			"DELETE FROM domain_locations WHERE domain_id = ?",
		}
		for _, query := range detach {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to detach domain: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM domains WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete domain: %w", err)
		}
		return nil
	})
}

// ensureNotUsed reports one "is used by" error per referencing host or subnet
func (r *domainRepositoryImpl) ensureNotUsed(ctx context.Context, q queryer, d domain.Domain) error {
	errs := newValidationErrors("domain")

	hosts, err := queryStrings(ctx, q, "SELECT h.name"+hostsInDomainSQL+" ORDER BY h.name", d.ID)
	if err != nil {
		return fmt.Errorf("failed to find hosts using domain: %w", err)
	}
	subnets, err := queryStrings(ctx, q, `
		SELECT s.name FROM subnets s
		JOIN subnet_domains sd ON sd.subnet_id = s.id
		WHERE sd.domain_id = ? ORDER BY s.name`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to find subnets using domain: %w", err)
	}

	for _, what := range append(hosts, subnets...) {
		errs.Add("", InUse, fmt.Sprintf("%s is used by %s", d, what))
	}
	return errs.err()
}

// ExistsByID checks if a domain exists by its ID
func (r *domainRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	found, err := exists(ctx, r.db, "SELECT COUNT(*) FROM domains WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to check domain existence: %w", err)
	}
	return found, nil
}

// ResetCounters recomputes the denormalized counters of a domain
func (r *domainRepositoryImpl) ResetCounters(ctx context.Context, id int64) (domain.Domain, error) {
	var reset domain.Domain
	err := datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.counters.Reset(ctx, tx, id); err != nil {
			return err
		}
		var err error
		reset, err = findDomain(ctx, tx, "WHERE id = ?", id)
		return err
	})
	if err != nil {
		return domain.Domain{}, err
	}
	return reset, nil
}

// AssignLocations replaces the selected locations of a domain
func (r *domainRepositoryImpl) AssignLocations(ctx context.Context, domainID int64, locationIDs []int64) error {
	return r.replaceLinks(ctx, domainID, uniqueIDs(locationIDs), "locations", "location_ids",
		"DELETE FROM domain_locations WHERE domain_id = ?",
		"INSERT INTO domain_locations (domain_id, location_id) VALUES (?, ?)")
}

// SelectedLocationIDs returns the explicitly assigned location ids
func (r *domainRepositoryImpl) SelectedLocationIDs(ctx context.Context, domainID int64) ([]int64, error) {
	return r.linkedIDs(ctx, domainID, "selected locations",
		"SELECT location_id FROM domain_locations WHERE domain_id = ? ORDER BY location_id", domainID)
}

// UsedLocationIDs returns the distinct locations of hosts in the domain
func (r *domainRepositoryImpl) UsedLocationIDs(ctx context.Context, domainID int64) ([]int64, error) {
	return r.linkedIDs(ctx, domainID, "used locations",
		"SELECT DISTINCT h.location_id"+hostsInDomainSQL+" AND h.location_id IS NOT NULL ORDER BY h.location_id",
		domainID)
}

// UsedOrSelectedLocationIDs returns the union of used and selected location ids
func (r *domainRepositoryImpl) UsedOrSelectedLocationIDs(ctx context.Context, domainID int64) ([]int64, error) {
	return r.linkedIDs(ctx, domainID, "used or selected locations", `
		SELECT location_id FROM domain_locations WHERE domain_id = ?
		UNION
		SELECT h.location_id`+hostsInDomainSQL+` AND h.location_id IS NOT NULL
		ORDER BY 1`,
		domainID, domainID)
}

// AssignSubnets replaces the subnets serving a domain
func (r *domainRepositoryImpl) AssignSubnets(ctx context.Context, domainID int64, subnetIDs []int64) error {
	return r.replaceLinks(ctx, domainID, uniqueIDs(subnetIDs), "subnets", "subnet_ids",
		"DELETE FROM subnet_domains WHERE domain_id = ?",
		"INSERT INTO subnet_domains (domain_id, subnet_id) VALUES (?, ?)")
}

// SubnetIDs returns the subnets serving a domain
func (r *domainRepositoryImpl) SubnetIDs(ctx context.Context, domainID int64) ([]int64, error) {
	return r.linkedIDs(ctx, domainID, "subnets",
		"SELECT subnet_id FROM subnet_domains WHERE domain_id = ? ORDER BY subnet_id", domainID)
}

// replaceLinks swaps every row of a domain join table for ids after
// checking that each id exists in table.
func (r *domainRepositoryImpl) replaceLinks(ctx context.Context, domainID int64, ids []int64, table, field, deleteSQL, insertSQL string) error {
	return datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireDomain(ctx, tx, domainID); err != nil {
			return err
		}

		errs := newValidationErrors("domain")
		for _, id := range ids {
			found, err := exists(ctx, tx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table), id)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", table, err)
			}
			if !found {
				errs.Add(field, InvalidValue, fmt.Sprintf("contains unknown id %d", id))
			}
		}
		if err := errs.err(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, deleteSQL, domainID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, insertSQL, domainID, id); err != nil {
				return fmt.Errorf("failed to link %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *domainRepositoryImpl) linkedIDs(ctx context.Context, domainID int64, what, query string, args ...any) ([]int64, error) {
	if err := requireDomain(ctx, r.db, domainID); err != nil {
		return nil, err
	}
	ids, err := queryIDs(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}
	return ids, nil
}

// findDomain loads one domain matching where
func findDomain(ctx context.Context, q queryer, where string, arg any) (domain.Domain, error) {
	var d domain.Domain
	err := q.QueryRowContext(ctx, selectDomainSQL+" "+where, arg).
		Scan(&d.ID, &d.Name, &d.Fullname, &d.TotalHosts, &d.HostgroupsCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Domain{}, fmt.Errorf("domain %v: %w", arg, ErrNotFound)
		}
		return domain.Domain{}, fmt.Errorf("failed to find domain: %w", err)
	}
	return d, nil
}

// requireDomain returns ErrNotFound when the domain does not exist
func requireDomain(ctx context.Context, q queryer, id int64) error {
	found, err := exists(ctx, q, "SELECT COUNT(*) FROM domains WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to check domain existence: %w", err)
	}
	if !found {
		return fmt.Errorf("domain with ID %d: %w", id, ErrNotFound)
	}
	return nil
}
