package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// HostgroupRepository defines domain-specific operations for hostgroups
type HostgroupRepository interface {
	Repository[domain.Hostgroup, int64]
	FindByName(ctx context.Context, name string) (domain.Hostgroup, error)
}

const selectHostgroupSQL = "SELECT id, name, domain_id FROM hostgroups"

// hostgroupRepositoryImpl implements HostgroupRepository
type hostgroupRepositoryImpl struct {
	db       *sql.DB
	counters *Counters
}

// NewHostgroupRepository creates a new hostgroup repository
func NewHostgroupRepository(db *sql.DB, counters *Counters) HostgroupRepository {
	return &hostgroupRepositoryImpl{
		db:       db,
		counters: counters,
	}
}

// Save creates or updates a hostgroup and moves it between domain
// hostgroups_count when its domain changes
func (r *hostgroupRepositoryImpl) Save(ctx context.Context, hg domain.Hostgroup) (domain.Hostgroup, error) {
	hg.Name = strings.TrimSpace(hg.Name)

	var saved domain.Hostgroup
	err := datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var before *int64
		if hg.ID != 0 {
			existing, err := findHostgroup(ctx, tx, "WHERE id = ?", hg.ID)
			if err != nil {
				return err
			}
			before = existing.DomainID
		}

		errs := newValidationErrors("hostgroup")
		if hg.Name == "" {
			errs.Add("name", PresenceMissing, "can't be blank")
		} else if err := checkUnique(ctx, tx, errs, "hostgroups", "name", hg.Name, hg.ID); err != nil {
			return err
		}
		if err := checkReference(ctx, tx, errs, "domains", "domain_id", hg.DomainID); err != nil {
			return err
		}
		if err := errs.err(); err != nil {
			return err
		}

		if hg.ID == 0 {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO hostgroups (name, domain_id) VALUES (?, ?)",
				hg.Name, nullInt64(hg.DomainID))
			if err != nil {
				if isUniqueViolation(err) {
					return uniqueViolation("hostgroup", err)
				}
				return fmt.Errorf("failed to create hostgroup: %w", err)
			}
			if hg.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get hostgroup ID: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				"UPDATE hostgroups SET name = ?, domain_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
				hg.Name, nullInt64(hg.DomainID), hg.ID); err != nil {
				if isUniqueViolation(err) {
					return uniqueViolation("hostgroup", err)
				}
				return fmt.Errorf("failed to update hostgroup: %w", err)
			}
		}

		if err := r.counters.HostgroupDomainChanged(ctx, tx, before, hg.DomainID); err != nil {
			return err
		}

		var err error
		saved, err = findHostgroup(ctx, tx, "WHERE id = ?", hg.ID)
		return err
	})
	if err != nil {
		return domain.Hostgroup{}, err
	}
	return saved, nil
}

// FindByID retrieves a hostgroup by its ID
func (r *hostgroupRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Hostgroup, error) {
	return findHostgroup(ctx, r.db, "WHERE id = ?", id)
}

// FindByName retrieves a hostgroup by its name
func (r *hostgroupRepositoryImpl) FindByName(ctx context.Context, name string) (domain.Hostgroup, error) {
	return findHostgroup(ctx, r.db, "WHERE name = ?", strings.TrimSpace(name))
}

// FindAll retrieves all hostgroups ordered by name
func (r *hostgroupRepositoryImpl) FindAll(ctx context.Context) (_ []domain.Hostgroup, err error) {
	rows, err := r.db.QueryContext(ctx, selectHostgroupSQL+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to find hostgroups: %w", err)
	}
	defer closeRows(rows, &err)

	hostgroups := []domain.Hostgroup{}
	for rows.Next() {
		hg, err := scanHostgroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hostgroup: %w", err)
		}
		hostgroups = append(hostgroups, hg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hostgroups: %w", err)
	}

	return hostgroups, nil
}

// DeleteByID deletes a hostgroup. Member hosts keep existing without one.
func (r *hostgroupRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	return datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		hg, err := findHostgroup(ctx, tx, "WHERE id = ?", id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE hosts SET hostgroup_id = NULL WHERE hostgroup_id = ?", id); err != nil {
			return fmt.Errorf("failed to detach hosts: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM hostgroups WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete hostgroup: %w", err)
		}

		return r.counters.HostgroupDomainChanged(ctx, tx, hg.DomainID, nil)
	})
}

// ExistsByID checks if a hostgroup exists by its ID
func (r *hostgroupRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	found, err := exists(ctx, r.db, "SELECT COUNT(*) FROM hostgroups WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to check hostgroup existence: %w", err)
	}
	return found, nil
}

func scanHostgroup(s rowScanner) (domain.Hostgroup, error) {
	var hg domain.Hostgroup
	var domainID sql.NullInt64
	if err := s.Scan(&hg.ID, &hg.Name, &domainID); err != nil {
		return domain.Hostgroup{}, err
	}
	hg.DomainID = int64Ptr(domainID)
	return hg, nil
}

func findHostgroup(ctx context.Context, q queryer, where string, arg any) (domain.Hostgroup, error) {
	hg, err := scanHostgroup(q.QueryRowContext(ctx, selectHostgroupSQL+" "+where, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Hostgroup{}, fmt.Errorf("hostgroup %v: %w", arg, ErrNotFound)
		}
		return domain.Hostgroup{}, fmt.Errorf("failed to find hostgroup: %w", err)
	}
	return hg, nil
}
