package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// InterfaceRepository defines domain-specific operations for host interfaces
type InterfaceRepository interface {
	Repository[domain.Interface, int64]
	FindByHostID(ctx context.Context, hostID int64) ([]domain.Interface, error)
}

const selectInterfaceSQL = `
	SELECT id, host_id, name, ip, mac, domain_id, is_primary
	FROM nics`

// interfaceRepositoryImpl implements InterfaceRepository
type interfaceRepositoryImpl struct {
	db       *sql.DB
	counters *Counters
}

// NewInterfaceRepository creates a new interface repository
func NewInterfaceRepository(db *sql.DB, counters *Counters) InterfaceRepository {
	return &interfaceRepositoryImpl{
		db:       db,
		counters: counters,
	}
}

// Save creates or updates an interface. Changes to its domain or primary
// flag are reflected in the total_hosts of the affected domains.
func (r *interfaceRepositoryImpl) Save(ctx context.Context, nic domain.Interface) (domain.Interface, error) {
	nic.Name = strings.TrimSpace(nic.Name)
	nic.MAC = strings.ToLower(strings.TrimSpace(nic.MAC))

	var saved domain.Interface
	err := datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		before := PrimaryLink{}
		if nic.ID != 0 {
			existing, err := findInterface(ctx, tx, nic.ID)
			if err != nil {
				return err
			}
			if existing.HostID != nic.HostID {
				errs := newValidationErrors("interface")
				errs.Add("host_id", InvalidValue, "can't be changed")
				return errs
			}
			before = PrimaryLink{DomainID: existing.DomainID, Primary: existing.Primary}
		}

		if err := r.validate(ctx, tx, nic); err != nil {
			return err
		}

		if nic.ID == 0 {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO nics (host_id, name, ip, mac, domain_id, is_primary)
				VALUES (?, ?, ?, ?, ?, ?)`,
				nic.HostID, nic.Name, nic.IP, nic.MAC, nullInt64(nic.DomainID), nic.Primary)
			if err != nil {
				return fmt.Errorf("failed to create interface: %w", err)
			}
			if nic.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get interface ID: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
				UPDATE nics SET name = ?, ip = ?, mac = ?, domain_id = ?, is_primary = ?, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?`,
				nic.Name, nic.IP, nic.MAC, nullInt64(nic.DomainID), nic.Primary, nic.ID); err != nil {
				return fmt.Errorf("failed to update interface: %w", err)
			}
		}

		after := PrimaryLink{DomainID: nic.DomainID, Primary: nic.Primary}
		if err := r.counters.PrimaryLinkChanged(ctx, tx, before, after); err != nil {
			return err
		}

		var err error
		saved, err = findInterface(ctx, tx, nic.ID)
		return err
	})
	if err != nil {
		return domain.Interface{}, err
	}
	return saved, nil
}

// validate checks the host and domain references and that a host keeps at
// most one primary interface
func (r *interfaceRepositoryImpl) validate(ctx context.Context, q queryer, nic domain.Interface) error {
	errs := newValidationErrors("interface")

	hostID := nic.HostID
	if hostID == 0 {
		errs.Add("host_id", PresenceMissing, "can't be blank")
	} else if err := checkReference(ctx, q, errs, "hosts", "host_id", &hostID); err != nil {
		return err
	}
	if err := checkReference(ctx, q, errs, "domains", "domain_id", nic.DomainID); err != nil {
		return err
	}

	if nic.Primary && hostID != 0 {
		taken, err := exists(ctx, q,
			"SELECT COUNT(*) FROM nics WHERE host_id = ? AND is_primary = 1 AND id != ?", hostID, nic.ID)
		if err != nil {
			return fmt.Errorf("failed to check primary interface: %w", err)
		}
		if taken {
			errs.Add("primary", UniquenessViolation, "has already been taken")
		}
	}

	return errs.err()
}

// FindByID retrieves an interface by its ID
func (r *interfaceRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Interface, error) {
	return findInterface(ctx, r.db, id)
}

// FindAll retrieves all interfaces
func (r *interfaceRepositoryImpl) FindAll(ctx context.Context) ([]domain.Interface, error) {
	return r.findInterfaces(ctx, selectInterfaceSQL+" ORDER BY host_id, id")
}

// FindByHostID retrieves the interfaces of a host, primary first
func (r *interfaceRepositoryImpl) FindByHostID(ctx context.Context, hostID int64) ([]domain.Interface, error) {
	return r.findInterfaces(ctx, selectInterfaceSQL+" WHERE host_id = ? ORDER BY is_primary DESC, id", hostID)
}

func (r *interfaceRepositoryImpl) findInterfaces(ctx context.Context, query string, args ...any) (_ []domain.Interface, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find interfaces: %w", err)
	}
	defer closeRows(rows, &err)

	nics := []domain.Interface{}
	for rows.Next() {
		nic, err := scanInterface(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interface: %w", err)
		}
		nics = append(nics, nic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interfaces: %w", err)
	}

	return nics, nil
}

// DeleteByID deletes an interface
func (r *interfaceRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	return datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		nic, err := findInterface(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM nics WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete interface: %w", err)
		}

		return r.counters.PrimaryLinkChanged(ctx, tx,
			PrimaryLink{DomainID: nic.DomainID, Primary: nic.Primary},
			PrimaryLink{})
	})
}

// ExistsByID checks if an interface exists by its ID
func (r *interfaceRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	found, err := exists(ctx, r.db, "SELECT COUNT(*) FROM nics WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to check interface existence: %w", err)
	}
	return found, nil
}

func scanInterface(s rowScanner) (domain.Interface, error) {
	var nic domain.Interface
	var domainID sql.NullInt64
	if err := s.Scan(&nic.ID, &nic.HostID, &nic.Name, &nic.IP, &nic.MAC, &domainID, &nic.Primary); err != nil {
		return domain.Interface{}, err
	}
	nic.DomainID = int64Ptr(domainID)
	return nic, nil
}

func findInterface(ctx context.Context, q queryer, id int64) (domain.Interface, error) {
	nic, err := scanInterface(q.QueryRowContext(ctx, selectInterfaceSQL+" WHERE id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Interface{}, fmt.Errorf("interface with ID %d: %w", id, ErrNotFound)
		}
		return domain.Interface{}, fmt.Errorf("failed to find interface: %w", err)
	}
	return nic, nil
}
