package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// SubnetRepository defines domain-specific operations for subnets
type SubnetRepository interface {
	Repository[domain.Subnet, int64]
	FindByDomainID(ctx context.Context, domainID int64) ([]domain.Subnet, error)
}

const selectSubnetSQL = "SELECT id, name, network FROM subnets"

// subnetRepositoryImpl implements SubnetRepository
type subnetRepositoryImpl struct {
	db *sql.DB
}

// NewSubnetRepository creates a new subnet repository
func NewSubnetRepository(db *sql.DB) SubnetRepository {
	return &subnetRepositoryImpl{db: db}
}

// Save creates or updates a subnet and replaces the domains it serves
func (r *subnetRepositoryImpl) Save(ctx context.Context, s domain.Subnet) (domain.Subnet, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Network = strings.TrimSpace(s.Network)
	s.DomainIDs = uniqueIDs(s.DomainIDs)

	var saved domain.Subnet
	err := datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.validate(ctx, tx, s); err != nil {
			return err
		}

		if s.ID == 0 {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO subnets (name, network) VALUES (?, ?)", s.Name, s.Network)
			if err != nil {
				if isUniqueViolation(err) {
					return uniqueViolation("subnet", err)
				}
				return fmt.Errorf("failed to create subnet: %w", err)
			}
			if s.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get subnet ID: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx,
				"UPDATE subnets SET name = ?, network = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
				s.Name, s.Network, s.ID)
			if err != nil {
				if isUniqueViolation(err) {
					return uniqueViolation("subnet", err)
				}
				return fmt.Errorf("failed to update subnet: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("subnet with ID %d: %w", s.ID, ErrNotFound)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM subnet_domains WHERE subnet_id = ?", s.ID); err != nil {
				return fmt.Errorf("failed to clear subnet domains: %w", err)
			}
		}

		for _, domainID := range s.DomainIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO subnet_domains (subnet_id, domain_id) VALUES (?, ?)", s.ID, domainID); err != nil {
				return fmt.Errorf("failed to link subnet domain: %w", err)
			}
		}

		var err error
		saved, err = findSubnet(ctx, tx, s.ID)
		return err
	})
	if err != nil {
		return domain.Subnet{}, err
	}
	return saved, nil
}

func (r *subnetRepositoryImpl) validate(ctx context.Context, q queryer, s domain.Subnet) error {
	errs := newValidationErrors("subnet")

	if s.Name == "" {
		errs.Add("name", PresenceMissing, "can't be blank")
	} else if err := checkUnique(ctx, q, errs, "subnets", "name", s.Name, s.ID); err != nil {
		return err
	}

	if s.Network == "" {
		errs.Add("network", PresenceMissing, "can't be blank")
	} else if _, _, err := net.ParseCIDR(s.Network); err != nil {
		errs.Add("network", InvalidValue, "is not a valid CIDR")
	}

	for _, domainID := range s.DomainIDs {
		found, err := exists(ctx, q, "SELECT COUNT(*) FROM domains WHERE id = ?", domainID)
		if err != nil {
			return fmt.Errorf("failed to check domains reference: %w", err)
		}
		if !found {
			errs.Add("domain_ids", InvalidValue, fmt.Sprintf("contains unknown id %d", domainID))
		}
	}

	return errs.err()
}

// FindByID retrieves a subnet by its ID
func (r *subnetRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Subnet, error) {
	return findSubnet(ctx, r.db, id)
}

// FindAll retrieves all subnets ordered by name
func (r *subnetRepositoryImpl) FindAll(ctx context.Context) ([]domain.Subnet, error) {
	return r.findSubnets(ctx, selectSubnetSQL+" ORDER BY name")
}

// FindByDomainID retrieves the subnets serving a domain
func (r *subnetRepositoryImpl) FindByDomainID(ctx context.Context, domainID int64) ([]domain.Subnet, error) {
	return r.findSubnets(ctx, `
		SELECT s.id, s.name, s.network FROM subnets s
		JOIN subnet_domains sd ON sd.subnet_id = s.id
		WHERE sd.domain_id = ? ORDER BY s.name`, domainID)
}

func (r *subnetRepositoryImpl) findSubnets(ctx context.Context, query string, args ...any) ([]domain.Subnet, error) {
	subnets, err := r.scanSubnets(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Domain ids are loaded after the rows are released
	for i := range subnets {
		if subnets[i].DomainIDs, err = subnetDomainIDs(ctx, r.db, subnets[i].ID); err != nil {
			return nil, err
		}
	}

	return subnets, nil
}

func (r *subnetRepositoryImpl) scanSubnets(ctx context.Context, query string, args ...any) (_ []domain.Subnet, err error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find subnets: %w", err)
	}
	defer closeRows(rows, &err)

	subnets := []domain.Subnet{}
	for rows.Next() {
		var s domain.Subnet
		if err := rows.Scan(&s.ID, &s.Name, &s.Network); err != nil {
			return nil, fmt.Errorf("failed to scan subnet: %w", err)
		}
		subnets = append(subnets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subnets: %w", err)
	}
	return subnets, nil
}

// DeleteByID deletes a subnet and its domain links
func (r *subnetRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	return datastore.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM subnets WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete subnet: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("subnet with ID %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// ExistsByID checks if a subnet exists by its ID
func (r *subnetRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	found, err := exists(ctx, r.db, "SELECT COUNT(*) FROM subnets WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to check subnet existence: %w", err)
	}
	return found, nil
}

func findSubnet(ctx context.Context, q queryer, id int64) (domain.Subnet, error) {
	var s domain.Subnet
	err := q.QueryRowContext(ctx, selectSubnetSQL+" WHERE id = ?", id).Scan(&s.ID, &s.Name, &s.Network)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Subnet{}, fmt.Errorf("subnet with ID %d: %w", id, ErrNotFound)
		}
		return domain.Subnet{}, fmt.Errorf("failed to find subnet: %w", err)
	}
	if s.DomainIDs, err = subnetDomainIDs(ctx, q, id); err != nil {
		return domain.Subnet{}, err
	}
	return s, nil
}

func subnetDomainIDs(ctx context.Context, q queryer, subnetID int64) ([]int64, error) {
	ids, err := queryIDs(ctx, q, "SELECT domain_id FROM subnet_domains WHERE subnet_id = ? ORDER BY domain_id", subnetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subnet domains: %w", err)
	}
	return ids, nil
}
