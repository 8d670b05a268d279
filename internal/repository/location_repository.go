package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// LocationRepository defines operations for locations
type LocationRepository interface {
	Repository[domain.Location, int64]
}

// locationRepositoryImpl implements LocationRepository
type locationRepositoryImpl struct {
	db *sql.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *sql.DB) LocationRepository {
	return &locationRepositoryImpl{db: db}
}

// Save creates or renames a location
func (r *locationRepositoryImpl) Save(ctx context.Context, loc domain.Location) (domain.Location, error) {
	loc.Name = strings.TrimSpace(loc.Name)

	errs := newValidationErrors("location")
	if loc.Name == "" {
		errs.Add("name", PresenceMissing, "can't be blank")
	} else if err := checkUnique(ctx, r.db, errs, "locations", "name", loc.Name, loc.ID); err != nil {
		return domain.Location{}, err
	}
	if err := errs.err(); err != nil {
		return domain.Location{}, err
	}

	if loc.ID == 0 {
		res, err := r.db.ExecContext(ctx, "INSERT INTO locations (name) VALUES (?)", loc.Name)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Location{}, uniqueViolation("location", err)
			}
			return domain.Location{}, fmt.Errorf("failed to create location: %w", err)
		}
		if loc.ID, err = res.LastInsertId(); err != nil {
			return domain.Location{}, fmt.Errorf("failed to get location ID: %w", err)
		}
		return loc, nil
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE locations SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", loc.Name, loc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Location{}, uniqueViolation("location", err)
		}
		return domain.Location{}, fmt.Errorf("failed to update location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Location{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.Location{}, fmt.Errorf("location with ID %d: %w", loc.ID, ErrNotFound)
	}
	return loc, nil
}

// FindByID retrieves a location by its ID
func (r *locationRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Location, error) {
	var loc domain.Location
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM locations WHERE id = ?", id).Scan(&loc.ID, &loc.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Location{}, fmt.Errorf("location with ID %d: %w", id, ErrNotFound)
		}
		return domain.Location{}, fmt.Errorf("failed to find location: %w", err)
	}
	return loc, nil
}

// FindAll retrieves all locations ordered by name
func (r *locationRepositoryImpl) FindAll(ctx context.Context) (_ []domain.Location, err error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM locations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to find locations: %w", err)
	}
	defer closeRows(rows, &err)

	locations := []domain.Location{}
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Name); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// DeleteByID deletes a location. Hosts and domain selections referencing
// it are released by the schema.
func (r *locationRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("location with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// ExistsByID checks if a location exists by its ID
func (r *locationRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	found, err := exists(ctx, r.db, "SELECT COUNT(*) FROM locations WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to check location existence: %w", err)
	}
	return found, nil
}
