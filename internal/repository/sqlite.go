package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var uniqueColumnRe = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueViolation turns a UNIQUE constraint failure on table.column into a
// validation error for column. It is the fallback for races the
// pre-insert checks cannot see.
func uniqueViolation(entity string, err error) error {
	field := "name"
	if m := uniqueColumnRe.FindStringSubmatch(err.Error()); m != nil {
		field = m[1]
	}
	errs := newValidationErrors(entity)
	errs.Add(field, UniquenessViolation, "has already been taken")
	return errs
}

// nullInt64 converts an optional id to a driver value
func nullInt64(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// nullString stores empty strings as NULL
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// int64Ptr converts a scanned nullable id back to an optional id
func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// sameID compares two optional ids
func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// exists runs a COUNT(*) query and reports whether it matched anything
func exists(ctx context.Context, q queryer, query string, args ...any) (bool, error) {
	var count int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// checkUnique records a uniqueness failure when another row of table
// already holds value in column.
func checkUnique(ctx context.Context, q queryer, errs *ValidationErrors, table, column, value string, id int64) error {
	taken, err := exists(ctx, q, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND id != ?", table, column), value, id)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate %s %s: %w", table, column, err)
	}
	if taken {
		errs.Add(column, UniquenessViolation, "has already been taken")
	}
	return nil
}

// checkReference records an invalid value when the optional id does not
// point at a row of table.
func checkReference(ctx context.Context, q queryer, errs *ValidationErrors, table, field string, id *int64) error {
	if id == nil {
		return nil
	}
	found, err := exists(ctx, q, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table), *id)
	if err != nil {
		return fmt.Errorf("failed to check %s reference: %w", table, err)
	}
	if !found {
		errs.Add(field, InvalidValue, "does not exist")
	}
	return nil
}

// queryIDs runs a query returning a single integer column
func queryIDs(ctx context.Context, q queryer, query string, args ...any) (_ []int64, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, &err)

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// queryStrings runs a query returning a single text column
func queryStrings(ctx context.Context, q queryer, query string, args ...any) (_ []string, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, &err)

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// uniqueIDs drops duplicates while keeping the first occurrence order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// closeRows closes rows and stores a close failure in *err unless an
// earlier error is already set
func closeRows(rows *sql.Rows, err *error) {
	if cerr := rows.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close rows: %w", cerr)
	}
}
