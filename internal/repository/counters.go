package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jbweber/homelab/hostdb/internal/metrics"
)

const (
	counterTotalHosts      = "total_hosts"
	counterHostgroupsCount = "hostgroups_count"

	adjustTotalHostsSQL      = "UPDATE domains SET total_hosts = total_hosts + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	adjustHostgroupsCountSQL = "UPDATE domains SET hostgroups_count = hostgroups_count + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	resetCountersSQL         = `
		UPDATE domains SET
			total_hosts = (SELECT COUNT(*) FROM nics n WHERE n.domain_id = domains.id AND n.is_primary = 1),
			hostgroups_count = (SELECT COUNT(*) FROM hostgroups g WHERE g.domain_id = domains.id),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
)

// PrimaryLink is the state of an interface that decides which domain, if
// any, counts its host.
type PrimaryLink struct {
	DomainID *int64
	Primary  bool
}

// countedDomain is the domain whose total_hosts includes this link.
func (l PrimaryLink) countedDomain() *int64 {
	if !l.Primary {
		return nil
	}
	return l.DomainID
}

// Counters keeps the denormalized domain counters in step with hosts,
// interfaces and hostgroups. Repositories call it inside the transaction
// of the save or delete that changed the underlying rows.
type Counters struct {
	stmts   *PreparedStatementCache
	metrics *metrics.Metrics
}

// NewCounters prepares the counter statements on db. The schema must be
// migrated. m may be nil.
func NewCounters(db *sql.DB, m *metrics.Metrics) (*Counters, error) {
	stmts := NewPreparedStatementCache(db)
	if err := stmts.Prepare(adjustTotalHostsSQL, adjustHostgroupsCountSQL, resetCountersSQL); err != nil {
		stmts.Close()
		return nil, fmt.Errorf("failed to prepare counter statements: %w", err)
	}
	return &Counters{stmts: stmts, metrics: m}, nil
}

// PrimaryLinkChanged moves a host between domain totals when an interface
// goes from before to after. Create is a change from the zero link,
// delete a change to it.
func (c *Counters) PrimaryLinkChanged(ctx context.Context, tx *sql.Tx, before, after PrimaryLink) error {
	return c.move(ctx, tx, adjustTotalHostsSQL, counterTotalHosts, before.countedDomain(), after.countedDomain())
}

// HostgroupDomainChanged moves a hostgroup between domain counts. nil
// means no domain.
func (c *Counters) HostgroupDomainChanged(ctx context.Context, tx *sql.Tx, before, after *int64) error {
	return c.move(ctx, tx, adjustHostgroupsCountSQL, counterHostgroupsCount, before, after)
}

// Reset recomputes both counters of a domain from the source rows.
func (c *Counters) Reset(ctx context.Context, tx *sql.Tx, domainID int64) error {
	stmt, err := c.stmts.InTx(ctx, tx, resetCountersSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare counter reset: %w", err)
	}
	res, err := stmt.ExecContext(ctx, domainID)
	if err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}
	return requireAffected(res, domainID)
}

// Close releases the prepared statements.
func (c *Counters) Close() error {
	return c.stmts.Close()
}

func (c *Counters) move(ctx context.Context, tx *sql.Tx, query, counter string, from, to *int64) error {
	if sameID(from, to) {
		return nil
	}
	if from != nil {
		if err := c.adjust(ctx, tx, query, counter, *from, -1); err != nil {
			return err
		}
	}
	if to != nil {
		if err := c.adjust(ctx, tx, query, counter, *to, 1); err != nil {
			return err
		}
	}
	return nil
}

func (c *Counters) adjust(ctx context.Context, tx *sql.Tx, query, counter string, domainID, delta int64) error {
	stmt, err := c.stmts.InTx(ctx, tx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare %s adjustment: %w", counter, err)
	}
	res, err := stmt.ExecContext(ctx, delta, domainID)
	if err != nil {
		return fmt.Errorf("failed to adjust %s: %w", counter, err)
	}
	if err := requireAffected(res, domainID); err != nil {
		return err
	}
	c.metrics.ObserveAdjustment(counter, delta)
	return nil
}

func requireAffected(res sql.Result, domainID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("domain with ID %d: %w", domainID, ErrNotFound)
	}
	return nil
}
