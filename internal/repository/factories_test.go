package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/hostdb/internal/domain"
	"github.com/jbweber/homelab/hostdb/internal/metrics"
	"github.com/jbweber/homelab/hostdb/internal/testutil"
)

// repos bundles every repository over one migrated in-memory database
// loaded with the standard fixtures.
type repos struct {
	db         *sql.DB
	fixtures   *testutil.Fixtures
	metrics    *metrics.Metrics
	counters   *Counters
	domains    DomainRepository
	hosts      HostRepository
	interfaces InterfaceRepository
	hostgroups HostgroupRepository
	subnets    SubnetRepository
	locations  LocationRepository
	seq        atomic.Int64
}

func newRepos(t *testing.T) *repos {
	t.Helper()

	db, cleanup := testutil.SetupTestDBWithMigrations(t, strings.ReplaceAll(t.Name(), "/", "_"))
	t.Cleanup(cleanup)

	m := metrics.New(prometheus.NewRegistry())
	counters, err := NewCounters(db, m)
	require.NoError(t, err)
	t.Cleanup(func() { counters.Close() })

	return &repos{
		db:         db,
		fixtures:   testutil.LoadFixtures(t, db),
		metrics:    m,
		counters:   counters,
		domains:    NewDomainRepository(db, counters),
		hosts:      NewHostRepository(db, counters),
		interfaces: NewInterfaceRepository(db, counters),
		hostgroups: NewHostgroupRepository(db, counters),
		subnets:    NewSubnetRepository(db),
		locations:  NewLocationRepository(db),
	}
}

func (r *repos) next() int64 {
	return r.seq.Add(1)
}

// createDomain saves a domain with a generated name
func (r *repos) createDomain(t *testing.T) domain.Domain {
	t.Helper()
	d, err := r.domains.Save(context.Background(), domain.Domain{
		Name: fmt.Sprintf("domain%d.example.com", r.next()),
	})
	require.NoError(t, err)
	return d
}

// createHost saves a host whose primary interface is in domainID
func (r *repos) createHost(t *testing.T, domainID *int64) domain.Host {
	t.Helper()
	n := r.next()
	h, err := r.hosts.Save(context.Background(), domain.Host{
		Name:     fmt.Sprintf("host%d", n),
		IP:       fmt.Sprintf("10.0.0.%d", n%250+1),
		DomainID: domainID,
	})
	require.NoError(t, err)
	return h
}

func (r *repos) primaryInterface(t *testing.T, hostID int64) domain.Interface {
	t.Helper()
	nics, err := r.interfaces.FindByHostID(context.Background(), hostID)
	require.NoError(t, err)
	require.NotEmpty(t, nics)
	require.True(t, nics[0].Primary)
	return nics[0]
}

// totalHosts reloads the total_hosts of a domain
func (r *repos) totalHosts(t *testing.T, id int64) int64 {
	t.Helper()
	d, err := r.domains.FindByID(context.Background(), id)
	require.NoError(t, err)
	return d.TotalHosts
}

func (r *repos) hostgroupsCount(t *testing.T, id int64) int64 {
	t.Helper()
	d, err := r.domains.FindByID(context.Background(), id)
	require.NoError(t, err)
	return d.HostgroupsCount
}

// difference asserts that running fn changes measure by delta
func difference(t *testing.T, measure func() int64, delta int64, fn func()) {
	t.Helper()
	before := measure()
	fn()
	require.Equal(t, before+delta, measure(), "unexpected counter difference")
}

func ptr(id int64) *int64 {
	return &id
}
