package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

func TestHostRepository_Save(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.fixtures.Domains["mydomain"].ID
	location1 := r.fixtures.Locations["location1"].ID
	common := r.fixtures.Hostgroups["common"].ID

	saved, err := r.hosts.Save(ctx, domain.Host{
		Name:        " web01 ",
		IP:          "10.0.0.10",
		DomainID:    &mine,
		LocationID:  &location1,
		HostgroupID: &common,
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "web01", saved.Name)
	assert.Equal(t, "10.0.0.10", saved.IP)
	assert.Equal(t, &mine, saved.DomainID)
	assert.Equal(t, &location1, saved.LocationID)
	assert.Equal(t, &common, saved.HostgroupID)

	nics, err := r.interfaces.FindByHostID(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, nics, 1)
	assert.True(t, nics[0].Primary)
	assert.Equal(t, "web01", nics[0].Name)
	assert.Equal(t, &mine, nics[0].DomainID)
}

func TestHostRepository_SaveValidation(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	missing := int64(99999)

	_, err := r.hosts.Save(ctx, domain.Host{Name: "dup"})
	require.NoError(t, err)

	_, err = r.hosts.Save(ctx, domain.Host{
		Name:        "dup",
		DomainID:    &missing,
		LocationID:  &missing,
		HostgroupID: &missing,
	})
	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{
		"Name has already been taken",
		"Domain id does not exist",
		"Location id does not exist",
		"Hostgroup id does not exist",
	}, verrs.FullMessages())

	_, err = r.hosts.Save(ctx, domain.Host{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestHostRepository_UpdateRecreatesMissingPrimary(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.fixtures.Domains["mydomain"].ID

	host := r.createHost(t, nil)
	primary := r.primaryInterface(t, host.ID)
	primary.Primary = false
	_, err := r.interfaces.Save(ctx, primary)
	require.NoError(t, err)

	host.DomainID = &mine
	saved, err := r.hosts.Save(ctx, host)
	require.NoError(t, err)
	assert.Equal(t, &mine, saved.DomainID)
	assert.Equal(t, int64(1), r.totalHosts(t, mine))

	nics, err := r.interfaces.FindByHostID(ctx, host.ID)
	require.NoError(t, err)
	assert.Len(t, nics, 2)
}

func TestHostRepository_UpdateNotFound(t *testing.T) {
	r := newRepos(t)

	_, err := r.hosts.Save(context.Background(), domain.Host{ID: 99999, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHostRepository_FindByDomainID(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.fixtures.Domains["mydomain"].ID

	in := r.createHost(t, &mine)
	r.createHost(t, nil)

	hosts, err := r.hosts.FindByDomainID(ctx, mine)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, in.ID, hosts[0].ID)

	all, err := r.hosts.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHostRepository_FindByName(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	host := r.createHost(t, nil)
	found, err := r.hosts.FindByName(ctx, host.Name)
	require.NoError(t, err)
	assert.Equal(t, host.ID, found.ID)

	_, err = r.hosts.FindByName(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHostRepository_Delete(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.fixtures.Domains["mydomain"].ID

	host := r.createHost(t, &mine)
	_, err := r.interfaces.Save(ctx, domain.Interface{HostID: host.ID, Name: "eth1", DomainID: &mine})
	require.NoError(t, err)

	require.NoError(t, r.hosts.DeleteByID(ctx, host.ID))

	found, err := r.hosts.ExistsByID(ctx, host.ID)
	require.NoError(t, err)
	assert.False(t, found)

	nics, err := r.interfaces.FindByHostID(ctx, host.ID)
	require.NoError(t, err)
	assert.Empty(t, nics)
	assert.Zero(t, r.totalHosts(t, mine))

	assert.ErrorIs(t, r.hosts.DeleteByID(ctx, host.ID), ErrNotFound)
}
