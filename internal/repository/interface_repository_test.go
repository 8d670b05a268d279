package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

func TestInterfaceRepository_Save(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	host := r.createHost(t, nil)
	nic, err := r.interfaces.Save(ctx, domain.Interface{
		HostID: host.ID,
		Name:   "eth1",
		IP:     "10.0.1.5",
		MAC:    " AA:BB:CC:DD:EE:FF ",
	})
	require.NoError(t, err)
	assert.NotZero(t, nic.ID)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", nic.MAC)
	assert.False(t, nic.Primary)
}

func TestInterfaceRepository_RejectsSecondPrimary(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	host := r.createHost(t, nil)
	_, err := r.interfaces.Save(ctx, domain.Interface{HostID: host.ID, Name: "eth1", Primary: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "Primary has already been taken")
}

func TestInterfaceRepository_HostIsRequired(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	_, err := r.interfaces.Save(ctx, domain.Interface{Name: "eth0"})
	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.Contains(t, err.Error(), "Host id can't be blank")

	_, err = r.interfaces.Save(ctx, domain.Interface{HostID: 99999, Name: "eth0"})
	assert.Contains(t, err.Error(), "Host id does not exist")
}

func TestInterfaceRepository_HostCannotChange(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	a := r.createHost(t, nil)
	b := r.createHost(t, nil)
	nic, err := r.interfaces.Save(ctx, domain.Interface{HostID: a.ID, Name: "eth1"})
	require.NoError(t, err)

	nic.HostID = b.ID
	_, err = r.interfaces.Save(ctx, nic)
	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.Contains(t, err.Error(), "Host id can't be changed")
}

func TestInterfaceRepository_DeletePrimary(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.fixtures.Domains["mydomain"].ID

	host := r.createHost(t, &mine)
	primary := r.primaryInterface(t, host.ID)

	difference(t, func() int64 { return r.totalHosts(t, mine) }, -1, func() {
		require.NoError(t, r.interfaces.DeleteByID(ctx, primary.ID))
	})

	found, err := r.interfaces.ExistsByID(ctx, primary.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, r.interfaces.DeleteByID(ctx, primary.ID), ErrNotFound)
}

func TestInterfaceRepository_FindAll(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	host := r.createHost(t, nil)
	_, err := r.interfaces.Save(ctx, domain.Interface{HostID: host.ID, Name: "eth1"})
	require.NoError(t, err)

	all, err := r.interfaces.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
