package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

func TestLocationRepository_CRUD(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	loc, err := r.locations.Save(ctx, domain.Location{Name: " Zurich "})
	require.NoError(t, err)
	assert.Equal(t, "Zurich", loc.Name)

	loc.Name = "Geneva"
	loc, err = r.locations.Save(ctx, loc)
	require.NoError(t, err)

	found, err := r.locations.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Geneva", found.Name)

	all, err := r.locations.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, r.locations.DeleteByID(ctx, loc.ID))
	exists, err := r.locations.ExistsByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.ErrorIs(t, r.locations.DeleteByID(ctx, loc.ID), ErrNotFound)
}

func TestLocationRepository_Validation(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	_, err := r.locations.Save(ctx, domain.Location{Name: "location1"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = r.locations.Save(ctx, domain.Location{})
	assert.ErrorIs(t, err, ErrInvalidEntity)

	_, err = r.locations.Save(ctx, domain.Location{ID: 99999, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocationRepository_DeleteReleasesDomainSelection(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mine := r.fixtures.Domains["mydomain"].ID

	require.NoError(t, r.locations.DeleteByID(ctx, r.fixtures.Locations["location1"].ID))

	ids, err := r.domains.SelectedLocationIDs(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
