package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"keymint/internal/domain/license"
	"keymint/internal/infrastructure/cache"
	"keymint/internal/shared/logger"
)

func newActivationRepo(t *testing.T) (license.ActivationRepository, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewActivationRepository(db, cache.NewMemoryQueryCache(time.Minute), logger.NewLogger())
	return repo, db
}

func createTestActivation(t *testing.T, repo license.ActivationRepository, keyID uint, instance string) *license.Activation {
	t.Helper()
	a, err := license.NewActivation(keyID, instance, "203.0.113.10", "agent/1.0", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestActivationRepository_Create(t *testing.T) {
	repo, _ := newActivationRepo(t)
	ctx := context.Background()

	a := createTestActivation(t, repo, 1, "shop.example.com")
	assert.NotZero(t, a.ID())

	t.Run("duplicate instance for same key is rejected", func(t *testing.T) {
		dup, err := license.NewActivation(1, "shop.example.com", "", "", time.Now().UTC())
		require.NoError(t, err)

		err = repo.Create(ctx, dup)
		assert.ErrorIs(t, err, license.ErrDuplicateActivation)
	})

	t.Run("same instance under another key is fine", func(t *testing.T) {
		other, err := license.NewActivation(2, "shop.example.com", "", "", time.Now().UTC())
		require.NoError(t, err)
		assert.NoError(t, repo.Create(ctx, other))
	})
}

func TestActivationRepository_FindByKeyAndInstance(t *testing.T) {
	repo, _ := newActivationRepo(t)
	ctx := context.Background()

	a := createTestActivation(t, repo, 1, "shop.example.com")

	t.Run("found regardless of status", func(t *testing.T) {
		a.Deactivate(time.Now().UTC())
		require.NoError(t, repo.Update(ctx, a))

		found, err := repo.FindByKeyAndInstance(ctx, 1, "shop.example.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.False(t, found.IsActive())
	})

	t.Run("missing returns nil nil", func(t *testing.T) {
		found, err := repo.FindByKeyAndInstance(ctx, 1, "other.example.com")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestActivationRepository_CountActiveByKey(t *testing.T) {
	repo, _ := newActivationRepo(t)
	ctx := context.Background()

	createTestActivation(t, repo, 1, "a.example.com")
	createTestActivation(t, repo, 1, "b.example.com")
	inactive := createTestActivation(t, repo, 1, "c.example.com")
	createTestActivation(t, repo, 2, "d.example.com")

	inactive.Deactivate(time.Now().UTC())
	require.NoError(t, repo.Update(ctx, inactive))

	count, err := repo.CountActiveByKey(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "inactive rows do not occupy the limit")
}

func TestActivationRepository_ListByKey(t *testing.T) {
	repo, _ := newActivationRepo(t)
	ctx := context.Background()

	createTestActivation(t, repo, 1, "a.example.com")
	createTestActivation(t, repo, 1, "b.example.com")

	list, err := repo.ListByKey(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.example.com", list[0].Instance())
}

func TestActivationRepository_DeleteByKeyID(t *testing.T) {
	repo, _ := newActivationRepo(t)
	ctx := context.Background()

	createTestActivation(t, repo, 1, "a.example.com")
	createTestActivation(t, repo, 1, "b.example.com")
	keep := createTestActivation(t, repo, 2, "c.example.com")

	require.NoError(t, repo.DeleteByKeyID(ctx, 1))

	list, err := repo.ListByKey(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)

	found, err := repo.FindByKeyAndInstance(ctx, 2, keep.Instance())
	require.NoError(t, err)
	assert.NotNil(t, found)
}

func TestActivationRepository_ReactivateRoundTrip(t *testing.T) {
	repo, _ := newActivationRepo(t)
	ctx := context.Background()

	a := createTestActivation(t, repo, 1, "shop.example.com")
	a.Deactivate(time.Now().UTC())
	require.NoError(t, repo.Update(ctx, a))

	a.Reactivate("198.51.100.9", "agent/2.0", time.Now().UTC())
	require.NoError(t, repo.Update(ctx, a))

	found, err := repo.FindByKeyAndInstance(ctx, 1, "shop.example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsActive())
	assert.Nil(t, found.DeactivatedAt())
	assert.Equal(t, "198.51.100.9", found.IPAddress())
}
