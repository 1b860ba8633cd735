package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
)

func TestSweepExpired_PinsLapsedKeys(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	publisher := &recordingPublisher{}
	ctx := context.Background()

	past := testNow.Add(-48 * time.Hour)
	future := testNow.Add(48 * time.Hour)

	lapsed, err := license.NewKey("SWEEP-0001-XYZ", 7)
	require.NoError(t, err)
	lapsed.SetExpiresAt(&past)
	require.NoError(t, keyRepo.Create(ctx, lapsed))

	// valid_for expiry derives from ordered_at.
	lapsedByValidFor, err := license.NewKey("SWEEP-0002-XYZ", 7)
	require.NoError(t, err)
	lapsedByValidFor.SetValidFor(1)
	require.NoError(t, keyRepo.Create(ctx, lapsedByValidFor))
	lapsedByValidFor.MarkSold(&license.Order{ID: 41, CreatedAt: past}, 410, 10, past)
	require.NoError(t, keyRepo.Update(ctx, lapsedByValidFor))

	alive, err := license.NewKey("SWEEP-0003-XYZ", 7)
	require.NoError(t, err)
	alive.SetExpiresAt(&future)
	require.NoError(t, keyRepo.Create(ctx, alive))

	forever, err := license.NewKey("SWEEP-0004-XYZ", 7)
	require.NoError(t, err)
	require.NoError(t, keyRepo.Create(ctx, forever))

	sweep := NewSweepExpiredUseCase(keyRepo, fakeTxManager{}, publisher, fixedClock(testNow), testLogger())
	swept, err := sweep.Execute(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, swept)
	assert.Equal(t, vo.KeyStatusExpired, lapsed.Status())
	assert.Equal(t, vo.KeyStatusExpired, lapsedByValidFor.Status())
	assert.Equal(t, vo.KeyStatusAvailable, alive.Status())
	assert.Equal(t, vo.KeyStatusAvailable, forever.Status())
	assert.Contains(t, publisher.types(), license.EventKeyStatusChanged)
}

func TestSweepExpired_SecondRunFindsNothing(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	ctx := context.Background()

	past := testNow.Add(-time.Hour)
	key, err := license.NewKey("SWEEP-0005-XYZ", 7)
	require.NoError(t, err)
	key.SetExpiresAt(&past)
	require.NoError(t, keyRepo.Create(ctx, key))

	sweep := NewSweepExpiredUseCase(keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow), testLogger())

	swept, err := sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	swept, err = sweep.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
}
