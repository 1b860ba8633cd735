package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	"keymint/internal/infrastructure/cache"
	"keymint/internal/infrastructure/persistence/models"
	"keymint/internal/infrastructure/repository"
	"keymint/internal/shared/db"
	"keymint/internal/shared/logger"
)

// These tests run the activation flow against the real gorm repositories
// over in-memory SQLite. Keys loaded from rows carry no activation count,
// so the limit check has to re-count inside the transaction; the fakes
// hand back live entities and cannot catch that.

type persistenceFixture struct {
	keys        license.KeyRepository
	activations license.ActivationRepository
	uc          *ActivateKeyUseCase
}

func newPersistenceFixture(t *testing.T) *persistenceFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.KeyModel{},
		&models.KeyMetaModel{},
		&models.ActivationModel{},
	))

	qc := cache.NewMemoryQueryCache(time.Minute)
	log := logger.NewLogger()
	keys := repository.NewKeyRepository(conn, qc, log)
	activations := repository.NewActivationRepository(conn, qc, log)

	return &persistenceFixture{
		keys:        keys,
		activations: activations,
		uc: NewActivateKeyUseCase(
			keys,
			activations,
			db.NewTransactionManager(conn),
			NopPublisher(),
			fixedClock(testNow),
			log,
		),
	}
}

func (f *persistenceFixture) seedKey(t *testing.T, code string, limit int) {
	t.Helper()
	key, err := license.NewKey(code, 7)
	require.NoError(t, err)
	key.SetActivationLimit(limit)
	require.NoError(t, f.keys.Create(context.Background(), key))
}

func TestActivateKey_LimitHoldsAcrossReloads(t *testing.T) {
	f := newPersistenceFixture(t)
	f.seedKey(t, "SQL-KEY-1", 1)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, dto.ActivateKeyRequest{Code: "SQL-KEY-1", Instance: "host-a"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Key.ActivationCount)

	_, err = f.uc.Execute(ctx, dto.ActivateKeyRequest{Code: "SQL-KEY-1", Instance: "host-b"})
	assert.ErrorIs(t, err, license.ErrNoActivationsLeft)

	count, err := f.activations.CountActiveByKey(ctx, first.Key.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestActivateKey_KnownInstanceReloadsWithoutConsumingSlot(t *testing.T) {
	f := newPersistenceFixture(t)
	f.seedKey(t, "SQL-KEY-2", 1)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, dto.ActivateKeyRequest{Code: "SQL-KEY-2", Instance: "host-a"})
	require.NoError(t, err)

	again, err := f.uc.Execute(ctx, dto.ActivateKeyRequest{Code: "SQL-KEY-2", Instance: "host-a"})
	require.NoError(t, err)
	assert.True(t, again.Reused)
	assert.Equal(t, 1, again.Key.ActivationCount)
}
