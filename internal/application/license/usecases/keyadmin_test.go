package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/shared/config"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestCreateKey_InsertsWithDefaults(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	publisher := &recordingPublisher{}
	uc := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, publisher, fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)

	result, err := uc.Execute(context.Background(), dto.CreateKeyRequest{
		Code:            "CREATE-0001-XYZ",
		ProductID:       7,
		ValidFor:        30,
		ActivationLimit: 2,
	})
	require.NoError(t, err)

	assert.NotZero(t, result.ID)
	assert.NotEmpty(t, result.UUID)
	assert.Equal(t, "CREATE-", result.TruncatedKey)
	assert.Equal(t, string(vo.KeyStatusAvailable), result.Status)
	assert.Equal(t, string(vo.SourcePreset), result.Source)
	assert.Contains(t, publisher.types(), license.EventKeyCreated)
}

func TestCreateKey_RejectsDuplicateCode(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	uc := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	ctx := context.Background()

	_, err := uc.Execute(ctx, dto.CreateKeyRequest{Code: "CREATE-0002-XYZ", ProductID: 7})
	require.NoError(t, err)

	_, err = uc.Execute(ctx, dto.CreateKeyRequest{Code: "CREATE-0002-XYZ", ProductID: 8})
	assert.ErrorIs(t, err, license.ErrDuplicateCode)
}

func TestCreateKey_DuplicatePolicyAllows(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	uc := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{AllowDuplicates: true}, testLogger(),
	)
	ctx := context.Background()

	_, err := uc.Execute(ctx, dto.CreateKeyRequest{Code: "CREATE-0003-XYZ", ProductID: 7})
	require.NoError(t, err)

	_, err = uc.Execute(ctx, dto.CreateKeyRequest{Code: "CREATE-0003-XYZ", ProductID: 7})
	assert.NoError(t, err)
}

func TestUpdateKey_PatchesOnlyGivenFields(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	publisher := &recordingPublisher{}
	create := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	update := NewUpdateKeyUseCase(
		keyRepo, fakeTxManager{}, publisher, fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	ctx := context.Background()

	created, err := create.Execute(ctx, dto.CreateKeyRequest{
		Code: "UPDATE-0001-XYZ", ProductID: 7, ValidFor: 30, ActivationLimit: 2,
	})
	require.NoError(t, err)

	patched, err := update.Execute(ctx, created.ID, dto.UpdateKeyRequest{
		ActivationLimit: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, patched.ActivationLimit)
	assert.Equal(t, "UPDATE-0001-XYZ", patched.Code)
	assert.Equal(t, 30, patched.ValidFor)
	assert.Contains(t, publisher.types(), license.EventKeyUpdated)
}

func TestUpdateKey_CodeChangeChecksUniqueness(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	create := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	update := NewUpdateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	ctx := context.Background()

	_, err := create.Execute(ctx, dto.CreateKeyRequest{Code: "UPDATE-0002-AAA", ProductID: 7})
	require.NoError(t, err)
	second, err := create.Execute(ctx, dto.CreateKeyRequest{Code: "UPDATE-0002-BBB", ProductID: 7})
	require.NoError(t, err)

	_, err = update.Execute(ctx, second.ID, dto.UpdateKeyRequest{Code: strPtr("UPDATE-0002-AAA")})
	assert.ErrorIs(t, err, license.ErrDuplicateCode)

	// Re-submitting the key's own code is not a collision.
	patched, err := update.Execute(ctx, second.ID, dto.UpdateKeyRequest{Code: strPtr("UPDATE-0002-BBB")})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE-0002-BBB", patched.Code)
}

func TestCreateKey_FixedExpiryOverridesValidFor(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	uc := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := uc.Execute(context.Background(), dto.CreateKeyRequest{
		Code: "CREATE-0004-XYZ", ProductID: 7, ValidFor: 30, ExpiresAt: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ValidFor)
	require.NotNil(t, result.ExpiresAt)
	assert.True(t, expiry.Equal(*result.ExpiresAt))
}

func TestUpdateKey_FixedExpiryClearsValidFor(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	create := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	update := NewUpdateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	ctx := context.Background()

	created, err := create.Execute(ctx, dto.CreateKeyRequest{
		Code: "UPDATE-0003-XYZ", ProductID: 7, ValidFor: 30,
	})
	require.NoError(t, err)
	require.Equal(t, 30, created.ValidFor)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	patched, err := update.Execute(ctx, created.ID, dto.UpdateKeyRequest{ExpiresAt: &expiry})
	require.NoError(t, err)
	assert.Equal(t, 0, patched.ValidFor)
	require.NotNil(t, patched.ExpiresAt)
	assert.True(t, expiry.Equal(*patched.ExpiresAt))
}

func TestUpdateKey_GuardsStatusTransitions(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	create := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	update := NewUpdateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	ctx := context.Background()

	created, err := create.Execute(ctx, dto.CreateKeyRequest{Code: "UPDATE-0004-XYZ", ProductID: 7})
	require.NoError(t, err)

	patched, err := update.Execute(ctx, created.ID, dto.UpdateKeyRequest{Status: strPtr("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, string(vo.KeyStatusCancelled), patched.Status)

	// Cancelled keys can only return to stock.
	_, err = update.Execute(ctx, created.ID, dto.UpdateKeyRequest{Status: strPtr("sold")})
	assert.ErrorIs(t, err, license.ErrInvalidStatusTransition)

	patched, err = update.Execute(ctx, created.ID, dto.UpdateKeyRequest{Status: strPtr("available")})
	require.NoError(t, err)
	assert.Equal(t, string(vo.KeyStatusAvailable), patched.Status)
}

func TestUpdateKey_ExpiredStatusIsTerminal(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	create := NewCreateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	update := NewUpdateKeyUseCase(
		keyRepo, fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	ctx := context.Background()

	past := testNow.Add(-24 * time.Hour)
	created, err := create.Execute(ctx, dto.CreateKeyRequest{
		Code: "UPDATE-0005-XYZ", ProductID: 7, ExpiresAt: &past,
	})
	require.NoError(t, err)
	require.Equal(t, string(vo.KeyStatusExpired), created.Status)

	_, err = update.Execute(ctx, created.ID, dto.UpdateKeyRequest{Status: strPtr("available")})
	assert.ErrorIs(t, err, license.ErrInvalidStatusTransition)
}

func TestUpdateKey_UnknownID(t *testing.T) {
	update := NewUpdateKeyUseCase(
		newFakeKeyRepo(), fakeTxManager{}, NopPublisher(), fixedClock(testNow),
		config.LicenseConfig{}, testLogger(),
	)
	_, err := update.Execute(context.Background(), 12345, dto.UpdateKeyRequest{})
	assert.ErrorIs(t, err, license.ErrKeyNotFound)
}

func TestGetKey_LoadsActivations(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	activationRepo := newFakeActivationRepo()
	ctx := context.Background()

	key, err := license.NewKey("GET-0001-XYZ", 7)
	require.NoError(t, err)
	require.NoError(t, keyRepo.Create(ctx, key))

	activation, err := license.NewActivation(key.ID(), "one.example.com", "", "", testNow)
	require.NoError(t, err)
	require.NoError(t, activationRepo.Create(ctx, activation))

	get := NewGetKeyUseCase(keyRepo, activationRepo, testLogger())

	byID, err := get.ByID(ctx, key.ID())
	require.NoError(t, err)
	require.Len(t, byID.Activations, 1)
	assert.Equal(t, "one.example.com", byID.Activations[0].Instance)
	assert.Equal(t, 1, byID.ActivationCount)

	byCode, err := get.ByCode(ctx, "GET-0001-XYZ")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byCode.ID)

	byUUID, err := get.ByUUID(ctx, key.UUID())
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byUUID.ID)

	_, err = get.ByID(ctx, 999)
	assert.ErrorIs(t, err, license.ErrKeyNotFound)
}

func TestListKeys_FiltersAndPages(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key, err := license.NewKey("LIST-000"+string(rune('1'+i))+"-XYZ", 7)
		require.NoError(t, err)
		require.NoError(t, keyRepo.Create(ctx, key))
	}
	other, err := license.NewKey("LIST-OTHER-XYZ", 8)
	require.NoError(t, err)
	require.NoError(t, keyRepo.Create(ctx, other))

	list := NewListKeysUseCase(keyRepo, testLogger())

	result, err := list.Execute(ctx, dto.ListKeysRequest{ProductID: 7, Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, result.Keys, 3)
	assert.Equal(t, int64(5), result.Total)

	result, err = list.Execute(ctx, dto.ListKeysRequest{ProductID: 7, Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, result.Keys, 2)

	ids, err := list.ListIDs(ctx, dto.ListKeysRequest{ProductID: 8})
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID()}, ids)
}

func TestDeleteKey_RemovesAndPublishes(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	publisher := &recordingPublisher{}
	ctx := context.Background()

	key, err := license.NewKey("DELETE-0001-XYZ", 7)
	require.NoError(t, err)
	require.NoError(t, keyRepo.Create(ctx, key))

	del := NewDeleteKeyUseCase(keyRepo, fakeTxManager{}, publisher, fixedClock(testNow), testLogger())
	require.NoError(t, del.Execute(ctx, key.ID()))

	gone, err := keyRepo.FindByID(ctx, key.ID())
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Contains(t, publisher.types(), license.EventKeyDeleted)

	assert.ErrorIs(t, del.Execute(ctx, key.ID()), license.ErrKeyNotFound)
}

func TestCountStock_CountsAvailableOnly(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key, err := license.NewKey("STOCK-000"+string(rune('1'+i))+"-XYZ", 7)
		require.NoError(t, err)
		require.NoError(t, keyRepo.Create(ctx, key))
	}
	sold, err := license.NewKey("STOCK-SOLD-XYZ", 7)
	require.NoError(t, err)
	require.NoError(t, keyRepo.Create(ctx, sold))
	sold.MarkSold(&license.Order{ID: 41, CreatedAt: testNow}, 410, 10, testNow)
	require.NoError(t, keyRepo.Update(ctx, sold))

	stock := NewCountStockUseCase(keyRepo, testLogger())
	count, err := stock.Execute(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = stock.Execute(ctx, 0)
	assert.ErrorIs(t, err, license.ErrMissingProduct)
}

func TestValidateKey_ReportsEffectiveStatus(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	activationRepo := newFakeActivationRepo()
	ctx := context.Background()

	key, err := license.NewKey("VALID-0001-XYZ", 7)
	require.NoError(t, err)
	key.SetActivationLimit(3)
	require.NoError(t, keyRepo.Create(ctx, key))
	key.MarkSold(&license.Order{ID: 41, BillingEmail: "buyer@example.com", CreatedAt: testNow}, 410, 10, testNow)
	key.SetMeta(license.MetaOrderEmail, "buyer@example.com")
	require.NoError(t, keyRepo.Update(ctx, key))

	validate := NewValidateKeyUseCase(keyRepo, activationRepo, fixedClock(testNow), testLogger())

	result, err := validate.Execute(ctx, dto.ValidateKeyRequest{
		Code: "VALID-0001-XYZ", Email: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.False(t, result.Expired)
	assert.Equal(t, string(vo.KeyStatusSold), result.EffectiveStatus)
	assert.Equal(t, 3, result.ActivationsLeft)

	result, err = validate.Execute(ctx, dto.ValidateKeyRequest{
		Code: "VALID-0001-XYZ", Email: "stranger@example.com",
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidateKey_ExpiredKeyStillValidates(t *testing.T) {
	keyRepo := newFakeKeyRepo()
	activationRepo := newFakeActivationRepo()
	ctx := context.Background()

	key, err := license.NewKey("VALID-0002-XYZ", 7)
	require.NoError(t, err)
	require.NoError(t, keyRepo.Create(ctx, key))
	key.MarkSold(&license.Order{ID: 41, BillingEmail: "buyer@example.com", CreatedAt: testNow}, 410, 10, testNow)
	past := testNow.Add(-24 * time.Hour)
	key.SetExpiresAt(&past)
	key.SetMeta(license.MetaOrderEmail, "buyer@example.com")
	require.NoError(t, keyRepo.Update(ctx, key))

	validate := NewValidateKeyUseCase(keyRepo, activationRepo, fixedClock(testNow), testLogger())
	result, err := validate.Execute(ctx, dto.ValidateKeyRequest{Code: "VALID-0002-XYZ"})
	require.NoError(t, err)

	assert.True(t, result.Expired)
	assert.Equal(t, string(vo.KeyStatusExpired), result.EffectiveStatus)
	assert.True(t, result.Valid)
	assert.Equal(t, -1, result.ActivationsLeft)
}
