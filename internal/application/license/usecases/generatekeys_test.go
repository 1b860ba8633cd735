package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keymint/internal/application/license/dto"
	"keymint/internal/domain/license"
	vo "keymint/internal/domain/license/valueobjects"
	"keymint/internal/shared/config"
)

type generateFixture struct {
	keyRepo       *fakeKeyRepo
	generatorRepo *fakeGeneratorRepo
	sequenceRepo  *fakeSequenceRepo
	products      *fakeProductProvider
	publisher     *recordingPublisher
	uc            *GenerateKeysUseCase
}

func newGenerateFixture(t *testing.T, policy config.LicenseConfig) *generateFixture {
	t.Helper()
	if policy.DefaultCharset == "" {
		policy.DefaultCharset = "ABCDEF123456"
	}
	f := &generateFixture{
		keyRepo:       newFakeKeyRepo(),
		generatorRepo: newFakeGeneratorRepo(),
		sequenceRepo:  newFakeSequenceRepo(),
		products: newFakeProductProvider(
			&license.Product{ID: 7, SKU: "PRO-7", SellsKeys: true, DeliveryQty: 1},
		),
		publisher: &recordingPublisher{},
	}
	f.uc = NewGenerateKeysUseCase(
		f.keyRepo, f.generatorRepo, f.sequenceRepo, f.products,
		fakeTxManager{}, f.publisher, fixedClock(testNow), policy, testLogger(),
	)
	return f
}

func TestGenerateKeys_RandomBatch(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{})

	result, err := f.uc.Execute(context.Background(), dto.GenerateKeysRequest{
		ProductID: 7,
		Pattern:   "{product_sku}-{y}-####",
		Quantity:  5,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Generated)
	assert.Zero(t, result.Skipped)
	require.Len(t, result.Keys, 5)

	seen := map[string]bool{}
	for _, key := range result.Keys {
		assert.True(t, strings.HasPrefix(key.Code, "PRO-7-2026-"), key.Code)
		assert.Len(t, key.Code, len("PRO-7-2026-")+4)
		assert.Equal(t, string(vo.SourceAutomatic), key.Source)
		assert.False(t, seen[key.Code], "duplicate code %s", key.Code)
		seen[key.Code] = true
	}
}

func TestGenerateKeys_SequentialBatchAdvancesCounter(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{})
	ctx := context.Background()

	result, err := f.uc.Execute(ctx, dto.GenerateKeysRequest{
		ProductID:  7,
		Pattern:    "SEQ-####",
		Quantity:   3,
		Sequential: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Keys, 3)
	assert.Equal(t, "SEQ-0001", result.Keys[0].Code)
	assert.Equal(t, "SEQ-0002", result.Keys[1].Code)
	assert.Equal(t, "SEQ-0003", result.Keys[2].Code)

	pos, err := f.sequenceRepo.Position(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), pos)

	// The second batch continues where the first stopped.
	result, err = f.uc.Execute(ctx, dto.GenerateKeysRequest{
		ProductID:  7,
		Pattern:    "SEQ-####",
		Quantity:   2,
		Sequential: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Keys, 2)
	assert.Equal(t, "SEQ-0004", result.Keys[0].Code)
	assert.Equal(t, "SEQ-0005", result.Keys[1].Code)
}

func TestGenerateKeys_UsesGeneratorTemplate(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{})
	ctx := context.Background()

	generator, err := license.NewGenerator("retail", "RT-{product_id}-####", "XYZ789")
	require.NoError(t, err)
	generator.SetValidFor(365)
	generator.SetActivationLimit(2)
	require.NoError(t, f.generatorRepo.Create(ctx, generator))

	result, err := f.uc.Execute(ctx, dto.GenerateKeysRequest{
		ProductID:   7,
		GeneratorID: generator.ID(),
		Quantity:    2,
	})
	require.NoError(t, err)
	require.Len(t, result.Keys, 2)

	for _, key := range result.Keys {
		assert.True(t, strings.HasPrefix(key.Code, "RT-7-"), key.Code)
		assert.Equal(t, 365, key.ValidFor)
		assert.Equal(t, 2, key.ActivationLimit)
		for _, r := range key.Code[len("RT-7-"):] {
			assert.Contains(t, "XYZ789", string(r))
		}
	}
}

func TestGenerateKeys_UnknownGenerator(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{})

	_, err := f.uc.Execute(context.Background(), dto.GenerateKeysRequest{
		ProductID:   7,
		GeneratorID: 999,
		Quantity:    1,
	})
	assert.ErrorIs(t, err, license.ErrGeneratorNotFound)
}

func TestGenerateKeys_RequiresPattern(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{})

	_, err := f.uc.Execute(context.Background(), dto.GenerateKeysRequest{
		ProductID: 7,
		Quantity:  1,
	})
	assert.ErrorIs(t, err, license.ErrMissingGeneratorFields)
}

func TestGenerateKeys_SkipsDuplicateCodes(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{})
	ctx := context.Background()

	// A maskless pattern collides with itself after the first code, the
	// rest of the batch is skipped but still reported.
	result, err := f.uc.Execute(ctx, dto.GenerateKeysRequest{
		ProductID: 7,
		Pattern:   "FIXED-CODE",
		Quantity:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 2, result.Skipped)
}

func TestGenerateKeys_AllowDuplicatesPolicy(t *testing.T) {
	f := newGenerateFixture(t, config.LicenseConfig{AllowDuplicates: true})

	result, err := f.uc.Execute(context.Background(), dto.GenerateKeysRequest{
		ProductID: 7,
		Pattern:   "FIXED-CODE",
		Quantity:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Generated)
	assert.Zero(t, result.Skipped)
}
