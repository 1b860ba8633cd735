package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "keymint/internal/domain/license/valueobjects"
)

func newTestActivation(t *testing.T, instance string) *Activation {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewActivation(1, instance, "203.0.113.10", "agent/1.0", now)
	require.NoError(t, err)
	return a
}

func TestNewActivation(t *testing.T) {
	a := newTestActivation(t, "  HTTPS://Shop.Example.com/checkout  ")

	assert.Equal(t, uint(1), a.KeyID())
	assert.Equal(t, "shop.example.com", a.Instance(), "instance is sanitized on the way in")
	assert.Equal(t, vo.ActivationStatusActive, a.Status())
	assert.True(t, a.IsActive())
	require.NotNil(t, a.ActivatedAt())
	assert.Nil(t, a.DeactivatedAt())
}

func TestNewActivation_MissingInstance(t *testing.T) {
	_, err := NewActivation(1, "   ", "", "", time.Now())
	assert.ErrorIs(t, err, ErrMissingInstance)
}

func TestNewActivation_UnpersistedKey(t *testing.T) {
	_, err := NewActivation(0, "shop.example.com", "", "", time.Now())
	assert.Error(t, err)
}

func TestActivation_DeactivateReactivate(t *testing.T) {
	a := newTestActivation(t, "shop.example.com")
	a.MarkClean()

	then := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a.Deactivate(then)

	assert.False(t, a.IsActive())
	require.NotNil(t, a.DeactivatedAt())
	assert.True(t, a.DeactivatedAt().Equal(then))
	assert.ElementsMatch(t, []string{"status", "deactivated_at"}, a.Dirty())

	// deactivating again changes nothing
	a.MarkClean()
	a.Deactivate(then.Add(time.Hour))
	assert.False(t, a.IsDirty())

	later := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	a.Reactivate("198.51.100.9", "agent/2.0", later)

	assert.True(t, a.IsActive())
	assert.Nil(t, a.DeactivatedAt())
	require.NotNil(t, a.ActivatedAt())
	assert.True(t, a.ActivatedAt().Equal(later))
	assert.Equal(t, "198.51.100.9", a.IPAddress())
	assert.Equal(t, "agent/2.0", a.UserAgent())
}

func TestActivation_Reactivate_ActiveIsNoOp(t *testing.T) {
	a := newTestActivation(t, "shop.example.com")
	a.MarkClean()
	before := *a.ActivatedAt()

	a.Reactivate("198.51.100.9", "agent/2.0", time.Now())

	assert.False(t, a.IsDirty())
	assert.True(t, a.ActivatedAt().Equal(before))
	assert.Equal(t, "203.0.113.10", a.IPAddress(), "metadata untouched on a no-op")
}

func TestActivation_Reactivate_KeepsMetadataWhenEmpty(t *testing.T) {
	a := newTestActivation(t, "shop.example.com")
	a.Deactivate(time.Now())
	a.MarkClean()

	a.Reactivate("", "", time.Now())

	assert.Equal(t, "203.0.113.10", a.IPAddress())
	assert.Equal(t, "agent/1.0", a.UserAgent())
}

func TestReconstructActivation_RejectsBadStatus(t *testing.T) {
	_, err := ReconstructActivation(ActivationReconstructParams{
		ID:       1,
		KeyID:    1,
		Instance: "shop.example.com",
		Status:   "frozen",
	})
	assert.Error(t, err)
}
