package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic/internal/service/preferences"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/security"
	"github.com/jwalitptl/clinic/pkg/validator"
)

var (
	_ Biometric   = (*mockBiometric)(nil)
	_ SecretStore = (*preferences.Service)(nil)
)

type mockBiometric struct {
	Available bool
	Succeed   bool

	AuthenticateCallCount int32
}

func (m *mockBiometric) IsAvailable(context.Context) bool { return m.Available }

func (m *mockBiometric) Authenticate(context.Context, string) (bool, error) {
	atomic.AddInt32(&m.AuthenticateCallCount, 1)
	return m.Succeed, nil
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("keystore unavailable")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("keystore unavailable") }
func (brokenStore) Delete(context.Context, string) error      { return errors.New("keystore unavailable") }

// newPrefs wraps a secure store in the preferences service. The gate only
// touches the secret side, so no settings table is needed.
func newPrefs(store security.SecureStore) *preferences.Service {
	return preferences.NewService(nil, store, validator.New())
}

func newGate(store security.SecureStore, bio Biometric) *Service {
	return NewService(newPrefs(store), security.NewBcryptHasher(bcrypt.MinCost), bio, validator.New(), logger.Nop(), nil)
}

func TestNoPinStartsUnlocked(t *testing.T) {
	gate := newGate(security.NewMemoryStore(), nil)
	assert.False(t, gate.IsUnlocked())

	require.NoError(t, gate.Init(context.Background()))
	assert.True(t, gate.IsUnlocked())
}

func TestPinLifecycle(t *testing.T) {
	ctx := context.Background()
	store := security.NewMemoryStore()

	gate := newGate(store, nil)
	require.NoError(t, gate.Init(ctx))
	require.NoError(t, gate.SetPin(ctx, "1234", "1234"))
	assert.True(t, gate.IsUnlocked())

	stored, ok, err := newPrefs(store).Secret(ctx, KeyPin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "1234", stored)

	// Cold start with a PIN set.
	gate = newGate(store, nil)
	require.NoError(t, gate.Init(ctx))
	assert.False(t, gate.IsUnlocked())

	err = gate.Verify(ctx, "0000")
	assert.True(t, apperrors.Is(err, apperrors.ErrAuth))
	assert.ErrorIs(t, err, ErrInvalidPin)
	assert.False(t, gate.IsUnlocked())

	require.NoError(t, gate.Verify(ctx, "1234"))
	assert.True(t, gate.IsUnlocked())

	gate.Logout()
	assert.False(t, gate.IsUnlocked())

	require.NoError(t, gate.ClearPin(ctx))
	assert.True(t, gate.IsUnlocked())
	pinSet, err := gate.HasPin(ctx)
	require.NoError(t, err)
	assert.False(t, pinSet)
}

func TestSetPinValidation(t *testing.T) {
	ctx := context.Background()
	gate := newGate(security.NewMemoryStore(), nil)

	tests := []struct {
		name, pin, confirm, field string
	}{
		{"too short", "123", "123", "pin"},
		{"too long", "1234567", "1234567", "pin"},
		{"not digits", "12ab", "12ab", "pin"},
		{"mismatch", "1234", "4321", "confirm_pin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.SetPin(ctx, tt.pin, tt.confirm)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}

	pinSet, err := gate.HasPin(ctx)
	require.NoError(t, err)
	assert.False(t, pinSet)
}

func TestBiometricUnlockAtColdStart(t *testing.T) {
	ctx := context.Background()
	store := security.NewMemoryStore()
	bio := &mockBiometric{Available: true, Succeed: true}

	gate := newGate(store, bio)
	require.NoError(t, gate.Init(ctx))
	require.NoError(t, gate.SetPin(ctx, "123456", "123456"))
	require.NoError(t, gate.SetBiometric(ctx, true))
	assert.True(t, gate.BiometricEnabled(ctx))
	assert.Equal(t, int32(1), bio.AuthenticateCallCount)

	gate = newGate(store, bio)
	require.NoError(t, gate.Init(ctx))
	assert.True(t, gate.IsUnlocked())
	assert.Equal(t, int32(2), bio.AuthenticateCallCount)

	// A failed automatic attempt leaves the PIN path open.
	bio.Succeed = false
	gate = newGate(store, bio)
	require.NoError(t, gate.Init(ctx))
	assert.False(t, gate.IsUnlocked())
	assert.Equal(t, int32(3), bio.AuthenticateCallCount)
	require.NoError(t, gate.Verify(ctx, "123456"))
	assert.True(t, gate.IsUnlocked())
}

func TestSetBiometric(t *testing.T) {
	ctx := context.Background()

	gate := newGate(security.NewMemoryStore(), nil)
	err := gate.SetBiometric(ctx, true)
	assert.ErrorIs(t, err, ErrBiometricUnavailable)
	assert.False(t, gate.BiometricEnabled(ctx))

	bio := &mockBiometric{Available: true}
	gate = newGate(security.NewMemoryStore(), bio)
	err = gate.SetBiometric(ctx, true)
	assert.ErrorIs(t, err, ErrBiometricFailed)
	assert.False(t, gate.BiometricEnabled(ctx))

	err = gate.AuthenticateBiometric(ctx)
	assert.ErrorIs(t, err, ErrBiometricDisabled)

	bio.Succeed = true
	require.NoError(t, gate.SetBiometric(ctx, true))
	require.NoError(t, gate.AuthenticateBiometric(ctx))
	assert.True(t, gate.IsUnlocked())

	require.NoError(t, gate.SetBiometric(ctx, false))
	assert.False(t, gate.BiometricEnabled(ctx))
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	gate := newGate(security.NewMemoryStore(), nil)
	require.NoError(t, gate.Init(ctx))

	status, err := gate.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "unlocked", string(status.State))
	assert.False(t, status.PinSet)

	require.NoError(t, gate.SetPin(ctx, "1234", "1234"))
	gate.Logout()
	status, err = gate.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "locked", string(status.State))
	assert.True(t, status.PinSet)
}

func TestSecretsGoThroughPreferences(t *testing.T) {
	ctx := context.Background()
	prefs := newPrefs(security.NewMemoryStore())
	gate := NewService(prefs, security.NewBcryptHasher(bcrypt.MinCost), nil, validator.New(), logger.Nop(), nil)

	// A PIN stored through preferences locks a fresh gate.
	hashed, err := security.NewBcryptHasher(bcrypt.MinCost).Hash("4321")
	require.NoError(t, err)
	require.NoError(t, prefs.SetSecret(ctx, KeyPin, hashed))
	require.NoError(t, gate.Init(ctx))
	assert.False(t, gate.IsUnlocked())
	require.NoError(t, gate.Verify(ctx, "4321"))

	require.NoError(t, gate.ClearPin(ctx))
	_, ok, err := prefs.Secret(ctx, KeyPin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSecretStoreFailureIsStorageError(t *testing.T) {
	ctx := context.Background()
	gate := newGate(brokenStore{}, nil)

	err := gate.Init(ctx)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))

	_, err = gate.HasPin(ctx)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))

	err = gate.SetPin(ctx, "1234", "1234")
	assert.True(t, apperrors.Is(err, apperrors.ErrStorage))
}
