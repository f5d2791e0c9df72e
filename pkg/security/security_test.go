package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hashed)

	assert.NoError(t, h.Compare(hashed, "1234"))
	assert.ErrorIs(t, h.Compare(hashed, "0000"), ErrMismatch)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "secret.key")

	first, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = ParseKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	key, err := LoadOrCreateKey(filepath.Join(dir, "k"))
	require.NoError(t, err)
	enc, err := NewAESEncryptor(key)
	require.NoError(t, err)

	path := filepath.Join(dir, "secure.bin")
	store := NewFileStore(path, enc)

	_, ok, err := store.Get(ctx, "app_pin")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "app_pin", "hash"))
	require.NoError(t, store.Set(ctx, "biometric_enabled", "true"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "biometric_enabled")

	reopened := NewFileStore(path, enc)
	v, ok, err := reopened.Get(ctx, "app_pin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hash", v)

	require.NoError(t, reopened.Delete(ctx, "app_pin"))
	_, ok, err = store.Get(ctx, "app_pin")
	require.NoError(t, err)
	assert.False(t, ok)

	otherKey := make([]byte, 32)
	otherEnc, err := NewAESEncryptor(otherKey)
	require.NoError(t, err)
	_, _, err = NewFileStore(path, otherEnc).Get(ctx, "biometric_enabled")
	assert.Error(t, err)
}
