package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository/sqlite"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/security"
	"github.com/jwalitptl/clinic/pkg/validator"
)

func newService(t *testing.T) *Service {
	t.Helper()

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := sqlite.NewStore(db, nil)
	require.NoError(t, store.EnsureSchema(context.Background()))

	return NewService(store.Settings(), security.NewMemoryStore(), validator.New())
}

func TestTheme(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	theme, err := svc.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, theme)

	theme, err = svc.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, theme)

	theme, err = svc.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, theme)

	require.NoError(t, svc.SetTheme(ctx, model.ThemeLight))
	theme, err = svc.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ThemeLight, theme)

	err = svc.SetTheme(ctx, "sepia")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestSecretsStayOutOfSettings(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.SetSecret(ctx, "app_pin", "hash"))

	v, ok, err := svc.Secret(ctx, "app_pin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hash", v)

	_, ok, err = svc.Get(ctx, "app_pin")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.DeleteSecret(ctx, "app_pin"))
	_, ok, err = svc.Secret(ctx, "app_pin")
	require.NoError(t, err)
	assert.False(t, ok)
}
