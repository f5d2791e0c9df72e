// Package preferences is the single place app configuration is read and written.
// Plain preferences live in the settings table; secrets live in the encrypted
// secure store.
package preferences

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/security"
	"github.com/jwalitptl/clinic/pkg/validator"
)

const DefaultTheme = model.ThemeLight

type Service struct {
	settings  repository.SettingsRepository
	secrets   security.SecureStore
	validator validator.Validator
}

func NewService(settings repository.SettingsRepository, secrets security.SecureStore, v validator.Validator) *Service {
	return &Service{
		settings:  settings,
		secrets:   secrets,
		validator: v,
	}
}

func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.settings.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return v, ok, nil
}

func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.settings.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

func (s *Service) Secret(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.secrets.Get(ctx, key)
	if err != nil {
		return "", false, apperrors.NewStorage("read secret", err)
	}
	return v, ok, nil
}

func (s *Service) SetSecret(ctx context.Context, key, value string) error {
	if err := s.secrets.Set(ctx, key, value); err != nil {
		return apperrors.NewStorage("save secret", err)
	}
	return nil
}

func (s *Service) DeleteSecret(ctx context.Context, key string) error {
	if err := s.secrets.Delete(ctx, key); err != nil {
		return apperrors.NewStorage("delete secret", err)
	}
	return nil
}

// Theme returns the stored theme, or the default when none is stored.
func (s *Service) Theme(ctx context.Context) (model.Theme, error) {
	v, ok, err := s.Get(ctx, model.SettingTheme)
	if err != nil {
		return "", err
	}
	if !ok || (v != string(model.ThemeLight) && v != string(model.ThemeDark)) {
		return DefaultTheme, nil
	}
	return model.Theme(v), nil
}

func (s *Service) SetTheme(ctx context.Context, theme model.Theme) error {
	in := model.ThemeInput{Theme: theme}
	if err := s.validator.Validate(&in); err != nil {
		return err
	}
	return s.Set(ctx, model.SettingTheme, string(theme))
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Service) ToggleTheme(ctx context.Context) (model.Theme, error) {
	current, err := s.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := model.ThemeDark
	if current == model.ThemeDark {
		next = model.ThemeLight
	}
	if err := s.Set(ctx, model.SettingTheme, string(next)); err != nil {
		return "", err
	}
	return next, nil
}
