package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/metrics"
	"github.com/jwalitptl/clinic/pkg/security"
	"github.com/jwalitptl/clinic/pkg/validator"
)

var (
	ErrInvalidPin           = errors.New("incorrect PIN")
	ErrBiometricUnavailable = errors.New("biometric authentication is not available")
	ErrBiometricDisabled    = errors.New("biometric unlock is not enabled")
	ErrBiometricFailed      = errors.New("biometric authentication failed")
)

// Secure store keys
const (
	KeyPin       = "app_pin"
	KeyBiometric = "biometric_enabled"
)

const (
	unlockPrompt = "Unlock Clinic"
	enablePrompt = "Confirm to enable biometric unlock"
)

// SecretStore is the secret side of the preferences service.
type SecretStore interface {
	Secret(ctx context.Context, key string) (string, bool, error)
	SetSecret(ctx context.Context, key, value string) error
	DeleteSecret(ctx context.Context, key string) error
}

// Biometric is the device's fingerprint or face prompt.
type Biometric interface {
	IsAvailable(ctx context.Context) bool
	Authenticate(ctx context.Context, prompt string) (bool, error)
}

type noBiometric struct{}

// NoBiometric is a Biometric for hosts without a sensor.
func NoBiometric() Biometric { return noBiometric{} }

func (noBiometric) IsAvailable(context.Context) bool { return false }

func (noBiometric) Authenticate(context.Context, string) (bool, error) {
	return false, ErrBiometricUnavailable
}

// Service is the session gate. The process starts locked; Init decides whether
// there is anything to unlock.
type Service struct {
	secrets   SecretStore
	hasher    security.SecretHasher
	biometric Biometric
	validator validator.Validator
	logger    *logger.Logger
	metrics   *metrics.Metrics

	mu    sync.RWMutex
	state model.SessionState
}

func NewService(secrets SecretStore, hasher security.SecretHasher, biometric Biometric,
	v validator.Validator, log *logger.Logger, m *metrics.Metrics) *Service {
	if biometric == nil {
		biometric = NoBiometric()
	}
	return &Service{
		secrets:   secrets,
		hasher:    hasher,
		biometric: biometric,
		validator: v,
		logger:    log,
		metrics:   m,
		state:     model.SessionLocked,
	}
}

// Init runs once at cold start. Without a stored PIN the session unlocks at once.
// Otherwise it stays locked and, when biometric unlock is enabled and available,
// one biometric attempt is made. A failed attempt leaves PIN entry open.
func (s *Service) Init(ctx context.Context) error {
	pinSet, err := s.HasPin(ctx)
	if err != nil {
		return err
	}
	if !pinSet {
		s.setState(model.SessionUnlocked)
		return nil
	}

	s.setState(model.SessionLocked)

	if s.BiometricEnabled(ctx) && s.biometric.IsAvailable(ctx) {
		if err := s.AuthenticateBiometric(ctx); err != nil {
			s.logger.Info("automatic biometric unlock did not succeed", "error", err.Error())
		}
	}
	return nil
}

func (s *Service) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == model.SessionUnlocked
}

func (s *Service) Status(ctx context.Context) (*model.SessionStatus, error) {
	pinSet, err := s.HasPin(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	return &model.SessionStatus{
		State:            state,
		PinSet:           pinSet,
		BiometricEnabled: s.BiometricEnabled(ctx),
	}, nil
}

// Verify unlocks the session when pin matches the stored PIN.
func (s *Service) Verify(ctx context.Context, pin string) error {
	hashed, ok, err := s.secrets.Secret(ctx, KeyPin)
	if err != nil {
		return err
	}
	if !ok {
		s.setState(model.SessionUnlocked)
		return nil
	}

	if err := s.hasher.Compare(hashed, pin); err != nil {
		s.count("pin", "failure")
		if errors.Is(err, security.ErrMismatch) {
			return apperrors.NewAuth("incorrect PIN", ErrInvalidPin)
		}
		return apperrors.NewAuth("PIN check failed", err)
	}

	s.count("pin", "success")
	s.setState(model.SessionUnlocked)
	return nil
}

// SetPin stores a new PIN. The lock state does not change.
func (s *Service) SetPin(ctx context.Context, pin, confirm string) error {
	req := model.SetPinRequest{Pin: pin, ConfirmPin: confirm}
	if err := s.validator.Validate(&req); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(pin)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.secrets.SetSecret(ctx, KeyPin, hashed); err != nil {
		return err
	}

	s.logger.Info("unlock PIN updated")
	return nil
}

// ClearPin removes the PIN and with it the gate.
func (s *Service) ClearPin(ctx context.Context) error {
	if err := s.secrets.DeleteSecret(ctx, KeyPin); err != nil {
		return err
	}
	s.setState(model.SessionUnlocked)
	s.logger.Info("unlock PIN removed")
	return nil
}

func (s *Service) HasPin(ctx context.Context) (bool, error) {
	_, ok, err := s.secrets.Secret(ctx, KeyPin)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// BiometricEnabled reads the stored flag. An unreadable flag counts as off.
func (s *Service) BiometricEnabled(ctx context.Context) bool {
	v, ok, err := s.secrets.Secret(ctx, KeyBiometric)
	if err != nil {
		s.logger.Warn("failed to read biometric flag", "error", err.Error())
		return false
	}
	return ok && v == "true"
}

// SetBiometric turns biometric unlock on or off. Turning it on needs one
// successful prompt first.
func (s *Service) SetBiometric(ctx context.Context, enabled bool) error {
	if enabled {
		if !s.biometric.IsAvailable(ctx) {
			return apperrors.NewAuth("biometric authentication is not available", ErrBiometricUnavailable)
		}
		ok, err := s.biometric.Authenticate(ctx, enablePrompt)
		if err != nil || !ok {
			return apperrors.NewAuth("biometric authentication failed", ErrBiometricFailed)
		}
	}

	value := "false"
	if enabled {
		value = "true"
	}
	if err := s.secrets.SetSecret(ctx, KeyBiometric, value); err != nil {
		return err
	}
	return nil
}

// AuthenticateBiometric is the biometric path to the unlocked state.
func (s *Service) AuthenticateBiometric(ctx context.Context) error {
	if !s.BiometricEnabled(ctx) {
		return apperrors.NewAuth("biometric unlock is not enabled", ErrBiometricDisabled)
	}
	if !s.biometric.IsAvailable(ctx) {
		return apperrors.NewAuth("biometric authentication is not available", ErrBiometricUnavailable)
	}

	ok, err := s.biometric.Authenticate(ctx, unlockPrompt)
	if err != nil || !ok {
		s.count("biometric", "failure")
		if err == nil {
			err = ErrBiometricFailed
		}
		return apperrors.NewAuth("biometric authentication failed", err)
	}

	s.count("biometric", "success")
	s.setState(model.SessionUnlocked)
	return nil
}

// Logout locks the session.
func (s *Service) Logout() {
	s.setState(model.SessionLocked)
}

func (s *Service) setState(state model.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Service) count(method, result string) {
	if s.metrics != nil {
		s.metrics.UnlockAttempts.WithLabelValues(method, result).Inc()
	}
}
