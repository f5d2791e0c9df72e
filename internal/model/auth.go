package model

// SessionState is the lock state of the running process.
type SessionState string

const (
	SessionLocked   SessionState = "locked"
	SessionUnlocked SessionState = "unlocked"
)

// Session request types
type UnlockRequest struct {
	Pin string `json:"pin" validate:"required"`
}

type SetPinRequest struct {
	Pin        string `json:"pin" validate:"required,numeric,min=4,max=6"`
	ConfirmPin string `json:"confirm_pin" validate:"required,eqfield=Pin"`
}

type BiometricRequest struct {
	Enabled bool `json:"enabled"`
}

// SessionStatus is what the UI needs to decide between the lock screen and the app.
type SessionStatus struct {
	State            SessionState `json:"state"`
	PinSet           bool         `json:"pin_set"`
	BiometricEnabled bool         `json:"biometric_enabled"`
}
