package model

import (
	"time"
)

// Base contains common fields for all models
type Base struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateLayout and TimeLayout are the stored formats of appointment dates and times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
