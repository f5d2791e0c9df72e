package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
)

type Appointment struct {
	Base
	PatientID int64             `db:"patient_id" json:"patient_id"`
	Date      string            `db:"date" json:"date"`
	Time      string            `db:"time" json:"time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Notes     string            `db:"notes" json:"notes"`

	// Joined from patients on read.
	PatientName string `db:"patient_name" json:"patient_name"`
}

// StartsAt combines Date and Time in loc.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment date/time %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}

type AppointmentInput struct {
	PatientID int64             `json:"patient_id" validate:"required,gt=0"`
	Date      string            `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string            `json:"time" validate:"required,datetime=15:04"`
	Status    AppointmentStatus `json:"status" validate:"omitempty,oneof=scheduled completed canceled"`
	Notes     string            `json:"notes" validate:"max=2000"`
}

// Normalize applies the default status.
func (in *AppointmentInput) Normalize() {
	if in.Status == "" {
		in.Status = AppointmentStatusScheduled
	}
}
