package repository

import (
	"context"

	"github.com/jwalitptl/clinic/internal/model"
)

// All repository interfaces in one file
type (
	// PatientRepository handles patient rows. List and Search order by created_at
	// descending.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.Patient, error)
		Search(ctx context.Context, query string) ([]*model.Patient, error)
		Count(ctx context.Context) (int, error)
	}

	// AppointmentRepository handles appointment rows joined with their patient's name.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.Appointment, error)
		IDsByPatient(ctx context.Context, patientID int64) ([]int64, error)
		DeleteByPatient(ctx context.Context, patientID int64) (int64, error)
	}

	// TreatmentRepository handles treatment rows joined with patient and appointment
	// display fields.
	TreatmentRepository interface {
		Create(ctx context.Context, treatment *model.Treatment) error
		Get(ctx context.Context, id int64) (*model.Treatment, error)
		Update(ctx context.Context, treatment *model.Treatment) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context) ([]*model.Treatment, error)
		DeleteByPatient(ctx context.Context, patientID int64) (int64, error)
		DeleteByAppointment(ctx context.Context, appointmentID int64) (int64, error)
		ReassignPatient(ctx context.Context, appointmentID, patientID int64) (int64, error)
	}

	// SettingsRepository is the plain key/value preference table.
	SettingsRepository interface {
		Get(ctx context.Context, key string) (string, bool, error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// Store groups the repositories over one storage handle. Repositories obtained
	// from the Store passed to WithTx's fn run inside that transaction.
	Store interface {
		Patients() PatientRepository
		Appointments() AppointmentRepository
		Treatments() TreatmentRepository
		Settings() SettingsRepository
		WithTx(ctx context.Context, fn func(Store) error) error
	}
)
