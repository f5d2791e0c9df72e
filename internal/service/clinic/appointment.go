package clinic

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

// ListAppointments re-reads the appointment table, refreshes the projection and
// returns it ordered by date then time.
func (s *Service) ListAppointments(ctx context.Context) ([]*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadOne(ctx, appointmentsKey); err != nil {
		s.logger.Error(err, "failed to list appointments")
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return s.Appointments(), nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appt, nil
}

// CreateAppointment stores the appointment and, when it is scheduled, registers
// its reminder. A reminder failure never fails the create.
func (s *Service) CreateAppointment(ctx context.Context, in model.AppointmentInput) (*model.Appointment, error) {
	in.Normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	now := s.now()
	appt := &model.Appointment{
		Base:      model.Base{CreatedAt: now, UpdatedAt: now},
		PatientID: in.PatientID,
		Date:      in.Date,
		Time:      in.Time,
		Status:    in.Status,
		Notes:     in.Notes,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := livePatient(ctx, tx, in.PatientID)
		if err != nil {
			return err
		}
		appt.PatientName = patient.FullName
		return tx.Appointments().Create(ctx, appt)
	})
	if err != nil {
		s.logger.Error(err, "failed to create appointment", "patient_id", in.PatientID)
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.reload(ctx, appointmentsKey)
	s.scheduleReminder(ctx, appt)
	return appt, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id int64, in model.AppointmentInput) (*model.Appointment, error) {
	in.Normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var appt *model.Appointment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}

		if existing.PatientID != in.PatientID {
			patient, err := livePatient(ctx, tx, in.PatientID)
			if err != nil {
				return err
			}
			if _, err := tx.Treatments().ReassignPatient(ctx, id, in.PatientID); err != nil {
				return err
			}
			existing.PatientName = patient.FullName
		}

		existing.PatientID = in.PatientID
		existing.Date = in.Date
		existing.Time = in.Time
		existing.Status = in.Status
		existing.Notes = in.Notes
		existing.UpdatedAt = s.now()

		if err := tx.Appointments().Update(ctx, existing); err != nil {
			return err
		}
		appt = existing
		return nil
	})
	if err != nil {
		s.logger.Error(err, "failed to update appointment", "appointment_id", id)
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	// Treatments carry the appointment's date and time.
	s.reload(ctx, appointmentsKey, treatmentsKey)

	if s.cfg.SyncReminders {
		s.cancelReminders(ctx, appt.ID)
		s.scheduleReminder(ctx, appt)
	}
	return appt, nil
}

// DeleteAppointment removes the appointment and its treatments.
func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Treatments().DeleteByAppointment(ctx, id); err != nil {
			return err
		}
		return tx.Appointments().Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error(err, "failed to delete appointment", "appointment_id", id)
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.reload(ctx, appointmentsKey, treatmentsKey)
	s.cancelReminders(ctx, id)
	return nil
}

// livePatient loads the patient an appointment refers to. A missing patient is a
// validation failure of the form.
func livePatient(ctx context.Context, tx repository.Store, id int64) (*model.Patient, error) {
	patient, err := tx.Patients().Get(ctx, id)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Validation("patient_id", "patient does not exist")
	}
	return patient, err
}
