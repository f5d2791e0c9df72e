package clinic

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

// ListTreatments re-reads the treatment table, refreshes the projection and
// returns it newest first.
func (s *Service) ListTreatments(ctx context.Context) ([]*model.Treatment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadOne(ctx, treatmentsKey); err != nil {
		s.logger.Error(err, "failed to list treatments")
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	return s.Treatments(), nil
}

func (s *Service) GetTreatment(ctx context.Context, id int64) (*model.Treatment, error) {
	treatment, err := s.store.Treatments().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return treatment, nil
}

func (s *Service) CreateTreatment(ctx context.Context, in model.TreatmentInput) (*model.Treatment, error) {
	in.Normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	now := s.now()
	treatment := &model.Treatment{
		Base:          model.Base{CreatedAt: now, UpdatedAt: now},
		AppointmentID: in.AppointmentID,
		PatientID:     in.PatientID,
		Description:   in.Description,
		Prescriptions: in.Prescriptions,
		Cost:          in.CostValue(),
		FollowUpDate:  in.FollowUpDate,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appt, err := owningAppointment(ctx, tx, in)
		if err != nil {
			return err
		}
		treatment.PatientName = appt.PatientName
		treatment.AppointmentDate = appt.Date
		treatment.AppointmentTime = appt.Time
		return tx.Treatments().Create(ctx, treatment)
	})
	if err != nil {
		s.logger.Error(err, "failed to create treatment", "appointment_id", in.AppointmentID)
		return nil, fmt.Errorf("failed to create treatment: %w", err)
	}

	s.reload(ctx, treatmentsKey)
	return treatment, nil
}

func (s *Service) UpdateTreatment(ctx context.Context, id int64, in model.TreatmentInput) (*model.Treatment, error) {
	in.Normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var treatment *model.Treatment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Treatments().Get(ctx, id)
		if err != nil {
			return err
		}
		appt, err := owningAppointment(ctx, tx, in)
		if err != nil {
			return err
		}

		existing.AppointmentID = in.AppointmentID
		existing.PatientID = in.PatientID
		existing.Description = in.Description
		existing.Prescriptions = in.Prescriptions
		existing.Cost = in.CostValue()
		existing.FollowUpDate = in.FollowUpDate
		existing.UpdatedAt = s.now()
		existing.PatientName = appt.PatientName
		existing.AppointmentDate = appt.Date
		existing.AppointmentTime = appt.Time

		if err := tx.Treatments().Update(ctx, existing); err != nil {
			return err
		}
		treatment = existing
		return nil
	})
	if err != nil {
		s.logger.Error(err, "failed to update treatment", "treatment_id", id)
		return nil, fmt.Errorf("failed to update treatment: %w", err)
	}

	s.reload(ctx, treatmentsKey)
	return treatment, nil
}

func (s *Service) DeleteTreatment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Treatments().Delete(ctx, id); err != nil {
		s.logger.Error(err, "failed to delete treatment", "treatment_id", id)
		return fmt.Errorf("failed to delete treatment: %w", err)
	}

	s.reload(ctx, treatmentsKey)
	return nil
}

// owningAppointment loads the appointment a treatment form refers to and checks
// that the form's patient is that appointment's patient.
func owningAppointment(ctx context.Context, tx repository.Store, in model.TreatmentInput) (*model.Appointment, error) {
	appt, err := tx.Appointments().Get(ctx, in.AppointmentID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Validation("appointment_id", "appointment does not exist")
	}
	if err != nil {
		return nil, err
	}
	if appt.PatientID != in.PatientID {
		return nil, apperrors.Validation("patient_id", "patient does not match the appointment")
	}
	return appt, nil
}
