package clinic

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository"
)

// ListPatients re-reads the patient table, refreshes the projection and returns it.
func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadOne(ctx, patientsKey); err != nil {
		s.logger.Error(err, "failed to list patients")
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return s.Patients(), nil
}

// SearchPatients matches query against name and phone number. The projection is
// left untouched.
func (s *Service) SearchPatients(ctx context.Context, query string) ([]*model.Patient, error) {
	patients, err := s.store.Patients().Search(ctx, query)
	if err != nil {
		s.logger.Error(err, "failed to search patients", "query", query)
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) CreatePatient(ctx context.Context, in model.PatientInput) (*model.Patient, error) {
	in.Normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	now := s.now()
	patient := &model.Patient{
		Base:         model.Base{CreatedAt: now, UpdatedAt: now},
		FullName:     in.FullName,
		Age:          *in.Age,
		PhoneNumber:  in.PhoneNumber,
		Category:     in.Category,
		MedicalNotes: in.MedicalNotes,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Patients().Create(ctx, patient); err != nil {
		s.logger.Error(err, "failed to create patient")
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.reload(ctx, patientsKey)
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, in model.PatientInput) (*model.Patient, error) {
	in.Normalize()
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var patient *model.Patient
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		existing, err := tx.Patients().Get(ctx, id)
		if err != nil {
			return err
		}

		existing.FullName = in.FullName
		existing.Age = *in.Age
		existing.PhoneNumber = in.PhoneNumber
		existing.Category = in.Category
		existing.MedicalNotes = in.MedicalNotes
		existing.UpdatedAt = s.now()

		if err := tx.Patients().Update(ctx, existing); err != nil {
			return err
		}
		patient = existing
		return nil
	})
	if err != nil {
		s.logger.Error(err, "failed to update patient", "patient_id", id)
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	// Appointments and treatments carry the patient's name.
	s.reload(ctx, patientsKey, appointmentsKey, treatmentsKey)
	return patient, nil
}

// DeletePatient removes the patient with every appointment and treatment it owns
// in one transaction.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var appointmentIDs []int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		ids, err := tx.Appointments().IDsByPatient(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Treatments().DeleteByPatient(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Appointments().DeleteByPatient(ctx, id); err != nil {
			return err
		}
		if err := tx.Patients().Delete(ctx, id); err != nil {
			return err
		}
		appointmentIDs = ids
		return nil
	})
	if err != nil {
		s.logger.Error(err, "failed to delete patient", "patient_id", id)
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.reload(ctx, patientsKey, appointmentsKey, treatmentsKey)
	s.cancelReminders(ctx, appointmentIDs...)
	return nil
}
