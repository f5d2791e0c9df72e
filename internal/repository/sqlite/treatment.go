package sqlite

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic/internal/model"
)

const treatmentSelect = `
	SELECT t.id, t.appointment_id, t.patient_id, t.description, t.prescriptions, t.cost,
		t.follow_up_date, t.created_at, t.updated_at,
		COALESCE(p.full_name, '') AS patient_name,
		COALESCE(a.date, '') AS appointment_date,
		COALESCE(a.time, '') AS appointment_time
	FROM treatments t
	LEFT JOIN patients p ON p.id = t.patient_id
	LEFT JOIN appointments a ON a.id = t.appointment_id
`

type treatmentRepository struct {
	s *Store
}

func (r *treatmentRepository) Create(ctx context.Context, treatment *model.Treatment) (err error) {
	defer r.s.observe("treatments.create", time.Now(), &err)

	query := `
		INSERT INTO treatments (
			appointment_id, patient_id, description, prescriptions, cost,
			follow_up_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.s.insert(ctx, "create treatment", query,
		treatment.AppointmentID,
		treatment.PatientID,
		treatment.Description,
		treatment.Prescriptions,
		treatment.Cost,
		treatment.FollowUpDate,
		treatment.CreatedAt,
		treatment.UpdatedAt,
	)
	if err != nil {
		return err
	}
	treatment.ID = id
	return nil
}

func (r *treatmentRepository) Get(ctx context.Context, id int64) (_ *model.Treatment, err error) {
	defer r.s.observe("treatments.get", time.Now(), &err)

	var treatment model.Treatment
	if err := r.s.get(ctx, "get treatment", "treatment", id, &treatment, treatmentSelect+` WHERE t.id = ?`); err != nil {
		return nil, err
	}
	return &treatment, nil
}

func (r *treatmentRepository) Update(ctx context.Context, treatment *model.Treatment) (err error) {
	defer r.s.observe("treatments.update", time.Now(), &err)

	query := `
		UPDATE treatments
		SET appointment_id = ?, patient_id = ?, description = ?, prescriptions = ?, cost = ?,
			follow_up_date = ?, updated_at = ?
		WHERE id = ?
	`
	return r.s.execOne(ctx, "update treatment", "treatment", treatment.ID, query,
		treatment.AppointmentID,
		treatment.PatientID,
		treatment.Description,
		treatment.Prescriptions,
		treatment.Cost,
		treatment.FollowUpDate,
		treatment.UpdatedAt,
		treatment.ID,
	)
}

func (r *treatmentRepository) Delete(ctx context.Context, id int64) (err error) {
	defer r.s.observe("treatments.delete", time.Now(), &err)

	return r.s.execOne(ctx, "delete treatment", "treatment", id, `DELETE FROM treatments WHERE id = ?`, id)
}

func (r *treatmentRepository) List(ctx context.Context) (_ []*model.Treatment, err error) {
	defer r.s.observe("treatments.list", time.Now(), &err)

	treatments := []*model.Treatment{}
	if err := r.s.sel(ctx, "list treatments", &treatments, treatmentSelect+` ORDER BY t.created_at DESC, t.id DESC`); err != nil {
		return nil, err
	}
	return treatments, nil
}

// DeleteByPatient removes treatments owned by the patient directly or through any
// of the patient's appointments. Each row is deleted once whichever path reaches it.
func (r *treatmentRepository) DeleteByPatient(ctx context.Context, patientID int64) (_ int64, err error) {
	defer r.s.observe("treatments.delete_by_patient", time.Now(), &err)

	query := `
		DELETE FROM treatments
		WHERE patient_id = ?
			OR appointment_id IN (SELECT id FROM appointments WHERE patient_id = ?)
	`
	res, err := r.s.exec(ctx, "delete patient treatments", query, patientID, patientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *treatmentRepository) DeleteByAppointment(ctx context.Context, appointmentID int64) (_ int64, err error) {
	defer r.s.observe("treatments.delete_by_appointment", time.Now(), &err)

	res, err := r.s.exec(ctx, "delete appointment treatments", `DELETE FROM treatments WHERE appointment_id = ?`, appointmentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReassignPatient keeps the treatments of an appointment pointing at the
// appointment's patient after it changes.
func (r *treatmentRepository) ReassignPatient(ctx context.Context, appointmentID, patientID int64) (_ int64, err error) {
	defer r.s.observe("treatments.reassign_patient", time.Now(), &err)

	res, err := r.s.exec(ctx, "reassign treatments", `UPDATE treatments SET patient_id = ? WHERE appointment_id = ?`, patientID, appointmentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
