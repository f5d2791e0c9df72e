package sqlite

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic/internal/model"
)

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.date, a.time, a.status, a.notes, a.created_at, a.updated_at,
		COALESCE(p.full_name, '') AS patient_name
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
`

type appointmentRepository struct {
	s *Store
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (err error) {
	defer r.s.observe("appointments.create", time.Now(), &err)

	query := `
		INSERT INTO appointments (patient_id, date, time, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.s.insert(ctx, "create appointment", query,
		appointment.PatientID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return err
	}
	appointment.ID = id
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (_ *model.Appointment, err error) {
	defer r.s.observe("appointments.get", time.Now(), &err)

	var appointment model.Appointment
	if err := r.s.get(ctx, "get appointment", "appointment", id, &appointment, appointmentSelect+` WHERE a.id = ?`); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) (err error) {
	defer r.s.observe("appointments.update", time.Now(), &err)

	query := `
		UPDATE appointments
		SET patient_id = ?, date = ?, time = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	return r.s.execOne(ctx, "update appointment", "appointment", appointment.ID, query,
		appointment.PatientID,
		appointment.Date,
		appointment.Time,
		appointment.Status,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) (err error) {
	defer r.s.observe("appointments.delete", time.Now(), &err)

	return r.s.execOne(ctx, "delete appointment", "appointment", id, `DELETE FROM appointments WHERE id = ?`, id)
}

func (r *appointmentRepository) List(ctx context.Context) (_ []*model.Appointment, err error) {
	defer r.s.observe("appointments.list", time.Now(), &err)

	appointments := []*model.Appointment{}
	if err := r.s.sel(ctx, "list appointments", &appointments, appointmentSelect+` ORDER BY a.date ASC, a.time ASC, a.id ASC`); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) IDsByPatient(ctx context.Context, patientID int64) (_ []int64, err error) {
	defer r.s.observe("appointments.ids_by_patient", time.Now(), &err)

	ids := []int64{}
	if err := r.s.sel(ctx, "list patient appointments", &ids, `SELECT id FROM appointments WHERE patient_id = ?`, patientID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *appointmentRepository) DeleteByPatient(ctx context.Context, patientID int64) (_ int64, err error) {
	defer r.s.observe("appointments.delete_by_patient", time.Now(), &err)

	res, err := r.s.exec(ctx, "delete patient appointments", `DELETE FROM appointments WHERE patient_id = ?`, patientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
