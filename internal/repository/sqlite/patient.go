package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jwalitptl/clinic/internal/model"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
)

const patientColumns = `id, full_name, age, phone_number, category, medical_notes, created_at, updated_at`

type patientRepository struct {
	s *Store
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer r.s.observe("patients.create", time.Now(), &err)

	query := `
		INSERT INTO patients (full_name, age, phone_number, category, medical_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.s.insert(ctx, "create patient", query,
		patient.FullName,
		patient.Age,
		patient.PhoneNumber,
		patient.Category,
		patient.MedicalNotes,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return err
	}
	patient.ID = id
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (_ *model.Patient, err error) {
	defer r.s.observe("patients.get", time.Now(), &err)

	var patient model.Patient
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = ?`
	if err := r.s.get(ctx, "get patient", "patient", id, &patient, query); err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) (err error) {
	defer r.s.observe("patients.update", time.Now(), &err)

	query := `
		UPDATE patients
		SET full_name = ?, age = ?, phone_number = ?, category = ?, medical_notes = ?, updated_at = ?
		WHERE id = ?
	`
	return r.s.execOne(ctx, "update patient", "patient", patient.ID, query,
		patient.FullName,
		patient.Age,
		patient.PhoneNumber,
		patient.Category,
		patient.MedicalNotes,
		patient.UpdatedAt,
		patient.ID,
	)
}

func (r *patientRepository) Delete(ctx context.Context, id int64) (err error) {
	defer r.s.observe("patients.delete", time.Now(), &err)

	return r.s.execOne(ctx, "delete patient", "patient", id, `DELETE FROM patients WHERE id = ?`, id)
}

func (r *patientRepository) List(ctx context.Context) (_ []*model.Patient, err error) {
	defer r.s.observe("patients.list", time.Now(), &err)

	patients := []*model.Patient{}
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC, id DESC`
	if err := r.s.sel(ctx, "list patients", &patients, query); err != nil {
		return nil, err
	}
	return patients, nil
}

// Search matches query case-insensitively anywhere in the name or phone number.
// A blank query lists every patient.
func (r *patientRepository) Search(ctx context.Context, query string) (_ []*model.Patient, err error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return r.List(ctx)
	}

	defer r.s.observe("patients.search", time.Now(), &err)

	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	patients := []*model.Patient{}
	stmt := `
		SELECT ` + patientColumns + ` FROM patients
		WHERE LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(phone_number) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC
	`
	if err := r.s.sel(ctx, "search patients", &patients, stmt, pattern, pattern); err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context) (n int, err error) {
	defer r.s.observe("patients.count", time.Now(), &err)

	row := r.s.q.QueryRowxContext(ctx, `SELECT COUNT(*) FROM patients`)
	if err := row.Scan(&n); err != nil {
		return 0, apperrors.NewStorage("count patients", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
