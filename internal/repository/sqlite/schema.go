package sqlite

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic/internal/repository"
)

var _ repository.Store = (*Store)(nil)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name     TEXT NOT NULL,
		age           INTEGER NOT NULL,
		phone_number  TEXT NOT NULL,
		category      TEXT,
		medical_notes TEXT NOT NULL DEFAULT '',
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		date       TEXT NOT NULL,
		time       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'scheduled',
		notes      TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS treatments (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		appointment_id INTEGER NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
		patient_id     INTEGER NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		description    TEXT NOT NULL,
		prescriptions  TEXT NOT NULL DEFAULT '',
		cost           REAL DEFAULT 0,
		follow_up_date TEXT,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date, time)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_appointment_id ON treatments(appointment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_patient_id ON treatments(patient_id)`,
}

// EnsureSchema creates the four clinic tables and their indexes when absent. It is
// safe to call on every start.
func (s *Store) EnsureSchema(ctx context.Context) (err error) {
	defer s.observe("schema.ensure", time.Now(), &err)

	return s.withTx(ctx, func(tx *Store) error {
		for _, stmt := range schema {
			if _, err := tx.exec(ctx, "ensure schema", stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
