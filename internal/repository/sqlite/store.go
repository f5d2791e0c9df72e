package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic/internal/repository"
	apperrors "github.com/jwalitptl/clinic/pkg/errors"
	"github.com/jwalitptl/clinic/pkg/metrics"
)

// Store is the SQLite implementation of repository.Store. Outside a transaction q
// is the pool; inside WithTx it is the open *sqlx.Tx.
type Store struct {
	db      *sqlx.DB
	q       sqlx.ExtContext
	inTx    bool
	metrics *metrics.Metrics
}

// NewStore wraps db. m may be nil.
func NewStore(db *sqlx.DB, m *metrics.Metrics) *Store {
	return &Store{db: db, q: db, metrics: m}
}

// DB returns the database instance
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{s}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{s}
}

func (s *Store) Treatments() repository.TreatmentRepository {
	return &treatmentRepository{s}
}

func (s *Store) Settings() repository.SettingsRepository {
	return &settingsRepository{s}
}

// WithTx executes fn within a transaction, committing when fn returns nil and
// rolling back on error or panic. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.withTx(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) withTx(ctx context.Context, fn func(*Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewStorage("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, inTx: true, metrics: s.metrics}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorage("commit transaction", err)
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, errp *error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDB(op, time.Since(start).Seconds(), *errp)
}

func (s *Store) exec(ctx context.Context, op, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorage(op, err)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly the row identified by id.
func (s *Store) execOne(ctx context.Context, op, resource string, id int64, query string, args ...interface{}) error {
	res, err := s.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStorage(op, err)
	}
	if n == 0 {
		return apperrors.NewNotFound(resource, fmt.Errorf("id %d", id))
	}
	return nil
}

func (s *Store) insert(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := s.exec(ctx, op, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.NewStorage(op, err)
	}
	return id, nil
}

func (s *Store) get(ctx context.Context, op, resource string, id int64, dest interface{}, query string) error {
	if err := sqlx.GetContext(ctx, s.q, dest, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFound(resource, fmt.Errorf("id %d", id))
		}
		return apperrors.NewStorage(op, err)
	}
	return nil
}

func (s *Store) sel(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	if err := sqlx.SelectContext(ctx, s.q, dest, query, args...); err != nil {
		return apperrors.NewStorage(op, err)
	}
	return nil
}
