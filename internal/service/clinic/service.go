package clinic

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic/internal/model"
	"github.com/jwalitptl/clinic/internal/repository"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/metrics"
	"github.com/jwalitptl/clinic/pkg/validator"
)

type entity string

const (
	patientsKey     entity = "patients"
	appointmentsKey entity = "appointments"
	treatmentsKey   entity = "treatments"
)

// Reminders is the reminder side effect of appointment writes.
type Reminders interface {
	ScheduleReminder(ctx context.Context, appt *model.Appointment) (string, error)
	CancelForAppointment(ctx context.Context, appointmentID int64)
}

type Config struct {
	// SyncReminders cancels and reschedules reminders when appointments are
	// updated or deleted. Off, only creation schedules a reminder.
	SyncReminders bool
	Clock         func() time.Time
}

// Service is the clinic data core. It owns the in-memory projections of the three
// entity tables and refreshes them from storage after every write.
type Service struct {
	store     repository.Store
	reminders Reminders
	validator validator.Validator
	logger    *logger.Logger
	metrics   *metrics.Metrics
	cfg       Config

	projections *cache.Cache
	// Serialises each write with the reload that follows it.
	mu          sync.Mutex
	initialized atomic.Bool
}

func NewService(store repository.Store, reminders Reminders, v validator.Validator, log *logger.Logger, m *metrics.Metrics, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		store:       store,
		reminders:   reminders,
		validator:   v,
		logger:      log,
		metrics:     m,
		cfg:         cfg,
		projections: cache.New(cache.NoExpiration, 0),
	}
}

// Load fills every projection from storage and marks the service initialized.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range []entity{patientsKey, appointmentsKey, treatmentsKey} {
		if err := s.reloadOne(ctx, e); err != nil {
			return err
		}
	}
	s.initialized.Store(true)
	return nil
}

// Initialized reports whether the database is ready and the projections loaded.
func (s *Service) Initialized() bool {
	return s.initialized.Load()
}

// Patients returns the patient projection.
func (s *Service) Patients() []*model.Patient {
	v, ok := s.projections.Get(string(patientsKey))
	if !ok {
		return []*model.Patient{}
	}
	return append([]*model.Patient(nil), v.([]*model.Patient)...)
}

// Appointments returns the appointment projection.
func (s *Service) Appointments() []*model.Appointment {
	v, ok := s.projections.Get(string(appointmentsKey))
	if !ok {
		return []*model.Appointment{}
	}
	return append([]*model.Appointment(nil), v.([]*model.Appointment)...)
}

// WithAppointments calls fn with the appointment projection. Writes wait until
// fn returns.
func (s *Service) WithAppointments(fn func([]*model.Appointment)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.Appointments())
}

// Treatments returns the treatment projection.
func (s *Service) Treatments() []*model.Treatment {
	v, ok := s.projections.Get(string(treatmentsKey))
	if !ok {
		return []*model.Treatment{}
	}
	return append([]*model.Treatment(nil), v.([]*model.Treatment)...)
}

func (s *Service) now() time.Time {
	return s.cfg.Clock().UTC()
}

// reload refreshes the given projections after a committed write. A failure
// leaves the previous projection in place and does not fail the write.
func (s *Service) reload(ctx context.Context, entities ...entity) {
	for _, e := range entities {
		if err := s.reloadOne(ctx, e); err != nil {
			s.logger.Error(err, "failed to reload projection", "entity", string(e))
		}
	}
}

func (s *Service) reloadOne(ctx context.Context, e entity) error {
	var (
		rows interface{}
		n    int
	)

	switch e {
	case patientsKey:
		patients, err := s.store.Patients().List(ctx)
		if err != nil {
			return err
		}
		rows, n = patients, len(patients)
	case appointmentsKey:
		appointments, err := s.store.Appointments().List(ctx)
		if err != nil {
			return err
		}
		rows, n = appointments, len(appointments)
	case treatmentsKey:
		treatments, err := s.store.Treatments().List(ctx)
		if err != nil {
			return err
		}
		rows, n = treatments, len(treatments)
	}

	s.projections.Set(string(e), rows, cache.NoExpiration)
	if s.metrics != nil {
		s.metrics.ProjectionSize.WithLabelValues(string(e)).Set(float64(n))
	}
	return nil
}

func (s *Service) scheduleReminder(ctx context.Context, appt *model.Appointment) {
	if s.reminders == nil || appt.Status != model.AppointmentStatusScheduled {
		return
	}
	if _, err := s.reminders.ScheduleReminder(ctx, appt); err != nil {
		s.logger.Warn("failed to schedule appointment reminder", "appointment_id", appt.ID, "error", err.Error())
	}
}

func (s *Service) cancelReminders(ctx context.Context, appointmentIDs ...int64) {
	if s.reminders == nil || !s.cfg.SyncReminders {
		return
	}
	for _, id := range appointmentIDs {
		s.reminders.CancelForAppointment(ctx, id)
	}
}
