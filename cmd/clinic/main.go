package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/clinic/internal/config"
	"github.com/jwalitptl/clinic/internal/email"
	"github.com/jwalitptl/clinic/internal/handler/appointment"
	"github.com/jwalitptl/clinic/internal/handler/health"
	"github.com/jwalitptl/clinic/internal/handler/patient"
	promhandler "github.com/jwalitptl/clinic/internal/handler/prometheus"
	"github.com/jwalitptl/clinic/internal/handler/report"
	"github.com/jwalitptl/clinic/internal/handler/session"
	"github.com/jwalitptl/clinic/internal/handler/settings"
	"github.com/jwalitptl/clinic/internal/handler/treatment"
	"github.com/jwalitptl/clinic/internal/repository/sqlite"
	"github.com/jwalitptl/clinic/internal/router"
	authService "github.com/jwalitptl/clinic/internal/service/auth"
	clinicService "github.com/jwalitptl/clinic/internal/service/clinic"
	"github.com/jwalitptl/clinic/internal/service/preferences"
	"github.com/jwalitptl/clinic/internal/service/reminder"
	"github.com/jwalitptl/clinic/internal/worker"
	"github.com/jwalitptl/clinic/pkg/logger"
	"github.com/jwalitptl/clinic/pkg/messaging/redis"
	"github.com/jwalitptl/clinic/pkg/metrics"
	"github.com/jwalitptl/clinic/pkg/notify"
	"github.com/jwalitptl/clinic/pkg/security"
	"github.com/jwalitptl/clinic/pkg/validator"
)

const metricsNamespace = "clinic"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "failed to load configuration")
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(metricsNamespace)
	if err := m.Register(registry); err != nil {
		log.Fatal(err, "failed to register metrics")
	}

	// Database
	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatal(err, "failed to open database", "path", cfg.Database.Path)
	}
	defer db.Close()

	store := sqlite.NewStore(db, m)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal(err, "failed to create schema")
	}
	if cfg.Seed.Enabled {
		seeded, err := store.SeedIfEmpty(ctx, time.Now().UTC())
		if err != nil {
			log.Fatal(err, "failed to seed database")
		}
		if seeded {
			log.Info("seeded sample data")
		}
	}

	// Secure store
	secrets, err := openSecureStore(cfg)
	if err != nil {
		log.Fatal(err, "failed to open secure store")
	}

	// Reminders
	loc, err := cfg.Reminders.Location()
	if err != nil {
		log.Fatal(err, "invalid reminder timezone", "timezone", cfg.Reminders.Timezone)
	}
	sinks, closeSinks := buildSinks(ctx, cfg, log)
	defer closeSinks()

	reminderLog := log.WithFields(map[string]interface{}{"component": "reminders"})
	scheduler := notify.NewLocalScheduler(cfg.Notifications.Enabled, sinks, reminderLog)
	defer scheduler.Close()

	reminders := reminder.NewService(scheduler, reminder.Config{
		LeadTime: cfg.Reminders.LeadTime,
		Location: loc,
	}, reminderLog, m)
	if err := reminders.Register(ctx); err != nil {
		log.Warn("appointment reminders are disabled", "error", err.Error())
	}

	// Services
	v := validator.New()

	clinicSvc := clinicService.NewService(store, reminders, v, log, m, clinicService.Config{
		SyncReminders: cfg.Reminders.SyncOnChange,
	})
	if err := clinicSvc.Load(ctx); err != nil {
		log.Fatal(err, "failed to load data")
	}

	// Reminder timers do not survive a restart; put back the ones still due
	// before any request can change appointments.
	worker.NewReminderRestorer(clinicSvc, reminders, reminderLog).Restore(ctx)

	prefSvc := preferences.NewService(store.Settings(), secrets, v)

	authSvc := authService.NewService(prefSvc, security.NewBcryptHasher(cfg.Security.BcryptCost), authService.NoBiometric(), v, log, m)
	if err := authSvc.Init(ctx); err != nil {
		log.Fatal(err, "failed to initialise session")
	}

	// Handlers
	metricsHandler, err := promhandler.New(registry, metricsNamespace)
	if err != nil {
		log.Fatal(err, "failed to register http metrics")
	}

	r := router.NewRouter(log, authSvc, router.Handlers{
		Health:       health.NewHandler(db, clinicSvc, authSvc, scheduler),
		Session:      session.NewHandler(authSvc),
		Patients:     patient.NewHandler(clinicSvc),
		Appointments: appointment.NewHandler(clinicSvc),
		Treatments:   treatment.NewHandler(clinicSvc),
		Reports:      report.NewHandler(clinicSvc, nil),
		Settings:     settings.NewHandler(prefSvc),
		Metrics:      metricsHandler,
	}, router.RouterConfig{
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.Burst,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	r.Setup()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case err := <-errCh:
		log.Error(err, "server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
		os.Exit(1)
	}

	log.Info("server exited properly")
}

// openSecureStore keys the secure store from CLINIC_SECRET_KEY, or from the key
// file, which is created on first start.
func openSecureStore(cfg *config.Config) (*security.FileStore, error) {
	var (
		key []byte
		err error
	)
	if cfg.Secrets.SecretKey != "" {
		key, err = security.ParseKey(cfg.Secrets.SecretKey)
	} else {
		key, err = security.LoadOrCreateKey(cfg.Security.KeyFile)
	}
	if err != nil {
		return nil, err
	}

	enc, err := security.NewAESEncryptor(key)
	if err != nil {
		return nil, err
	}
	return security.NewFileStore(cfg.Security.SecureStorePath, enc), nil
}

// buildSinks creates the configured reminder sinks. A sink that cannot start
// is skipped; the others still deliver.
func buildSinks(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]notify.Sink, func()) {
	var (
		sinks   []notify.Sink
		closers []func() error
	)

	if cfg.Reminders.HasSink("log") {
		sinks = append(sinks, notify.NewLogSink(log))
	}

	if cfg.Reminders.HasSink("redis") {
		broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log)
		if err != nil {
			log.Error(err, "redis reminder sink disabled")
		} else {
			sinks = append(sinks, notify.NewBrokerSink(broker, cfg.Reminders.Channel))
			closers = append(closers, broker.Close)
		}
	}

	if cfg.Reminders.HasSink("email") {
		if cfg.Reminders.EmailTo == "" {
			log.Warn("email reminder sink disabled: reminders.email_to is empty")
		} else {
			sinks = append(sinks, email.NewReminderSink(email.NewSMTPService(cfg.ToEmailConfig()), cfg.Reminders.EmailTo))
		}
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Error(err, "failed to close sink")
			}
		}
	}
}
