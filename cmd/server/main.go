package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hestia-ops/hestia-backend-go/internal/api"
	"github.com/hestia-ops/hestia-backend-go/internal/config"
	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
	"github.com/hestia-ops/hestia-backend-go/internal/database"
	"github.com/hestia-ops/hestia-backend-go/internal/database/repositories"
	"github.com/hestia-ops/hestia-backend-go/internal/discovery"
	"github.com/hestia-ops/hestia-backend-go/internal/websocket"
	"github.com/hestia-ops/hestia-backend-go/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Configure(log, cfg.Logging.Level, cfg.Logging.Format)

	log.WithFields(logrus.Fields{
		"port": cfg.Server.Port,
		"mode": cfg.Server.Mode,
	}).Info("Starting Hestia backend")

	db, err := database.Initialize(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
		log.WithError(err).Fatal("Failed to run database migrations")
	}

	repos := database.NewRepositories(db)

	collector := metrics.NewCollector("hestia")

	registry := devices.NewRegistry(log)
	dispatcher := devices.NewDispatcher(log)

	store := automation.NewContextStore(log, time.Duration(cfg.Simulation.IntervalMs)*time.Millisecond)
	engine := automation.NewEngine(registry, dispatcher, collector, log)
	store.Subscribe(engine.OnContextChange)

	clock := automation.NewSimClock(registry, dispatcher, store, engine, collector, log)

	hub := websocket.NewHub(log, collector)
	go hub.Run()
	engine.SetBroadcaster(hub)
	clock.SetBroadcaster(hub)

	if err := restoreState(repos, registry, engine, log); err != nil {
		log.WithError(err).Fatal("Failed to restore persisted state")
	}

	if cfg.Automation.DefinitionsPath != "" {
		if err := seedDefinitions(cfg.Automation.DefinitionsPath, engine, log); err != nil {
			log.WithError(err).Fatal("Failed to seed automation definitions")
		}
	}

	var dayCycle *automation.DayCycle
	if cfg.DayCycle.Enabled {
		dayCycle, err = automation.NewDayCycle(store, log, cfg.DayCycle.Timezone, map[automation.TimeOfDay]string{
			automation.Morning:   cfg.DayCycle.Morning,
			automation.Afternoon: cfg.DayCycle.Afternoon,
			automation.Evening:   cfg.DayCycle.Evening,
			automation.Night:     cfg.DayCycle.Night,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to configure day cycle")
		}
		dayCycle.Start()
	}

	if cfg.Simulation.Enabled {
		clock.Start()
	}

	var mdns *discovery.Service
	if cfg.Discovery.Enabled {
		mdns, err = discovery.Advertise(cfg.Discovery.InstanceName, cfg.Server.Port, log)
		if err != nil {
			log.WithError(err).Warn("Failed to advertise mDNS service")
		}
	}

	router := api.NewRouter(cfg, repos, registry, engine, store, clock, hub, collector, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	clock.Stop()
	if dayCycle != nil {
		dayCycle.Stop()
	}
	if mdns != nil {
		mdns.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

// seedDefinitions loads a declarative routines/preferences/quick-actions
// bundle into the engine. Artifacts with ids already restored from the
// database are replaced by the file's version.
func seedDefinitions(path string, engine *automation.Engine, log *logrus.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read definitions file: %w", err)
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	defs, err := automation.ParseDefinitions(data, format)
	if err != nil {
		return err
	}
	if err := defs.Load(engine); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"path":          path,
		"routines":      len(defs.Routines),
		"preferences":   len(defs.Preferences),
		"quick_actions": len(defs.QuickActions),
	}).Info("Seeded automation definitions")

	return nil
}

// restoreState rehydrates the in-memory registry and engine from the
// database so restarts resume where the last run left off.
func restoreState(repos *repositories.Repositories, registry *devices.Registry, engine *automation.Engine, log *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deviceRecords, err := repos.Device.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	for _, rec := range deviceRecords {
		device, err := database.RecordToDevice(rec)
		if err != nil {
			log.WithError(err).WithField("device_id", rec.ID).Warn("Skipping unreadable device record")
			continue
		}
		if err := registry.Add(device); err != nil {
			return err
		}
	}

	routineRecords, err := repos.Routine.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load routines: %w", err)
	}
	for _, rec := range routineRecords {
		routine, err := database.RecordToRoutine(rec)
		if err != nil {
			log.WithError(err).WithField("routine_id", rec.ID).Warn("Skipping unreadable routine record")
			continue
		}
		if err := engine.AddRoutine(routine); err != nil {
			return err
		}
	}

	preferenceRecords, err := repos.Preference.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	for _, rec := range preferenceRecords {
		preference, err := database.RecordToPreference(rec)
		if err != nil {
			log.WithError(err).WithField("preference_id", rec.ID).Warn("Skipping unreadable preference record")
			continue
		}
		if err := engine.AddPreference(preference); err != nil {
			return err
		}
	}

	quickActionRecords, err := repos.QuickAction.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load quick actions: %w", err)
	}
	for _, rec := range quickActionRecords {
		quickAction, err := database.RecordToQuickAction(rec)
		if err != nil {
			log.WithError(err).WithField("quick_action_id", rec.ID).Warn("Skipping unreadable quick action record")
			continue
		}
		if err := engine.AddQuickAction(quickAction); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"devices":       len(deviceRecords),
		"routines":      len(routineRecords),
		"preferences":   len(preferenceRecords),
		"quick_actions": len(quickActionRecords),
	}).Info("Restored persisted state")

	return nil
}
