package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hestia-ops/hestia-backend-go/internal/config"
	"github.com/hestia-ops/hestia-backend-go/internal/core/automation"
	"github.com/hestia-ops/hestia-backend-go/internal/core/devices"
	"github.com/hestia-ops/hestia-backend-go/internal/core/metrics"
	"github.com/hestia-ops/hestia-backend-go/internal/database"
	"github.com/hestia-ops/hestia-backend-go/internal/database/repositories"
	"github.com/hestia-ops/hestia-backend-go/internal/websocket"
)

const persistTimeout = 5 * time.Second

// Handlers aggregates the HTTP handlers and their dependencies.
type Handlers struct {
	cfg       *config.Config
	repos     *repositories.Repositories
	registry  *devices.Registry
	engine    *automation.Engine
	store     *automation.ContextStore
	clock     *automation.SimClock
	hub       *websocket.Hub
	collector *metrics.Collector
	logger    *logrus.Logger
	started   time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, repos *repositories.Repositories, registry *devices.Registry, engine *automation.Engine, store *automation.ContextStore, clock *automation.SimClock, hub *websocket.Hub, collector *metrics.Collector, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:       cfg,
		repos:     repos,
		registry:  registry,
		engine:    engine,
		store:     store,
		clock:     clock,
		hub:       hub,
		collector: collector,
		logger:    logger,
		started:   time.Now(),
	}
}

// refreshDeviceMetrics recomputes the per-type device gauges after a
// registry membership change.
func (h *Handlers) refreshDeviceMetrics() {
	counts := make(map[devices.DeviceType]int)
	for _, d := range h.registry.List() {
		counts[d.Type]++
	}
	for _, t := range devices.DeviceTypes() {
		h.collector.SetDeviceCount(string(t), counts[t])
	}
}

// persistDevice writes a committed device through to storage.
// Persistence follows the in-memory registry and never blocks the
// response on failure.
func (h *Handlers) persistDevice(d *devices.Device) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec, err := database.DeviceToRecord(d)
	if err == nil {
		err = h.repos.Device.Upsert(ctx, rec)
	}
	if err != nil {
		h.logger.WithError(err).WithField("device_id", d.ID).Warn("Failed to persist device")
	}
}

func (h *Handlers) persistDevices(list []*devices.Device) {
	for _, d := range list {
		h.persistDevice(d)
	}
}

func (h *Handlers) persistRoutine(r *automation.Routine) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec, err := database.RoutineToRecord(r)
	if err == nil {
		err = h.repos.Routine.Upsert(ctx, rec)
	}
	if err != nil {
		h.logger.WithError(err).WithField("routine_id", r.ID).Warn("Failed to persist routine")
	}
}

func (h *Handlers) persistPreference(p *automation.Preference) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec, err := database.PreferenceToRecord(p)
	if err == nil {
		err = h.repos.Preference.Upsert(ctx, rec)
	}
	if err != nil {
		h.logger.WithError(err).WithField("preference_id", p.ID).Warn("Failed to persist preference")
	}
}

func (h *Handlers) persistQuickAction(q *automation.QuickAction) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec, err := database.QuickActionToRecord(q)
	if err == nil {
		err = h.repos.QuickAction.Upsert(ctx, rec)
	}
	if err != nil {
		h.logger.WithError(err).WithField("quick_action_id", q.ID).Warn("Failed to persist quick action")
	}
}
