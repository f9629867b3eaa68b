package automation

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DayCycle advances the time-of-day dimension on a wall-clock schedule.
// Each daypart carries its own cron expression so deployments can shift
// the boundaries without code changes.
type DayCycle struct {
	cron   *cron.Cron
	store  *ContextStore
	logger *logrus.Logger
}

// NewDayCycle builds the scheduler from per-daypart cron expressions
// (six-field, with seconds) in the given timezone.
func NewDayCycle(store *ContextStore, logger *logrus.Logger, timezone string, schedule map[TimeOfDay]string) (*DayCycle, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid day cycle timezone %q: %w", timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(loc))
	d := &DayCycle{cron: c, store: store, logger: logger}

	for daypart, expr := range schedule {
		if !ValidTimeOfDay(string(daypart)) {
			return nil, fmt.Errorf("unknown daypart in day cycle schedule: %s", daypart)
		}

		part := daypart
		_, err := c.AddFunc(expr, func() {
			if _, err := d.store.SetTimeOfDay(part); err != nil {
				d.logger.WithError(err).WithField("time_of_day", part).Error("Day cycle transition failed")
				return
			}
			d.logger.WithField("time_of_day", part).Info("Day cycle advanced")
		})
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q for %s: %w", expr, daypart, err)
		}
	}

	return d, nil
}

// Start begins scheduling daypart transitions.
func (d *DayCycle) Start() {
	d.cron.Start()
	d.logger.Info("Day cycle scheduler started")
}

// Stop halts the scheduler, waiting for a running job to finish.
func (d *DayCycle) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.logger.Info("Day cycle scheduler stopped")
}
