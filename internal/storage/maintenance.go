package storage

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Maintenance runs periodic housekeeping against the database on a cron schedule.
type Maintenance struct {
	db     *DB
	logger *logrus.Logger
	sched  *cron.Cron
}

// NewMaintenance schedules a WAL checkpoint using a cron expression
// ("@every 10m", "0 * * * *", ...).
func NewMaintenance(db *DB, schedule string, logger *logrus.Logger) (*Maintenance, error) {
	m := &Maintenance{db: db, logger: logger, sched: cron.New()}
	if _, err := m.sched.AddFunc(schedule, m.checkpoint); err != nil {
		return nil, fmt.Errorf("invalid checkpoint schedule %q: %w", schedule, err)
	}
	return m, nil
}

func (m *Maintenance) checkpoint() {
	if err := m.db.Checkpoint(context.Background()); err != nil {
		m.logger.WithError(err).Warn("wal checkpoint failed")
		return
	}
	m.logger.Debug("wal checkpoint done")
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (m *Maintenance) Run(ctx context.Context) error {
	m.sched.Start()
	<-ctx.Done()
	<-m.sched.Stop().Done()
	return nil
}
