// Package housekeeping prunes old history and backups on a schedule.
package housekeeping

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const jobName = "housekeeping"

// History deletes runs older than a cutoff. *storage.DB satisfies it.
type History interface {
	DeleteOlderThan(before int64) (int64, error)
}

// Backups prunes per-application backups. *theme.Applier satisfies it.
type Backups interface {
	PruneBackups(keep int) (int, error)
}

// Report is the outcome of one pass.
type Report struct {
	DeletedRows    int64
	RemovedBackups int
}

type Service struct {
	history   History
	backups   Backups
	retention time.Duration
	keep      int
	now       func() time.Time
	logger    *slog.Logger

	scheduler gocron.Scheduler
	stopOnce  sync.Once
	stopErr   error
}

// New creates a housekeeper. A nil history or backups skips that half.
func New(history History, backups Backups, retention time.Duration, keep int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		history:   history,
		backups:   backups,
		retention: retention,
		keep:      keep,
		now:       time.Now,
		logger:    logger.With("topic", "history"),
	}
}

// RunOnce deletes history older than the retention window and prunes backups.
func (s *Service) RunOnce() (Report, error) {
	var (
		rep  Report
		errs []error
	)
	if s.history != nil {
		cutoff := s.now().Add(-s.retention).Unix()
		n, err := s.history.DeleteOlderThan(cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete old history: %w", err))
		}
		rep.DeletedRows = n
	}
	if s.backups != nil {
		n, err := s.backups.PruneBackups(s.keep)
		if err != nil {
			errs = append(errs, fmt.Errorf("prune backups: %w", err))
		}
		rep.RemovedBackups = n
	}
	return rep, errors.Join(errs...)
}

// Start runs RunOnce now and then every interval until Stop.
func (s *Service) Start(interval time.Duration) error {
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, name string, recoverData any) {
					s.logger.Error("scheduler job panicked", "job_id", jobID.String(), "job_name", name, "panic", recoverData)
				}),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.run),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("register %s job: %w", jobName, err)
	}

	s.scheduler = sched
	s.logger.Info("scheduler starting", "interval", interval, "retention", s.retention, "keep_backups", s.keep)
	sched.Start()
	return nil
}

// Stop shuts the scheduler down. It is safe to call more than once.
func (s *Service) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

func (s *Service) run() {
	rep, err := s.RunOnce()
	if err != nil {
		s.logger.Error("housekeeping failed", "err", err)
	}
	s.logger.Info("housekeeping done", "deleted_rows", rep.DeletedRows, "removed_backups", rep.RemovedBackups)
}
