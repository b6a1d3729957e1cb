package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single run of a job
const jobTimeout = 30 * time.Second

// LiveExpirer archives live videos whose planned end has passed
type LiveExpirer interface {
	ArchiveExpired(ctx context.Context) (int64, error)
}

// Publisher publishes scheduled articles that are due
type Publisher interface {
	PublishDue(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	videos    LiveExpirer
	publisher Publisher
	log       zerolog.Logger
}

// New creates a scheduler. publisher may be nil to leave scheduled articles alone.
func New(spec string, videos LiveExpirer, publisher Publisher, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cronLog := cron.PrintfLogger(&log)
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		spec:      spec,
		videos:    videos,
		publisher: publisher,
		log:       log,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
	return nil
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce runs every job a single time. Failures are logged, not returned,
// so one failing job does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if _, err := s.videos.ArchiveExpired(ctx); err != nil {
		s.log.Error().Err(err).Msg("Live expiry sweep failed")
	}
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishDue(ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled publishing failed")
	}
}
