package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
)

// Scheduler runs periodic housekeeping in the background
type Scheduler struct {
	cron     *gocron.Scheduler
	idemRepo repository.IdempotencyRepository
}

// NewScheduler registers the housekeeping jobs. Nothing runs until Start.
func NewScheduler(idemRepo repository.IdempotencyRepository, purgeInterval time.Duration, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if purgeInterval <= 0 {
		purgeInterval = time.Hour
	}

	s := &Scheduler{
		cron:     gocron.NewScheduler(loc),
		idemRepo: idemRepo,
	}
	s.cron.SingletonModeAll()

	if _, err := s.cron.Every(purgeInterval).Do(s.purge); err != nil {
		return nil, fmt.Errorf("schedule idempotency purge: %w", err)
	}
	return s, nil
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	log.Printf("[jobs] scheduler started with %d job(s)", len(s.cron.Jobs()))
}

// Stop halts the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := PurgeExpiredIdempotencyKeys(ctx, s.idemRepo); err != nil {
		log.Printf("[jobs] idempotency purge failed: %v", err)
	}
}

// PurgeExpiredIdempotencyKeys removes stored responses whose replay window
// has passed
func PurgeExpiredIdempotencyKeys(ctx context.Context, repo repository.IdempotencyRepository) (int64, error) {
	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[jobs] purged %d expired idempotency key(s)", n)
	}
	return n, nil
}
