package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/tracknest/tracknest/internal/jobs"
	"github.com/tracknest/tracknest/internal/repository"
)

// Scheduler enqueues the recurring maintenance jobs. The platform rollup
// runs shortly after midnight so platform stats pages track yesterday's
// activity; it can be disabled via the platform_rollup_enabled setting.
type Scheduler struct {
	cron     *cron.Cron
	queue    *jobs.Queue
	settings *repository.SettingsRepository
}

func New(queue *jobs.Queue, settings *repository.SettingsRepository) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		queue:    queue,
		settings: settings,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("5 0 * * *", s.enqueuePlatformRollup)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Println("Scheduler started (platform rollup at 00:05)")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) enqueuePlatformRollup() {
	if !s.settings.GetBool("platform_rollup_enabled", true) {
		log.Println("Scheduler: platform rollup disabled, skipping")
		return
	}
	if _, err := s.queue.EnqueueUnique(jobs.TaskPlatformRollup,
		jobs.PlatformRollupPayload{}, "platform:nightly"); err != nil {
		log.Printf("Scheduler: enqueue platform rollup failed: %v", err)
	}
}
