package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/meteotray/meteotray/internal/weather"
)

// Refresher starts a refresh cycle for a location. It reports false
// when the request was dropped because a cycle is already running.
type Refresher interface {
	Refresh(ctx context.Context, loc weather.Location) bool
}

// Scheduler periodically triggers refresh cycles for the configured
// locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	locations []weather.Location
	interval  time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, refresher Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		locations: locations,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("INFO: scheduler: no locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// runOnce triggers a refresh per location. The refresh core accepts one
// cycle at a time and drops the rest, so locations are offered
// sequentially with a few short retries instead of all at once.
func (s *Scheduler) runOnce() {
	log.Println("INFO: scheduler: running refresh job")

	for _, loc := range s.locations {
		accepted := false
		for try := 0; try < 30; try++ {
			if s.refresher.Refresh(context.Background(), loc) {
				accepted = true
				break
			}
			time.Sleep(2 * time.Second)
		}
		if !accepted {
			log.Printf("WARN: scheduler: refresh for %s skipped, a cycle is still running", loc.Key())
		}
	}

	log.Println("INFO: scheduler: refresh job dispatched")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
