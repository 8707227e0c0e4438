// internal/worker/summary.go
package worker

import (
	"context"
	"time"

	eventstore "github.com/dalemusser/taskboard/internal/app/store/events"
	"github.com/dalemusser/taskboard/internal/app/system/timeouts"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Summary logs a nightly per-topic activity digest from the recorded
// events.
type Summary struct {
	events *eventstore.Store
	cron   *cron.Cron
	log    *zap.Logger
}

func NewSummary(events *eventstore.Store, log *zap.Logger) *Summary {
	return &Summary{events: events, log: log}
}

// Start schedules the digest shortly after midnight UTC.
func (s *Summary) Start() error {
	s.cron = cron.New(cron.WithLocation(time.UTC))
	if _, err := s.cron.AddFunc("5 0 * * *", s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("nightly summary scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running job.
func (s *Summary) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Summary) run() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	counts, err := s.events.CountByTopicSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		s.log.Error("summary aggregation failed", zap.Error(err))
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	s.log.Info("daily event summary",
		zap.Int64("total", total),
		zap.Any("by_topic", counts))
}
