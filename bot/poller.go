package bot

import (
	"context"
	"time"
)

// pollInterval is how often the scheduled check runs. The APOD rolls
// over once a day; five minutes keeps the posting lag small without
// hammering the API (the daily cache absorbs the rest).
const pollInterval = time.Minute * 5

// StartPolling runs the recurring check-and-post loop until the context
// is cancelled. The first cycle runs immediately.
func (s *Service) StartPolling(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}
