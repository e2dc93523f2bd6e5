package stream

import (
	"context"
	"time"

	"github.com/san-kum/shapesim/internal/sim"
)

// Pump steps s in real time, one fixed dt per interval, until ctx ends.
// Observers attached to s, such as a Hub, see every tick.
func Pump(ctx context.Context, s *sim.Simulator, dt float32, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Step(dt); err != nil {
				return err
			}
		}
	}
}
