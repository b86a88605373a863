package export

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Scheduler paces the loop. Wait returns when the next tick may run.
type Scheduler interface {
	Wait(ctx context.Context) error
}

// Immediate runs ticks back to back.
type Immediate struct{}

func (Immediate) Wait(ctx context.Context) error {
	return errors.WithStack(ctx.Err())
}

// Realtime paces ticks at the source frame rate.
type Realtime struct {
	ticker *time.Ticker
}

func NewRealtime(fps float64) *Realtime {
	if fps <= 0 {
		fps = 30
	}
	return &Realtime{ticker: time.NewTicker(time.Duration(float64(time.Second) / fps))}
}

func (r *Realtime) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case <-r.ticker.C:
		return nil
	}
}

func (r *Realtime) Stop() { r.ticker.Stop() }
