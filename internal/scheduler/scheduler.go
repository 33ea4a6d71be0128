package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/restaurant"
)

// Restaurants lists the venues whose waitlists the seater works.
type Restaurants interface {
	All() []*restaurant.Restaurant
}

// Seater periodically moves waitlisted parties onto tables that have come free.
type Seater struct {
	Restaurants Restaurants
	Interval    time.Duration
	Log         *zap.Logger
	// OnSeated, when set, is called for every party seated.
	OnSeated func(restaurantID string, s restaurant.Seating)

	wg sync.WaitGroup
}

func (s *Seater) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// tick seats as many parties as fit in every restaurant, one goroutine per restaurant.
func (s *Seater) tick(ctx context.Context) {
	for _, r := range s.Restaurants.All() {
		r := r
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.drain(ctx, r)
		}()
	}
	s.wg.Wait()
}

func (s *Seater) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Seater) drain(ctx context.Context, r *restaurant.Restaurant) {
	for ctx.Err() == nil {
		seated, ok, err := r.SeatNext(ctx)
		if err != nil {
			s.logger().Error("seater: seat next failed", zap.String("restaurant", r.ID()), zap.Error(err))
			return
		}
		if !ok {
			return
		}
		s.logger().Info("seater: party seated",
			zap.String("restaurant", r.ID()),
			zap.String("guest", seated.Entry.GuestName),
			zap.String("code", seated.Reservation.Code),
			zap.String("table", seated.Reservation.TableID),
		)
		if s.OnSeated != nil {
			s.OnSeated(r.ID(), seated)
		}
	}
}
