package restaurant

import (
	"context"

	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/waitlist"
)

// Journal records committed state changes so they survive a restart. Calls happen while the
// restaurant lock is held, in commit order.
type Journal interface {
	SaveReservation(ctx context.Context, r reservation.Reservation) error
	DeleteReservation(ctx context.Context, restaurantID, code string) error
	SaveWaitlistEntry(ctx context.Context, e waitlist.Entry) error
	DeleteWaitlistEntry(ctx context.Context, restaurantID string, id uint64) error
}

type nopJournal struct{}

func (nopJournal) SaveReservation(context.Context, reservation.Reservation) error { return nil }
func (nopJournal) DeleteReservation(context.Context, string, string) error        { return nil }
func (nopJournal) SaveWaitlistEntry(context.Context, waitlist.Entry) error        { return nil }
func (nopJournal) DeleteWaitlistEntry(context.Context, string, uint64) error      { return nil }
