// Package bookings persists reservations and waitlist entries in Postgres so a restart
// does not lose committed state.
package bookings

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/db"
	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/waitlist"
)

const isoDate = "2006-01-02"

// Conn is the slice of db.DB the journal needs.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (db.Rows, error)
}

// Journal implements restaurant.Journal on Postgres.
type Journal struct {
	conn Conn
	log  *zap.Logger
}

var _ restaurant.Journal = (*Journal)(nil)

func NewJournal(conn Conn, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{conn: conn, log: log}
}

func (j *Journal) SaveReservation(ctx context.Context, r reservation.Reservation) error {
	_, err := j.conn.Exec(ctx, `
		INSERT INTO reservations
			(restaurant_id, code, guest_name, party_size, reserved_on, start_minute, table_id, special_request, dietary, created_at)
		VALUES ($1,$2,$3,$4,$5::date,$6,$7,$8,$9,$10)
		ON CONFLICT (restaurant_id, code) DO UPDATE SET
			guest_name=EXCLUDED.guest_name, party_size=EXCLUDED.party_size, reserved_on=EXCLUDED.reserved_on,
			start_minute=EXCLUDED.start_minute, table_id=EXCLUDED.table_id,
			special_request=EXCLUDED.special_request, dietary=EXCLUDED.dietary, updated_at=now()
	`,
		r.RestaurantID, r.Code, r.GuestName, r.PartySize, r.Date.Format(isoDate), r.Time.Minutes(),
		r.TableID, r.SpecialRequest, restrictionStrings(r.Dietary), r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save reservation %s: %w", r.Code, err)
	}
	return nil
}

func (j *Journal) DeleteReservation(ctx context.Context, restaurantID, code string) error {
	n, err := j.conn.Exec(ctx, `DELETE FROM reservations WHERE restaurant_id=$1 AND code=$2`, restaurantID, code)
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", code, err)
	}
	if n == 0 {
		j.log.Warn("reservation missing from journal", zap.String("restaurant", restaurantID), zap.String("code", code))
	}
	return nil
}

func (j *Journal) SaveWaitlistEntry(ctx context.Context, e waitlist.Entry) error {
	_, err := j.conn.Exec(ctx, `
		INSERT INTO waitlist_entries (restaurant_id, id, guest_name, party_size, joined_at, quoted_wait)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (restaurant_id, id) DO UPDATE SET
			guest_name=EXCLUDED.guest_name, party_size=EXCLUDED.party_size, quoted_wait=EXCLUDED.quoted_wait
	`, e.RestaurantID, int64(e.ID), e.GuestName, e.PartySize, e.JoinedAt.UTC(), e.QuotedWait)
	if err != nil {
		return fmt.Errorf("save waitlist entry %d: %w", e.ID, err)
	}
	return nil
}

func (j *Journal) DeleteWaitlistEntry(ctx context.Context, restaurantID string, id uint64) error {
	n, err := j.conn.Exec(ctx, `DELETE FROM waitlist_entries WHERE restaurant_id=$1 AND id=$2`, restaurantID, int64(id))
	if err != nil {
		return fmt.Errorf("delete waitlist entry %d: %w", id, err)
	}
	if n == 0 {
		j.log.Warn("waitlist entry missing from journal", zap.String("restaurant", restaurantID), zap.Uint64("entry", id))
	}
	return nil
}

// Reservations loads a restaurant's reservations with dates resolved in loc.
func (j *Journal) Reservations(ctx context.Context, restaurantID string, loc *time.Location) ([]reservation.Reservation, error) {
	rows, err := j.conn.Query(ctx, `
		SELECT code, guest_name, party_size, to_char(reserved_on, 'YYYY-MM-DD'), start_minute, table_id,
			special_request, dietary, created_at
		FROM reservations WHERE restaurant_id=$1 ORDER BY reserved_on, start_minute, code
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	defer rows.Close()

	var out []reservation.Reservation
	for rows.Next() {
		var (
			r      reservation.Reservation
			date   string
			minute int
			tags   []string
		)
		if err := rows.Scan(&r.Code, &r.GuestName, &r.PartySize, &date, &minute, &r.TableID,
			&r.SpecialRequest, &tags, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		r.RestaurantID = restaurantID
		if r.Date, err = time.ParseInLocation(isoDate, date, loc); err != nil {
			return nil, fmt.Errorf("reservation %s: bad date %q: %w", r.Code, date, err)
		}
		r.Time = reservation.TimeOfDay{Hour: minute / 60, Minute: minute % 60}
		if r.Dietary, err = parseRestrictions(tags); err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.Code, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WaitlistEntries loads a restaurant's queued parties.
func (j *Journal) WaitlistEntries(ctx context.Context, restaurantID string) ([]waitlist.Entry, error) {
	rows, err := j.conn.Query(ctx, `
		SELECT id, guest_name, party_size, joined_at, quoted_wait
		FROM waitlist_entries WHERE restaurant_id=$1 ORDER BY id
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load waitlist: %w", err)
	}
	defer rows.Close()

	var out []waitlist.Entry
	for rows.Next() {
		var (
			e  waitlist.Entry
			id int64
		)
		if err := rows.Scan(&id, &e.GuestName, &e.PartySize, &e.JoinedAt, &e.QuotedWait); err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		e.ID = uint64(id)
		e.RestaurantID = restaurantID
		out = append(out, e)
	}
	return out, rows.Err()
}

// Restore replays the journal into every restaurant of dir.
func (j *Journal) Restore(ctx context.Context, dir *restaurant.Directory, loc *time.Location) error {
	for _, r := range dir.All() {
		res, err := j.Reservations(ctx, r.ID(), loc)
		if err != nil {
			return fmt.Errorf("%s: %w", r.ID(), err)
		}
		entries, err := j.WaitlistEntries(ctx, r.ID())
		if err != nil {
			return fmt.Errorf("%s: %w", r.ID(), err)
		}
		if err := r.Restore(res, entries); err != nil {
			return fmt.Errorf("%s: %w", r.ID(), err)
		}
	}
	return nil
}

func restrictionStrings(rs []dietary.Restriction) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

func parseRestrictions(ss []string) ([]dietary.Restriction, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]dietary.Restriction, len(ss))
	for i, s := range ss {
		r, err := dietary.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
