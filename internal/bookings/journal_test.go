package bookings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/tablemate/internal/db"
	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/tables"
	"github.com/example/tablemate/internal/waitlist"
)

type call struct {
	sql  string
	args []any
}

type fakeConn struct {
	execs    []call
	affected int64
	execErr  error
	// rows served by Query, keyed by the table the query reads
	rows map[string][][]any
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	f.execs = append(f.execs, call{sql: sql, args: args})
	return f.affected, f.execErr
}

func (f *fakeConn) Query(_ context.Context, sql string, _ ...any) (db.Rows, error) {
	for table, rows := range f.rows {
		if strings.Contains(sql, "FROM "+table+" ") {
			return &fakeRows{rows: rows, i: -1}, nil
		}
	}
	return &fakeRows{i: -1}, nil
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Next() bool { r.i++; return r.i < len(r.rows) }

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: %d columns into %d targets", len(row), len(dest))
	}
	for i, v := range row {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

var (
	joined = time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)
	nyc    = time.FixedZone("EDT", -4*60*60)
)

func TestSaveReservationArgs(t *testing.T) {
	conn := &fakeConn{affected: 1}
	j := NewJournal(conn, nil)

	res := reservation.Reservation{
		Code:         "TB-1A2B3",
		RestaurantID: "bistro",
		GuestName:    "Ana",
		PartySize:    4,
		Date:         time.Date(2026, 10, 20, 0, 0, 0, 0, nyc),
		Time:         reservation.TimeOfDay{Hour: 19, Minute: 30},
		TableID:      "T3",
		Dietary:      []dietary.Restriction{dietary.Vegan, dietary.GlutenFree},
		CreatedAt:    joined,
	}
	require.NoError(t, j.SaveReservation(context.Background(), res))
	require.Len(t, conn.execs, 1)
	require.Contains(t, conn.execs[0].sql, "ON CONFLICT (restaurant_id, code) DO UPDATE")
	require.Equal(t, []any{
		"bistro", "TB-1A2B3", "Ana", 4, "2026-10-20", 19*60 + 30, "T3", "",
		[]string{"vegan", "gluten_free"}, joined,
	}, conn.execs[0].args)
}

func TestDeleteIsIdempotent(t *testing.T) {
	conn := &fakeConn{affected: 0}
	j := NewJournal(conn, nil)
	require.NoError(t, j.DeleteReservation(context.Background(), "bistro", "TB-1A2B3"))
	require.NoError(t, j.DeleteWaitlistEntry(context.Background(), "bistro", 7))
	require.Equal(t, []any{"bistro", int64(7)}, conn.execs[1].args)
}

func TestExecErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	j := NewJournal(&fakeConn{execErr: boom}, nil)
	err := j.SaveWaitlistEntry(context.Background(), waitlist.Entry{ID: 3, RestaurantID: "bistro"})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "waitlist entry 3")
}

func TestRestoreReplaysIntoRestaurants(t *testing.T) {
	conn := &fakeConn{rows: map[string][][]any{
		"reservations": {
			{"TB-1A2B3", "Ana", 2, "2026-10-20", 19 * 60, "T1", "window", []string{"vegan"}, joined},
		},
		"waitlist_entries": {
			{int64(4), "Sam", 3, joined, 25},
		},
	}}
	j := NewJournal(conn, nil)

	r, err := restaurant.New(restaurant.Config{
		Info: restaurant.Info{
			ID: "bistro", Name: "Test Bistro", CodePrefix: "TB",
			Opens: reservation.TimeOfDay{Hour: 17}, Closes: reservation.TimeOfDay{Hour: 22},
		},
		Tables:   tables.Inventory(map[int]int{2: 1, 4: 1}),
		Waitlist: waitlist.DefaultPolicy(),
	})
	require.NoError(t, err)
	dir, err := restaurant.NewDirectory(r)
	require.NoError(t, err)

	require.NoError(t, j.Restore(context.Background(), dir, nyc))

	res, err := r.Lookup("TB-1A2B3")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, nyc), res.Date)
	require.Equal(t, reservation.TimeOfDay{Hour: 19}, res.Time)
	require.Equal(t, []dietary.Restriction{dietary.Vegan}, res.Dietary)
	require.Equal(t, "bistro", res.RestaurantID)

	tbl := r.Tables()[0]
	require.Equal(t, "T1", tbl.ID)
	require.Equal(t, tables.Reserved, tbl.Status)

	queued := r.Waitlist()
	require.Len(t, queued, 1)
	require.Equal(t, uint64(4), queued[0].ID)
	require.Equal(t, 25, queued[0].QuotedWait)

	// new entries continue after the restored ids
	tk, err := r.JoinWaitlist(context.Background(), "Lee", 2)
	require.NoError(t, err)
	require.Equal(t, uint64(5), tk.Entry.ID)
}

func TestRestoreRejectsUnknownDietaryTag(t *testing.T) {
	conn := &fakeConn{rows: map[string][][]any{
		"reservations": {
			{"TB-1A2B3", "Ana", 2, "2026-10-20", 19 * 60, "T1", "", []string{"paleo"}, joined},
		},
	}}
	_, err := NewJournal(conn, nil).Reservations(context.Background(), "bistro", time.UTC)
	require.ErrorContains(t, err, "paleo")
}
