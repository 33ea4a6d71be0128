package restaurant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/internaltypes"
	"github.com/example/tablemate/internal/tables"
	"github.com/example/tablemate/internal/waitlist"
)

var (
	// Monday afternoon, outside the peak window
	clock   = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	evening = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	seven   = reservation.TimeOfDay{Hour: 19}
)

type fakeJournal struct {
	mu           sync.Mutex
	reservations map[string]reservation.Reservation
	entries      map[uint64]waitlist.Entry
	failSave     bool
	failDelete   bool
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{
		reservations: map[string]reservation.Reservation{},
		entries:      map[uint64]waitlist.Entry{},
	}
}

var errJournal = errors.New("journal down")

func (f *fakeJournal) SaveReservation(_ context.Context, r reservation.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errJournal
	}
	f.reservations[r.Code] = r
	return nil
}

func (f *fakeJournal) DeleteReservation(_ context.Context, _, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errJournal
	}
	delete(f.reservations, code)
	return nil
}

func (f *fakeJournal) SaveWaitlistEntry(_ context.Context, e waitlist.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errJournal
	}
	f.entries[e.ID] = e
	return nil
}

func (f *fakeJournal) DeleteWaitlistEntry(_ context.Context, _ string, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errJournal
	}
	delete(f.entries, id)
	return nil
}

func newTestRestaurant(t *testing.T, counts map[int]int, opts ...Option) *Restaurant {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return clock })}, opts...)
	r, err := New(Config{
		Info: Info{
			ID:         "test",
			Name:       "Test Bistro",
			CodePrefix: "TB",
			Opens:      reservation.TimeOfDay{Hour: 17},
			Closes:     reservation.TimeOfDay{Hour: 22},
		},
		Tables:   tables.Inventory(counts),
		Waitlist: waitlist.DefaultPolicy(),
	}, opts...)
	require.NoError(t, err)
	return r
}

func request(name string, size int) BookingRequest {
	return BookingRequest{GuestName: name, PartySize: size, Date: evening, Time: seven}
}

func TestBookPicksBestFit(t *testing.T) {
	j := newFakeJournal()
	r := newTestRestaurant(t, map[int]int{2: 1, 4: 1, 8: 1}, WithJournal(j))

	out, err := r.Book(context.Background(), request("Ana", 3))
	require.NoError(t, err)
	require.True(t, out.Booked())
	require.Nil(t, out.Waitlist)

	res := out.Reservation
	require.Equal(t, "T2", res.TableID)
	require.Regexp(t, `^TB-[0-9A-F]{5}$`, res.Code)
	require.Equal(t, clock, res.CreatedAt)
	require.Equal(t, reservation.ConfirmationText(*res, "Test Bistro"), out.Notification)
	require.Contains(t, j.reservations, res.Code)

	got, err := r.Lookup(res.Code)
	require.NoError(t, err)
	require.Equal(t, *res, got)

	tbl, _ := findTable(r.Tables(), "T2")
	require.Equal(t, tables.Reserved, tbl.Status)
}

func findTable(ts []tables.Table, id string) (tables.Table, bool) {
	for _, t := range ts {
		if t.ID == id {
			return t, true
		}
	}
	return tables.Table{}, false
}

func TestBookFallsBackToWaitlist(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 1})
	_, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)

	out, err := r.Book(context.Background(), request("Ben", 2))
	require.NoError(t, err)
	require.False(t, out.Booked())
	require.NotNil(t, out.Waitlist)
	require.Equal(t, 1, out.Waitlist.Position)
	require.Equal(t, 10, out.Waitlist.EstimatedWait)
	require.Equal(t, "TableMate: You're #1 on the waitlist at Test Bistro. Est. wait: ~10 minutes.", out.Notification)
	require.Len(t, r.Waitlist(), 1)
}

func TestBookRejectsInvalidRequests(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 1})
	for _, req := range []BookingRequest{
		request("", 2),
		request("Ana", 0),
		request("Ana", 9),
		{GuestName: "Ana", PartySize: 2, Time: seven},
	} {
		_, err := r.Book(context.Background(), req)
		require.ErrorIs(t, err, internaltypes.ErrInvalidInput, "%+v", req)
	}
	require.Empty(t, r.Reservations())
	require.Empty(t, r.Waitlist())
}

func TestConcurrentBookingsNeverShareATable(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 5})

	const guests = 20
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		booked = map[string]string{}
		queued int
	)
	for i := 0; i < guests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := r.Book(context.Background(), request(fmt.Sprintf("guest-%d", i), 2))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if out.Booked() {
				_, dup := booked[out.Reservation.TableID]
				assert.False(t, dup, "table %s booked twice", out.Reservation.TableID)
				booked[out.Reservation.TableID] = out.Reservation.Code
				return
			}
			queued++
		}(i)
	}
	wg.Wait()

	require.Len(t, booked, 5)
	require.Equal(t, guests-5, queued)
	require.Len(t, r.Reservations(), 5)
	require.Equal(t, 0, r.Stats().AvailableTables)
}

func TestCodeCollisionRetries(t *testing.T) {
	codes := []string{"TB-11111", "TB-11111", "TB-22222"}
	var n int
	gen := func(string) string {
		c := codes[n]
		n++
		return c
	}
	r := newTestRestaurant(t, map[int]int{2: 2}, WithCodeGenerator(gen))

	a, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)
	b, err := r.Book(context.Background(), request("Ben", 2))
	require.NoError(t, err)
	require.Equal(t, "TB-11111", a.Reservation.Code)
	require.Equal(t, "TB-22222", b.Reservation.Code)
}

func TestJournalFailureRollsBack(t *testing.T) {
	j := newFakeJournal()
	j.failSave = true
	r := newTestRestaurant(t, map[int]int{2: 1}, WithJournal(j))

	_, err := r.Book(context.Background(), request("Ana", 2))
	require.ErrorIs(t, err, errJournal)
	require.Empty(t, r.Reservations())
	require.Equal(t, 1, r.Stats().AvailableTables)

	_, err = r.JoinWaitlist(context.Background(), "Ben", 2)
	require.ErrorIs(t, err, errJournal)
	require.Empty(t, r.Waitlist())
}

func TestCancelReleasesTable(t *testing.T) {
	j := newFakeJournal()
	r := newTestRestaurant(t, map[int]int{2: 1}, WithJournal(j))
	out, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)

	j.failDelete = true
	_, err = r.Cancel(context.Background(), out.Reservation.Code)
	require.ErrorIs(t, err, errJournal)
	require.Len(t, r.Reservations(), 1)

	j.failDelete = false
	got, err := r.Cancel(context.Background(), out.Reservation.Code)
	require.NoError(t, err)
	require.Equal(t, "Ana", got.GuestName)
	require.Empty(t, j.reservations)
	require.Equal(t, 1, r.Stats().AvailableTables)

	_, err = r.Cancel(context.Background(), out.Reservation.Code)
	require.ErrorIs(t, err, ErrReservationNotFound)
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 1})
	out, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)
	_, err = r.Lookup(strings.ToLower(out.Reservation.Code))
	require.NoError(t, err)
}

func TestModifyMovesGrowingParty(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 1, 6: 1})
	out, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)
	require.Equal(t, "T1", out.Reservation.TableID)

	eight := reservation.TimeOfDay{Hour: 20}
	note := "window seat"
	got, err := r.Modify(context.Background(), out.Reservation.Code, Change{PartySize: 5, Time: &eight, SpecialRequest: &note})
	require.NoError(t, err)
	require.Equal(t, "T2", got.TableID)
	require.Equal(t, 5, got.PartySize)
	require.Equal(t, eight, got.Time)
	require.Equal(t, "window seat", got.SpecialRequest)
	require.Equal(t, out.Reservation.Code, got.Code)

	t1, _ := findTable(r.Tables(), "T1")
	require.Equal(t, tables.Available, t1.Status)
}

func TestModifyWithoutRoomKeepsReservation(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 1, 4: 1})
	a, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)
	_, err = r.Book(context.Background(), request("Ben", 4))
	require.NoError(t, err)

	_, err = r.Modify(context.Background(), a.Reservation.Code, Change{PartySize: 4})
	require.ErrorIs(t, err, ErrNoTable)

	got, err := r.Lookup(a.Reservation.Code)
	require.NoError(t, err)
	require.Equal(t, 2, got.PartySize)
	require.Equal(t, "T1", got.TableID)

	_, err = r.Modify(context.Background(), a.Reservation.Code, Change{PartySize: 12})
	require.ErrorIs(t, err, internaltypes.ErrInvalidInput)
	_, err = r.Modify(context.Background(), "TB-99999", Change{PartySize: 2})
	require.ErrorIs(t, err, ErrReservationNotFound)
}

func TestSeatNextRespectsPriorityAmongFits(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{4: 1})
	held, err := r.Book(context.Background(), request("Holder", 4))
	require.NoError(t, err)

	_, err = r.JoinWaitlist(context.Background(), "Six", 6)
	require.NoError(t, err)
	_, err = r.JoinWaitlist(context.Background(), "Four", 4)
	require.NoError(t, err)
	_, err = r.JoinWaitlist(context.Background(), "Three", 3)
	require.NoError(t, err)

	_, ok, err := r.SeatNext(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	_, err = r.Cancel(context.Background(), held.Reservation.Code)
	require.NoError(t, err)

	s, ok, err := r.SeatNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Three", s.Entry.GuestName)
	require.Equal(t, "T1", s.Reservation.TableID)
	require.Equal(t, reservation.TimeOfDay{Hour: 15}, s.Reservation.Time)
	require.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), s.Reservation.Date)
	require.Contains(t, s.Notification, "your table at Test Bistro is ready")

	remaining := r.Waitlist()
	require.Len(t, remaining, 2)
	require.Equal(t, "Four", remaining[0].GuestName)
	require.Equal(t, "Six", remaining[1].GuestName)
}

func TestServeWaitlist(t *testing.T) {
	j := newFakeJournal()
	r := newTestRestaurant(t, map[int]int{2: 1}, WithJournal(j))
	tk, err := r.JoinWaitlist(context.Background(), "Ana", 2)
	require.NoError(t, err)
	require.Contains(t, j.entries, tk.Entry.ID)

	e, err := r.ServeWaitlist(context.Background(), tk.Entry.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana", e.GuestName)
	require.Empty(t, j.entries)

	_, err = r.ServeWaitlist(context.Background(), tk.Entry.ID)
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func TestStats(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 2, 4: 1})
	_, err := r.Book(context.Background(), request("Ana", 2))
	require.NoError(t, err)
	_, err = r.JoinWaitlist(context.Background(), "Ben", 6)
	require.NoError(t, err)

	require.Equal(t, Stats{
		RestaurantID:       "test",
		Name:               "Test Bistro",
		TotalTables:        3,
		ReservedTables:     1,
		AvailableTables:    2,
		OccupancyPercent:   33,
		ActiveReservations: 1,
		WaitlistLength:     1,
	}, r.Stats())
}

func TestRestore(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 2})
	res := reservation.Reservation{
		Code: "TB-12345", RestaurantID: "test", GuestName: "Ana", PartySize: 2,
		Date: evening, Time: seven, TableID: "T1", CreatedAt: clock,
	}
	require.NoError(t, r.Restore([]reservation.Reservation{res}, []waitlist.Entry{{ID: 4, GuestName: "Ben", PartySize: 2}}))
	require.Equal(t, 1, r.Stats().AvailableTables)
	require.Len(t, r.Waitlist(), 1)

	clash := res
	clash.Code = "TB-54321"
	err := newTestRestaurant(t, map[int]int{2: 1}).Restore([]reservation.Reservation{res, clash}, nil)
	require.ErrorIs(t, err, tables.ErrTableUnavailable)
}

func TestHoursAndSlots(t *testing.T) {
	r := newTestRestaurant(t, map[int]int{2: 1})
	require.True(t, r.Serves(reservation.TimeOfDay{Hour: 17}))
	require.True(t, r.Serves(reservation.TimeOfDay{Hour: 21, Minute: 59}))
	require.False(t, r.Serves(reservation.TimeOfDay{Hour: 22}))
	require.False(t, r.Serves(reservation.TimeOfDay{Hour: 16, Minute: 30}))

	slots := r.TimeSlots()
	require.Len(t, slots, 9)
	require.Equal(t, "5:00 PM", slots[0].String())
	require.Equal(t, "9:00 PM", slots[len(slots)-1].String())
	require.Equal(t, "5:00 PM - 10:00 PM", r.Info().Hours())
}

func TestNewValidates(t *testing.T) {
	base := Config{
		Info:   Info{ID: "x", Name: "X", Opens: reservation.TimeOfDay{Hour: 17}, Closes: reservation.TimeOfDay{Hour: 22}},
		Tables: tables.Inventory(map[int]int{2: 1}),
	}
	_, err := New(base)
	require.NoError(t, err)

	for name, mut := range map[string]func(*Config){
		"no id":        func(c *Config) { c.ID = "" },
		"upper id":     func(c *Config) { c.ID = "X" },
		"no name":      func(c *Config) { c.Name = "" },
		"bad prefix":   func(c *Config) { c.CodePrefix = "toolong" },
		"closed hours": func(c *Config) { c.Closes = c.Opens },
		"bad table":    func(c *Config) { c.Tables = []tables.Table{{ID: "T1"}} },
	} {
		cfg := base
		mut(&cfg)
		_, err := New(cfg)
		require.Error(t, err, name)
	}
}

func TestSeedCatalog(t *testing.T) {
	d, err := Seed(waitlist.DefaultPolicy(), 8)
	require.NoError(t, err)
	require.Len(t, d.All(), 3)

	md, err := d.Get("Maison-Doree")
	require.NoError(t, err)
	require.Equal(t, 17, md.Stats().TotalTables)
	require.Equal(t, "5:00 PM - 11:00 PM", md.Info().Hours())

	sg, err := d.Get(SakuraGarden)
	require.NoError(t, err)
	require.Equal(t, []string{"Agedashi Tofu"}, itemNames(sg.Menu([]dietary.Restriction{dietary.Vegan})))
	require.Equal(t, []string{"Agedashi Tofu", "Mochi Ice Cream"},
		itemNames(sg.Menu([]dietary.Restriction{dietary.Vegetarian, dietary.DairyFree})))

	tr, err := d.ByCode("tr-1a2b3")
	require.NoError(t, err)
	require.Equal(t, TrattoriaRoma, tr.ID())

	_, err = d.Get("nowhere")
	require.ErrorIs(t, err, ErrUnknownRestaurant)
	_, err = d.ByCode("ZZ-12345")
	require.ErrorIs(t, err, internaltypes.ErrNotFound)
}

func itemNames(items []dietary.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
