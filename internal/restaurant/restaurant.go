// Package restaurant ties one venue's tables, reservations and waitlist together behind a
// single lock, so every booking, cancellation and seating is atomic per restaurant.
package restaurant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/internaltypes"
	"github.com/example/tablemate/internal/tables"
	"github.com/example/tablemate/internal/waitlist"
)

const (
	DefaultMaxPartySize = 8
	slotStep            = 30
	// last seating is this long before close
	lastSeating   = 60
	codeAttempts  = 64
	defaultPrefix = "TM"
)

var (
	ErrUnknownRestaurant   = fmt.Errorf("restaurant %w", internaltypes.ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", internaltypes.ErrNotFound)
	ErrNoTable             = errors.New("no table available")
)

// Info is the descriptive part of a restaurant.
type Info struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Cuisine    string                `json:"cuisine"`
	Policy     string                `json:"policy"`
	CodePrefix string                `json:"code_prefix"`
	Opens      reservation.TimeOfDay `json:"opens"`
	Closes     reservation.TimeOfDay `json:"closes"`
}

// Hours renders e.g. "5:00 PM - 11:00 PM".
func (i Info) Hours() string { return i.Opens.String() + " - " + i.Closes.String() }

type Config struct {
	Info
	Tables       []tables.Table
	Menu         []dietary.Item
	Waitlist     waitlist.Policy
	MaxPartySize int
}

type Option func(*Restaurant)

func WithJournal(j Journal) Option { return func(r *Restaurant) { r.journal = j } }

func WithLogger(l *zap.Logger) Option { return func(r *Restaurant) { r.log = l } }

// WithClock sets the time source. It should return times in the restaurant's zone.
func WithClock(now func() time.Time) Option { return func(r *Restaurant) { r.now = now } }

// WithCodeGenerator replaces reservation.NewCode.
func WithCodeGenerator(gen func(prefix string) string) Option {
	return func(r *Restaurant) { r.newCode = gen }
}

type Restaurant struct {
	info    Info
	menu    []dietary.Item
	maxSize int

	journal Journal
	log     *zap.Logger
	now     func() time.Time
	newCode func(string) string

	mu           sync.Mutex
	tables       *tables.Allocator
	reservations map[string]reservation.Reservation
	waitlist     *waitlist.Manager
}

func New(cfg Config, opts ...Option) (*Restaurant, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, errors.New("restaurant id required")
	}
	if cfg.ID != strings.ToLower(cfg.ID) {
		return nil, fmt.Errorf("restaurant id %q must be lowercase", cfg.ID)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("restaurant %s: name required", cfg.ID)
	}
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = defaultPrefix
	}
	if !reservation.ValidPrefix(cfg.CodePrefix) {
		return nil, fmt.Errorf("restaurant %s: code prefix %q must be 2-4 uppercase letters", cfg.ID, cfg.CodePrefix)
	}
	if !cfg.Opens.Valid() || !cfg.Closes.Valid() || !cfg.Opens.Before(cfg.Closes) {
		return nil, fmt.Errorf("restaurant %s: invalid hours %s", cfg.ID, cfg.Hours())
	}
	alloc, err := tables.New(cfg.Tables)
	if err != nil {
		return nil, fmt.Errorf("restaurant %s: %w", cfg.ID, err)
	}
	if cfg.MaxPartySize <= 0 {
		cfg.MaxPartySize = DefaultMaxPartySize
	}
	r := &Restaurant{
		info:         cfg.Info,
		menu:         append([]dietary.Item(nil), cfg.Menu...),
		maxSize:      cfg.MaxPartySize,
		journal:      nopJournal{},
		log:          zap.NewNop(),
		now:          time.Now,
		newCode:      reservation.NewCode,
		tables:       alloc,
		reservations: make(map[string]reservation.Reservation),
		waitlist:     waitlist.New(cfg.ID, cfg.Waitlist),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With(zap.String("restaurant", r.info.ID))
	return r, nil
}

func (r *Restaurant) ID() string        { return r.info.ID }
func (r *Restaurant) Name() string      { return r.info.Name }
func (r *Restaurant) Info() Info        { return r.info }
func (r *Restaurant) MaxPartySize() int { return r.maxSize }

// Now reads the restaurant clock; dates and peak windows resolve in its zone.
func (r *Restaurant) Now() time.Time { return r.now() }

// Serves reports whether t falls within opening hours, close exclusive.
func (r *Restaurant) Serves(t reservation.TimeOfDay) bool {
	return !t.Before(r.info.Opens) && t.Before(r.info.Closes)
}

// TimeSlots lists bookable times every half hour, from opening to the last seating.
func (r *Restaurant) TimeSlots() []reservation.TimeOfDay {
	last := r.info.Closes.AddMinutes(-lastSeating)
	var out []reservation.TimeOfDay
	for t := r.info.Opens; !last.Before(t); {
		out = append(out, t)
		next := t.AddMinutes(slotStep)
		if next.Before(t) {
			break
		}
		t = next
	}
	return out
}

// Menu returns the items carrying every requested restriction, in menu order.
func (r *Restaurant) Menu(rs []dietary.Restriction) []dietary.Item {
	return dietary.Filter(r.menu, rs)
}

// BookingRequest is what a guest asks for. Dietary needs are stored with the reservation.
type BookingRequest struct {
	GuestName      string
	PartySize      int
	Date           time.Time
	Time           reservation.TimeOfDay
	SpecialRequest string
	Dietary        []dietary.Restriction
}

func (b BookingRequest) validate(maxSize int) error {
	if strings.TrimSpace(b.GuestName) == "" {
		return errors.New("guest name required")
	}
	if b.PartySize < 1 || b.PartySize > maxSize {
		return fmt.Errorf("party size must be between 1 and %d, got %d", maxSize, b.PartySize)
	}
	if b.Date.IsZero() {
		return errors.New("date required")
	}
	if !b.Time.Valid() {
		return errors.New("time out of range")
	}
	return nil
}

// Ticket is a waitlist placement as reported to the guest.
type Ticket struct {
	Entry         waitlist.Entry `json:"entry"`
	Position      int            `json:"position"`
	EstimatedWait int            `json:"estimated_wait"`
	Notification  string         `json:"notification"`
}

// Outcome of a booking attempt: exactly one of Reservation and Waitlist is set.
type Outcome struct {
	Reservation  *reservation.Reservation `json:"reservation,omitempty"`
	Waitlist     *Ticket                  `json:"waitlist,omitempty"`
	Notification string                   `json:"notification"`
}

func (o Outcome) Booked() bool { return o.Reservation != nil }

// Candidates lists the tables that could seat partySize right now, best fit first.
func (r *Restaurant) Candidates(partySize int, date time.Time, at reservation.TimeOfDay) []tables.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables.Candidates(partySize, date, at)
}

// Book commits a reservation on the best-fitting free table. When no table fits, the
// party joins the waitlist instead and the outcome carries the ticket.
func (r *Restaurant) Book(ctx context.Context, req BookingRequest) (Outcome, error) {
	if err := req.validate(r.maxSize); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", internaltypes.ErrInvalidInput, err)
	}
	req.GuestName = strings.TrimSpace(req.GuestName)

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()

	for _, cand := range r.tables.Candidates(req.PartySize, req.Date, req.Time) {
		if err := r.tables.Reserve(cand.ID); err != nil {
			r.log.Warn("candidate table taken, trying next", zap.String("table", cand.ID), zap.Error(err))
			continue
		}
		res := reservation.Reservation{
			Code:           r.uniqueCodeLocked(),
			RestaurantID:   r.info.ID,
			GuestName:      req.GuestName,
			PartySize:      req.PartySize,
			Date:           req.Date,
			Time:           req.Time,
			TableID:        cand.ID,
			SpecialRequest: strings.TrimSpace(req.SpecialRequest),
			Dietary:        req.Dietary,
			CreatedAt:      now,
		}
		if err := r.journal.SaveReservation(ctx, res); err != nil {
			r.releaseLocked(cand.ID)
			return Outcome{}, fmt.Errorf("journal reservation: %w", err)
		}
		r.insertLocked(res)
		r.log.Info("reservation booked",
			zap.String("code", res.Code),
			zap.String("table", res.TableID),
			zap.Int("party_size", res.PartySize),
		)
		return Outcome{Reservation: &res, Notification: reservation.ConfirmationText(res, r.info.Name)}, nil
	}

	ticket, err := r.enqueueLocked(ctx, req.GuestName, req.PartySize, now)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Waitlist: &ticket, Notification: ticket.Notification}, nil
}

// JoinWaitlist queues a party without trying for a table first.
func (r *Restaurant) JoinWaitlist(ctx context.Context, guestName string, partySize int) (Ticket, error) {
	if strings.TrimSpace(guestName) == "" || partySize < 1 || partySize > r.maxSize {
		return Ticket{}, fmt.Errorf("%w: need a name and a party size between 1 and %d",
			internaltypes.ErrInvalidInput, r.maxSize)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enqueueLocked(ctx, strings.TrimSpace(guestName), partySize, r.now())
}

func (r *Restaurant) enqueueLocked(ctx context.Context, name string, size int, now time.Time) (Ticket, error) {
	e, err := r.waitlist.Enqueue(name, size, now)
	if err != nil {
		return Ticket{}, fmt.Errorf("%w: %v", internaltypes.ErrInvalidInput, err)
	}
	if err := r.journal.SaveWaitlistEntry(ctx, e); err != nil {
		if _, serr := r.waitlist.Serve(e.ID); serr != nil {
			panic(fmt.Sprintf("waitlist rollback of %d: %v", e.ID, serr))
		}
		return Ticket{}, fmt.Errorf("journal waitlist entry: %w", err)
	}
	pos := r.waitlist.RankOf(e.ID)
	r.log.Info("party waitlisted",
		zap.Uint64("entry", e.ID),
		zap.Int("party_size", size),
		zap.Int("position", pos),
		zap.Int("wait_minutes", e.QuotedWait),
	)
	return Ticket{
		Entry:         e,
		Position:      pos,
		EstimatedWait: e.QuotedWait,
		Notification:  reservation.WaitlistText(r.info.Name, pos, e.QuotedWait),
	}, nil
}

// Lookup returns the active reservation with code.
func (r *Restaurant) Lookup(code string) (reservation.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[strings.ToUpper(code)]
	if !ok {
		return reservation.Reservation{}, fmt.Errorf("%s: %w", code, ErrReservationNotFound)
	}
	return res, nil
}

// Cancel removes the reservation and frees its table.
func (r *Restaurant) Cancel(ctx context.Context, code string) (reservation.Reservation, error) {
	code = strings.ToUpper(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[code]
	if !ok {
		return reservation.Reservation{}, fmt.Errorf("%s: %w", code, ErrReservationNotFound)
	}
	if err := r.journal.DeleteReservation(ctx, r.info.ID, code); err != nil {
		return reservation.Reservation{}, fmt.Errorf("journal cancellation: %w", err)
	}
	delete(r.reservations, code)
	r.releaseLocked(res.TableID)
	r.log.Info("reservation cancelled", zap.String("code", code), zap.String("table", res.TableID))
	return res, nil
}

// Change lists the fields to update; zero values keep the current value.
type Change struct {
	GuestName      string
	PartySize      int
	Date           time.Time
	Time           *reservation.TimeOfDay
	SpecialRequest *string
	Dietary        []dietary.Restriction
}

// Modify replaces the reservation with code by an updated copy. A party that outgrows its
// table moves to the best free fit; when none exists the reservation is left as it was and
// ErrNoTable is returned.
func (r *Restaurant) Modify(ctx context.Context, code string, c Change) (reservation.Reservation, error) {
	code = strings.ToUpper(code)
	if c.PartySize < 0 || c.PartySize > r.maxSize {
		return reservation.Reservation{}, fmt.Errorf("%w: party size must be between 1 and %d",
			internaltypes.ErrInvalidInput, r.maxSize)
	}
	if c.Time != nil && !c.Time.Valid() {
		return reservation.Reservation{}, fmt.Errorf("%w: time out of range", internaltypes.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.reservations[code]
	if !ok {
		return reservation.Reservation{}, fmt.Errorf("%s: %w", code, ErrReservationNotFound)
	}
	next := cur
	if name := strings.TrimSpace(c.GuestName); name != "" {
		next.GuestName = name
	}
	if c.PartySize > 0 {
		next.PartySize = c.PartySize
	}
	if !c.Date.IsZero() {
		next.Date = c.Date
	}
	if c.Time != nil {
		next.Time = *c.Time
	}
	if c.SpecialRequest != nil {
		next.SpecialRequest = strings.TrimSpace(*c.SpecialRequest)
	}
	if c.Dietary != nil {
		next.Dietary = c.Dietary
	}

	current, ok := r.tables.Get(cur.TableID)
	if !ok {
		panic(fmt.Sprintf("reservation %s holds unknown table %s", code, cur.TableID))
	}
	moved := false
	if next.PartySize > current.Capacity {
		cands := r.tables.Candidates(next.PartySize, next.Date, next.Time)
		if len(cands) == 0 {
			return cur, fmt.Errorf("party of %d: %w", next.PartySize, ErrNoTable)
		}
		if err := r.tables.Reserve(cands[0].ID); err != nil {
			return cur, fmt.Errorf("party of %d: %w", next.PartySize, ErrNoTable)
		}
		next.TableID = cands[0].ID
		moved = true
	}

	if err := r.journal.SaveReservation(ctx, next); err != nil {
		if moved {
			r.releaseLocked(next.TableID)
		}
		return cur, fmt.Errorf("journal modification: %w", err)
	}
	if moved {
		r.releaseLocked(cur.TableID)
	}
	r.reservations[code] = next
	r.log.Info("reservation modified",
		zap.String("code", code),
		zap.String("table", next.TableID),
		zap.Bool("moved", moved),
	)
	return next, nil
}

// ServeWaitlist removes an entry, e.g. a party seated by staff or one that left.
func (r *Restaurant) ServeWaitlist(ctx context.Context, id uint64) (waitlist.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.waitlist.RankOf(id) == 0 {
		return waitlist.Entry{}, fmt.Errorf("id %d: %w", id, waitlist.ErrNotFound)
	}
	if err := r.journal.DeleteWaitlistEntry(ctx, r.info.ID, id); err != nil {
		return waitlist.Entry{}, fmt.Errorf("journal waitlist removal: %w", err)
	}
	e, err := r.waitlist.Serve(id)
	if err != nil {
		return waitlist.Entry{}, err
	}
	r.log.Info("waitlist entry served", zap.Uint64("entry", id))
	return e, nil
}

// Seating is a waitlisted party moved onto a table.
type Seating struct {
	Entry        waitlist.Entry          `json:"entry"`
	Reservation  reservation.Reservation `json:"reservation"`
	Notification string                  `json:"notification"`
}

// SeatNext seats the highest-priority waiting party that some free table can hold.
// Parties no free table fits keep their place. ok is false when nobody could be seated.
func (r *Restaurant) SeatNext(ctx context.Context) (Seating, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := reservation.TimeOfDay{Hour: now.Hour(), Minute: now.Minute()}

	for _, e := range r.waitlist.Ordered() {
		cands := r.tables.Candidates(e.PartySize, today, at)
		if len(cands) == 0 {
			continue
		}
		table := cands[0].ID
		if err := r.tables.Reserve(table); err != nil {
			continue
		}
		res := reservation.Reservation{
			Code:         r.uniqueCodeLocked(),
			RestaurantID: r.info.ID,
			GuestName:    e.GuestName,
			PartySize:    e.PartySize,
			Date:         today,
			Time:         at,
			TableID:      table,
			CreatedAt:    now,
		}
		if err := r.journal.SaveReservation(ctx, res); err != nil {
			r.releaseLocked(table)
			return Seating{}, false, fmt.Errorf("journal seating: %w", err)
		}
		if err := r.journal.DeleteWaitlistEntry(ctx, r.info.ID, e.ID); err != nil {
			// the reservation is durable; the stale entry comes back on restore until served
			r.log.Warn("journal waitlist removal failed", zap.Uint64("entry", e.ID), zap.Error(err))
		}
		if _, err := r.waitlist.Serve(e.ID); err != nil {
			panic(fmt.Sprintf("seating waitlist entry %d: %v", e.ID, err))
		}
		r.insertLocked(res)
		r.log.Info("waitlisted party seated",
			zap.Uint64("entry", e.ID),
			zap.String("code", res.Code),
			zap.String("table", table),
		)
		return Seating{Entry: e, Reservation: res, Notification: reservation.SeatedText(res, r.info.Name)}, true, nil
	}
	return Seating{}, false, nil
}

// Reservations lists active reservations by start time, then code.
func (r *Restaurant) Reservations() []reservation.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reservation.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].StartsAt(), out[j].StartsAt()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func (r *Restaurant) Tables() []tables.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables.Snapshot()
}

// Waitlist returns the queue in priority order with fresh estimates.
func (r *Restaurant) Waitlist() []waitlist.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waitlist.Snapshot(r.now())
}

// EstimatedWait quotes a party of partySize that joined the waitlist now.
func (r *Restaurant) EstimatedWait(partySize int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waitlist.EstimatedWait(partySize, r.now())
}

type Stats struct {
	RestaurantID       string `json:"restaurant_id"`
	Name               string `json:"name"`
	TotalTables        int    `json:"total_tables"`
	ReservedTables     int    `json:"reserved_tables"`
	AvailableTables    int    `json:"available_tables"`
	OccupancyPercent   int    `json:"occupancy_percent"`
	ActiveReservations int    `json:"active_reservations"`
	WaitlistLength     int    `json:"waitlist_length"`
}

func (r *Restaurant) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := r.tables.Len()
	avail := r.tables.CountAvailable()
	s := Stats{
		RestaurantID:       r.info.ID,
		Name:               r.info.Name,
		TotalTables:        total,
		ReservedTables:     total - avail,
		AvailableTables:    avail,
		ActiveReservations: len(r.reservations),
		WaitlistLength:     r.waitlist.Len(),
	}
	if total > 0 {
		s.OccupancyPercent = (s.ReservedTables*100 + total/2) / total
	}
	return s
}

// Restore loads journaled state into an empty restaurant. Each reservation re-reserves its
// table; two reservations claiming one table is an error.
func (r *Restaurant) Restore(reservations []reservation.Reservation, entries []waitlist.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range reservations {
		if err := res.Validate(); err != nil {
			return fmt.Errorf("restore %s: %w", res.Code, err)
		}
		if _, dup := r.reservations[res.Code]; dup {
			return fmt.Errorf("restore %s: duplicate code", res.Code)
		}
		if err := r.tables.Reserve(res.TableID); err != nil {
			return fmt.Errorf("restore %s: %w", res.Code, err)
		}
		r.reservations[res.Code] = res
	}
	r.waitlist.Restore(entries)
	r.log.Info("state restored",
		zap.Int("reservations", len(reservations)),
		zap.Int("waitlist", len(entries)),
	)
	return nil
}

func (r *Restaurant) uniqueCodeLocked() string {
	for i := 0; i < codeAttempts; i++ {
		code := r.newCode(r.info.CodePrefix)
		if _, taken := r.reservations[code]; !taken {
			return code
		}
	}
	panic(fmt.Sprintf("restaurant %s: no unused confirmation code after %d attempts", r.info.ID, codeAttempts))
}

func (r *Restaurant) insertLocked(res reservation.Reservation) {
	if _, dup := r.reservations[res.Code]; dup {
		panic(fmt.Sprintf("duplicate confirmation code %s", res.Code))
	}
	r.reservations[res.Code] = res
}

func (r *Restaurant) releaseLocked(tableID string) {
	if err := r.tables.Release(tableID); err != nil {
		panic(fmt.Sprintf("release table %s: %v", tableID, err))
	}
}
