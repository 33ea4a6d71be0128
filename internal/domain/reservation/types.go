package reservation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/tablemate/internal/dietary"
)

// DateLayout is the guest-facing date format; quick replies use it and the parser accepts it back.
const DateLayout = "Mon, Jan 2"

// TimeOfDay is a wall-clock time in the restaurant's zone, 24-hour.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("time %02d:%02d out of range", hour, minute)
	}
	return t, nil
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.Minutes() < o.Minutes() }

// AddMinutes wraps around midnight.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	total := ((t.Minutes()+m)%(24*60) + 24*60) % (24 * 60)
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// On places t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

// String renders 12-hour form, e.g. "7:30 PM".
func (t TimeOfDay) String() string {
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if t.Hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, suffix)
}

// MarshalText encodes as "19:30" so sessions round-trip through JSON.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	h, m, ok := strings.Cut(string(b), ":")
	if !ok {
		return fmt.Errorf("invalid time %q", b)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", b, err)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", b, err)
	}
	v, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Reservation is a committed booking. It is replaced wholesale on modification, never edited in place.
type Reservation struct {
	Code           string                `json:"code"`
	RestaurantID   string                `json:"restaurant_id"`
	GuestName      string                `json:"guest_name"`
	PartySize      int                   `json:"party_size"`
	Date           time.Time             `json:"date"`
	Time           TimeOfDay             `json:"time"`
	TableID        string                `json:"table_id"`
	SpecialRequest string                `json:"special_request,omitempty"`
	Dietary        []dietary.Restriction `json:"dietary,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

func (r Reservation) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("confirmation code required")
	}
	if r.RestaurantID == "" {
		return fmt.Errorf("restaurant_id required")
	}
	if strings.TrimSpace(r.GuestName) == "" {
		return fmt.Errorf("guest_name required")
	}
	if r.PartySize < 1 {
		return fmt.Errorf("party_size must be >= 1")
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date required")
	}
	if !r.Time.Valid() {
		return fmt.Errorf("time out of range")
	}
	if r.TableID == "" {
		return fmt.Errorf("table_id required")
	}
	return nil
}

func (r Reservation) DateLabel() string { return r.Date.Format(DateLayout) }

// StartsAt is the reservation's wall-clock start.
func (r Reservation) StartsAt() time.Time { return r.Time.On(r.Date) }
