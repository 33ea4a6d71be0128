package conversation

import (
	"time"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
)

// Phase is the dialogue state. Booking phases run in the declared order.
type Phase string

const (
	PhaseGreeting       Phase = "greeting"
	PhaseIdle           Phase = "idle"
	PhaseBookingName    Phase = "booking_name"
	PhaseBookingParty   Phase = "booking_party"
	PhaseBookingDate    Phase = "booking_date"
	PhaseBookingTime    Phase = "booking_time"
	PhaseBookingSpecial Phase = "booking_special"
	PhaseBookingConfirm Phase = "booking_confirm"
)

var phaseOrder = []Phase{
	PhaseGreeting, PhaseIdle,
	PhaseBookingName, PhaseBookingParty, PhaseBookingDate, PhaseBookingTime, PhaseBookingSpecial, PhaseBookingConfirm,
}

// Index is the position in the phase sequence, or -1 for an unknown phase.
func (p Phase) Index() int {
	for i, q := range phaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Booking reports whether p collects a booking field.
func (p Phase) Booking() bool { return p.Index() >= PhaseBookingName.Index() }

// Flow says what a booking-phase dialogue commits at the end.
type Flow string

const (
	FlowBook     Flow = "book"
	FlowWaitlist Flow = "waitlist"
	FlowModify   Flow = "modify"
)

const isoDate = "2006-01-02"

// Draft accumulates booking fields; each stays empty until filled.
type Draft struct {
	Name      string                 `json:"name,omitempty"`
	PartySize int                    `json:"party_size,omitempty"`
	Date      string                 `json:"date,omitempty"`
	Time      *reservation.TimeOfDay `json:"time,omitempty"`
	// SpecialDone is set once the special-request step ran, even when the guest had none.
	SpecialDone    bool                  `json:"special_done,omitempty"`
	SpecialRequest string                `json:"special_request,omitempty"`
	Dietary        []dietary.Restriction `json:"dietary,omitempty"`
}

// DateIn resolves the draft date in loc.
func (d Draft) DateIn(loc *time.Location) (time.Time, bool) {
	if d.Date == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(isoDate, d.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (d *Draft) setDate(t time.Time) { d.Date = t.Format(isoDate) }

// Session is one guest's dialogue state with one restaurant. The engine takes it by value
// and returns the updated copy; callers persist it between turns.
type Session struct {
	Phase        Phase  `json:"phase"`
	RestaurantID string `json:"restaurant_id"`
	Flow         Flow   `json:"flow,omitempty"`
	Draft        Draft  `json:"draft"`
	// Editing returns the dialogue to the confirm step after the next captured field.
	Editing    bool   `json:"editing,omitempty"`
	ModifyCode string `json:"modify_code,omitempty"`
	// Reservations holds codes booked in this session, for "my reservations".
	Reservations []string `json:"reservations,omitempty"`
}

func NewSession(restaurantID string) Session {
	return Session{Phase: PhaseGreeting, RestaurantID: restaurantID}
}

// reset drops any dialogue in progress but keeps the session's reservations.
func (s *Session) reset() {
	s.Phase = PhaseIdle
	s.Flow = ""
	s.Draft = Draft{}
	s.Editing = false
	s.ModifyCode = ""
}

func (s *Session) remember(code string) {
	for _, c := range s.Reservations {
		if c == code {
			return
		}
	}
	s.Reservations = append(append([]string(nil), s.Reservations...), code)
}

func (s *Session) forget(code string) {
	out := make([]string, 0, len(s.Reservations))
	for _, c := range s.Reservations {
		if c != code {
			out = append(out, c)
		}
	}
	s.Reservations = out
}
