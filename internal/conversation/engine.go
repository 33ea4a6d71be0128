// Package conversation turns guest messages into bookings: it classifies intent, extracts
// booking fields phase by phase and commits through the active restaurant.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/tables"
)

const upcomingDays = 5

var (
	mainOptions    = []string{"Book a table", "View menu", "Join waitlist", "My reservations", "Dietary options"}
	editOptions    = []string{"Change date", "Change time", "Change party size"}
	specialOptions = []string{"No special requests", "Window seat", "Birthday", "Anniversary"}

	joinWords = regexp.MustCompile(`\b(join|add me|put me|sign (me )?up|get on)\b`)
	underName = regexp.MustCompile(`(?i)\b(?:under|name is|name's|for the name)\s+(.+)$`)
	sizeTail  = regexp.MustCompile(`(?i)\s+for\s+\d+.*$`)
)

// Restaurants resolves the restaurant a turn is addressed to.
type Restaurants interface {
	Get(id string) (*restaurant.Restaurant, error)
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

type Engine struct {
	restaurants Restaurants
	log         *zap.Logger
}

func New(rs Restaurants, opts ...Option) *Engine {
	e := &Engine{restaurants: rs, log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Turn is one inbound guest message.
type Turn struct {
	RestaurantID string
	Message      string
}

type turn struct {
	ctx context.Context
	r   *restaurant.Restaurant
	now time.Time
	raw string
	c   Classification
}

// Handle runs one turn. The returned session replaces sess; on error sess is returned
// unchanged. Unrecognized or out-of-range input is a response, not an error: errors are
// reserved for an unknown restaurant and failed commits.
func (e *Engine) Handle(ctx context.Context, sess Session, in Turn) (Response, Session, error) {
	r, err := e.restaurants.Get(in.RestaurantID)
	if err != nil {
		return Response{}, sess, err
	}
	next := sess
	switch {
	case next.RestaurantID != r.ID():
		next = NewSession(r.ID())
	case next.Phase.Index() < 0:
		next.reset()
		next.Phase = PhaseGreeting
	}
	from := next.Phase

	t := &turn{
		ctx: ctx,
		r:   r,
		now: r.Now(),
		raw: strings.TrimSpace(in.Message),
		c:   Classify(in.Message, next.Phase),
	}
	var resp Response
	if next.Phase.Booking() {
		resp, err = e.booking(t, &next)
	} else {
		resp, err = e.idle(t, &next)
	}
	if err != nil {
		e.log.Warn("chat turn failed",
			zap.String("restaurant", r.ID()),
			zap.Stringer("intent", t.c.Intent),
			zap.String("phase", string(from)),
			zap.Error(err),
		)
		return Response{}, sess, err
	}
	resp.Intent = t.c.Intent
	resp.Phase = next.Phase
	e.log.Debug("chat turn",
		zap.String("restaurant", r.ID()),
		zap.Stringer("intent", t.c.Intent),
		zap.String("from", string(from)),
		zap.String("to", string(next.Phase)),
		zap.String("kind", string(resp.Kind)),
	)
	return resp, next, nil
}

func (e *Engine) idle(t *turn, s *Session) (Response, error) {
	greeting := s.Phase == PhaseGreeting
	s.Phase = PhaseIdle
	switch t.c.Intent {
	case IntentBooking:
		return e.startBooking(t, s), nil
	case IntentWaitlist:
		return e.waitlist(t, s)
	case IntentCancel:
		return e.cancel(t, s)
	case IntentModify:
		return e.modify(t, s), nil
	case IntentMenu:
		return e.menu(t, t.c.Dietary, false), nil
	case IntentDietary:
		rs := t.c.Dietary
		if len(rs) == 0 {
			rs = []dietary.Restriction{dietary.Vegetarian}
		}
		return e.menu(t, rs, true), nil
	case IntentTableStatus:
		return e.tableStatus(t), nil
	case IntentInfo:
		info := t.r.Info()
		policy := info.Policy
		if policy == "" {
			policy = "Please contact us for details."
		}
		return text(fmt.Sprintf("%s\nHours: %s\nPolicy: %s", info.Name, info.Hours(), policy),
			"Book a table", "View menu"), nil
	case IntentMyReservations:
		return e.myReservations(t, s), nil
	case IntentRestart:
		s.reset()
		return text("Starting fresh. What would you like to do?", mainOptions...), nil
	case IntentHelp:
		return text("I can book a table, show the menu or dietary options and manage the waitlist. "+
			"I can also look up, change or cancel a reservation by its confirmation code.", mainOptions...), nil
	}
	if greeting || t.c.Intent == IntentGreeting {
		return text(fmt.Sprintf("Welcome to %s! I'm TableMate, your dining concierge. What can I help you with?",
			t.r.Name()), mainOptions...), nil
	}
	return text("I'd be happy to help! What would you like to do?", mainOptions...), nil
}

func (e *Engine) startBooking(t *turn, s *Session) Response {
	s.reset()
	s.Flow = FlowBook
	d := &s.Draft
	n, err := ExtractPartySize(t.raw, t.r.MaxPartySize())
	switch {
	case err == nil:
		d.PartySize = n
	case errors.Is(err, ErrPartyTooLarge):
		s.reset()
		return e.tooLarge(t)
	}
	if date, err := ExtractDateInText(t.raw, t.now); err == nil {
		d.setDate(date)
	}
	if tm, err := ExtractTime(t.raw); err == nil && t.r.Serves(tm) {
		d.Time = &tm
	}
	s.Phase = PhaseBookingName
	lead := fmt.Sprintf("Let's get your table at %s!", t.r.Name())
	if noted := e.describe(t, d); noted != "" {
		lead = fmt.Sprintf("Let's get your table at %s (%s)!", t.r.Name(), noted)
	}
	return e.prompt(t, s, lead)
}

func (e *Engine) describe(t *turn, d *Draft) string {
	var parts []string
	if d.PartySize > 0 {
		parts = append(parts, "party of "+strconv.Itoa(d.PartySize))
	}
	if date, ok := d.DateIn(t.now.Location()); ok {
		parts = append(parts, date.Format(reservation.DateLayout))
	}
	if d.Time != nil {
		parts = append(parts, d.Time.String())
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) tooLarge(t *turn) Response {
	limit := t.r.MaxPartySize()
	return text(fmt.Sprintf("For parties larger than %d, please contact %s directly for private dining arrangements.",
		limit, t.r.Name()), fmt.Sprintf("Book for %d", limit), "Start over")
}

func (e *Engine) waitlist(t *turn, s *Session) (Response, error) {
	if !joinWords.MatchString(normalize(t.raw)) {
		waiting := len(t.r.Waitlist())
		return text(fmt.Sprintf("%s waiting at %s right now. A party of 2 joining now would wait about %d minutes.",
			parties(waiting), t.r.Name(), t.r.EstimatedWait(2)), "Join waitlist", "Book a table"), nil
	}

	s.reset()
	s.Flow = FlowWaitlist
	n, err := ExtractPartySize(t.raw, t.r.MaxPartySize())
	switch {
	case err == nil:
		s.Draft.PartySize = n
	case errors.Is(err, ErrPartyTooLarge):
		s.reset()
		return e.tooLarge(t), nil
	}
	if m := underName.FindStringSubmatch(t.raw); m != nil {
		if name, err := ExtractName(sizeTail.ReplaceAllString(m[1], "")); err == nil {
			s.Draft.Name = name
		}
	}
	if s.Draft.Name != "" && s.Draft.PartySize > 0 {
		return e.enqueue(t, s)
	}
	lead := fmt.Sprintf("I'll add you to the waitlist at %s. %s ahead of you.", t.r.Name(), parties(len(t.r.Waitlist())))
	if s.Draft.Name == "" {
		s.Phase = PhaseBookingName
	} else {
		s.Phase = PhaseBookingParty
	}
	return e.prompt(t, s, lead), nil
}

func parties(n int) string {
	switch n {
	case 0:
		return "No parties are"
	case 1:
		return "1 party is"
	}
	return fmt.Sprintf("%d parties are", n)
}

func (e *Engine) enqueue(t *turn, s *Session) (Response, error) {
	tk, err := t.r.JoinWaitlist(t.ctx, s.Draft.Name, s.Draft.PartySize)
	if err != nil {
		return Response{}, err
	}
	name := s.Draft.Name
	s.reset()
	return Response{
		Kind: KindSuccess,
		Message: fmt.Sprintf("You're on the waitlist, %s! You're #%d in line, estimated wait about %d minutes.",
			name, tk.Position, tk.EstimatedWait),
		Waitlist:     &tk,
		Notification: tk.Notification,
		Event:        EventWaitlisted,
	}, nil
}

func (e *Engine) cancel(t *turn, s *Session) (Response, error) {
	if t.c.Code == "" {
		return e.pickReservation(t, s, "Cancel"), nil
	}
	res, err := t.r.Cancel(t.ctx, t.c.Code)
	if errors.Is(err, restaurant.ErrReservationNotFound) {
		s.forget(t.c.Code)
		return text(fmt.Sprintf("I couldn't find an active reservation %s at %s.", t.c.Code, t.r.Name())), nil
	}
	if err != nil {
		return Response{}, err
	}
	s.forget(res.Code)
	return Response{
		Kind:         KindSuccess,
		Message:      fmt.Sprintf("Reservation %s has been cancelled.", res.Code),
		Reservation:  &res,
		Notification: reservation.CancellationText(res.Code, t.r.Name()),
		Event:        EventCancelled,
	}, nil
}

func (e *Engine) modify(t *turn, s *Session) Response {
	if t.c.Code == "" {
		return e.pickReservation(t, s, "Change")
	}
	res, err := t.r.Lookup(t.c.Code)
	if err != nil {
		s.forget(t.c.Code)
		return text(fmt.Sprintf("I couldn't find an active reservation %s at %s.", t.c.Code, t.r.Name()))
	}
	s.reset()
	s.Flow = FlowModify
	s.ModifyCode = res.Code
	tm := res.Time
	s.Draft = Draft{
		Name:           res.GuestName,
		PartySize:      res.PartySize,
		Time:           &tm,
		SpecialDone:    true,
		SpecialRequest: res.SpecialRequest,
		Dietary:        res.Dietary,
	}
	s.Draft.setDate(res.Date)
	s.Phase = PhaseBookingConfirm
	return e.prompt(t, s, fmt.Sprintf("Here's reservation %s. What would you like to change?", res.Code))
}

// pickReservation lists the session's active reservations for verb, or asks for a code.
func (e *Engine) pickReservation(t *turn, s *Session, verb string) Response {
	active := e.activeReservations(t, s)
	if len(active) == 0 {
		return text(fmt.Sprintf("Please give me your confirmation code (e.g. %s-1A2B3) to %s a reservation.",
			t.r.Info().CodePrefix, strings.ToLower(verb)))
	}
	opts := make([]string, len(active))
	for i, res := range active {
		opts[i] = verb + " " + res.Code
	}
	return Response{
		Kind:         KindReservations,
		Message:      fmt.Sprintf("Which reservation would you like to %s?", strings.ToLower(verb)),
		Options:      opts,
		Reservations: active,
	}
}

func (e *Engine) activeReservations(t *turn, s *Session) []reservation.Reservation {
	var out []reservation.Reservation
	for _, code := range append([]string(nil), s.Reservations...) {
		res, err := t.r.Lookup(code)
		if err != nil {
			s.forget(code)
			continue
		}
		out = append(out, res)
	}
	return out
}

func (e *Engine) myReservations(t *turn, s *Session) Response {
	active := e.activeReservations(t, s)
	if len(active) == 0 {
		return text("You don't have any reservations yet. Would you like to make one?",
			"Book a table for 2", "Book a table for 4")
	}
	var opts []string
	for _, res := range active {
		opts = append(opts, "Change "+res.Code, "Cancel "+res.Code)
	}
	return Response{
		Kind:         KindReservations,
		Message:      fmt.Sprintf("Here are your %d reservation(s):", len(active)),
		Options:      opts,
		Reservations: active,
	}
}

func (e *Engine) menu(t *turn, rs []dietary.Restriction, dietaryAsk bool) Response {
	name := t.r.Name()
	items := t.r.Menu(rs)
	if len(rs) == 0 {
		return Response{
			Kind:    KindMenu,
			Message: fmt.Sprintf("Menu preview: %s", name),
			Menu:    items,
			Options: []string{"Book a table", "Dietary options"},
		}
	}
	labels := dietary.JoinLabels(rs)
	if len(items) == 0 {
		return text(fmt.Sprintf("Nothing on the %s menu is marked %s, but our chef can adapt most dishes. "+
			"Just mention it when booking.", name, labels), "Book a table")
	}
	msg := fmt.Sprintf("%s options at %s:", labels, name)
	if dietaryAsk {
		msg = fmt.Sprintf("Here are the %s friendly options at %s. Our chef can also adapt most dishes, "+
			"just let us know when booking.", labels, name)
	}
	return Response{Kind: KindMenu, Message: msg, Menu: items, Options: []string{"Book a table"}}
}

func (e *Engine) tableStatus(t *turn) Response {
	ts := t.r.Tables()
	free := map[int]int{}
	nfree := 0
	for _, tb := range ts {
		if tb.Status == tables.Available {
			free[tb.Capacity]++
			nfree++
		}
	}
	if nfree == 0 {
		return text(fmt.Sprintf("Every table at %s is taken right now. I can add you to the waitlist.", t.r.Name()),
			"Join waitlist")
	}
	sizes := make([]int, 0, len(free))
	for c := range free {
		sizes = append(sizes, c)
	}
	sort.Ints(sizes)
	parts := make([]string, len(sizes))
	for i, c := range sizes {
		parts[i] = fmt.Sprintf("%d for %d", free[c], c)
	}
	return text(fmt.Sprintf("%d of %d tables at %s are free right now (%s).",
		nfree, len(ts), t.r.Name(), strings.Join(parts, ", ")), "Book a table")
}

func (e *Engine) booking(t *turn, s *Session) (Response, error) {
	switch t.c.Intent {
	case IntentRestart:
		s.reset()
		return text("No problem, let's start over. What would you like to do?", mainOptions...), nil
	case IntentCancel:
		flow, code := s.Flow, s.ModifyCode
		s.reset()
		if flow == FlowModify {
			return text(fmt.Sprintf("Okay, reservation %s stays as it was.", code), mainOptions...), nil
		}
		return text("Okay, I've stopped here. Nothing was booked.", mainOptions...), nil
	case IntentHelp:
		return e.prompt(t, s, `I'm collecting your details one at a time. Say "start over" to begin again or "cancel" to stop.`), nil
	}

	if s.Phase == PhaseBookingConfirm {
		return e.confirm(t, s)
	}
	if s.Draft.SpecialDone {
		if f, ok := editField(normalize(t.raw)); ok {
			s.Phase = phaseFor(f)
			s.Editing = true
			return e.prompt(t, s, "Sure."), nil
		}
	}

	var lead string
	switch s.Phase {
	case PhaseBookingName:
		name, err := ExtractName(t.raw)
		if err != nil {
			return e.reject(t, s, err), nil
		}
		s.Draft.Name = name
		lead = fmt.Sprintf("Lovely, %s!", name)
	case PhaseBookingParty:
		n, err := ExtractPartySize(t.raw, t.r.MaxPartySize())
		if err != nil {
			return e.reject(t, s, err), nil
		}
		s.Draft.PartySize = n
		lead = fmt.Sprintf("Perfect, %s!", guests(n))
	case PhaseBookingDate:
		date, err := ExtractDate(t.raw, t.now)
		if err != nil {
			return e.reject(t, s, err), nil
		}
		s.Draft.setDate(date)
		lead = fmt.Sprintf("%s it is.", date.Format(reservation.DateLayout))
	case PhaseBookingTime:
		tm, err := ExtractTime(t.raw)
		if err == nil && !t.r.Serves(tm) {
			err = outOfRange(FieldTime, t.raw, ErrOutsideHours)
		}
		if err != nil {
			return e.reject(t, s, err), nil
		}
		s.Draft.Time = &tm
		lead = e.availabilityHint(t, s)
	case PhaseBookingSpecial:
		req, rs := ExtractSpecial(t.raw)
		s.Draft.SpecialRequest = req
		s.Draft.Dietary = rs
		s.Draft.SpecialDone = true
	}
	return e.advance(t, s, lead)
}

func guests(n int) string {
	if n == 1 {
		return "1 guest"
	}
	return fmt.Sprintf("%d guests", n)
}

// availabilityHint looks up candidates without reserving anything and warns when
// confirming would waitlist the party.
func (e *Engine) availabilityHint(t *turn, s *Session) string {
	if s.Flow != FlowBook || s.Draft.PartySize == 0 {
		return ""
	}
	date, _ := s.Draft.DateIn(t.now.Location())
	if len(t.r.Candidates(s.Draft.PartySize, date, *s.Draft.Time)) > 0 {
		return ""
	}
	return fmt.Sprintf("Heads up: no table for %s is free right now, so confirming will add you to the waitlist "+
		"(about %d minutes).", guests(s.Draft.PartySize), t.r.EstimatedWait(s.Draft.PartySize))
}

func phaseFor(f Field) Phase {
	switch f {
	case FieldName:
		return PhaseBookingName
	case FieldParty:
		return PhaseBookingParty
	case FieldDate:
		return PhaseBookingDate
	case FieldTime:
		return PhaseBookingTime
	}
	return PhaseBookingSpecial
}

// advance moves to the first missing field, or back to confirm after an edit.
func (e *Engine) advance(t *turn, s *Session, lead string) (Response, error) {
	if s.Flow == FlowWaitlist {
		if s.Draft.Name == "" {
			s.Phase = PhaseBookingName
			return e.prompt(t, s, lead), nil
		}
		if s.Draft.PartySize == 0 {
			s.Phase = PhaseBookingParty
			return e.prompt(t, s, lead), nil
		}
		return e.enqueue(t, s)
	}
	d := s.Draft
	switch {
	case s.Editing && d.Name != "" && d.PartySize > 0 && d.Date != "" && d.Time != nil:
		s.Editing = false
		s.Phase = PhaseBookingConfirm
	case d.Name == "":
		s.Phase = PhaseBookingName
	case d.PartySize == 0:
		s.Phase = PhaseBookingParty
	case d.Date == "":
		s.Phase = PhaseBookingDate
	case d.Time == nil:
		s.Phase = PhaseBookingTime
	case !d.SpecialDone:
		s.Phase = PhaseBookingSpecial
	default:
		s.Phase = PhaseBookingConfirm
	}
	return e.prompt(t, s, lead), nil
}

func (e *Engine) reject(t *turn, s *Session, err error) Response {
	var lead string
	switch {
	case errors.Is(err, ErrPartyTooLarge):
		return e.tooLarge(t)
	case errors.Is(err, ErrNoMatch):
		lead = "Sorry, I didn't catch that."
	case errors.Is(err, ErrPartyTooSmall):
		lead = "A party needs at least one guest."
	case errors.Is(err, ErrDatePast):
		lead = "That date has already passed."
	case errors.Is(err, ErrDateInvalid):
		lead = "That date isn't on the calendar."
	case errors.Is(err, ErrTimeInvalid):
		lead = "That isn't a valid time."
	case errors.Is(err, ErrOutsideHours):
		lead = fmt.Sprintf("%s seats guests between %s.", t.r.Name(), t.r.Info().Hours())
	case errors.Is(err, ErrNameNoLetters):
		lead = "A name needs at least one letter."
	case errors.Is(err, ErrNameTooLong):
		lead = "That name is too long for our booking sheet."
	default:
		lead = "Sorry, I didn't catch that."
	}
	return e.prompt(t, s, lead)
}

func (e *Engine) confirm(t *turn, s *Session) (Response, error) {
	switch t.c.Intent {
	case IntentAffirm:
		return e.commit(t, s)
	case IntentModify:
		s.Phase = phaseFor(t.c.Field)
		s.Editing = true
		return e.prompt(t, s, "Sure."), nil
	case IntentDeny:
		s.Phase = PhaseBookingName
		return e.prompt(t, s, "No problem, let's fix it. Keep the name or tell me what to change."), nil
	}
	return e.prompt(t, s, "Shall I go ahead?"), nil
}

func (e *Engine) commit(t *turn, s *Session) (Response, error) {
	date, ok := s.Draft.DateIn(t.now.Location())
	if !ok {
		s.Draft.Date = ""
	}
	if s.Flow == FlowWaitlist || !ok || s.Draft.Time == nil || s.Draft.Name == "" || s.Draft.PartySize == 0 {
		s.Editing = false
		return e.advance(t, s, "")
	}
	tm := *s.Draft.Time
	if s.Flow == FlowModify {
		return e.commitChange(t, s, date, tm)
	}

	out, err := t.r.Book(t.ctx, restaurant.BookingRequest{
		GuestName:      s.Draft.Name,
		PartySize:      s.Draft.PartySize,
		Date:           date,
		Time:           tm,
		SpecialRequest: s.Draft.SpecialRequest,
		Dietary:        s.Draft.Dietary,
	})
	if err != nil {
		return Response{}, err
	}
	summary := e.summary(t, s)
	s.reset()
	if out.Booked() {
		res := out.Reservation
		s.remember(res.Code)
		return Response{
			Kind:         KindSuccess,
			Message:      fmt.Sprintf("Reservation confirmed! Your confirmation code is %s (table %s).", res.Code, res.TableID),
			Summary:      summary,
			Reservation:  res,
			Notification: out.Notification,
			Event:        EventBooked,
		}, nil
	}
	tk := out.Waitlist
	return Response{
		Kind: KindSuccess,
		Message: fmt.Sprintf("Sorry, no table for %s is free, so I've added you to the waitlist. "+
			"You're #%d with an estimated wait of about %d minutes.", guests(tk.Entry.PartySize), tk.Position, tk.EstimatedWait),
		Summary:      summary,
		Waitlist:     tk,
		Notification: out.Notification,
		Event:        EventWaitlisted,
	}, nil
}

func (e *Engine) commitChange(t *turn, s *Session, date time.Time, tm reservation.TimeOfDay) (Response, error) {
	code := s.ModifyCode
	req := s.Draft.SpecialRequest
	dietaryNeeds := s.Draft.Dietary
	if dietaryNeeds == nil {
		dietaryNeeds = []dietary.Restriction{}
	}
	res, err := t.r.Modify(t.ctx, code, restaurant.Change{
		GuestName:      s.Draft.Name,
		PartySize:      s.Draft.PartySize,
		Date:           date,
		Time:           &tm,
		SpecialRequest: &req,
		Dietary:        dietaryNeeds,
	})
	switch {
	case errors.Is(err, restaurant.ErrNoTable):
		return e.prompt(t, s, fmt.Sprintf("There's no free table for %s, so reservation %s is unchanged. "+
			"Pick a different party size or say cancel to keep it as it was.", guests(s.Draft.PartySize), code)), nil
	case errors.Is(err, restaurant.ErrReservationNotFound):
		s.reset()
		s.forget(code)
		return text(fmt.Sprintf("Reservation %s no longer exists at %s.", code, t.r.Name()), mainOptions...), nil
	case err != nil:
		return Response{}, err
	}
	s.reset()
	s.remember(res.Code)
	return Response{
		Kind:         KindSuccess,
		Message:      fmt.Sprintf("Done! Reservation %s is updated.", res.Code),
		Reservation:  &res,
		Notification: reservation.ModificationText(res, t.r.Name()),
		Event:        EventModified,
	}, nil
}

func (e *Engine) summary(t *turn, s *Session) *Summary {
	d := s.Draft
	sum := &Summary{
		Restaurant:     t.r.Name(),
		Code:           s.ModifyCode,
		Name:           d.Name,
		PartySize:      d.PartySize,
		SpecialRequest: d.SpecialRequest,
		Dietary:        d.Dietary,
	}
	if date, ok := d.DateIn(t.now.Location()); ok {
		sum.Date = date.Format(reservation.DateLayout)
	}
	if d.Time != nil {
		sum.Time = d.Time.String()
	}
	return sum
}

// prompt asks for the current phase's field, prefixed by lead when given.
func (e *Engine) prompt(t *turn, s *Session, lead string) Response {
	join := func(msg string) string {
		if lead == "" {
			return msg
		}
		return lead + " " + msg
	}
	d := s.Draft
	switch s.Phase {
	case PhaseBookingName:
		msg := "What name should the reservation be under?"
		if s.Flow == FlowWaitlist {
			msg = "What name should I put you under?"
		}
		if d.Name != "" && d.SpecialDone {
			return text(join(msg), append([]string{d.Name}, editOptions...)...)
		}
		return text(join(msg))
	case PhaseBookingParty:
		opts := make([]string, t.r.MaxPartySize())
		for i := range opts {
			opts[i] = strconv.Itoa(i + 1)
		}
		return text(join("How many guests will be joining you?"), opts...)
	case PhaseBookingDate:
		return text(join("Which date works best?"), dateOptions(t.now)...)
	case PhaseBookingTime:
		slots := t.r.TimeSlots()
		opts := make([]string, len(slots))
		for i, sl := range slots {
			opts[i] = sl.String()
		}
		return text(join(fmt.Sprintf("What time would you prefer? We seat guests between %s.", t.r.Info().Hours())), opts...)
	case PhaseBookingSpecial:
		return text(join("Any special requests or dietary requirements?"), specialOptions...)
	case PhaseBookingConfirm:
		msg := "Please confirm your reservation:"
		opts := append([]string{"Confirm"}, editOptions...)
		opts = append(opts, "Start over")
		if s.Flow == FlowModify {
			msg = "Save these changes?"
			opts = append(append([]string{"Save changes"}, editOptions...), "Never mind")
		}
		if lead != "" {
			msg = lead
		}
		return Response{Kind: KindConfirm, Message: msg, Options: opts, Summary: e.summary(t, s)}
	}
	return text(join("What would you like to do?"), mainOptions...)
}

// dateOptions offers tonight and the next few days, labelled the way ExtractDate reads them back.
func dateOptions(now time.Time) []string {
	opts := []string{"Tonight"}
	for i := 1; i <= upcomingDays; i++ {
		opts = append(opts, now.AddDate(0, 0, i).Format(reservation.DateLayout))
	}
	return opts
}
