package conversation

import (
	"regexp"
	"strings"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
)

type Intent int

const (
	IntentFallback Intent = iota
	IntentBooking
	IntentCancel
	IntentModify
	IntentMenu
	IntentDietary
	IntentWaitlist
	IntentTableStatus
	IntentAffirm
	IntentDeny
	IntentGreeting
	IntentRestart
	IntentHelp
	IntentInfo
	IntentMyReservations
)

var intentNames = map[Intent]string{
	IntentFallback:       "fallback",
	IntentBooking:        "booking",
	IntentCancel:         "cancel",
	IntentModify:         "modify",
	IntentMenu:           "menu",
	IntentDietary:        "dietary",
	IntentWaitlist:       "waitlist",
	IntentTableStatus:    "table_status",
	IntentAffirm:         "affirm",
	IntentDeny:           "deny",
	IntentGreeting:       "greeting",
	IntentRestart:        "restart",
	IntentHelp:           "help",
	IntentInfo:           "info",
	IntentMyReservations: "my_reservations",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return "fallback"
}

func (i Intent) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// Field names a booking field, used for edits at the confirm step and in EntityError.
type Field string

const (
	FieldName    Field = "name"
	FieldParty   Field = "party_size"
	FieldDate    Field = "date"
	FieldTime    Field = "time"
	FieldSpecial Field = "special_request"
)

// Classification is an intent with whatever the classifier picked up on the way.
type Classification struct {
	Intent Intent
	// Field is set for an edit request at the confirm step.
	Field   Field
	Code    string
	Dietary []dietary.Restriction
}

type rule struct {
	intent Intent
	match  func(text string) bool
}

func pattern(intent Intent, expr string) rule {
	re := regexp.MustCompile(expr)
	return rule{intent: intent, match: re.MatchString}
}

var (
	restartRule = pattern(IntentRestart, `\b(start over|start again|restart|reset|begin again)\b`)
	affirmWords = regexp.MustCompile(
		`^(yes|yep|yeah|yup|y|sure|ok|okay|correct|perfect|great|sounds good|looks good|go ahead|do it|book it|confirm\w*|save\w*)\b|\b(confirm|go ahead|book it)\b`)

	// "don't book it", "please do not confirm", "no, never go ahead"
	negatedAffirm = regexp.MustCompile(
		`\b(don'?t|do not|not|never|no)\W+((please|just|really|you|want to|need to)\W+)?(confirm\w*|go ahead|book( it)?|do it|save\w*)\b`)

	negatedRule = pattern(IntentDeny, negatedAffirm.String())
	affirmRule  = rule{intent: IntentAffirm, match: func(s string) bool {
		return affirmWords.MatchString(s) && !negatedAffirm.MatchString(s)
	}}
	denyRule = pattern(IntentDeny, `^(no|nope|nah|n|wrong|not quite|not yet|incorrect)\b`)

	// Ranked: the first matching rule wins. Booking-related intents come before small talk.
	idleRules = []rule{
		restartRule,
		pattern(IntentInfo, `\bpolic(y|ies)\b|\bdress code\b|\bdeposit\b`),
		pattern(IntentCancel, `\bcancel\b|\bdelete (my )?(reservation|booking)\b|\bremove (my )?(reservation|booking)\b`),
		pattern(IntentModify, `\b(modify|change|reschedule|edit|update)\b`),
		pattern(IntentMyReservations,
			`\bmy (reservations?|bookings?|tables?)\b|\b(view|check|show|see) (my )?(reservations?|bookings?)\b`),
		pattern(IntentWaitlist, `\bwait ?list\b|\bhow long\b|\bqueue\b|\bwait(ing)? time\b|\bthe wait\b`),
		pattern(IntentTableStatus,
			`\b(available|free|open|empty) tables?\b|\btables? (are |is )?(available|free|open|left)\b|\bavailability\b`),
		pattern(IntentBooking, `\b(book\w*|reserv\w*|table|seat(s|ing)?|dinner for|lunch for)\b`),
		pattern(IntentMenu, `\b(menu|food|eat|dish(es)?|cuisine|starters?|desserts?|mains?|drinks?)\b`),
		{intent: IntentDietary, match: func(s string) bool {
			return len(dietary.Detect(s)) > 0 || dietaryWords.MatchString(s)
		}},
		pattern(IntentInfo, `\b(hours?|open(ing)?|clos(e|es|ing)|when)\b`),
		pattern(IntentHelp, `\b(help|what can you do)\b`),
		affirmRule,
		denyRule,
		pattern(IntentGreeting, `\b(hi|hello|hey|hiya|howdy|good (morning|afternoon|evening)|thanks|thank you)\b`),
	}

	// Booking phases accept their entity or one of these interrupts.
	interruptRules = []rule{
		restartRule,
		// whole-message forms only, so free text such as a special request can mention them
		pattern(IntentCancel,
			`^(no,? )?(please )?(i want to |let's |lets )?(cancel|never ?mind|stop|quit|forget it|abort)( (it|that|this|everything|the booking|the reservation|booking|please))?[.!]*$`),
		pattern(IntentHelp, `^(help|help me|\?|what do i say)[.!?]*$`),
	}

	// Explicit cancel words outrank confirm words, an edit request outranks a bare "no", and
	// a negated confirm word is a deny.
	confirmRules = append(append([]rule(nil), interruptRules...),
		rule{intent: IntentModify, match: func(s string) bool { _, ok := editField(s); return ok }},
		negatedRule,
		affirmRule,
		denyRule,
	)

	dietaryWords = regexp.MustCompile(`\b(allerg\w*|dietary|diet)\b`)
	editVerb     = regexp.MustCompile(`\b(change|edit|update|modify|different|another|wrong|fix)\b`)
	editTargets  = []struct {
		field Field
		re    *regexp.Regexp
	}{
		{FieldName, regexp.MustCompile(`\bname\b`)},
		{FieldParty, regexp.MustCompile(`\b(party|guests?|people|size|headcount)\b`)},
		{FieldDate, regexp.MustCompile(`\b(date|day)\b`)},
		{FieldTime, regexp.MustCompile(`\btime\b`)},
		{FieldSpecial, regexp.MustCompile(`\b(special|requests?|notes?|dietary)\b`)},
	}
)

func editField(text string) (Field, bool) {
	if !editVerb.MatchString(text) {
		return "", false
	}
	for _, t := range editTargets {
		if t.re.MatchString(text) {
			return t.field, true
		}
	}
	return "", false
}

var curlyQuotes = strings.NewReplacer("’", "'", "‘", "'")

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(curlyQuotes.Replace(text))), " ")
}

// Classify maps a message to an intent using the rule list for phase. No match is
// IntentFallback.
func Classify(text string, phase Phase) Classification {
	text = normalize(text)
	rules := idleRules
	switch {
	case phase == PhaseBookingConfirm:
		rules = confirmRules
	case phase.Booking():
		rules = interruptRules
	}
	c := Classification{Intent: IntentFallback}
	for _, r := range rules {
		if r.match(text) {
			c.Intent = r.intent
			break
		}
	}
	if c.Intent == IntentModify && phase == PhaseBookingConfirm {
		c.Field, _ = editField(text)
	}
	c.Code, _ = reservation.FindCode(text)
	c.Dietary = dietary.Detect(text)
	return c
}
