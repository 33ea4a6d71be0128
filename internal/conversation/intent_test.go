package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/tablemate/internal/dietary"
)

func TestClassifyIdle(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"Book a table for 4", IntentBooking},
		{"I'd like to make a reservation", IntentBooking},
		{"hi, can I book for tonight?", IntentBooking},
		{"please cancel my booking", IntentCancel},
		{"I need to change my reservation", IntentModify},
		{"show my reservations", IntentMyReservations},
		{"how long is the wait?", IntentWaitlist},
		{"add me to the waitlist", IntentWaitlist},
		{"any tables available?", IntentTableStatus},
		{"what's on the menu", IntentMenu},
		{"I'm vegan", IntentDietary},
		{"any dietary options?", IntentDietary},
		{"what are your hours", IntentInfo},
		{"what's your cancellation policy", IntentInfo},
		{"what can you do", IntentHelp},
		{"start over", IntentRestart},
		{"hello", IntentGreeting},
		{"yes", IntentAffirm},
		{"asdfgh", IntentFallback},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.text, PhaseIdle).Intent)
		})
	}
}

func TestClassifyCarriesCodeAndDietary(t *testing.T) {
	c := Classify("Cancel tb-1a2b3 please", PhaseIdle)
	require.Equal(t, IntentCancel, c.Intent)
	require.Equal(t, "TB-1A2B3", c.Code)

	c = Classify("do you have gluten free dishes", PhaseIdle)
	require.Equal(t, IntentMenu, c.Intent)
	require.Equal(t, []dietary.Restriction{dietary.GlutenFree}, c.Dietary)
}

func TestClassifyBookingPhaseOnlyInterrupts(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"Ana", IntentFallback},
		{"book a table", IntentFallback},
		{"help me book", IntentFallback},
		{"help", IntentHelp},
		{"never mind", IntentCancel},
		{"cancel", IntentCancel},
		{"Cancel the booking!", IntentCancel},
		{"high chair if possible, never mind if not", IntentFallback},
		{"please stop by the bar first", IntentFallback},
		{"start over", IntentRestart},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.text, PhaseBookingParty).Intent)
		})
	}
}

func TestClassifyConfirm(t *testing.T) {
	cases := []struct {
		text  string
		want  Intent
		field Field
	}{
		{"yes", IntentAffirm, ""},
		{"Confirm", IntentAffirm, ""},
		{"Save changes", IntentAffirm, ""},
		{"looks good, book it", IntentAffirm, ""},
		{"yes, no problem, book it", IntentAffirm, ""},
		{"no", IntentDeny, ""},
		{"No, don't book it", IntentDeny, ""},
		{"please don’t confirm", IntentDeny, ""},
		{"no, do not go ahead", IntentDeny, ""},
		{"not yet", IntentDeny, ""},
		{"change the time", IntentModify, FieldTime},
		{"no, wrong date", IntentModify, FieldDate},
		{"Change party size", IntentModify, FieldParty},
		{"never mind", IntentCancel, ""},
		{"start over", IntentRestart, ""},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			c := Classify(tc.text, PhaseBookingConfirm)
			require.Equal(t, tc.want, c.Intent)
			require.Equal(t, tc.field, c.Field)
		})
	}
}

func TestIntentJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Intent{"intent": IntentTableStatus})
	require.NoError(t, err)
	require.JSONEq(t, `{"intent":"table_status"}`, string(b))
	require.Equal(t, "fallback", Intent(99).String())
}
