package conversation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
)

// Monday afternoon
var clock = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }

func requireEntityError(t *testing.T, err error, kind ErrorKind, target error) {
	t.Helper()
	var ee *EntityError
	require.True(t, errors.As(err, &ee), "want *EntityError, got %v", err)
	require.Equal(t, kind, ee.Kind)
	require.ErrorIs(t, err, target)
}

func TestExtractName(t *testing.T) {
	cases := map[string]string{
		"Ana":                  "Ana",
		"My name is Ana Lopez": "Ana Lopez",
		"under Smith please":   "Smith",
		"It's Bob, thanks!":    "Bob",
		"  Zoë   Martin ":      "Zoë Martin",
		"Pleasance":            "Pleasance",
	}
	for in, want := range cases {
		got, err := ExtractName(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ExtractName("   ")
	requireEntityError(t, err, KindUnrecognized, ErrNoMatch)

	_, err = ExtractName("12345")
	requireEntityError(t, err, KindOutOfRange, ErrNameNoLetters)

	_, err = ExtractName(strings.Repeat("a", maxNameLen+1))
	requireEntityError(t, err, KindOutOfRange, ErrNameTooLong)
}

func TestExtractPartySize(t *testing.T) {
	cases := map[string]int{
		"4 people":             4,
		"party of 6":           6,
		"a table for 2 at 7pm": 2,
		"3":                    3,
		"two of us":            2,
		"just me":              1,
		"me and my wife":       2,
		"we are five":          5,
		"8 guests":             8,
	}
	for in, want := range cases {
		got, err := ExtractPartySize(in, 8)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ExtractPartySize("for 7pm", 8)
	requireEntityError(t, err, KindUnrecognized, ErrNoMatch)

	_, err = ExtractPartySize("a few of us", 8)
	requireEntityError(t, err, KindUnrecognized, ErrNoMatch)

	for _, in := range []string{"0", "-3"} {
		_, err = ExtractPartySize(in, 8)
		requireEntityError(t, err, KindOutOfRange, ErrPartyTooSmall)
	}
	for _, in := range []string{"12", "twelve", "party of 9"} {
		_, err = ExtractPartySize(in, 8)
		requireEntityError(t, err, KindOutOfRange, ErrPartyTooLarge)
	}
}

func TestExtractDate(t *testing.T) {
	cases := map[string]time.Time{
		"tonight":            day(time.October, 19),
		"tomorrow":           day(time.October, 20),
		"day after tomorrow": day(time.October, 21),
		"friday":             day(time.October, 23),
		"monday":             day(time.October, 19),
		"next monday":        day(time.October, 26),
		"next wednesday":     day(time.October, 21),
		"this weekend":       day(time.October, 24),
		"Oct 25":             day(time.October, 25),
		"Tue, Oct 20":        day(time.October, 20),
		"25th of December":   day(time.December, 25),
		"12/31":              day(time.December, 31),
		"2026-11-02":         day(time.November, 2),
		"Jan 5":              time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ExtractDate(in, clock)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ExtractDate("whenever suits", clock)
	requireEntityError(t, err, KindUnrecognized, ErrNoMatch)

	_, err = ExtractDate("2026-10-01", clock)
	requireEntityError(t, err, KindOutOfRange, ErrDatePast)

	_, err = ExtractDate("10/18/2026", clock)
	requireEntityError(t, err, KindOutOfRange, ErrDatePast)

	_, err = ExtractDate("2026-02-30", clock)
	requireEntityError(t, err, KindOutOfRange, ErrDateInvalid)

	_, err = ExtractDate("Feb 30", clock)
	requireEntityError(t, err, KindOutOfRange, ErrDateInvalid)
}

func TestDateOptionsParseBack(t *testing.T) {
	for _, opt := range dateOptions(clock) {
		_, err := ExtractDate(opt, clock)
		require.NoError(t, err, opt)
	}
}

func TestExtractTime(t *testing.T) {
	cases := map[string]reservation.TimeOfDay{
		"7pm":         {Hour: 19},
		"7:30 PM":     {Hour: 19, Minute: 30},
		"5:00 PM":     {Hour: 17},
		"19:30":       {Hour: 19, Minute: 30},
		"noon":        {Hour: 12},
		"12am":        {Hour: 0},
		"at 8":        {Hour: 20},
		"8":           {Hour: 20},
		"6 o'clock":   {Hour: 18},
		"around 9 ok": {Hour: 21},
	}
	for in, want := range cases {
		got, err := ExtractTime(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ExtractTime("whenever")
	requireEntityError(t, err, KindUnrecognized, ErrNoMatch)

	for _, in := range []string{"13pm", "25:00", "7:75pm", "0am"} {
		_, err = ExtractTime(in)
		requireEntityError(t, err, KindOutOfRange, ErrTimeInvalid)
	}
}

func TestExtractSpecial(t *testing.T) {
	req, rs := ExtractSpecial("No")
	require.Empty(t, req)
	require.Empty(t, rs)

	req, _ = ExtractSpecial("No special requests")
	require.Empty(t, req)

	req, rs = ExtractSpecial(" Window seat, we're vegan and gluten free ")
	require.Equal(t, "Window seat, we're vegan and gluten free", req)
	require.Equal(t, []dietary.Restriction{dietary.Vegan, dietary.GlutenFree}, rs)
}

func TestEntityErrorMessage(t *testing.T) {
	_, err := ExtractPartySize("12", 8)
	require.EqualError(t, err, `party_size out_of_range ("12"): party too large: 12 exceeds 8`)
}
