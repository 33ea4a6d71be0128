package conversation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
)

type ErrorKind string

const (
	// KindUnrecognized means nothing in the text looked like the field.
	KindUnrecognized ErrorKind = "unrecognized"
	// KindOutOfRange means the field was found but its value is not acceptable.
	KindOutOfRange ErrorKind = "out_of_range"
)

var (
	ErrNoMatch       = errors.New("no match")
	ErrNameNoLetters = errors.New("a name needs letters")
	ErrNameTooLong   = errors.New("name too long")
	ErrPartyTooSmall = errors.New("a party needs at least one guest")
	ErrPartyTooLarge = errors.New("party too large")
	ErrDatePast      = errors.New("date already passed")
	ErrDateInvalid   = errors.New("no such date")
	ErrTimeInvalid   = errors.New("no such time")
	ErrOutsideHours  = errors.New("outside opening hours")
)

// EntityError reports a field that could not be extracted from a message.
type EntityError struct {
	Field Field
	Kind  ErrorKind
	Input string
	Err   error
}

func (e *EntityError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s (%q): %v", e.Field, e.Kind, e.Input, e.Err)
}

func (e *EntityError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func unrecognized(f Field, input string) *EntityError {
	return &EntityError{Field: f, Kind: KindUnrecognized, Input: input, Err: ErrNoMatch}
}

func outOfRange(f Field, input string, err error) *EntityError {
	return &EntityError{Field: f, Kind: KindOutOfRange, Input: input, Err: err}
}

const maxNameLen = 60

var (
	nameLeadIn  = regexp.MustCompile(`(?i)^(my name is|my name's|the name is|name is|name's|name:|it's|it is|i'm|i am|this is|call me|put it under|under the name|under)\s+`)
	nameTrailer = regexp.MustCompile(`(?i)(?:[\s,]+(?:please|thanks|thank you))?[\s.!?,]*$`)
	hasLetter   = regexp.MustCompile(`\pL`)
)

// ExtractName takes the message as the name after stripping common lead-ins
// ("my name is", "under") and trailing politeness.
func ExtractName(text string) (string, error) {
	name := strings.TrimSpace(text)
	for {
		stripped := nameLeadIn.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = strings.TrimSpace(stripped)
	}
	name = strings.TrimSpace(nameTrailer.ReplaceAllString(name, ""))
	name = strings.Join(strings.Fields(name), " ")
	switch {
	case name == "":
		return "", unrecognized(FieldName, text)
	case !hasLetter.MatchString(name):
		return "", outOfRange(FieldName, text, ErrNameNoLetters)
	case len([]rune(name)) > maxNameLen:
		return "", outOfRange(FieldName, text, ErrNameTooLong)
	}
	return name, nil
}

var (
	sizeBeforeWord = regexp.MustCompile(`(-?\d+)\s*(people|persons?|guests?|pax|of us|diners|adults|seats)\b`)
	sizePartyOf    = regexp.MustCompile(`\bparty of\s*(-?\d+)\b`)
	sizeFor        = regexp.MustCompile(`\bfor\s+(-?\d+)(\s*(:\d{2}|a\.?m\b|p\.?m\b|o'?clock\b))?`)
	sizeBare       = regexp.MustCompile(`^\s*(-?\d+)\s*[.!]?\s*$`)
	sizeWords      = regexp.MustCompile(`\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|a dozen)\b`)
	sizeSolo       = regexp.MustCompile(`\b(just me|only me|myself|solo|table for one|by myself)\b`)
	sizePair       = regexp.MustCompile(`\b(couple|the two of us|me and my (wife|husband|partner|date|friend|girlfriend|boyfriend))\b`)

	wordNumbers = map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "a dozen": 12,
	}
)

// ExtractPartySize reads a guest count: digits next to a size word, "for N" (but not
// "for 7pm"), "party of N", a bare number, or a spelled-out number. Values outside
// 1..limit are out of range; an oversized party wraps ErrPartyTooLarge.
func ExtractPartySize(text string, limit int) (int, error) {
	s := normalize(text)
	raw, ok := findPartySize(s)
	if !ok {
		return 0, unrecognized(FieldParty, text)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, outOfRange(FieldParty, text, ErrPartyTooLarge)
	}
	if n < 1 {
		return 0, outOfRange(FieldParty, text, ErrPartyTooSmall)
	}
	if n > limit {
		return 0, outOfRange(FieldParty, text, fmt.Errorf("%w: %d exceeds %d", ErrPartyTooLarge, n, limit))
	}
	return n, nil
}

func findPartySize(s string) (string, bool) {
	if m := sizeBeforeWord.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := sizePartyOf.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	for _, m := range sizeFor.FindAllStringSubmatch(s, -1) {
		if m[2] == "" {
			return m[1], true
		}
	}
	if m := sizeBare.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if sizeSolo.MatchString(s) {
		return "1", true
	}
	if sizePair.MatchString(s) {
		return "2", true
	}
	if m := sizeWords.FindStringSubmatch(s); m != nil {
		return strconv.Itoa(wordNumbers[m[1]]), true
	}
	return "", false
}

var (
	dateISO        = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dateMonthDay   = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(st|nd|rd|th)?\b`)
	dateDayMonth   = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)?\s+(?:of\s+)?(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\b`)
	dateSlash      = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
	dateWeekday    = regexp.MustCompile(`\b(next\s+|this\s+)?(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b`)
	dateToday      = regexp.MustCompile(`\b(tonight|today|this evening)\b`)
	dateTomorrow   = regexp.MustCompile(`\b(tomorrow|tmrw|tmr)\b`)
	dateOvermorrow = regexp.MustCompile(`\bday after tomorrow\b`)
	dateWeekend    = regexp.MustCompile(`\b(this )?weekend\b`)

	months = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
	weekdays = map[string]time.Weekday{
		"sun": time.Sunday, "sunday": time.Sunday,
		"mon": time.Monday, "monday": time.Monday,
		"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
		"wed": time.Wednesday, "wednesday": time.Wednesday,
		"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
		"fri": time.Friday, "friday": time.Friday,
		"sat": time.Saturday, "saturday": time.Saturday,
	}
)

// ExtractDate resolves a calendar date relative to now, in now's location. Month-day
// forms without a year pick the next occurrence; an explicit past date is out of range.
func ExtractDate(text string, now time.Time) (time.Time, error) {
	s := normalize(text)
	today := midnight(now)

	if m := dateISO.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return explicitDate(text, today, y, time.Month(mo), d)
	}
	if m := dateMonthDay.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[2])
		return nextOccurrence(text, today, months[m[1]], d)
	}
	if m := dateDayMonth.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		return nextOccurrence(text, today, months[m[3]], d)
	}
	if m := dateSlash.FindStringSubmatch(s); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		if m[3] == "" {
			return nextOccurrence(text, today, time.Month(mo), d)
		}
		y, _ := strconv.Atoi(m[3])
		if y < 100 {
			y += 2000
		}
		return explicitDate(text, today, y, time.Month(mo), d)
	}
	switch {
	case dateOvermorrow.MatchString(s):
		return today.AddDate(0, 0, 2), nil
	case dateTomorrow.MatchString(s):
		return today.AddDate(0, 0, 1), nil
	case dateToday.MatchString(s):
		return today, nil
	}
	if m := dateWeekday.FindStringSubmatch(s); m != nil {
		ahead := (int(weekdays[m[2]]) - int(today.Weekday()) + 7) % 7
		if ahead == 0 && strings.TrimSpace(m[1]) == "next" {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), nil
	}
	if dateWeekend.MatchString(s) {
		return today.AddDate(0, 0, (int(time.Saturday)-int(today.Weekday())+7)%7), nil
	}
	return time.Time{}, unrecognized(FieldDate, text)
}

var weekdayWord = regexp.MustCompile(`\b(on\s+|next\s+|this\s+)?(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b`)

// ExtractDateInText is ExtractDate for a message that was not an answer to the date
// question. Weekday abbreviations count only after on, this or next, so "in the sun"
// names no date.
func ExtractDateInText(text string, now time.Time) (time.Time, error) {
	s := weekdayWord.ReplaceAllStringFunc(normalize(text), func(w string) string {
		m := weekdayWord.FindStringSubmatch(w)
		if m[1] != "" || strings.HasSuffix(m[2], "day") {
			return w
		}
		return " "
	})
	return ExtractDate(s, now)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func validDate(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return t, t.Month() == m && t.Day() == d
}

func explicitDate(input string, today time.Time, y int, m time.Month, d int) (time.Time, error) {
	t, ok := validDate(y, m, d, today.Location())
	if !ok {
		return time.Time{}, outOfRange(FieldDate, input, ErrDateInvalid)
	}
	if t.Before(today) {
		return time.Time{}, outOfRange(FieldDate, input, ErrDatePast)
	}
	return t, nil
}

func nextOccurrence(input string, today time.Time, m time.Month, d int) (time.Time, error) {
	// Feb 29 may only exist a few years out
	for y := today.Year(); y <= today.Year()+4; y++ {
		t, ok := validDate(y, m, d, today.Location())
		if ok && !t.Before(today) {
			return t, nil
		}
	}
	return time.Time{}, outOfRange(FieldDate, input, ErrDateInvalid)
}

var (
	time12   = regexp.MustCompile(`\b(\d{1,2})(?::(\d{1,2}))?\s*(a\.?m\.?|p\.?m\.?)`)
	time24   = regexp.MustCompile(`\b(\d{1,2}):(\d{1,2})\b`)
	timeAt   = regexp.MustCompile(`\b(?:at|around|about)\s+(\d{1,2})(?:\s*o'?clock)?\b|^(\d{1,2})(?:\s*o'?clock)?$|\b(\d{1,2})\s*o'?clock\b`)
	timeNoon = regexp.MustCompile(`\bnoon\b|\bmidday\b`)
)

// ExtractTime reads "7pm", "7:30 PM", "19:30", "noon" or "at 7". An hour without am/pm
// below 12 is taken as evening. Impossible hours and minutes are out of range, never clamped.
func ExtractTime(text string) (reservation.TimeOfDay, error) {
	s := normalize(text)
	if m := time12.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || minute > 59 {
			return reservation.TimeOfDay{}, outOfRange(FieldTime, text, ErrTimeInvalid)
		}
		h %= 12
		if strings.HasPrefix(m[3], "p") {
			h += 12
		}
		return reservation.TimeOfDay{Hour: h, Minute: minute}, nil
	}
	if m := time24.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return clockTime(text, h, minute)
	}
	if timeNoon.MatchString(s) {
		return reservation.TimeOfDay{Hour: 12}, nil
	}
	if m := timeAt.FindStringSubmatch(s); m != nil {
		raw := m[1] + m[2] + m[3]
		h, _ := strconv.Atoi(raw)
		return clockTime(text, h, 0)
	}
	return reservation.TimeOfDay{}, unrecognized(FieldTime, text)
}

func clockTime(input string, h, minute int) (reservation.TimeOfDay, error) {
	if h > 23 || minute > 59 {
		return reservation.TimeOfDay{}, outOfRange(FieldTime, input, ErrTimeInvalid)
	}
	if h >= 1 && h < 12 {
		h += 12
	}
	return reservation.TimeOfDay{Hour: h, Minute: minute}, nil
}

var noRequest = regexp.MustCompile(`^(no|none|nope|nothing|n/?a|no thanks|no thank you|nothing special|no special requests?|no requests?|all good|-)[.!]?$`)

// ExtractSpecial never fails: "no", "none" and the like mean no request. Dietary
// restrictions mentioned anywhere are returned alongside the text.
func ExtractSpecial(text string) (string, []dietary.Restriction) {
	trimmed := strings.TrimSpace(text)
	rs := dietary.Detect(trimmed)
	if noRequest.MatchString(normalize(trimmed)) {
		return "", rs
	}
	return trimmed, rs
}
