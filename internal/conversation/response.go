package conversation

import (
	"github.com/example/tablemate/internal/dietary"
	"github.com/example/tablemate/internal/domain/reservation"
	"github.com/example/tablemate/internal/restaurant"
)

// Kind tells the caller which affordance to render.
type Kind string

const (
	KindText         Kind = "text"
	KindChoices      Kind = "choices"
	KindMenu         Kind = "menu"
	KindConfirm      Kind = "confirm"
	KindSuccess      Kind = "success"
	KindReservations Kind = "reservations"
)

// Event names the committed change a response reports, if any.
type Event string

const (
	EventBooked     Event = "booked"
	EventWaitlisted Event = "waitlisted"
	EventModified   Event = "modified"
	EventCancelled  Event = "cancelled"
)

// Summary is a draft booking awaiting confirmation.
type Summary struct {
	Restaurant     string                `json:"restaurant"`
	Code           string                `json:"code,omitempty"`
	Name           string                `json:"name"`
	PartySize      int                   `json:"party_size"`
	Date           string                `json:"date"`
	Time           string                `json:"time"`
	SpecialRequest string                `json:"special_request,omitempty"`
	Dietary        []dietary.Restriction `json:"dietary,omitempty"`
}

type Response struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Options []string `json:"options,omitempty"`

	Menu         []dietary.Item            `json:"menu,omitempty"`
	Summary      *Summary                  `json:"summary,omitempty"`
	Reservation  *reservation.Reservation  `json:"reservation,omitempty"`
	Waitlist     *restaurant.Ticket        `json:"waitlist,omitempty"`
	Reservations []reservation.Reservation `json:"reservations,omitempty"`
	// Notification is the guest-facing text message for a committed change.
	Notification string `json:"notification,omitempty"`
	Event        Event  `json:"event,omitempty"`

	Intent Intent `json:"intent"`
	Phase  Phase  `json:"phase"`
}

func text(msg string, options ...string) Response {
	if len(options) > 0 {
		return Response{Kind: KindChoices, Message: msg, Options: options}
	}
	return Response{Kind: KindText, Message: msg}
}
