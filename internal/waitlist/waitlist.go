// Package waitlist orders parties waiting for a table and estimates their wait.
//
// A Manager is not safe for concurrent use; its owning restaurant serializes access.
package waitlist

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/tablemate/internal/internaltypes"
)

var ErrNotFound = fmt.Errorf("waitlist entry %w", internaltypes.ErrNotFound)

// Priority orders entries: smaller parties first, then arrival order.
type Priority struct {
	PartySize int
	Seq       uint64
}

func (p Priority) Less(o Priority) bool {
	if p.PartySize != o.PartySize {
		return p.PartySize < o.PartySize
	}
	return p.Seq < o.Seq
}

type Entry struct {
	ID           uint64    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	GuestName    string    `json:"guest_name"`
	PartySize    int       `json:"party_size"`
	JoinedAt     time.Time `json:"joined_at"`
	// QuotedWait is the estimate given when the party joined, in minutes.
	QuotedWait int `json:"quoted_wait"`
}

func (e Entry) Priority() Priority { return Priority{PartySize: e.PartySize, Seq: e.ID} }

// Position is an entry as seen in a snapshot: current rank and a fresh estimate.
type Position struct {
	Entry
	Rank          int `json:"rank"`
	EstimatedWait int `json:"estimated_wait"`
}

type Manager struct {
	restaurantID string
	policy       Policy
	q            entryHeap
	next         uint64
}

func New(restaurantID string, policy Policy) *Manager {
	return &Manager{restaurantID: restaurantID, policy: policy, next: 1}
}

func (m *Manager) Policy() Policy { return m.policy }

// Enqueue adds a party. The quoted wait counts the parties that rank ahead of it, so it
// matches the party's first Snapshot estimate.
func (m *Manager) Enqueue(guestName string, partySize int, now time.Time) (Entry, error) {
	guestName = strings.TrimSpace(guestName)
	if guestName == "" {
		return Entry{}, errors.New("guest name required")
	}
	if partySize < 1 {
		return Entry{}, fmt.Errorf("party size must be >= 1, got %d", partySize)
	}
	e := Entry{
		ID:           m.next,
		RestaurantID: m.restaurantID,
		GuestName:    guestName,
		PartySize:    partySize,
		JoinedAt:     now,
		QuotedWait:   m.policy.Estimate(m.ahead(partySize), partySize, now),
	}
	m.next++
	heap.Push(&m.q, e)
	return e, nil
}

// Restore re-inserts persisted entries and advances the arrival counter past them.
func (m *Manager) Restore(entries []Entry) {
	for _, e := range entries {
		e.RestaurantID = m.restaurantID
		heap.Push(&m.q, e)
		if e.ID >= m.next {
			m.next = e.ID + 1
		}
	}
}

// EstimatedWait quotes a party of partySize joining now, as Enqueue would.
func (m *Manager) EstimatedWait(partySize int, now time.Time) int {
	return m.policy.Estimate(m.ahead(partySize), partySize, now)
}

// ahead counts queued parties that would outrank a newcomer of partySize. A newcomer
// always arrives last, so that is every party no larger than it.
func (m *Manager) ahead(partySize int) int {
	n := 0
	for _, e := range m.q {
		if e.PartySize <= partySize {
			n++
		}
	}
	return n
}

// Serve removes the entry with id, e.g. once a table opened up for that party.
func (m *Manager) Serve(id uint64) (Entry, error) {
	for i, e := range m.q {
		if e.ID == id {
			heap.Remove(&m.q, i)
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
}

func (m *Manager) Len() int { return m.q.Len() }

// Ordered returns entries in priority order.
func (m *Manager) Ordered() []Entry {
	out := make([]Entry, len(m.q))
	copy(out, m.q)
	sortEntries(out)
	return out
}

// Snapshot returns entries in priority order with estimates recomputed for now;
// each party's estimate counts only the parties ranked ahead of it.
func (m *Manager) Snapshot(now time.Time) []Position {
	ordered := m.Ordered()
	out := make([]Position, len(ordered))
	for i, e := range ordered {
		out[i] = Position{
			Entry:         e,
			Rank:          i + 1,
			EstimatedWait: m.policy.Estimate(i, e.PartySize, now),
		}
	}
	return out
}

// RankOf is the 1-based position of id in priority order, or 0 when absent.
func (m *Manager) RankOf(id uint64) int {
	for i, e := range m.Ordered() {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}

type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].Priority().Less(h[j].Priority()) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].Priority().Less(es[j].Priority()) })
}

// Policy holds the tunable wait-estimate parameters.
type Policy struct {
	MinutesPerParty     float64
	BaseMinutes         int
	LargePartyThreshold int
	LargePartyFactor    float64
	// Peak window, inclusive hours in the clock's zone.
	PeakStartHour int
	PeakEndHour   int
	PeakFactor    float64
}

func DefaultPolicy() Policy {
	return Policy{
		MinutesPerParty:     15,
		BaseMinutes:         10,
		LargePartyThreshold: 4,
		LargePartyFactor:    1.5,
		PeakStartHour:       18,
		PeakEndHour:         20,
		PeakFactor:          1.3,
	}
}

// Estimate is ceil(ahead * minutesPerParty * sizeFactor * peakFactor) + baseMinutes.
func (p Policy) Estimate(ahead, partySize int, now time.Time) int {
	size := 1.0
	if partySize > p.LargePartyThreshold {
		size = p.LargePartyFactor
	}
	peak := 1.0
	if p.InPeak(now) {
		peak = p.PeakFactor
	}
	return int(math.Ceil(float64(ahead)*p.MinutesPerParty*size*peak)) + p.BaseMinutes
}

func (p Policy) InPeak(now time.Time) bool {
	h := now.Hour()
	return h >= p.PeakStartHour && h <= p.PeakEndHour
}
