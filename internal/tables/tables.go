// Package tables holds a restaurant's table inventory and picks best-fit tables for a party.
//
// An Allocator is not safe for concurrent use; its owning restaurant serializes access.
package tables

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/tablemate/internal/domain/reservation"
)

type Status string

const (
	Available Status = "available"
	Reserved  Status = "reserved"
)

var ErrTableUnavailable = errors.New("table unavailable")

type Table struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
	Status   Status `json:"status"`
}

type Allocator struct {
	tables []*Table
	byID   map[string]*Table
}

// New validates the inventory: unique IDs, capacity >= 1. Tables without a status start available.
func New(inventory []Table) (*Allocator, error) {
	a := &Allocator{byID: make(map[string]*Table, len(inventory))}
	for _, t := range inventory {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("table id required")
		}
		if t.Capacity < 1 {
			return nil, fmt.Errorf("table %s: capacity must be >= 1, got %d", t.ID, t.Capacity)
		}
		if _, dup := a.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate table id %s", t.ID)
		}
		switch t.Status {
		case "":
			t.Status = Available
		case Available, Reserved:
		default:
			return nil, fmt.Errorf("table %s: unknown status %q", t.ID, t.Status)
		}
		tt := t
		a.tables = append(a.tables, &tt)
		a.byID[t.ID] = &tt
	}
	return a, nil
}

// Inventory expands a capacity -> count mix into tables numbered T1..Tn, walking sizes in
// ascending order.
func Inventory(counts map[int]int) []Table {
	sizes := make([]int, 0, len(counts))
	for size := range counts {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	var inv []Table
	n := 1
	for _, size := range sizes {
		for i := 0; i < counts[size]; i++ {
			inv = append(inv, Table{ID: "T" + strconv.Itoa(n), Capacity: size})
			n++
		}
	}
	return inv
}

// Candidates returns the available tables that seat partySize, least waste first
// (waste = capacity - partySize), ties by table ID. No match is an empty result, not an error.
//
// Availability is tracked per table rather than per time slot, so date and at do not
// narrow the result; they are part of the lookup so a slot-aware inventory can honor them.
func (a *Allocator) Candidates(partySize int, date time.Time, at reservation.TimeOfDay) []Table {
	_, _ = date, at
	if partySize < 1 {
		return nil
	}
	var out []Table
	for _, t := range a.tables {
		if t.Status == Available && t.Capacity >= partySize {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Capacity-partySize, out[j].Capacity-partySize
		if wi != wj {
			return wi < wj
		}
		return LessID(out[i].ID, out[j].ID)
	})
	return out
}

// Reserve flips an available table to reserved.
func (a *Allocator) Reserve(id string) error {
	t, ok := a.byID[id]
	if !ok {
		return fmt.Errorf("table %s: %w", id, ErrTableUnavailable)
	}
	if t.Status != Available {
		return fmt.Errorf("table %s is %s: %w", id, t.Status, ErrTableUnavailable)
	}
	t.Status = Reserved
	return nil
}

// Release flips a reserved table back to available.
func (a *Allocator) Release(id string) error {
	t, ok := a.byID[id]
	if !ok {
		return fmt.Errorf("unknown table %s", id)
	}
	if t.Status != Reserved {
		return fmt.Errorf("table %s is not reserved", id)
	}
	t.Status = Available
	return nil
}

func (a *Allocator) Get(id string) (Table, bool) {
	t, ok := a.byID[id]
	if !ok {
		return Table{}, false
	}
	return *t, true
}

// Snapshot copies the inventory in its original order.
func (a *Allocator) Snapshot() []Table {
	out := make([]Table, len(a.tables))
	for i, t := range a.tables {
		out[i] = *t
	}
	return out
}

func (a *Allocator) Len() int { return len(a.tables) }

func (a *Allocator) CountAvailable() int {
	n := 0
	for _, t := range a.tables {
		if t.Status == Available {
			n++
		}
	}
	return n
}

// LessID orders IDs naturally: "T2" < "T10". IDs without a shared alphabetic
// prefix and a numeric tail compare as plain strings.
func LessID(a, b string) bool {
	pa, na, oka := splitID(a)
	pb, nb, okb := splitID(b)
	if oka && okb && pa == pb && na != nb {
		return na < nb
	}
	return a < b
}

func splitID(id string) (string, int, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return id, 0, false
	}
	return id[:i], n, true
}
