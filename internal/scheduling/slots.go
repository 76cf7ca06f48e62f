// Package scheduling generates the bookable slot grid for a resource's
// working window and validates proposed appointments against it.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a resource's working window: first slot, last slot and the
// step between them.
type Window struct {
	Start        string // "08:00"
	End          string // "17:45"
	IntervalMins int
}

// DefaultWindow is the grid used when a resource has no usable window
// configured. The UI must always have some grid to render.
func DefaultWindow() Window {
	return Window{Start: "08:00", End: "17:45", IntervalMins: 15}
}

// Valid reports whether the window can produce a grid: parsable times,
// positive interval, end not before start.
func (w Window) Valid() bool {
	start, err := parseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(w.End)
	if err != nil {
		return false
	}
	return w.IntervalMins > 0 && end >= start
}

// GenerateSlots returns every slot from the window start to its end
// inclusive, ascending. A degenerate window falls back to the default
// grid instead of returning an error or an empty grid.
func GenerateSlots(w Window) []string {
	if !w.Valid() {
		w = DefaultWindow()
	}
	start, _ := parseClock(w.Start)
	end, _ := parseClock(w.End)

	slots := make([]string, 0, (end-start)/w.IntervalMins+1)
	for m := start; m <= end; m += w.IntervalMins {
		slots = append(slots, formatClock(m))
	}
	return slots
}

// OrdinalPosition returns the 1-based position of a slot on the grid
// starting at windowStart: floor((slot-start)/interval)+1. The second
// return is false when the slot precedes the window start or either
// time is unparsable.
func OrdinalPosition(slot, windowStart string, intervalMins int) (int, bool) {
	if intervalMins <= 0 {
		return 0, false
	}
	s, err := parseClock(slot)
	if err != nil {
		return 0, false
	}
	start, err := parseClock(windowStart)
	if err != nil {
		return 0, false
	}
	if s < start {
		return 0, false
	}
	return (s-start)/intervalMins + 1, true
}

// OnGrid reports whether a slot is a member of the window's grid.
func OnGrid(slot string, w Window) bool {
	if !w.Valid() {
		w = DefaultWindow()
	}
	s, err := parseClock(slot)
	if err != nil {
		return false
	}
	start, _ := parseClock(w.Start)
	end, _ := parseClock(w.End)
	return s >= start && s <= end && (s-start)%w.IntervalMins == 0
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("scheduling: bad clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("scheduling: bad clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("scheduling: bad clock value %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("scheduling: clock value out of range %q", s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
