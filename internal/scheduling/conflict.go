package scheduling

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment. A cancelled
// appointment leaves the active set; there is no completed state here.
// The clinical visit workflow removes the appointment and writes its
// own record downstream.
type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Appointment is one booked slot for a resource on a calendar date.
type Appointment struct {
	ID        string    `json:"id"`
	Resource  string    `json:"resource"`
	Date      time.Time `json:"date"`
	Slot      string    `json:"slot"`
	PatientID string    `json:"patient_id"`
	Position  int       `json:"position"`
	Status    Status    `json:"status"`
}

// ConflictKind distinguishes the two booking rejections; the requester
// needs to know which one it is, their remediation differs.
type ConflictKind string

const (
	// SlotTaken: same resource, date and slot already booked by a
	// different patient. Remediation: pick another slot.
	SlotTaken ConflictKind = "slot_taken"
	// DuplicateSameDay: the patient already has an appointment with
	// this resource on this date, regardless of slot.
	DuplicateSameDay ConflictKind = "duplicate_same_day"
)

// Conflict is the typed rejection returned by CheckConflict. It carries
// the existing appointment so the caller can show what collided.
type Conflict struct {
	Kind     ConflictKind
	Existing Appointment
}

func (c *Conflict) Error() string {
	switch c.Kind {
	case SlotTaken:
		return fmt.Sprintf("scheduling: slot %s on %s already booked for %s",
			c.Existing.Slot, c.Existing.Date.Format("2006-01-02"), c.Existing.Resource)
	case DuplicateSameDay:
		return fmt.Sprintf("scheduling: patient %s already has an appointment with %s on %s",
			c.Existing.PatientID, c.Existing.Resource, c.Existing.Date.Format("2006-01-02"))
	default:
		return "scheduling: booking conflict"
	}
}

// CheckConflict validates a proposed appointment against the existing
// active set. It returns nil when the booking is allowed. Conflicts are
// always surfaced to the requester, never silently resolved. Cancelled
// entries and the proposed appointment itself (matched by ID, for
// edits) are ignored.
func CheckConflict(proposed Appointment, existing []Appointment) *Conflict {
	for _, a := range existing {
		if a.Status == StatusCancelled || a.ID == proposed.ID {
			continue
		}
		if a.Resource != proposed.Resource || !sameDay(a.Date, proposed.Date) {
			continue
		}
		if a.Slot == proposed.Slot && a.PatientID != proposed.PatientID {
			return &Conflict{Kind: SlotTaken, Existing: a}
		}
		if a.PatientID == proposed.PatientID && proposed.PatientID != "" {
			return &Conflict{Kind: DuplicateSameDay, Existing: a}
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
