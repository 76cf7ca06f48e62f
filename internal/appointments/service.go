// Package appointments books, edits and cancels appointments, persisting
// them through the workbook store and validating every mutation with the
// scheduling engine.
package appointments

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-backoffice/internal/observability/metrics"
	"github.com/wolfman30/clinic-backoffice/internal/scheduling"
	"github.com/wolfman30/clinic-backoffice/internal/tenancy"
	"github.com/wolfman30/clinic-backoffice/internal/workbook"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// Container and table names for appointment data.
const (
	ContainerName = "appointments"
	TableActive   = "appointments"
)

// Schema is the canonical shape of the active appointments table.
var Schema = workbook.Schema{
	Version: 1,
	Fields: []workbook.Field{
		{Name: "id", Type: workbook.Text},
		{Name: "resource", Type: workbook.Text},
		{Name: "date", Type: workbook.Date},
		{Name: "slot", Type: workbook.Text},
		{Name: "patient_id", Type: workbook.Text},
		{Name: "position", Type: workbook.Integer},
		{Name: "status", Type: workbook.Text, Default: string(scheduling.StatusConfirmed)},
	},
}

// Tables lists every table of the appointments container.
var Tables = []workbook.TableSpec{{Name: TableActive, Schema: Schema}}

var (
	// ErrAppointmentNotFound is returned when an edit or cancel targets
	// an id not in the active set.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotOffGrid is returned when the requested slot is not on the
	// resource's grid.
	ErrSlotOffGrid = errors.New("slot is not on the resource's grid")

	// ErrMissingFields is returned when a booking lacks resource,
	// patient, date or slot.
	ErrMissingFields = errors.New("resource, patient, date and slot are required")
)

// WindowProvider supplies the working window for a resource. The
// configuration layer owns the actual values.
type WindowProvider interface {
	WindowFor(resource string) scheduling.Window
}

// StaticWindows is a WindowProvider with a shared default and optional
// per-resource overrides.
type StaticWindows struct {
	Default     scheduling.Window
	PerResource map[string]scheduling.Window
}

func (s StaticWindows) WindowFor(resource string) scheduling.Window {
	if w, ok := s.PerResource[resource]; ok {
		return w
	}
	if s.Default.Valid() {
		return s.Default
	}
	return scheduling.DefaultWindow()
}

// Service is the appointment booking workflow.
type Service struct {
	store   *workbook.Store
	windows WindowProvider
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
}

// NewService creates the booking service. metrics may be nil.
func NewService(store *workbook.Store, windows WindowProvider, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if windows == nil {
		windows = StaticWindows{Default: scheduling.DefaultWindow()}
	}
	return &Service{store: store, windows: windows, metrics: m, logger: logger}
}

// BookRequest is a request for a new appointment.
type BookRequest struct {
	Resource  string    `json:"resource"`
	Date      time.Time `json:"date"`
	Slot      string    `json:"slot"`
	PatientID string    `json:"patient_id"`
}

func (r *BookRequest) validate() error {
	if strings.TrimSpace(r.Resource) == "" || strings.TrimSpace(r.PatientID) == "" ||
		strings.TrimSpace(r.Slot) == "" || r.Date.IsZero() {
		return ErrMissingFields
	}
	return nil
}

// Book validates and persists a new appointment. A scheduling conflict
// is returned as *scheduling.Conflict so the caller can tell the
// requester which kind it was.
func (s *Service) Book(ctx context.Context, sctx tenancy.StorageContext, req *BookRequest) (*scheduling.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	window := s.windows.WindowFor(req.Resource)
	if !scheduling.OnGrid(req.Slot, window) {
		return nil, ErrSlotOffGrid
	}

	existing, err := s.loadActive(ctx, sctx)
	if err != nil {
		return nil, err
	}

	proposed := scheduling.Appointment{
		ID:        uuid.New().String(),
		Resource:  req.Resource,
		Date:      dateOnly(req.Date),
		Slot:      req.Slot,
		PatientID: req.PatientID,
		Status:    scheduling.StatusRequested,
	}
	if conflict := scheduling.CheckConflict(proposed, existing); conflict != nil {
		s.metrics.ObserveConflict(string(conflict.Kind))
		s.metrics.ObserveBooking("rejected")
		return nil, conflict
	}

	if pos, ok := scheduling.OrdinalPosition(proposed.Slot, window.Start, window.IntervalMins); ok {
		proposed.Position = pos
	}
	proposed.Status = scheduling.StatusConfirmed

	if err := s.saveActive(ctx, sctx, append(existing, proposed)); err != nil {
		s.metrics.ObserveBooking("error")
		return nil, err
	}

	s.metrics.ObserveBooking("confirmed")
	s.logger.Info("appointment booked",
		"appointment_id", proposed.ID, "resource", proposed.Resource,
		"date", proposed.Date.Format("2006-01-02"), "slot", proposed.Slot,
		"org_id", sctx.OrgID)
	return &proposed, nil
}

// EditRequest carries the mutable fields of an appointment; zero values
// keep the current ones.
type EditRequest struct {
	Resource string    `json:"resource"`
	Date     time.Time `json:"date"`
	Slot     string    `json:"slot"`
}

// Edit moves a confirmed appointment to a new resource, date or slot,
// re-validated exactly like a new request.
func (s *Service) Edit(ctx context.Context, sctx tenancy.StorageContext, id string, req *EditRequest) (*scheduling.Appointment, error) {
	existing, err := s.loadActive(ctx, sctx)
	if err != nil {
		return nil, err
	}

	idx := indexByID(existing, id)
	if idx < 0 {
		return nil, ErrAppointmentNotFound
	}

	updated := existing[idx]
	if req.Resource != "" {
		updated.Resource = req.Resource
	}
	if !req.Date.IsZero() {
		updated.Date = dateOnly(req.Date)
	}
	if req.Slot != "" {
		updated.Slot = req.Slot
	}

	window := s.windows.WindowFor(updated.Resource)
	if !scheduling.OnGrid(updated.Slot, window) {
		return nil, ErrSlotOffGrid
	}
	if conflict := scheduling.CheckConflict(updated, existing); conflict != nil {
		s.metrics.ObserveConflict(string(conflict.Kind))
		return nil, conflict
	}
	if pos, ok := scheduling.OrdinalPosition(updated.Slot, window.Start, window.IntervalMins); ok {
		updated.Position = pos
	}

	existing[idx] = updated
	if err := s.saveActive(ctx, sctx, existing); err != nil {
		return nil, err
	}
	s.logger.Info("appointment edited", "appointment_id", id, "org_id", sctx.OrgID)
	return &updated, nil
}

// Cancel removes an appointment from the active set.
func (s *Service) Cancel(ctx context.Context, sctx tenancy.StorageContext, id string) error {
	existing, err := s.loadActive(ctx, sctx)
	if err != nil {
		return err
	}
	idx := indexByID(existing, id)
	if idx < 0 {
		return ErrAppointmentNotFound
	}
	remaining := append(existing[:idx:idx], existing[idx+1:]...)
	if err := s.saveActive(ctx, sctx, remaining); err != nil {
		return err
	}
	s.logger.Info("appointment cancelled", "appointment_id", id, "org_id", sctx.OrgID)
	return nil
}

// ListDay returns the active appointments for a resource on one date,
// ordered by slot.
func (s *Service) ListDay(ctx context.Context, sctx tenancy.StorageContext, resource string, date time.Time) ([]scheduling.Appointment, error) {
	existing, err := s.loadActive(ctx, sctx)
	if err != nil {
		return nil, err
	}
	day := dateOnly(date)
	var out []scheduling.Appointment
	for _, a := range existing {
		if a.Resource == resource && a.Date.Equal(day) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

// Slots returns the bookable grid for a resource.
func (s *Service) Slots(resource string) []string {
	return scheduling.GenerateSlots(s.windows.WindowFor(resource))
}

func (s *Service) loadActive(ctx context.Context, sctx tenancy.StorageContext) ([]scheduling.Appointment, error) {
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, TableActive, Schema)
	if err != nil {
		return nil, err
	}
	out := make([]scheduling.Appointment, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

func (s *Service) saveActive(ctx context.Context, sctx tenancy.StorageContext, appts []scheduling.Appointment) error {
	records := make([]workbook.Record, 0, len(appts))
	for _, a := range appts {
		records = append(records, toRecord(a))
	}
	return s.store.SaveTable(ctx, sctx, ContainerName, TableActive, records, Schema, Tables)
}

func fromRecord(rec workbook.Record) scheduling.Appointment {
	id, _ := rec["id"].(string)
	resource, _ := rec["resource"].(string)
	date, _ := rec["date"].(time.Time)
	slot, _ := rec["slot"].(string)
	patientID, _ := rec["patient_id"].(string)
	position, _ := rec["position"].(int64)
	status, _ := rec["status"].(string)
	return scheduling.Appointment{
		ID:        id,
		Resource:  resource,
		Date:      date,
		Slot:      slot,
		PatientID: patientID,
		Position:  int(position),
		Status:    scheduling.Status(status),
	}
}

func toRecord(a scheduling.Appointment) workbook.Record {
	return workbook.Record{
		"id":         a.ID,
		"resource":   a.Resource,
		"date":       a.Date,
		"slot":       a.Slot,
		"patient_id": a.PatientID,
		"position":   int64(a.Position),
		"status":     string(a.Status),
	}
}

func indexByID(appts []scheduling.Appointment, id string) int {
	for i, a := range appts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
