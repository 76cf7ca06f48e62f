package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-backoffice/internal/appointments"
	"github.com/wolfman30/clinic-backoffice/internal/scheduling"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

const dateLayout = "2006-01-02"

// AppointmentsHandler handles HTTP requests for the appointment book.
type AppointmentsHandler struct {
	svc         *appointments.Service
	storageRoot string
	logger      *logging.Logger
}

// NewAppointmentsHandler creates a new appointments handler.
func NewAppointmentsHandler(svc *appointments.Service, storageRoot string, logger *logging.Logger) *AppointmentsHandler {
	return &AppointmentsHandler{svc: svc, storageRoot: storageRoot, logger: logger}
}

// bookPayload is the wire form of a booking request. Dates travel as
// plain YYYY-MM-DD strings.
type bookPayload struct {
	Resource  string `json:"resource"`
	Date      string `json:"date"`
	Slot      string `json:"slot"`
	PatientID string `json:"patient_id"`
}

type editPayload struct {
	Resource string `json:"resource"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
}

// Book handles POST /appointments requests.
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var payload bookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req := appointments.BookRequest{
		Resource:  payload.Resource,
		Slot:      payload.Slot,
		PatientID: payload.PatientID,
	}
	if payload.Date != "" {
		date, err := time.Parse(dateLayout, payload.Date)
		if err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		req.Date = date
	}

	appt, err := h.svc.Book(r.Context(), sctx, &req)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}

	h.logger.Info("appointment booked", "id", appt.ID, "resource", appt.Resource, "org_id", sctx.OrgID)
	writeJSON(w, http.StatusCreated, appt)
}

// Edit handles PUT /appointments/{appointmentID} requests.
func (h *AppointmentsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var payload editPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req := appointments.EditRequest{Resource: payload.Resource, Slot: payload.Slot}
	if payload.Date != "" {
		date, err := time.Parse(dateLayout, payload.Date)
		if err != nil {
			http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		req.Date = date
	}

	id := chi.URLParam(r, "appointmentID")
	appt, err := h.svc.Edit(r.Context(), sctx, id, &req)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles DELETE /appointments/{appointmentID} requests.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "appointmentID")
	if err := h.svc.Cancel(r.Context(), sctx, id); err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDayResponse is the response for a day's schedule.
type ListDayResponse struct {
	Resource     string                    `json:"resource"`
	Date         string                    `json:"date"`
	Appointments []scheduling.Appointment `json:"appointments"`
}

// ListDay handles GET /appointments?resource=&date= requests.
func (h *AppointmentsHandler) ListDay(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	resource := r.URL.Query().Get("resource")
	if resource == "" {
		http.Error(w, "missing resource parameter", http.StatusBadRequest)
		return
	}
	dateStr := r.URL.Query().Get("date")
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	appts, err := h.svc.ListDay(r.Context(), sctx, resource, date)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, ListDayResponse{Resource: resource, Date: dateStr, Appointments: appts})
}

// Slots handles GET /appointments/slots?resource= requests, returning the
// bookable grid for a resource.
func (h *AppointmentsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource == "" {
		http.Error(w, "missing resource parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resource": resource,
		"slots":    h.svc.Slots(resource),
	})
}

func (h *AppointmentsHandler) respondError(w http.ResponseWriter, err error, orgID string) {
	var conflict *scheduling.Conflict
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    conflict.Error(),
			"kind":     string(conflict.Kind),
			"existing": conflict.Existing,
		})
	case errors.Is(err, appointments.ErrAppointmentNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, appointments.ErrSlotOffGrid), errors.Is(err, appointments.ErrMissingFields):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("appointment operation failed", "error", err, "org_id", orgID)
		http.Error(w, "appointment operation failed", http.StatusInternalServerError)
	}
}
