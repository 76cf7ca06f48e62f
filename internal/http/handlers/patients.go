package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-backoffice/internal/patients"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// PatientsHandler handles HTTP requests for the patient directory.
type PatientsHandler struct {
	svc         *patients.Service
	storageRoot string
	logger      *logging.Logger
}

// NewPatientsHandler creates a new patients handler.
func NewPatientsHandler(svc *patients.Service, storageRoot string, logger *logging.Logger) *PatientsHandler {
	return &PatientsHandler{svc: svc, storageRoot: storageRoot, logger: logger}
}

// ListPatientsResponse is the response for listing the directory.
type ListPatientsResponse struct {
	Patients []patients.Identity `json:"patients"`
	Count    int                 `json:"count"`
}

// List handles GET /patients requests.
func (h *PatientsHandler) List(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	dir, err := h.svc.Directory(r.Context(), sctx)
	if err != nil {
		h.logger.Error("failed to load patient directory", "error", err, "org_id", sctx.OrgID)
		http.Error(w, "failed to load patients", http.StatusInternalServerError)
		return
	}

	all := dir.All()
	writeJSON(w, http.StatusOK, ListPatientsResponse{Patients: all, Count: len(all)})
}

// Get handles GET /patients/{patientID} requests.
func (h *PatientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	dir, err := h.svc.Directory(r.Context(), sctx)
	if err != nil {
		h.logger.Error("failed to load patient directory", "error", err, "org_id", sctx.OrgID)
		http.Error(w, "failed to load patients", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "patientID")
	identity, err := dir.LookupByID(id)
	if err != nil {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// Lookup handles GET /patients/lookup?name= requests, resolving a full
// name to a patient id.
func (h *PatientsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}

	dir, err := h.svc.Directory(r.Context(), sctx)
	if err != nil {
		h.logger.Error("failed to load patient directory", "error", err, "org_id", sctx.OrgID)
		http.Error(w, "failed to load patients", http.StatusInternalServerError)
		return
	}

	id, err := dir.LookupByName(name)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": name})
}

// Register handles POST /patients requests.
func (h *PatientsHandler) Register(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req patients.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity, err := h.svc.Register(r.Context(), sctx, &req)
	if err != nil {
		h.logger.Error("failed to register patient", "error", err, "org_id", sctx.OrgID)
		http.Error(w, "failed to register patient", http.StatusInternalServerError)
		return
	}

	h.logger.Info("patient registered", "id", identity.ID, "org_id", sctx.OrgID)
	writeJSON(w, http.StatusCreated, identity)
}

// Rebuild handles POST /patients/rebuild requests, forcing a fresh merge
// of the source tables and refreshing the cached directory.
func (h *PatientsHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	dir, err := h.svc.Rebuild(r.Context(), sctx)
	if err != nil {
		h.logger.Error("failed to rebuild patient directory", "error", err, "org_id", sctx.OrgID)
		http.Error(w, "failed to rebuild patients", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": dir.Len()})
}
