package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-backoffice/internal/ledger"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// LedgerHandler handles HTTP requests for the accounting tables.
type LedgerHandler struct {
	svc         *ledger.Service
	storageRoot string
	logger      *logging.Logger
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(svc *ledger.Service, storageRoot string, logger *logging.Logger) *LedgerHandler {
	return &LedgerHandler{svc: svc, storageRoot: storageRoot, logger: logger}
}

// ListEntriesResponse is the response for listing one accounting table.
type ListEntriesResponse struct {
	Table   string         `json:"table"`
	Entries []ledger.Entry `json:"entries"`
	Count   int            `json:"count"`
}

// List handles GET /ledger/{table} requests.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")
	entries, err := h.svc.List(r.Context(), sctx, table)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, ListEntriesResponse{Table: table, Entries: entries, Count: len(entries)})
}

// Add handles POST /ledger/{table} requests.
func (h *LedgerHandler) Add(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var entry ledger.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")
	created, err := h.svc.Add(r.Context(), sctx, table, entry)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}

	h.logger.Info("ledger entry added", "table", table, "id", created.ID, "org_id", sctx.OrgID)
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /ledger/{table}/{entryID} requests.
func (h *LedgerHandler) Update(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var entry ledger.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry.ID = chi.URLParam(r, "entryID")

	table := chi.URLParam(r, "table")
	if err := h.svc.Update(r.Context(), sctx, table, entry); err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /ledger/{table}/{entryID} requests.
func (h *LedgerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")
	if err := h.svc.Delete(r.Context(), sctx, table, chi.URLParam(r, "entryID")); err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MonthTotal handles GET /ledger/{table}/total?year=&month= requests.
func (h *LedgerHandler) MonthTotal(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")
	total, err := h.svc.MonthTotal(r.Context(), sctx, table, year, time.Month(month))
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table": table,
		"year":  year,
		"month": month,
		"total": total,
	})
}

func (h *LedgerHandler) respondError(w http.ResponseWriter, err error, orgID string) {
	switch {
	case errors.Is(err, ledger.ErrUnknownTable):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidEntry):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("ledger operation failed", "error", err, "org_id", orgID)
		http.Error(w, "ledger operation failed", http.StatusInternalServerError)
	}
}
