package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-backoffice/internal/inventory"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// InventoryHandler handles HTTP requests for stock items and movements.
type InventoryHandler struct {
	svc         *inventory.Service
	storageRoot string
	logger      *logging.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(svc *inventory.Service, storageRoot string, logger *logging.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, storageRoot: storageRoot, logger: logger}
}

// ListItems handles GET /inventory/items requests.
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	items, err := h.svc.Items(r.Context(), sctx)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// AddItem handles POST /inventory/items requests.
func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var item inventory.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.svc.AddItem(r.Context(), sctx, item)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}

	h.logger.Info("inventory item added", "id", created.ID, "name", created.Name, "org_id", sctx.OrgID)
	writeJSON(w, http.StatusCreated, created)
}

// movementPayload is the wire form of a stock movement.
type movementPayload struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

// RecordMovement handles POST /inventory/items/{itemID}/movements requests.
func (h *InventoryHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var payload movementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	itemID := chi.URLParam(r, "itemID")
	mv, err := h.svc.RecordMovement(r.Context(), sctx, itemID, payload.Delta, payload.Reason)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusCreated, mv)
}

// ListMovements handles GET /inventory/items/{itemID}/movements requests.
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	itemID := chi.URLParam(r, "itemID")
	movements, err := h.svc.Movements(r.Context(), sctx, itemID)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movements": movements, "count": len(movements)})
}

// LowStock handles GET /inventory/low-stock requests.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	sctx, ok := storageContext(r, h.storageRoot)
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	items, err := h.svc.LowStock(r.Context(), sctx)
	if err != nil {
		h.respondError(w, err, sctx.OrgID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *InventoryHandler) respondError(w http.ResponseWriter, err error, orgID string) {
	switch {
	case errors.Is(err, inventory.ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inventory.ErrInvalidItem):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inventory.ErrStockUnderflow):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("inventory operation failed", "error", err, "org_id", orgID)
		http.Error(w, "inventory operation failed", http.StatusInternalServerError)
	}
}
