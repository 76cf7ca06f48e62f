package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/clinic-backoffice/internal/tenancy"
)

// storageContext resolves the per-request storage context from the org id
// the tenancy middleware placed on the request.
func storageContext(r *http.Request, root string) (tenancy.StorageContext, bool) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		return tenancy.StorageContext{}, false
	}
	sctx, err := tenancy.NewStorageContext(root, orgID)
	if err != nil {
		return tenancy.StorageContext{}, false
	}
	return sctx, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
