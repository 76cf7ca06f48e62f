package tenancy

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalidOrgID is returned when the owner partition id is empty or
// would escape the storage root.
var ErrInvalidOrgID = errors.New("tenancy: invalid org id")

// StorageContext identifies where one owner partition's workbook
// containers live. It is always passed explicitly into store calls;
// there is no package-level current-owner state.
type StorageContext struct {
	// Root is the directory holding every partition.
	Root string
	// OrgID is the owner partition (one clinic).
	OrgID string
}

// NewStorageContext validates the partition id and returns a context
// rooted at root/orgID.
func NewStorageContext(root, orgID string) (StorageContext, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" || orgID == "." || orgID == ".." ||
		orgID != filepath.Base(orgID) || strings.ContainsAny(orgID, `/\`) {
		return StorageContext{}, ErrInvalidOrgID
	}
	return StorageContext{Root: root, OrgID: orgID}, nil
}

// Dir returns the partition directory.
func (s StorageContext) Dir() string {
	return filepath.Join(s.Root, s.OrgID)
}

// ContainerPath resolves a container name (e.g. "ledger", "patients")
// to its file path inside the partition.
func (s StorageContext) ContainerPath(container string) string {
	return filepath.Join(s.Dir(), container+".workbook.json")
}
