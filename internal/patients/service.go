package patients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-backoffice/internal/tenancy"
	"github.com/wolfman30/clinic-backoffice/internal/workbook"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// Container and table names for patient data.
const (
	ContainerName      = "patients"
	TableRegistered    = "registered"
	TableConsultations = "consultations"
)

// RegisteredSchema is the canonical shape of the registered-patients
// table written by the registration flow.
var RegisteredSchema = workbook.Schema{
	Version: 1,
	Fields: []workbook.Field{
		{Name: FieldID, Type: workbook.Text},
		{Name: FieldLastName, Type: workbook.Text},
		{Name: FieldFirstName, Type: workbook.Text},
		{Name: FieldBirthDate, Type: workbook.Date},
		{Name: FieldSex, Type: workbook.Text},
		{Name: FieldAge, Type: workbook.Integer},
		{Name: FieldPhone, Type: workbook.Text},
		{Name: FieldHistory, Type: workbook.Text},
		{Name: FieldVisitDate, Type: workbook.Date},
	},
}

// Tables lists every table of the patients container, for sibling
// materialization on save.
var Tables = []workbook.TableSpec{
	{Name: TableRegistered, Schema: RegisteredSchema},
	{Name: TableConsultations, Schema: RegisteredSchema},
}

// Service maintains the merged patient directory over the workbook
// store, with an optional redis cache per owner partition.
type Service struct {
	store  *workbook.Store
	cache  *Cache
	logger *logging.Logger
}

// NewService creates the patient directory service. cache may be nil.
func NewService(store *workbook.Store, cache *Cache, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Directory returns the merged directory for a partition, from cache
// when possible. A cache failure degrades to a rebuild, never to an
// error.
func (s *Service) Directory(ctx context.Context, sctx tenancy.StorageContext) (*Directory, error) {
	if dir, err := s.cache.Get(ctx, sctx.OrgID); err != nil {
		s.logger.Warn("patient directory cache read failed", "error", err, "org_id", sctx.OrgID)
	} else if dir != nil {
		return dir, nil
	}
	return s.Rebuild(ctx, sctx)
}

// Rebuild loads both source tables, merges them and refreshes the
// cache. An unreadable container degrades that source to empty with a
// warning, matching the store's read-error policy.
func (s *Service) Rebuild(ctx context.Context, sctx tenancy.StorageContext) (*Directory, error) {
	sources := make([]SourceTable, 0, 2)
	for _, table := range []string{TableRegistered, TableConsultations} {
		rows, err := s.store.LoadTableRaw(ctx, sctx, ContainerName, table)
		if err != nil {
			var readErr *workbook.ReadError
			if errors.As(err, &readErr) {
				s.logger.Warn("patients source unreadable, treating as empty",
					"table", table, "error", err, "org_id", sctx.OrgID)
				continue
			}
			return nil, err
		}
		sources = append(sources, SourceTable{Name: table, Rows: rows})
	}

	dir, rejected := Merge(sources, DefaultSynonyms)
	for _, r := range rejected {
		s.logger.Warn("patient record rejected during merge",
			"source", r.Source, "row", r.Index, "error", r.Err, "org_id", sctx.OrgID)
	}

	if err := s.cache.Set(ctx, sctx.OrgID, dir); err != nil {
		s.logger.Warn("patient directory cache write failed", "error", err, "org_id", sctx.OrgID)
	}
	return dir, nil
}

// RegisterRequest carries the fields of a new registered patient.
type RegisterRequest struct {
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	BirthDate time.Time `json:"birth_date"`
	Sex       string    `json:"sex"`
	Age       int64     `json:"age"`
	Phone     string    `json:"phone"`
	History   string    `json:"history"`
}

// Validate checks the minimum a registration needs.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.LastName) == "" && strings.TrimSpace(r.FirstName) == "" {
		return errors.New("patient name is required")
	}
	return nil
}

// Register appends a patient to the registered table with a generated
// identifier and invalidates the cached directory.
func (s *Service) Register(ctx context.Context, sctx tenancy.StorageContext, req *RegisterRequest) (Identity, error) {
	if err := req.Validate(); err != nil {
		return Identity{}, err
	}

	// A corrupt container surfaces here rather than at save time;
	// appending to a half-read table would drop rows.
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, TableRegistered, RegisteredSchema)
	if err != nil {
		return Identity{}, err
	}

	identity := Identity{
		ID:        uuid.New().String(),
		LastName:  strings.TrimSpace(req.LastName),
		FirstName: strings.TrimSpace(req.FirstName),
		BirthDate: req.BirthDate,
		Sex:       req.Sex,
		Age:       req.Age,
		Phone:     strings.TrimSpace(req.Phone),
		History:   req.History,
	}
	records = append(records, workbook.Record{
		FieldID:        identity.ID,
		FieldLastName:  identity.LastName,
		FieldFirstName: identity.FirstName,
		FieldBirthDate: identity.BirthDate,
		FieldSex:       identity.Sex,
		FieldAge:       identity.Age,
		FieldPhone:     identity.Phone,
		FieldHistory:   identity.History,
		FieldVisitDate: time.Now().UTC().Truncate(24 * time.Hour),
	})

	if err := s.store.SaveTable(ctx, sctx, ContainerName, TableRegistered, records, RegisteredSchema, Tables); err != nil {
		return Identity{}, err
	}

	if err := s.cache.Invalidate(ctx, sctx.OrgID); err != nil {
		s.logger.Warn("patient directory cache invalidation failed", "error", err, "org_id", sctx.OrgID)
	}
	s.logger.Info("patient registered", "patient_id", identity.ID, "org_id", sctx.OrgID)
	return identity, nil
}
