// Package ledger persists the accounting tables (revenues, expenses,
// payroll) of one clinic through the workbook store.
package ledger

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

// Container and table names for accounting data.
const (
	ContainerName = "ledger"
	TableRevenues = "revenues"
	TableExpenses = "expenses"
	TablePayroll  = "payroll"
)

// EntrySchema is shared by all three accounting tables: a labelled,
// dated amount with a stable generated identifier.
var EntrySchema = workbook.Schema{
	Version: 1,
	Fields: []workbook.Field{
		{Name: "id", Type: workbook.Text},
		{Name: "label", Type: workbook.Text},
		{Name: "amount", Type: workbook.Decimal},
		{Name: "date", Type: workbook.Date},
	},
}

// Tables lists every table of the ledger container.
var Tables = []workbook.TableSpec{
	{Name: TableRevenues, Schema: EntrySchema},
	{Name: TableExpenses, Schema: EntrySchema},
	{Name: TablePayroll, Schema: EntrySchema},
}

var (
	// ErrUnknownTable is returned for a table name outside the ledger set.
	ErrUnknownTable = errors.New("unknown ledger table")

	// ErrEntryNotFound is returned when an update or delete misses.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrInvalidEntry is returned when a new entry has no label.
	ErrInvalidEntry = errors.New("entry label is required")
)

// Entry is one accounting row. For payroll the label is the employee.
type Entry struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

// Service reads and mutates the accounting tables.
type Service struct {
	store  *workbook.Store
	logger *logging.Logger
}

// NewService creates the ledger service.
func NewService(store *workbook.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

func validTable(table string) bool {
	return table == TableRevenues || table == TableExpenses || table == TablePayroll
}

// List returns every entry of one table in stored order.
func (s *Service) List(ctx context.Context, sctx tenancy.StorageContext, table string) ([]Entry, error) {
	if !validTable(table) {
		return nil, ErrUnknownTable
	}
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, table, EntrySchema)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, fromRecord(rec))
	}
	return entries, nil
}

// Add appends an entry with a generated identifier.
func (s *Service) Add(ctx context.Context, sctx tenancy.StorageContext, table string, entry Entry) (Entry, error) {
	if !validTable(table) {
		return Entry{}, ErrUnknownTable
	}
	if strings.TrimSpace(entry.Label) == "" {
		return Entry{}, ErrInvalidEntry
	}
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, table, EntrySchema)
	if err != nil {
		return Entry{}, err
	}
	entry.ID = uuid.New().String()
	records = append(records, toRecord(entry))
	if err := s.store.SaveTable(ctx, sctx, ContainerName, table, records, EntrySchema, Tables); err != nil {
		return Entry{}, err
	}
	s.logger.Info("ledger entry added", "table", table, "entry_id", entry.ID, "org_id", sctx.OrgID)
	return entry, nil
}

// Update replaces the entry with the same identifier. The identifier,
// never the row position, targets the mutation.
func (s *Service) Update(ctx context.Context, sctx tenancy.StorageContext, table string, entry Entry) error {
	if !validTable(table) {
		return ErrUnknownTable
	}
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, table, EntrySchema)
	if err != nil {
		return err
	}
	found := false
	for i, rec := range records {
		if id, _ := rec["id"].(string); id == entry.ID {
			records[i] = toRecord(entry)
			found = true
			break
		}
	}
	if !found {
		return ErrEntryNotFound
	}
	return s.store.SaveTable(ctx, sctx, ContainerName, table, records, EntrySchema, Tables)
}

// Delete removes the entry with the given identifier.
func (s *Service) Delete(ctx context.Context, sctx tenancy.StorageContext, table, id string) error {
	if !validTable(table) {
		return ErrUnknownTable
	}
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, table, EntrySchema)
	if err != nil {
		return err
	}
	kept := records[:0]
	found := false
	for _, rec := range records {
		if recID, _ := rec["id"].(string); recID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return ErrEntryNotFound
	}
	return s.store.SaveTable(ctx, sctx, ContainerName, table, kept, EntrySchema, Tables)
}

// MonthTotal sums one table's amounts for a calendar month.
func (s *Service) MonthTotal(ctx context.Context, sctx tenancy.StorageContext, table string, year int, month time.Month) (float64, error) {
	entries, err := s.List(ctx, sctx, table)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, e := range entries {
		if e.Date.Year() == year && e.Date.Month() == month {
			total += e.Amount
		}
	}
	return total, nil
}

func fromRecord(rec workbook.Record) Entry {
	id, _ := rec["id"].(string)
	label, _ := rec["label"].(string)
	amount, _ := rec["amount"].(float64)
	date, _ := rec["date"].(time.Time)
	return Entry{ID: id, Label: label, Amount: amount, Date: date}
}

func toRecord(e Entry) workbook.Record {
	return workbook.Record{"id": e.ID, "label": e.Label, "amount": e.Amount, "date": e.Date}
}
