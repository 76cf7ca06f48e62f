// Package inventory tracks pharmacy stock: the item master table and
// the stock-movement journal, both in one workbook container.
package inventory

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

// Container and table names for pharmacy data.
const (
	ContainerName  = "inventory"
	TableItems     = "items"
	TableMovements = "movements"
)

// ItemSchema is the item master table.
var ItemSchema = workbook.Schema{
	Version: 1,
	Fields: []workbook.Field{
		{Name: "id", Type: workbook.Text},
		{Name: "name", Type: workbook.Text},
		{Name: "quantity", Type: workbook.Integer},
		{Name: "unit", Type: workbook.Text, Default: "unit"},
		{Name: "threshold", Type: workbook.Integer},
	},
}

// MovementSchema is the append-only stock journal.
var MovementSchema = workbook.Schema{
	Version: 1,
	Fields: []workbook.Field{
		{Name: "id", Type: workbook.Text},
		{Name: "item_id", Type: workbook.Text},
		{Name: "delta", Type: workbook.Integer},
		{Name: "reason", Type: workbook.Text},
		{Name: "date", Type: workbook.Date},
	},
}

// Tables lists every table of the inventory container.
var Tables = []workbook.TableSpec{
	{Name: TableItems, Schema: ItemSchema},
	{Name: TableMovements, Schema: MovementSchema},
}

var (
	// ErrItemNotFound is returned when a movement targets an unknown item.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrInvalidItem is returned when a new item has no name.
	ErrInvalidItem = errors.New("item name is required")

	// ErrStockUnderflow is returned when a movement would drive the
	// on-hand quantity negative.
	ErrStockUnderflow = errors.New("movement would make stock negative")
)

// Item is one pharmacy product with its on-hand quantity.
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Unit      string `json:"unit"`
	Threshold int64  `json:"threshold"`
}

// Movement is one stock change: positive delta for receipts, negative
// for dispensing.
type Movement struct {
	ID     string    `json:"id"`
	ItemID string    `json:"item_id"`
	Delta  int64     `json:"delta"`
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// Service maintains the pharmacy inventory.
type Service struct {
	store  *workbook.Store
	logger *logging.Logger
}

// NewService creates the inventory service.
func NewService(store *workbook.Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// AddItem creates an item with a generated identifier.
func (s *Service) AddItem(ctx context.Context, sctx tenancy.StorageContext, item Item) (Item, error) {
	if strings.TrimSpace(item.Name) == "" {
		return Item{}, ErrInvalidItem
	}
	items, err := s.Items(ctx, sctx)
	if err != nil {
		return Item{}, err
	}
	item.ID = uuid.New().String()
	if item.Unit == "" {
		item.Unit = "unit"
	}
	items = append(items, item)
	if err := s.saveItems(ctx, sctx, items); err != nil {
		return Item{}, err
	}
	s.logger.Info("inventory item added", "item_id", item.ID, "name", item.Name, "org_id", sctx.OrgID)
	return item, nil
}

// Items returns the item master in stored order.
func (s *Service) Items(ctx context.Context, sctx tenancy.StorageContext) ([]Item, error) {
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, TableItems, ItemSchema)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		items = append(items, itemFromRecord(rec))
	}
	return items, nil
}

// RecordMovement applies a stock change to an item and appends it to
// the journal. The item table is saved first; a journal write failure
// after that leaves the quantity applied but unjournaled, which the
// caller sees as a failed operation.
func (s *Service) RecordMovement(ctx context.Context, sctx tenancy.StorageContext, itemID string, delta int64, reason string) (Movement, error) {
	items, err := s.Items(ctx, sctx)
	if err != nil {
		return Movement{}, err
	}
	idx := -1
	for i, item := range items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Movement{}, ErrItemNotFound
	}
	if items[idx].Quantity+delta < 0 {
		return Movement{}, ErrStockUnderflow
	}
	items[idx].Quantity += delta

	allMovements, err := s.store.LoadTable(ctx, sctx, ContainerName, TableMovements, MovementSchema)
	if err != nil {
		return Movement{}, err
	}

	movement := Movement{
		ID:     uuid.New().String(),
		ItemID: itemID,
		Delta:  delta,
		Reason: reason,
		Date:   time.Now().UTC().Truncate(24 * time.Hour),
	}

	if err := s.saveItems(ctx, sctx, items); err != nil {
		return Movement{}, err
	}
	allMovements = append(allMovements, movementToRecord(movement))
	if err := s.store.SaveTable(ctx, sctx, ContainerName, TableMovements, allMovements, MovementSchema, Tables); err != nil {
		return Movement{}, err
	}

	s.logger.Info("stock movement recorded",
		"item_id", itemID, "delta", delta, "reason", reason, "org_id", sctx.OrgID)
	return movement, nil
}

// Movements returns the journal for one item, or all items when itemID
// is empty.
func (s *Service) Movements(ctx context.Context, sctx tenancy.StorageContext, itemID string) ([]Movement, error) {
	records, err := s.store.LoadTable(ctx, sctx, ContainerName, TableMovements, MovementSchema)
	if err != nil {
		return nil, err
	}
	var out []Movement
	for _, rec := range records {
		m := movementFromRecord(rec)
		if itemID == "" || m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

// LowStock returns items at or under their reorder threshold.
func (s *Service) LowStock(ctx context.Context, sctx tenancy.StorageContext) ([]Item, error) {
	items, err := s.Items(ctx, sctx)
	if err != nil {
		return nil, err
	}
	var low []Item
	for _, item := range items {
		if item.Quantity <= item.Threshold {
			low = append(low, item)
		}
	}
	return low, nil
}

func (s *Service) saveItems(ctx context.Context, sctx tenancy.StorageContext, items []Item) error {
	records := make([]workbook.Record, 0, len(items))
	for _, item := range items {
		records = append(records, itemToRecord(item))
	}
	return s.store.SaveTable(ctx, sctx, ContainerName, TableItems, records, ItemSchema, Tables)
}

func itemFromRecord(rec workbook.Record) Item {
	id, _ := rec["id"].(string)
	name, _ := rec["name"].(string)
	qty, _ := rec["quantity"].(int64)
	unit, _ := rec["unit"].(string)
	threshold, _ := rec["threshold"].(int64)
	return Item{ID: id, Name: name, Quantity: qty, Unit: unit, Threshold: threshold}
}

func itemToRecord(item Item) workbook.Record {
	return workbook.Record{
		"id": item.ID, "name": item.Name, "quantity": item.Quantity,
		"unit": item.Unit, "threshold": item.Threshold,
	}
}

func movementFromRecord(rec workbook.Record) Movement {
	id, _ := rec["id"].(string)
	itemID, _ := rec["item_id"].(string)
	delta, _ := rec["delta"].(int64)
	reason, _ := rec["reason"].(string)
	date, _ := rec["date"].(time.Time)
	return Movement{ID: id, ItemID: itemID, Delta: delta, Reason: reason, Date: date}
}

func movementToRecord(m Movement) workbook.Record {
	return workbook.Record{
		"id": m.ID, "item_id": m.ItemID, "delta": m.Delta,
		"reason": m.Reason, "date": m.Date,
	}
}
