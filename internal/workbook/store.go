package workbook

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/wolfman30/clinic-backoffice/internal/observability/metrics"
	"github.com/wolfman30/clinic-backoffice/internal/tenancy"
	"github.com/wolfman30/clinic-backoffice/pkg/logging"
)

// containerFile is the on-disk shape of one workbook container. Sibling
// tables are carried as raw JSON through a save, so a write to one
// table cannot change the byte content of another.
type containerFile struct {
	Version int                        `json:"version"`
	Order   []string                   `json:"table_order"`
	Tables  map[string]json.RawMessage `json:"tables"`
}

// tableFile is the on-disk shape of one named table.
type tableFile struct {
	Version int        `json:"version"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Migration rewrites a stored table's columns and rows from one schema
// version to the next. Registered migrations run on load before the
// codec sees the rows, so a column change is a deliberate transition
// rather than a silent default.
type Migration func(columns []string, rows [][]string) ([]string, [][]string)

// Store loads and saves named tables inside workbook containers. Save
// is a read-modify-write of the whole container file, serialized per
// container path; two concurrent saves to different tables of the same
// container cannot lose each other's rows. Saves to containers in
// different partitions proceed independently.
type Store struct {
	logger  *logging.Logger
	metrics *metrics.StoreMetrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	migMu      sync.RWMutex
	migrations map[string]map[int]Migration
}

// NewStore creates a workbook store. Metrics may be nil.
func NewStore(logger *logging.Logger, m *metrics.StoreMetrics) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		logger:     logger,
		metrics:    m,
		locks:      make(map[string]*sync.Mutex),
		migrations: make(map[string]map[int]Migration),
	}
}

// RegisterMigration installs the rewrite applied when a stored table at
// fromVersion is loaded with a newer schema.
func (s *Store) RegisterMigration(table string, fromVersion int, fn Migration) {
	s.migMu.Lock()
	defer s.migMu.Unlock()
	if s.migrations[table] == nil {
		s.migrations[table] = make(map[int]Migration)
	}
	s.migrations[table][fromVersion] = fn
}

// LoadTable reads one named table from a container. An absent container
// or absent table yields an empty record set, not an error; a container
// that exists but cannot be decoded yields a ReadError so the caller
// can warn before degrading to empty.
func (s *Store) LoadTable(ctx context.Context, sctx tenancy.StorageContext, container, table string, schema Schema) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := sctx.ContainerPath(container)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.metrics.ObserveLoad(container, "absent")
		return nil, nil
	}
	if err != nil {
		s.metrics.ObserveLoad(container, "error")
		return nil, &ReadError{Path: path, Err: err}
	}

	var cf containerFile
	if err := json.Unmarshal(data, &cf); err != nil {
		s.metrics.ObserveLoad(container, "error")
		return nil, &ReadError{Path: path, Err: err}
	}

	raw, ok := cf.Tables[table]
	if !ok {
		s.metrics.ObserveLoad(container, "ok")
		return nil, nil
	}

	var tf tableFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		s.metrics.ObserveLoad(container, "error")
		return nil, &ReadError{Path: path, Err: err}
	}

	s.migrate(table, &tf, schema.Version)

	records := make([]Record, 0, len(tf.Rows))
	for _, row := range tf.Rows {
		records = append(records, DecodeRecord(zipRow(tf.Columns, row), schema))
	}
	s.metrics.ObserveLoad(container, "ok")
	return records, nil
}

// LoadTableRaw reads one named table as undecoded string cells keyed by
// stored column name. Import and normalization flows use this to see
// the source's actual columns before any schema is applied. Absence
// semantics match LoadTable.
func (s *Store) LoadTableRaw(ctx context.Context, sctx tenancy.StorageContext, container, table string) ([]map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := sctx.ContainerPath(container)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.metrics.ObserveLoad(container, "absent")
		return nil, nil
	}
	if err != nil {
		s.metrics.ObserveLoad(container, "error")
		return nil, &ReadError{Path: path, Err: err}
	}

	var cf containerFile
	if err := json.Unmarshal(data, &cf); err != nil {
		s.metrics.ObserveLoad(container, "error")
		return nil, &ReadError{Path: path, Err: err}
	}
	raw, ok := cf.Tables[table]
	if !ok {
		s.metrics.ObserveLoad(container, "ok")
		return nil, nil
	}
	var tf tableFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		s.metrics.ObserveLoad(container, "error")
		return nil, &ReadError{Path: path, Err: err}
	}

	rows := make([]map[string]string, 0, len(tf.Rows))
	for _, row := range tf.Rows {
		rows = append(rows, zipRow(tf.Columns, row))
	}
	s.metrics.ObserveLoad(container, "ok")
	return rows, nil
}

// migrate walks the table through registered migrations up to target.
// A version gap with no registered migration is left to the codec's
// default filling, logged so the gap is visible.
func (s *Store) migrate(table string, tf *tableFile, target int) {
	s.migMu.RLock()
	defer s.migMu.RUnlock()
	for tf.Version < target {
		fn, ok := s.migrations[table][tf.Version]
		if !ok {
			s.logger.Warn("no migration registered, relying on column defaults",
				"table", table, "stored_version", tf.Version, "schema_version", target)
			return
		}
		tf.Columns, tf.Rows = fn(tf.Columns, tf.Rows)
		tf.Version++
	}
}

// SaveTable replaces one named table's records and rewrites the whole
// container atomically. Every already-existing sibling table is carried
// through unchanged; every name in all that never existed is
// materialized with its canonical columns and no rows. On error the
// previous container file is left exactly as it was.
func (s *Store) SaveTable(ctx context.Context, sctx tenancy.StorageContext, container, table string, records []Record, schema Schema, all []TableSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := sctx.ContainerPath(container)

	lock := s.containerLock(path)
	lock.Lock()
	defer lock.Unlock()

	cf, err := s.readForUpdate(path)
	if err != nil {
		s.metrics.ObserveSave(container, "error")
		return err
	}

	target, err := marshalTable(records, schema)
	if err != nil {
		s.metrics.ObserveSave(container, "error")
		return &WriteError{Path: path, Err: err}
	}
	cf.Tables[table] = target
	cf.Order = appendMissing(cf.Order, table)

	for _, spec := range all {
		if _, exists := cf.Tables[spec.Name]; exists {
			continue
		}
		empty, err := marshalTable(nil, spec.Schema)
		if err != nil {
			s.metrics.ObserveSave(container, "error")
			return &WriteError{Path: path, Err: err}
		}
		cf.Tables[spec.Name] = empty
		cf.Order = appendMissing(cf.Order, spec.Name)
	}

	if err := s.writeAtomic(sctx, path, cf); err != nil {
		s.metrics.ObserveSave(container, "error")
		return err
	}

	s.metrics.ObserveSave(container, "ok")
	s.logger.Debug("container saved",
		"container", container, "table", table, "records", len(records))
	return nil
}

// readForUpdate loads the existing container for a read-modify-write,
// or a fresh empty one when the file does not exist yet. A corrupt
// existing container fails the save; rewriting it would destroy every
// sibling table.
func (s *Store) readForUpdate(path string) (*containerFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &containerFile{Version: 1, Tables: make(map[string]json.RawMessage)}, nil
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	var cf containerFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if cf.Tables == nil {
		cf.Tables = make(map[string]json.RawMessage)
	}
	return &cf, nil
}

// writeAtomic writes the container to a temp file in the same directory
// and renames it over the old one, so readers observe either the old or
// the new container, never a partial write.
func (s *Store) writeAtomic(sctx tenancy.StorageContext, path string, cf *containerFile) error {
	if err := os.MkdirAll(sctx.Dir(), 0o755); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	data, err := json.Marshal(cf)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(sctx.Dir(), ".workbook-*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// containerLock returns the mutex serializing saves for one container
// path, creating it on first use.
func (s *Store) containerLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[path] = lock
	}
	return lock
}

func marshalTable(records []Record, schema Schema) (json.RawMessage, error) {
	columns := schema.ColumnNames()
	tf := tableFile{
		Version: schema.Version,
		Columns: columns,
		Rows:    make([][]string, 0, len(records)),
	}
	for _, rec := range records {
		raw := EncodeRecord(rec, schema)
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = raw[col]
		}
		tf.Rows = append(tf.Rows, row)
	}
	return json.Marshal(tf)
}

// zipRow pairs column names with row cells. Short rows leave trailing
// columns missing (defaulted by the codec); extra cells are dropped.
func zipRow(columns []string, row []string) map[string]string {
	raw := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(row) {
			raw[col] = row[i]
		}
	}
	return raw
}

func appendMissing(order []string, name string) []string {
	for _, existing := range order {
		if existing == name {
			return order
		}
	}
	return append(order, name)
}
