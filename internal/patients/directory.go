package patients

import (
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/clinic-backoffice/internal/workbook"
)

// patientSchema types the canonical fields after normalization. The
// visit date is the recency field driving the merge; it is not part of
// the identity itself.
var patientSchema = workbook.Schema{
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

// Directory is the immutable merged patient view: exactly one Identity
// per identifier, indexed by id and by folded full name.
type Directory struct {
	identities []Identity
	byID       map[string]int
	byName     map[string]string // folded full name -> id
}

// Merge folds every source table into one directory. Sources are
// normalized, records without an identifier are rejected individually,
// and when a recency field is present the most recent record per
// identifier wins whole; ties keep the earlier-listed source. A
// caller never sees a field-by-field mix of two sources.
func Merge(sources []SourceTable, synonyms SynonymTable) (*Directory, []Rejected) {
	if synonyms == nil {
		synonyms = DefaultSynonyms
	}

	type candidate struct {
		identity Identity
		visit    time.Time
		order    int // concatenation position, preserves source precedence
	}

	var candidates []candidate
	var rejected []Rejected
	order := 0
	for _, src := range sources {
		rows := SplitFullName(NormalizeColumns(src.Rows, synonyms))
		for i, row := range rows {
			rec := workbook.DecodeRecord(row, patientSchema)
			id, _ := rec[FieldID].(string)
			if strings.TrimSpace(id) == "" {
				rejected = append(rejected, Rejected{Source: src.Name, Index: i, Err: ErrMissingIdentifier})
				continue
			}
			visit, _ := rec[FieldVisitDate].(time.Time)
			candidates = append(candidates, candidate{
				identity: identityFromRecord(rec),
				visit:    visit,
				order:    order,
			})
			order++
		}
	}

	// Most recent first; stable so equal dates keep concatenation order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].visit.After(candidates[j].visit)
	})

	dir := &Directory{
		byID:   make(map[string]int),
		byName: make(map[string]string),
	}
	for _, c := range candidates {
		if _, seen := dir.byID[c.identity.ID]; seen {
			continue
		}
		dir.byID[c.identity.ID] = len(dir.identities)
		dir.identities = append(dir.identities, c.identity)
		dir.byName[foldKey(c.identity.FullName())] = c.identity.ID
	}
	return dir, rejected
}

func identityFromRecord(rec workbook.Record) Identity {
	id, _ := rec[FieldID].(string)
	last, _ := rec[FieldLastName].(string)
	first, _ := rec[FieldFirstName].(string)
	birth, _ := rec[FieldBirthDate].(time.Time)
	sex, _ := rec[FieldSex].(string)
	age, _ := rec[FieldAge].(int64)
	phone, _ := rec[FieldPhone].(string)
	history, _ := rec[FieldHistory].(string)
	return Identity{
		ID:        strings.TrimSpace(id),
		LastName:  strings.TrimSpace(last),
		FirstName: strings.TrimSpace(first),
		BirthDate: birth,
		Sex:       sex,
		Age:       age,
		Phone:     strings.TrimSpace(phone),
		History:   history,
	}
}

// NewDirectory rebuilds a directory from previously merged identities,
// e.g. when restoring from the cache. Input order is preserved; later
// duplicates of an identifier are ignored.
func NewDirectory(identities []Identity) *Directory {
	dir := &Directory{
		byID:   make(map[string]int, len(identities)),
		byName: make(map[string]string, len(identities)),
	}
	for _, identity := range identities {
		if _, seen := dir.byID[identity.ID]; seen || identity.ID == "" {
			continue
		}
		dir.byID[identity.ID] = len(dir.identities)
		dir.identities = append(dir.identities, identity)
		dir.byName[foldKey(identity.FullName())] = identity.ID
	}
	return dir
}

// LookupByID returns the identity for an identifier. A miss is a normal
// empty result, reported as ErrPatientNotFound for the caller's
// messaging, never a store failure.
func (d *Directory) LookupByID(id string) (Identity, error) {
	idx, ok := d.byID[strings.TrimSpace(id)]
	if !ok {
		return Identity{}, ErrPatientNotFound
	}
	return d.identities[idx], nil
}

// LookupByName resolves a full name to an identifier. Matching is
// case- and diacritic-insensitive but exact, no fuzzy search.
func (d *Directory) LookupByName(name string) (string, error) {
	id, ok := d.byName[foldKey(name)]
	if !ok {
		return "", ErrPatientNotFound
	}
	return id, nil
}

// All returns every identity in merge order (most recent first).
func (d *Directory) All() []Identity {
	out := make([]Identity, len(d.identities))
	copy(out, d.identities)
	return out
}

// Len returns the number of distinct patients.
func (d *Directory) Len() int {
	return len(d.identities)
}
