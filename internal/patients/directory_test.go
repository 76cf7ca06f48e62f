package patients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registeredSource() SourceTable {
	return SourceTable{
		Name: TableRegistered,
		Rows: []map[string]string{
			{"id": "P1", "nom": "Durand", "prenom": "Alice", "sexe": "F", "age": "34", "tel": "0601", "date": "2024-01-01"},
			{"id": "P2", "nom": "Martin", "prenom": "Bruno", "sexe": "M", "age": "52", "date": "2024-02-10"},
		},
	}
}

func consultationsSource() SourceTable {
	return SourceTable{
		Name: TableConsultations,
		Rows: []map[string]string{
			// Same patient, more recent visit, updated phone.
			{"code": "P1", "patient": "Durand Alice", "contact": "0699", "date consultation": "2024-06-01"},
			{"code": "P3", "patient": "Nguyen Van Minh", "date consultation": "2024-03-15"},
		},
	}
}

func TestMergeRecencyWins(t *testing.T) {
	dir, rejected := Merge([]SourceTable{registeredSource(), consultationsSource()}, nil)
	assert.Empty(t, rejected)
	assert.Equal(t, 3, dir.Len())

	p1, err := dir.LookupByID("P1")
	require.NoError(t, err)
	assert.Equal(t, "0699", p1.Phone, "2024-06-01 record wins over 2024-01-01")
	assert.Equal(t, "Durand", p1.LastName)
	// Whole-record win: the consultation row had no sex column, so the
	// merged identity must not mix in the older record's "F".
	assert.Equal(t, "", p1.Sex)
}

func TestMergeIdempotent(t *testing.T) {
	sources := []SourceTable{registeredSource(), consultationsSource()}
	dir1, _ := Merge(sources, nil)
	dir2, _ := Merge(sources, nil)
	assert.Equal(t, dir1.All(), dir2.All())
}

func TestMergeOrderIndependentForDisjointIDs(t *testing.T) {
	s1 := SourceTable{Name: "a", Rows: []map[string]string{
		{"id": "A1", "nom": "Un", "date": "2024-01-01"},
	}}
	s2 := SourceTable{Name: "b", Rows: []map[string]string{
		{"id": "B1", "nom": "Deux", "date": "2024-02-01"},
	}}
	d12, _ := Merge([]SourceTable{s1, s2}, nil)
	d21, _ := Merge([]SourceTable{s2, s1}, nil)
	assert.Equal(t, d12.All(), d21.All())
}

func TestMergeTieKeepsSourcePrecedence(t *testing.T) {
	s1 := SourceTable{Name: "a", Rows: []map[string]string{
		{"id": "P1", "nom": "FromFirst", "date": "2024-05-01"},
	}}
	s2 := SourceTable{Name: "b", Rows: []map[string]string{
		{"id": "P1", "nom": "FromSecond", "date": "2024-05-01"},
	}}
	dir, _ := Merge([]SourceTable{s1, s2}, nil)
	p1, err := dir.LookupByID("P1")
	require.NoError(t, err)
	assert.Equal(t, "FromFirst", p1.LastName)
}

func TestMergeRejectsMissingIdentifier(t *testing.T) {
	src := SourceTable{Name: "a", Rows: []map[string]string{
		{"nom": "SansID"},
		{"id": "P1", "nom": "Durand"},
	}}
	dir, rejected := Merge([]SourceTable{src}, nil)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0].Err, ErrMissingIdentifier)
	assert.Equal(t, 0, rejected[0].Index)
	assert.Equal(t, 1, dir.Len(), "rest of the batch survives")
}

func TestMergeNoRecencyFieldKeepsFirstSeen(t *testing.T) {
	src := SourceTable{Name: "a", Rows: []map[string]string{
		{"id": "P1", "nom": "First"},
		{"id": "P1", "nom": "Second"},
	}}
	dir, _ := Merge([]SourceTable{src}, nil)
	p1, err := dir.LookupByID("P1")
	require.NoError(t, err)
	assert.Equal(t, "First", p1.LastName)
}

func TestLookupByNameCaseInsensitive(t *testing.T) {
	dir, _ := Merge([]SourceTable{consultationsSource()}, nil)

	id, err := dir.LookupByName("durand alice")
	require.NoError(t, err)
	assert.Equal(t, "P1", id)

	id, err = dir.LookupByName("DURAND ALICE")
	require.NoError(t, err)
	assert.Equal(t, "P1", id)

	_, err = dir.LookupByName("Durand")
	assert.ErrorIs(t, err, ErrPatientNotFound, "exact match only, no prefix search")
}

func TestLookupByIDNotFound(t *testing.T) {
	dir, _ := Merge(nil, nil)
	_, err := dir.LookupByID("missing")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestNewDirectoryRoundTrip(t *testing.T) {
	dir, _ := Merge([]SourceTable{registeredSource(), consultationsSource()}, nil)
	restored := NewDirectory(dir.All())
	assert.Equal(t, dir.All(), restored.All())

	id, err := restored.LookupByName("Martin Bruno")
	require.NoError(t, err)
	assert.Equal(t, "P2", id)
}
