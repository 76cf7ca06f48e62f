package patients

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColumnsSynonyms(t *testing.T) {
	rows := []map[string]string{
		{
			"Code":               "P1",
			"NOM":                "Durand",
			"Prénom":             "Alice",
			"Date de naissance":  "1990-04-02",
			"Sexe":               "F",
			"Téléphone":          "0601020304",
			"Antécédents":        "asthma",
			"Date consultation":  "2024-06-01",
			"colonne mystère xy": "kept as-is",
		},
	}
	out := NormalizeColumns(rows, DefaultSynonyms)
	row := out[0]
	assert.Equal(t, "P1", row[FieldID])
	assert.Equal(t, "Durand", row[FieldLastName])
	assert.Equal(t, "Alice", row[FieldFirstName])
	assert.Equal(t, "1990-04-02", row[FieldBirthDate])
	assert.Equal(t, "F", row[FieldSex])
	assert.Equal(t, "0601020304", row[FieldPhone])
	assert.Equal(t, "asthma", row[FieldHistory])
	assert.Equal(t, "2024-06-01", row[FieldVisitDate])
	assert.Equal(t, "kept as-is", row["colonne mystère xy"], "unmatched columns pass through")
}

func TestNormalizeColumnsFirstMatchWins(t *testing.T) {
	// Both "patient_id" and "code" are accepted id synonyms;
	// "patient_id" comes first in the synonym list.
	rows := []map[string]string{{"code": "C1", "patient_id": "P1"}}
	out := NormalizeColumns(rows, DefaultSynonyms)
	assert.Equal(t, "P1", out[0][FieldID])
	assert.Equal(t, "C1", out[0]["code"], "losing synonym keeps its source name")
}

func TestNormalizeColumnsNoMatchLeavesAbsent(t *testing.T) {
	rows := []map[string]string{{"x": "1"}}
	out := NormalizeColumns(rows, DefaultSynonyms)
	_, ok := out[0][FieldID]
	assert.False(t, ok)
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		name      string
		row       map[string]string
		wantLast  string
		wantFirst string
	}{
		{"two tokens", map[string]string{FieldFullName: "Durand Alice"}, "Durand", "Alice"},
		{"remainder joined", map[string]string{FieldFullName: "Durand Alice Marie"}, "Durand", "Alice Marie"},
		{"single token", map[string]string{FieldFullName: "Durand"}, "Durand", ""},
		{"extra whitespace", map[string]string{FieldFullName: "  Durand   Alice "}, "Durand", "Alice"},
		{"empty", map[string]string{FieldFullName: ""}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SplitFullName([]map[string]string{tt.row})
			assert.Equal(t, tt.wantLast, out[0][FieldLastName])
			assert.Equal(t, tt.wantFirst, out[0][FieldFirstName])
		})
	}
}

func TestSplitFullNameSkipsStructuredRows(t *testing.T) {
	rows := []map[string]string{{
		FieldLastName: "Durand",
		FieldFullName: "Wrong Person",
	}}
	out := SplitFullName(rows)
	assert.Equal(t, "Durand", out[0][FieldLastName])
	_, ok := out[0][FieldFirstName]
	assert.False(t, ok, "structured name columns are never overwritten by the heuristic")
}

func TestFoldKey(t *testing.T) {
	assert.Equal(t, "prenom", foldKey("  Prénom "))
	assert.Equal(t, "telephone", foldKey("TÉLÉPHONE"))
}
