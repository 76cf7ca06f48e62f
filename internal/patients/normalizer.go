package patients

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field names produced by NormalizeColumns.
const (
	FieldID        = "id"
	FieldLastName  = "last_name"
	FieldFirstName = "first_name"
	FieldFullName  = "full_name"
	FieldBirthDate = "birth_date"
	FieldSex       = "sex"
	FieldAge       = "age"
	FieldPhone     = "phone"
	FieldHistory   = "history"
	FieldVisitDate = "visit_date"
)

// SynonymTable maps each canonical field to the source column names it
// accepts, in preference order. Matching ignores case and diacritics,
// so "Prénom", "PRENOM" and "prenom" all land on first_name.
type SynonymTable map[string][]string

// DefaultSynonyms covers the column conventions seen across the two
// patient source tables and older spreadsheet exports, including the
// French headers the original files were written with.
var DefaultSynonyms = SynonymTable{
	FieldID:        {"id", "patient_id", "code", "numero", "n°", "no", "dossier"},
	FieldLastName:  {"last_name", "lastname", "nom", "surname", "family_name"},
	FieldFirstName: {"first_name", "firstname", "prenom", "given_name"},
	FieldFullName:  {"full_name", "nom_complet", "nom et prenom", "patient", "name"},
	FieldBirthDate: {"birth_date", "birthdate", "dob", "date_naissance", "date de naissance", "ne le"},
	FieldSex:       {"sex", "sexe", "gender", "genre"},
	FieldAge:       {"age"},
	FieldPhone:     {"phone", "telephone", "tel", "mobile", "contact", "portable"},
	FieldHistory:   {"history", "medical_history", "antecedents", "notes", "observations"},
	FieldVisitDate: {"visit_date", "consultation_date", "date_consultation", "date consultation", "event_date", "date"},
}

// NormalizeColumns renames heterogeneous source columns onto the
// canonical field set. For each canonical field the accepted names are
// scanned in order and the first present column is renamed; fields with
// no match stay absent and are defaulted later by the codec. Unmatched
// source columns are passed through untouched.
func NormalizeColumns(rows []map[string]string, synonyms SynonymTable) []map[string]string {
	if len(rows) == 0 {
		return rows
	}

	// Fold every column name present anywhere in the table once.
	present := make(map[string]string) // folded -> stored name
	for _, row := range rows {
		for col := range row {
			folded := foldKey(col)
			if _, ok := present[folded]; !ok {
				present[folded] = col
			}
		}
	}

	rename := make(map[string]string) // stored source name -> canonical
	claimed := make(map[string]bool)  // stored source names already mapped
	for _, canonical := range canonicalOrder {
		for _, accepted := range synonyms[canonical] {
			source, ok := present[foldKey(accepted)]
			if !ok || claimed[source] {
				continue
			}
			rename[source] = canonical
			claimed[source] = true
			break
		}
	}

	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		normalized := make(map[string]string, len(row))
		for col, val := range row {
			if canonical, ok := rename[col]; ok {
				normalized[canonical] = val
			} else {
				normalized[col] = val
			}
		}
		out[i] = normalized
	}
	return out
}

// canonicalOrder fixes the field scan order so that a source column
// matching two canonical fields (e.g. "date") is claimed
// deterministically.
var canonicalOrder = []string{
	FieldID, FieldLastName, FieldFirstName, FieldFullName,
	FieldBirthDate, FieldSex, FieldAge, FieldPhone, FieldHistory,
	FieldVisitDate,
}

// SplitFullName derives last_name and first_name from full_name when
// neither split field survived normalization: the first whitespace-run
// token becomes the last name, the remainder the first name. This is a
// best-effort import fallback, not a correct parser for multi-word last
// names; sources with structured name columns never reach it.
func SplitFullName(rows []map[string]string) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		_, hasLast := row[FieldLastName]
		_, hasFirst := row[FieldFirstName]
		full, hasFull := row[FieldFullName]
		if hasLast || hasFirst || !hasFull {
			out[i] = row
			continue
		}

		split := make(map[string]string, len(row)+1)
		for k, v := range row {
			split[k] = v
		}
		tokens := strings.Fields(full)
		switch {
		case len(tokens) == 0:
			split[FieldLastName] = ""
			split[FieldFirstName] = ""
		case len(tokens) == 1:
			split[FieldLastName] = tokens[0]
			split[FieldFirstName] = ""
		default:
			split[FieldLastName] = tokens[0]
			split[FieldFirstName] = strings.Join(tokens[1:], " ")
		}
		out[i] = split
	}
	return out
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lowercases and strips diacritics so accented French headers
// compare equal to their plain spellings.
func foldKey(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
