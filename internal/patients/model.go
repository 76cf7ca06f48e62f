// Package patients builds the canonical patient directory by
// normalizing and merging the two independently maintained source
// tables (registered patients and walk-in consultations).
package patients

import "time"

// Identity is the deduplicated, most recent merged view of one patient.
type Identity struct {
	ID        string    `json:"id"`
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	BirthDate time.Time `json:"birth_date,omitempty"`
	Sex       string    `json:"sex"`
	Age       int64     `json:"age"`
	Phone     string    `json:"phone"`
	History   string    `json:"history"`
}

// FullName renders "Last First" for display and name lookup.
func (p Identity) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.LastName + " " + p.FirstName
}

// SourceTable is one raw source feeding the merge, in precedence order:
// when two records of the same patient carry the same event date, the
// earlier-listed source wins.
type SourceTable struct {
	Name string
	Rows []map[string]string
}

// Rejected reports one source record dropped during a merge, typically
// for a missing identifier. The rest of the batch is unaffected.
type Rejected struct {
	Source string
	Index  int
	Err    error
}
