package workbook

import "fmt"

// ReadError reports an unreadable or corrupt container. Callers degrade
// to an empty table and surface a warning; the file is never partially
// decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("workbook: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failed container rewrite. The previous container
// contents are left untouched; the caller must treat its business
// operation as not committed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("workbook: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
