package models

import "time"

// ImportResult is the outcome of importing a single listing URL.
type ImportResult struct {
	RequestID  string
	URL        string
	ParserName string
	Raw        RawParsedData
	Info       ExtractedInfo
	Err        string
	ImportedAt time.Time
}

// Failed reports whether the import stopped before extraction.
func (r *ImportResult) Failed() bool {
	return r.Err != ""
}
