package models

// ImportSummary is the outcome of one CSV submission. It is returned to the
// caller and is the only durable trace of the operation.
//
// TotalRows counts rows that parsed into valid readings. Skipped counts rows
// that failed parsing. Errors counts rows in batches that failed to persist;
// a failing batch charges all of its rows to this tally.
type ImportSummary struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TotalRows int    `json:"totalRows"`
	Inserted  int    `json:"inserted"`
	Errors    int    `json:"errors"`
	Skipped   int    `json:"skipped"`
}
