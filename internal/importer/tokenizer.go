package importer

import "strings"

// SplitLine splits one CSV line into trimmed field strings. A double quote
// toggles an "inside quoted field" mode so quoted fields may contain literal
// commas; the quote characters themselves are dropped. Unbalanced quotes are
// tolerated: the toggle simply stays on for the rest of the line, so any
// remaining commas land in the final field instead of splitting it.
func SplitLine(line string) []string {
	fields := make([]string, 0, 8)
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	// The last field has no trailing comma.
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}
