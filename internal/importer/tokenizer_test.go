package importer

import (
	"reflect"
	"testing"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{
			name:     "simple fields",
			line:     "01/05/2024,14:30,22.5",
			expected: []string{"01/05/2024", "14:30", "22.5"},
		},
		{
			name:     "whitespace trimmed",
			line:     " a , b ,c ",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "quoted field with comma",
			line:     `01/05/2024,14:30,"Heraklion, Crete",22.5`,
			expected: []string{"01/05/2024", "14:30", "Heraklion, Crete", "22.5"},
		},
		{
			name:     "quote delimiters stripped",
			line:     `"a","b"`,
			expected: []string{"a", "b"},
		},
		{
			name:     "empty fields preserved",
			line:     "a,,c",
			expected: []string{"a", "", "c"},
		},
		{
			name:     "trailing comma yields empty final field",
			line:     "a,b,",
			expected: []string{"a", "b", ""},
		},
		{
			name:     "empty line yields single empty field",
			line:     "",
			expected: []string{""},
		},
		{
			name:     "unbalanced quote swallows rest of line",
			line:     `a,"b,c`,
			expected: []string{"a", "b,c"},
		},
		{
			name:     "non-latin headers",
			line:     "Date,Time,ΠΥΡΓΟΣ Rain (SUM)",
			expected: []string{"Date", "Time", "ΠΥΡΓΟΣ Rain (SUM)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitLine(tt.line)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("SplitLine(%q) = %#v, want %#v", tt.line, result, tt.expected)
			}
		})
	}
}
