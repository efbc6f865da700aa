package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Section is one named table within a CSV export document.
type Section struct {
	Name string
	Rows []map[string]any
}

// WriteCSV renders sections as a single CSV document. Each section is
// introduced by a blank line and a "# name" comment, followed by a
// header row taken from the first row's keys and one line per row.
// Sections with no rows are skipped entirely.
func WriteCSV(w io.Writer, sections []Section) error {
	for _, s := range sections {
		if len(s.Rows) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n# %s\n", s.Name); err != nil {
			return err
		}

		cols := sortedKeys(s.Rows[0])
		if _, err := io.WriteString(w, strings.Join(cols, ",")+"\n"); err != nil {
			return err
		}

		for _, row := range s.Rows {
			fields := make([]string, len(cols))
			for i, col := range cols {
				fields[i] = csvField(row[col])
			}
			if _, err := io.WriteString(w, strings.Join(fields, ",")+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// csvField renders one value. Nulls become empty fields; values that
// contain a comma, quote or newline are quoted with internal quotes
// doubled.
func csvField(v any) string {
	if v == nil {
		return ""
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case time.Time:
		s = t.UTC().Format(time.RFC3339)
	default:
		s = fmt.Sprint(t)
	}

	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
