package export

import "time"

// Report is an ordered tabular document ready for rendering. Rows shorter
// than Columns are padded with empty cells; longer rows are truncated.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Columns     []string
	Rows        [][]string
}

func (r Report) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
