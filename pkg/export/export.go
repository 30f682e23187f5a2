// Package export renders tabular agenda data as CSV or PDF.
package export

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	// Widths are relative column weights; equal widths when empty.
	Widths []float64
}

func (d Dataset) row(values map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = values[header]
	}
	return record
}
