package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Agenda de João",
		Headers: []string{"Data", "Título"},
		Rows: []map[string]string{
			{"Data": "2026-10-20", "Título": "Concretagem; laje 3"},
			{"Data": "2026-10-21"},
		},
		Widths: []float64{1, 3},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter(0).Render(sampleDataset())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Data;Título", lines[0])
	assert.Equal(t, `2026-10-20;"Concretagem; laje 3"`, lines[1])
	assert.Equal(t, "2026-10-21;", lines[2])

	_, err = NewCSVExporter(',').Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"Data": "2026-10-22", "Título": strings.Repeat("x", 300)})
	}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(sampleDataset())
	assert.InDelta(t, pageWidth/4, widths[0], 0.001)
	assert.InDelta(t, pageWidth*3/4, widths[1], 0.001)

	equal := columnWidths(Dataset{Headers: []string{"a", "b"}})
	assert.InDelta(t, pageWidth/2, equal[0], 0.001)
	assert.Equal(t, "abcd...", truncate("abcdefghijklmnop", 11.2))
}
