package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Estudiante", "2025-01-06", "2025-01-08"},
		Rows: []map[string]string{
			{"Estudiante": "María Pérez", "2025-01-06": "A", "2025-01-08": "F"},
			{"Estudiante": "José Núñez", "2025-01-06": "J"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte(utf8BOM)))

	body := string(out[len(utf8BOM):])
	require.Contains(t, body, "Estudiante,2025-01-06,2025-01-08\n")
	require.Contains(t, body, "María Pérez,A,F\n")
	// missing cells render empty, preserving column alignment
	require.Contains(t, body, "José Núñez,J,\n")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}
