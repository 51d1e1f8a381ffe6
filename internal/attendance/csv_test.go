package attendance

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_Format(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Record{
		{Name: "alice", FirstSeen: base, LastSeen: base.Add(90 * time.Second)},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice,2024-03-01T09:00:00Z,2024-03-01T09:01:30Z\n", buf.String())
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong column count", "alice,2024-03-01T09:00:00Z\n"},
		{"bad first_seen", "alice,yesterday,2024-03-01T09:00:00Z\n"},
		{"bad last_seen", "alice,2024-03-01T09:00:00Z,later\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestExportCSV_AppendsAndLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "attendance.csv")
	first := []Record{{Name: "alice", FirstSeen: base, LastSeen: base.Add(time.Minute)}}
	second := []Record{{Name: "bob, jr.", FirstSeen: base.Add(time.Hour), LastSeen: base.Add(2 * time.Hour)}}

	require.NoError(t, ExportCSV(path, first))
	require.NoError(t, ExportCSV(path, second))

	loaded, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "alice", loaded[0].Name)
	assert.Equal(t, "bob, jr.", loaded[1].Name)
	assert.True(t, loaded[0].FirstSeen.Equal(base))
	assert.True(t, loaded[1].LastSeen.Equal(base.Add(2*time.Hour)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestLoadCSV_MissingFile(t *testing.T) {
	recs, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}
