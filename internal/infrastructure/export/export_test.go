package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portraits/internal/core/apperror"
)

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"GZIP", CompressionGzip, false},
		{" zstd ", CompressionZstd, false},
		{"lz4", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompression(tt.in)
			if tt.wantErr {
				assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type report struct {
	University string `json:"university"`
	Count      int    `json:"count"`
}

func TestWriter_JSON(t *testing.T) {
	in := report{University: "大阪大学 & 京都大学", Count: 3}

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		t.Run(string(c), func(t *testing.T) {
			dir := t.TempDir()
			w := NewWriter(filepath.Join(dir, "out"), c)

			path, err := w.JSON(context.Background(), "university-data-detailed.json", in)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "out", "university-data-detailed.json"+c.Ext()), path)

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()
			data, err := io.ReadAll(r)
			require.NoError(t, err)

			var got report
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, in, got)
			if c == CompressionNone {
				assert.Contains(t, string(data), "大阪大学 & 京都大学")
				assert.Contains(t, string(data), "\n  \"count\": 3")
			}

			entries, err := os.ReadDir(filepath.Join(dir, "out"))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary files are cleaned up")
		})
	}
}

func TestWriter_JSONEncodeError(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, CompressionGzip)

	_, err := w.JSON(context.Background(), "bad.json", map[string]any{"f": func() {}})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_CSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, CompressionZstd)

	path, err := w.CSV(context.Background(), "university-data-summary.csv",
		[]string{"大学名", "組織数"},
		[][]string{{"大阪大学", "6"}, {"東京, 大学", "0"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "university-data-summary.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "大学名,組織数\n大阪大学,6\n\"東京, 大学\",0\n", string(data))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json.gz"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
