// Package export writes report files to the output directory. JSON reports
// may be compressed; CSV summaries are always plain UTF-8.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"portraits/internal/core/apperror"
	"portraits/pkg/logger"
)

// Compression selects the encoding of JSON report files.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression accepts none, gzip or zstd, case-insensitively. Empty
// input means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", apperror.NewValidation("unknown output compression").WithDetail("compression", s)
	}
}

// Ext is the file suffix added for the compression.
func (c Compression) Ext() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	}
	return ""
}

// Writer writes report files under one directory.
type Writer struct {
	dir         string
	compression Compression
}

// NewWriter creates a Writer. The directory is created on first write.
func NewWriter(dir string, compression Compression) *Writer {
	if compression == "" {
		compression = CompressionNone
	}
	return &Writer{dir: dir, compression: compression}
}

// JSON writes v as indented JSON to name plus the compression suffix and
// returns the path written.
func (w *Writer) JSON(ctx context.Context, name string, v any) (string, error) {
	path := filepath.Join(w.dir, name+w.compression.Ext())
	err := w.write(path, func(dst io.Writer) error {
		return w.compressed(dst, func(out io.Writer) error {
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		})
	})
	if err != nil {
		return "", err
	}
	logger.Info(ctx, "report written", "path", path, "compression", w.compression)
	return path, nil
}

// CSV writes header and rows to name and returns the path written.
func (w *Writer) CSV(ctx context.Context, name string, header []string, rows [][]string) (string, error) {
	path := filepath.Join(w.dir, name)
	err := w.write(path, func(dst io.Writer) error {
		cw := csv.NewWriter(dst)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
	if err != nil {
		return "", err
	}
	logger.Info(ctx, "summary written", "path", path, "rows", len(rows))
	return path, nil
}

func (w *Writer) compressed(dst io.Writer, fn func(io.Writer) error) error {
	switch w.compression {
	case CompressionGzip:
		zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
		if err != nil {
			return err
		}
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	case CompressionZstd:
		zw, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fn(dst)
	}
}

// write fills a temporary file in the target directory and renames it over
// path.
func (w *Writer) write(path string, fill func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = fill(tmp); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Open opens a report file, decompressing by file suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{Reader: zr, close: func() error { _ = zr.Close(); return f.Close() }}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{Reader: zr, close: func() error { zr.Close(); return f.Close() }}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }
