package directory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/encoding/japanese"

	"portraits/internal/core/apperror"
	"portraits/pkg/logger"
)

// Encoding is the character encoding of a directory source.
type Encoding string

const (
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift_jis"
)

// ParseEncoding accepts the common spellings of the supported encodings.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return EncodingShiftJIS, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unsupported directory encoding %q", s))
}

// Source is a restartable tabular text source. Open is called once per load
// and the returned handle is always closed before the load returns.
type Source struct {
	Name     string
	Encoding Encoding
	Open     func() (io.ReadCloser, error)
}

// FileSource reads a table from a file on disk.
func FileSource(path string, enc Encoding) Source {
	return Source{
		Name:     path,
		Encoding: enc,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// BytesSource serves a table from memory; every Open starts from the beginning.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name:     name,
		Encoding: EncodingUTF8,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// UniversityColumns names the required columns of the university table.
type UniversityColumns struct {
	ID   string
	Name string
}

// DefaultUniversityColumns matches UnivList.csv.
func DefaultUniversityColumns() UniversityColumns {
	return UniversityColumns{ID: "大学ID", Name: "学校名"}
}

// OrganizationColumns names the required columns of the organization table.
type OrganizationColumns struct {
	UniversityName string
	ID             string
	Name           string
}

// DefaultOrganizationColumns matches DepaList.csv.
func DefaultOrganizationColumns() OrganizationColumns {
	return OrganizationColumns{
		UniversityName: "学校名",
		ID:             "学部・研究科等組織ID",
		Name:           "学部・研究科名称",
	}
}

// headerLine is the physical line holding the column names. Line 1 is a
// title, possibly blank; data starts after the header.
const headerLine = 2

// table is a source split into header and data rows.
type table struct {
	header []string
	rows   []row
	// skipped counts rows the CSV reader itself rejected
	skipped int
}

type row struct {
	line   int
	values []string
}

func (t *table) column(name string) int {
	for i, h := range t.header {
		if h == name {
			return i
		}
	}
	return -1
}

func readTable(ctx context.Context, src Source) (*table, error) {
	if src.Open == nil {
		return nil, apperror.NewSourceUnavailable(src.Name, errors.New("source has no opener"))
	}

	rc, err := src.Open()
	if err != nil {
		return nil, apperror.NewSourceUnavailable(src.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if src.Encoding == EncodingShiftJIS {
		r = japanese.ShiftJIS.NewDecoder().Reader(rc)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows are validated against the header later
	reader.LazyQuotes = true

	log := logger.FromContext(ctx).WithComponent("directory")

	var (
		records [][]string
		lines   []int
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Debugw("skipping unreadable row", "source", src.Name, "line", parseErr.Line, "error", err)
				skipped++
				continue
			}
			return nil, apperror.NewSourceUnavailable(src.Name, err)
		}
		line, _ := reader.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		records = append(records, rec)
		lines = append(lines, line)
	}

	t := &table{skipped: skipped}
	for i, rec := range records {
		switch {
		case lines[i] == headerLine:
			t.header = rec
		case lines[i] > headerLine:
			t.rows = append(t.rows, row{line: lines[i], values: rec})
		}
	}
	if t.header == nil {
		return nil, apperror.NewMalformedSource(src.Name, "expected a title line and a header line")
	}
	return t, nil
}

// LoadUniversities reads the university table. Rows lacking an ID or a name
// are skipped.
func LoadUniversities(ctx context.Context, src Source, cols UniversityColumns) ([]UniversityRecord, error) {
	t, err := readTable(ctx, src)
	if err != nil {
		return nil, err
	}

	idIdx, nameIdx := t.column(cols.ID), t.column(cols.Name)
	if missing := missingColumns(map[string]int{cols.ID: idIdx, cols.Name: nameIdx}); len(missing) > 0 {
		return nil, apperror.NewMalformedSource(src.Name, "missing columns "+strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}

	log := logger.FromContext(ctx).WithComponent("directory")
	need := max(idIdx, nameIdx) + 1

	records := make([]UniversityRecord, 0, len(t.rows))
	for _, r := range t.rows {
		if len(r.values) < need || r.values[idIdx] == "" || r.values[nameIdx] == "" {
			log.Debugw("skipping university row", "source", src.Name, "line", r.line)
			continue
		}
		records = append(records, UniversityRecord{ID: r.values[idIdx], Name: r.values[nameIdx]})
	}

	log.Infow("universities loaded",
		"source", src.Name,
		"rows", len(t.rows)+t.skipped,
		"kept", len(records),
		"skipped", len(t.rows)+t.skipped-len(records),
	)
	return records, nil
}

// LoadOrganizations reads the organization table. Rows whose column count
// differs from the header, or that lack any required value, are skipped.
func LoadOrganizations(ctx context.Context, src Source, cols OrganizationColumns) ([]OrganizationRecord, error) {
	t, err := readTable(ctx, src)
	if err != nil {
		return nil, err
	}

	univIdx, idIdx, nameIdx := t.column(cols.UniversityName), t.column(cols.ID), t.column(cols.Name)
	missing := missingColumns(map[string]int{
		cols.UniversityName: univIdx,
		cols.ID:             idIdx,
		cols.Name:           nameIdx,
	})
	if len(missing) > 0 {
		return nil, apperror.NewMalformedSource(src.Name, "missing columns "+strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}

	log := logger.FromContext(ctx).WithComponent("directory")

	records := make([]OrganizationRecord, 0, len(t.rows))
	for _, r := range t.rows {
		if len(r.values) != len(t.header) {
			log.Debugw("skipping organization row with wrong column count",
				"source", src.Name, "line", r.line, "columns", len(r.values), "want", len(t.header))
			continue
		}
		univ, id, name := r.values[univIdx], r.values[idIdx], r.values[nameIdx]
		if univ == "" || id == "" || name == "" {
			log.Debugw("skipping organization row with empty values", "source", src.Name, "line", r.line)
			continue
		}
		records = append(records, newOrganizationRecord(id, name, univ))
	}

	log.Infow("organizations loaded",
		"source", src.Name,
		"rows", len(t.rows)+t.skipped,
		"kept", len(records),
		"skipped", len(t.rows)+t.skipped-len(records),
	)
	return records, nil
}

func missingColumns(indexes map[string]int) []string {
	var missing []string
	for name, idx := range indexes {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	// map order is random; keep error messages stable
	slices.Sort(missing)
	return missing
}
