package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type auditColumns struct {
	CreatedAt time.Time `db:"created_at"`
}

type testRow struct {
	auditColumns
	ID       string `db:"id"`
	Kind     string `db:"kind"`
	Ignored  string `db:"-"`
	Untagged string
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "kind"}, ExtractDBColumns[testRow]())
	assert.Equal(t, []string{"created_at", "id", "kind"}, ExtractDBColumns[*testRow]())
	assert.Empty(t, ExtractDBColumns[int]())
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	row := testRow{
		auditColumns: auditColumns{CreatedAt: now},
		ID:           "r1",
		Kind:         "collection",
		Ignored:      "x",
		Untagged:     "y",
	}

	m := StructToMap(&row)

	assert.Equal(t, map[string]any{"created_at": now, "id": "r1", "kind": "collection"}, m)
	assert.Nil(t, StructToMap(42))
}
