package mysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "-", stringOrDash("  \t"))
	assert.Equal(t, "a.png", stringOrDash("a.png"))
}

func TestInsertQuery(t *testing.T) {
	q := insertQuery()
	assert.True(t, strings.HasPrefix(q, "INSERT INTO image_analysis (id, batch_id, filename, timestamp, summary,"))
	assert.Equal(t, 18, strings.Count(q, "?"))
	assert.Contains(t, q, "cost_estimate)")
}

func TestSchemaHasEveryColumn(t *testing.T) {
	for _, col := range []string{"filename", "people_count", "full_description", "cost_estimate", "batch_id"} {
		assert.Contains(t, schema, col)
	}
}
