package mysql

import (
	"strings"

	"github.com/bryanwahyu/imagesense/internal/domain/analysis"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// insertQuery builds the INSERT for every results column plus id and batch_id.
func insertQuery() string {
	cols := append([]string{"id", "batch_id"}, analysis.Columns...)
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	return "INSERT INTO image_analysis (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
}
