package ingestion

import (
	"sort"

	"github.com/inferloop/agripipe/internal/storage"
	"github.com/inferloop/agripipe/pkg/models"
)

// SchemaValidator checks a parquet file's column set against the required
// reading schema. Only the footer metadata is read, never the row groups,
// so rejecting a malformed file stays cheap.
type SchemaValidator struct{}

// NewSchemaValidator creates a schema validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Inspect reports which required columns are missing and which extra columns
// are present. Missing columns fail validation; extra columns are only
// reported.
func (v *SchemaValidator) Inspect(path string) (models.SchemaReport, error) {
	cols, err := storage.InspectColumns(path)
	if err != nil {
		return models.SchemaReport{}, err
	}

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}

	required := make(map[string]bool, len(models.RequiredColumns))
	var missing []string
	for _, c := range models.RequiredColumns {
		required[c] = true
		if !present[c] {
			missing = append(missing, c)
		}
	}

	var extra []string
	for _, c := range cols {
		if !required[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	return models.SchemaReport{
		OK:      len(missing) == 0,
		Columns: cols,
		Missing: missing,
		Extra:   extra,
	}, nil
}
