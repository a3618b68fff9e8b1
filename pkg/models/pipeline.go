package models

// File processing outcomes recorded in the checkpoint store.
const (
	StatusSuccess     = "success"
	StatusQuarantined = "quarantined"
	StatusFailed      = "failed"
)

// CheckpointRecord is the terminal outcome of one input file.
type CheckpointRecord struct {
	Checksum    string `json:"checksum"`
	Rows        int    `json:"rows"`
	Status      string `json:"status"`
	ProcessedAt string `json:"processed_at"`
	Error       string `json:"error,omitempty"`
}

// CheckpointState is the persisted shape of state/checkpoints.json.
type CheckpointState struct {
	ProcessedFiles map[string]CheckpointRecord `json:"processed_files"`
}

// IngestionLogEntry is one appended row of metadata/ingest_log.csv.
type IngestionLogEntry struct {
	Filename    string
	Rows        int
	Status      string
	Error       string
	DurationSec float64
	Timestamp   string
}

// ReadingTypeProfile summarizes one reading_type within a file. Numeric
// fields are rounded to two decimals.
type ReadingTypeProfile struct {
	ReadingType string  `json:"reading_type"`
	RecordCount int     `json:"record_count"`
	AvgValue    float64 `json:"avg_value"`
	MinValue    float64 `json:"min_value"`
	MaxValue    float64 `json:"max_value"`
	AvgBattery  float64 `json:"avg_battery"`
}

// FileProfile is the full profiling output for one file: the per-type
// summaries plus column-wise missing ratios and distinct counts.
type FileProfile struct {
	FileName             string               `json:"file_name"`
	ReadingSummary       []ReadingTypeProfile `json:"reading_summary"`
	MissingRatio         map[string]float64   `json:"missing_data_ratio"`
	DistinctSensors      int                  `json:"distinct_sensors"`
	DistinctReadingTypes int                  `json:"distinct_reading_types"`
}

// QualityReport is one row of metadata/data_quality_report.csv. The per-type
// maps are JSON-encoded so the report stays single-row-per-file. A failed
// validation emits the sentinel -1 in every numeric field and a populated
// Error column.
type QualityReport struct {
	FileName          string
	TotalRecords      int
	InvalidValueType  int
	InvalidTimestamp  int
	OutlierPct        string
	MissingPct        string
	SensorsWithGaps   int
	TotalMissingHours int
	Error             string
}

// SchemaReport is the outcome of footer-only schema inspection.
type SchemaReport struct {
	OK      bool
	Columns []string
	Missing []string
	Extra   []string
}
