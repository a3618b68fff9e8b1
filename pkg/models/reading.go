package models

// Reading is a single sensor measurement as it arrives in a raw or processed
// parquet file. Every column is optional: raw files routinely carry nulls and
// the cleaning stage is responsible for repairing or dropping them.
type Reading struct {
	SensorID     *string  `parquet:"sensor_id,optional"`
	Timestamp    *string  `parquet:"timestamp,optional"`
	ReadingType  *string  `parquet:"reading_type,optional"`
	Value        *float64 `parquet:"value,optional"`
	BatteryLevel *float64 `parquet:"battery_level,optional"`
}

// EnrichedReading is the transformed row shape: the cleaned Reading columns
// plus the derived columns added by the timestamp and feature stages.
type EnrichedReading struct {
	SensorID     *string  `parquet:"sensor_id,optional"`
	Timestamp    *string  `parquet:"timestamp,optional"`
	ReadingType  *string  `parquet:"reading_type,optional"`
	Value        *float64 `parquet:"value,optional"`
	BatteryLevel *float64 `parquet:"battery_level,optional"`
	TimestampIST *string  `parquet:"timestamp_ist,optional"`
	Date         *string  `parquet:"date,optional"`
	DailyAvg     *float64 `parquet:"daily_avg,optional"`
	Rolling7dAvg *float64 `parquet:"rolling_7d_avg,optional"`
	Anomalous    *bool    `parquet:"anomalous_reading,optional"`
}

// RequiredColumns is the set of columns every ingestible file must carry.
var RequiredColumns = []string{"sensor_id", "timestamp", "reading_type", "value", "battery_level"}

// StrPtr returns a pointer to s. Convenience for building rows in tests and
// derived columns in the transformation stages.
func StrPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
