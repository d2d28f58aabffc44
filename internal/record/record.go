package record

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a collection run.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

// RunRecord is the audit entry for one execution of a collection job.
// A run is appended once with StatusRunning and rewritten (merge-by-id)
// when it reaches a terminal status; terminal records are never mutated
// again.
type RunRecord struct {
	ID              string     `json:"id" validate:"required"`
	JobName         string     `json:"job_name" validate:"required"`
	Status          RunStatus  `json:"status" validate:"required,oneof=running success error"`
	StartTime       time.Time  `json:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time"`
	DurationSeconds *float64   `json:"duration_seconds"`
	RecordsProduced int        `json:"records_produced" validate:"gte=0"`
	ErrorMessage    *string    `json:"error_message"`
}

// RecordID returns the identity key used for merge-on-write.
func (r RunRecord) RecordID() string { return r.ID }

// PartitionTime places a run in the partition of its start day.
func (r RunRecord) PartitionTime() time.Time { return r.StartTime }

// NewRunRecord creates a fresh running record for the given job.
func NewRunRecord(jobName string, start time.Time) RunRecord {
	return RunRecord{
		ID:        uuid.NewString(),
		JobName:   jobName,
		Status:    StatusRunning,
		StartTime: start.UTC(),
	}
}

// Finish transitions the record to a terminal status, setting end time and
// derived duration. The returned copy replaces the running entry in storage.
func (r RunRecord) Finish(status RunStatus, end time.Time, produced int, errMsg string) RunRecord {
	end = end.UTC()
	dur := end.Sub(r.StartTime).Seconds()
	r.Status = status
	r.EndTime = &end
	r.DurationSeconds = &dur
	r.RecordsProduced = produced
	if errMsg != "" {
		r.ErrorMessage = &errMsg
	}
	return r
}

// WeatherReading is one weather observation produced by a collection run.
// The source run is a weak back-reference: the run may be pruned without
// invalidating the reading.
type WeatherReading struct {
	ID           string    `json:"id" validate:"required"`
	City         string    `json:"city" validate:"required"`
	TemperatureC float64   `json:"temperature_c" validate:"gte=-90,lte=60"`
	HumidityPct  float64   `json:"humidity_pct" validate:"gte=0,lte=100"`
	PressureHpa  float64   `json:"pressure_hpa"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	SourceRunID  string    `json:"source_run_id"`
}

func (w WeatherReading) RecordID() string { return w.ID }

func (w WeatherReading) PartitionTime() time.Time { return w.Timestamp }
