package metrics

import (
	"context"
	"time"

	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/store"
)

// Default thresholds, matching the monitor's historical defaults.
const (
	DefaultNullThresholdPct = 20.0
	DefaultDupThresholdPct  = 10.0
	DefaultSamplePartitions = 3
)

// RunSource provides job-run history for rollups.
type RunSource interface {
	Query(ctx context.Context, days int, descending bool) ([]record.RunRecord, error)
}

// DataSource provides one record-kind namespace for health checks.
type DataSource interface {
	Kind() string
	Info(ctx context.Context) (store.Descriptor, error)
	SampleRows(ctx context.Context, maxPartitions int) ([]map[string]any, error)
}

// HealthReport bundles every check's detail with the composite summary.
type HealthReport struct {
	Summary   Summary         `json:"summary"`
	Freshness FreshnessReport `json:"freshness"`
	Volume    VolumeReport    `json:"volume"`
	Quality   []QualityReport `json:"quality"`
}

// Engine scans recent partitions to compute rollups and data-quality health.
// It reads exclusively through the store; it never touches raw bytes.
type Engine struct {
	runs    RunSource
	sources []DataSource

	maxAgeHours      float64
	expectedVolumes  map[string]VolumeRange
	nullThresholdPct float64
	dupThresholdPct  float64
	samplePartitions int
}

// NewEngine creates an engine over the given run history and data sources.
func NewEngine(runs RunSource, sources []DataSource, maxAgeHours float64, expectedVolumes map[string]VolumeRange) *Engine {
	return &Engine{
		runs:             runs,
		sources:          sources,
		maxAgeHours:      maxAgeHours,
		expectedVolumes:  expectedVolumes,
		nullThresholdPct: DefaultNullThresholdPct,
		dupThresholdPct:  DefaultDupThresholdPct,
		samplePartitions: DefaultSamplePartitions,
	}
}

// ComputeRollup loads run records going days back and summarizes them.
// Missing partitions degrade to zero counts, never an error.
func (e *Engine) ComputeRollup(ctx context.Context, days int) (Rollup, error) {
	runs, err := e.runs.Query(ctx, days, false)
	if err != nil {
		return Rollup{}, err
	}
	return ComputeRollup(runs, time.Now()), nil
}

// CheckHealth runs freshness, volume, and quality checks over every data
// source and combines them into a single report.
func (e *Engine) CheckHealth(ctx context.Context) (HealthReport, error) {
	now := time.Now().UTC()

	descs := make([]store.Descriptor, 0, len(e.sources))
	for _, src := range e.sources {
		desc, err := src.Info(ctx)
		if err != nil {
			return HealthReport{}, err
		}
		descs = append(descs, desc)
	}

	freshness := CheckFreshness(descs, e.maxAgeHours, now)
	volume := CheckVolume(descs, e.expectedVolumes)

	var quality []QualityReport
	var allAlerts []Alert
	allAlerts = append(allAlerts, freshness.Alerts...)
	allAlerts = append(allAlerts, volume.Alerts...)

	qualityChecks := 0
	for _, src := range e.sources {
		rows, err := src.SampleRows(ctx, e.samplePartitions)
		if err != nil {
			return HealthReport{}, err
		}
		report := SampleQuality(src.Kind(), rows, e.nullThresholdPct, e.dupThresholdPct)
		quality = append(quality, report)
		allAlerts = append(allAlerts, report.Alerts...)
		if report.RowsChecked > 0 {
			qualityChecks++
		}
	}

	totalChecks := len(descs)*2 + qualityChecks
	return HealthReport{
		Summary:   Summarize(allAlerts, totalChecks, now),
		Freshness: freshness,
		Volume:    volume,
		Quality:   quality,
	}, nil
}
