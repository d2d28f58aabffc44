// Package metrics computes rollups and data-quality signals over the
// collected history: job success rates, partition freshness, volume-range
// anomalies, null/duplicate sampling, and a composite health score.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/store"
)

// Severity tags how urgent an alert is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertType identifies which check produced an alert.
type AlertType string

const (
	AlertFreshness AlertType = "data_freshness"
	AlertVolume    AlertType = "data_volume"
	AlertQuality   AlertType = "data_quality"
)

// Alert is one severity-tagged finding from a health check.
type Alert struct {
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}

// Rollup summarizes job executions: today's counts by status plus the
// window-wide total and the most recent run.
type Rollup struct {
	JobsToday       int               `json:"jobs_today"`
	SuccessfulToday int               `json:"successful_jobs"`
	FailedToday     int               `json:"failed_jobs"`
	TotalInWindow   int               `json:"total_jobs"`
	SuccessRate     float64           `json:"success_rate"`
	LastExecution   *record.RunRecord `json:"last_execution"`
}

// ComputeRollup partitions runs by today's UTC calendar day and computes the
// success rate over today's jobs. An empty day yields a zero rate, never a
// division by zero.
func ComputeRollup(runs []record.RunRecord, now time.Time) Rollup {
	today := now.UTC().Truncate(24 * time.Hour)

	var rollup Rollup
	rollup.TotalInWindow = len(runs)

	for i := range runs {
		run := runs[i]
		if run.StartTime.UTC().Truncate(24 * time.Hour).Equal(today) {
			rollup.JobsToday++
			switch run.Status {
			case record.StatusSuccess:
				rollup.SuccessfulToday++
			case record.StatusError:
				rollup.FailedToday++
			}
		}
		if rollup.LastExecution == nil || run.StartTime.After(rollup.LastExecution.StartTime) {
			last := run
			rollup.LastExecution = &last
		}
	}

	if rollup.JobsToday > 0 {
		rollup.SuccessRate = round1(float64(rollup.SuccessfulToday) / float64(rollup.JobsToday) * 100)
	}
	return rollup
}

// SourceFreshness is the freshness verdict for one record-kind namespace.
type SourceFreshness struct {
	Source         string     `json:"source"`
	LatestModified *time.Time `json:"latest_modified"`
	AgeHours       *float64   `json:"age_hours"`
	IsFresh        bool       `json:"is_fresh"`
	FileCount      int        `json:"file_count"`
}

// FreshnessReport collects per-source freshness plus any alerts raised.
type FreshnessReport struct {
	MaxAgeHours float64           `json:"max_age_hours"`
	Sources     []SourceFreshness `json:"sources"`
	Alerts      []Alert           `json:"alerts"`
}

// CheckFreshness flags sources whose latest write is older than maxAgeHours.
// A source with no files at all is critical; a stale source is a warning
// until it exceeds twice the allowed age.
func CheckFreshness(descs []store.Descriptor, maxAgeHours float64, now time.Time) FreshnessReport {
	report := FreshnessReport{MaxAgeHours: maxAgeHours}

	for _, desc := range descs {
		src := SourceFreshness{
			Source:    desc.Kind,
			FileCount: desc.FileCount,
		}

		if desc.LatestModified == nil {
			report.Sources = append(report.Sources, src)
			report.Alerts = append(report.Alerts, Alert{
				Type:     AlertFreshness,
				Severity: SeverityCritical,
				Source:   desc.Kind,
				Message:  fmt.Sprintf("no files found in %s", desc.Kind),
			})
			continue
		}

		age := round2(now.Sub(*desc.LatestModified).Hours())
		src.LatestModified = desc.LatestModified
		src.AgeHours = &age
		src.IsFresh = age <= maxAgeHours
		report.Sources = append(report.Sources, src)

		if !src.IsFresh {
			severity := SeverityWarning
			if age >= 2*maxAgeHours {
				severity = SeverityCritical
			}
			report.Alerts = append(report.Alerts, Alert{
				Type:     AlertFreshness,
				Severity: severity,
				Source:   desc.Kind,
				Message:  fmt.Sprintf("data in %s is %.1f hours old (max: %.0f)", desc.Kind, age, maxAgeHours),
			})
		}
	}
	return report
}

// VolumeRange is the expected on-disk size band for one source, in MB.
type VolumeRange struct {
	MinMB float64 `json:"min_mb"`
	MaxMB float64 `json:"max_mb"`
}

// SourceVolume is the volume verdict for one source.
type SourceVolume struct {
	Source    string  `json:"source"`
	SizeMB    float64 `json:"size_mb"`
	FileCount int     `json:"file_count"`
	Status    string  `json:"status"` // normal, low_volume, high_volume, empty
}

// VolumeReport collects per-source volume status plus any alerts raised.
type VolumeReport struct {
	Sources []SourceVolume `json:"sources"`
	Alerts  []Alert        `json:"alerts"`
}

// CheckVolume compares each source's total size against its expected range.
// An empty source is critical and supersedes the range check.
func CheckVolume(descs []store.Descriptor, expected map[string]VolumeRange) VolumeReport {
	var report VolumeReport

	for _, desc := range descs {
		src := SourceVolume{
			Source:    desc.Kind,
			SizeMB:    desc.SizeMB,
			FileCount: desc.FileCount,
			Status:    "normal",
		}

		if desc.FileCount == 0 {
			src.Status = "empty"
			report.Sources = append(report.Sources, src)
			report.Alerts = append(report.Alerts, Alert{
				Type:     AlertVolume,
				Severity: SeverityCritical,
				Source:   desc.Kind,
				Message:  fmt.Sprintf("no files found in %s", desc.Kind),
			})
			continue
		}

		if bounds, ok := expected[desc.Kind]; ok {
			switch {
			case desc.SizeMB < bounds.MinMB:
				src.Status = "low_volume"
				report.Alerts = append(report.Alerts, Alert{
					Type:     AlertVolume,
					Severity: SeverityWarning,
					Source:   desc.Kind,
					Message:  fmt.Sprintf("low data volume in %s: %.2fMB (expected min: %.2fMB)", desc.Kind, desc.SizeMB, bounds.MinMB),
				})
			case desc.SizeMB > bounds.MaxMB:
				src.Status = "high_volume"
				report.Alerts = append(report.Alerts, Alert{
					Type:     AlertVolume,
					Severity: SeverityWarning,
					Source:   desc.Kind,
					Message:  fmt.Sprintf("high data volume in %s: %.2fMB (expected max: %.2fMB)", desc.Kind, desc.SizeMB, bounds.MaxMB),
				})
			}
		}
		report.Sources = append(report.Sources, src)
	}
	return report
}

// QualityReport holds null/duplicate sampling results for one source.
type QualityReport struct {
	Source       string  `json:"source"`
	RowsChecked  int     `json:"rows_checked"`
	ColumnCount  int     `json:"column_count"`
	NullPct      float64 `json:"null_pct"`
	DuplicatePct float64 `json:"duplicate_pct"`
	Alerts       []Alert `json:"alerts"`
}

// SampleQuality measures the null ratio over all cells and the duplicate-row
// ratio for a sample of rows. Columns are the union of keys across the
// sample; a key missing from a row counts as a null in that row.
func SampleQuality(source string, rows []map[string]any, nullThresholdPct, dupThresholdPct float64) QualityReport {
	report := QualityReport{Source: source, RowsChecked: len(rows)}
	if len(rows) == 0 {
		return report
	}

	columns := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			columns[col] = struct{}{}
		}
	}
	report.ColumnCount = len(columns)
	if report.ColumnCount == 0 {
		return report
	}

	nulls := 0
	seen := make(map[string]struct{}, len(rows))
	duplicates := 0
	for _, row := range rows {
		for col := range columns {
			if v, ok := row[col]; !ok || v == nil {
				nulls++
			}
		}

		// encoding/json sorts map keys, so equal rows hash identically.
		fingerprint, err := json.Marshal(row)
		if err == nil {
			if _, dup := seen[string(fingerprint)]; dup {
				duplicates++
			} else {
				seen[string(fingerprint)] = struct{}{}
			}
		}
	}

	totalCells := len(rows) * report.ColumnCount
	report.NullPct = round2(float64(nulls) / float64(totalCells) * 100)
	report.DuplicatePct = round2(float64(duplicates) / float64(len(rows)) * 100)

	if report.NullPct > nullThresholdPct {
		report.Alerts = append(report.Alerts, Alert{
			Type:     AlertQuality,
			Severity: SeverityWarning,
			Source:   source,
			Message:  fmt.Sprintf("high null percentage in %s: %.1f%%", source, report.NullPct),
		})
	}
	if report.DuplicatePct > dupThresholdPct {
		report.Alerts = append(report.Alerts, Alert{
			Type:     AlertQuality,
			Severity: SeverityWarning,
			Source:   source,
			Message:  fmt.Sprintf("high duplicate percentage in %s: %.1f%%", source, report.DuplicatePct),
		})
	}
	return report
}

// Summary is the composite health verdict over all checks.
type Summary struct {
	Timestamp       time.Time         `json:"timestamp"`
	HealthScore     float64           `json:"health_score"`
	Status          string            `json:"status"` // healthy, warning, critical
	TotalAlerts     int               `json:"total_alerts"`
	CriticalAlerts  int               `json:"critical_alerts"`
	WarningAlerts   int               `json:"warning_alerts"`
	TotalChecks     int               `json:"total_checks"`
	AlertsByType    map[AlertType]int `json:"alerts_by_type"`
	Alerts          []Alert           `json:"alerts"`
	Recommendations []string          `json:"recommendations"`
}

// Summarize combines all alerts into a 0-100 health score and a set of
// human-readable recommendations. At least one recommendation is always
// produced.
func Summarize(alerts []Alert, totalChecks int, now time.Time) Summary {
	summary := Summary{
		Timestamp:    now.UTC(),
		TotalAlerts:  len(alerts),
		TotalChecks:  totalChecks,
		AlertsByType: make(map[AlertType]int),
		Alerts:       alerts,
	}

	for _, alert := range alerts {
		summary.AlertsByType[alert.Type]++
		switch alert.Severity {
		case SeverityCritical:
			summary.CriticalAlerts++
		case SeverityWarning:
			summary.WarningAlerts++
		}
	}

	denom := totalChecks
	if denom < 1 {
		denom = 1
	}
	summary.HealthScore = round1(math.Max(0, 100-float64(len(alerts))/float64(denom)*100))

	switch {
	case summary.HealthScore > 80:
		summary.Status = "healthy"
	case summary.HealthScore > 60:
		summary.Status = "warning"
	default:
		summary.Status = "critical"
	}

	if summary.CriticalAlerts > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"address critical alerts immediately - data pipeline may be broken")
	}
	if summary.AlertsByType[AlertFreshness] > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"check data ingestion processes - some sources are stale")
	}
	if summary.AlertsByType[AlertVolume] > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"review data volume patterns - unusual activity detected")
	}
	if summary.AlertsByType[AlertQuality] > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"investigate data quality issues - high nulls or duplicates found")
	}
	if len(summary.Recommendations) == 0 {
		summary.Recommendations = append(summary.Recommendations,
			"all checks passed - data lake is healthy")
	}
	return summary
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func round2(f float64) float64 { return math.Round(f*100) / 100 }
