package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/store"
)

func TestEngineEndToEnd(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	runs := store.New[record.RunRecord](backend, "jobs")
	weather := store.New[record.WeatherReading](backend, "weather")

	now := time.Now().UTC()
	for _, r := range []record.RunRecord{
		run("r1", now.Add(-2*time.Hour), record.StatusSuccess),
		run("r2", now.Add(-time.Hour), record.StatusError),
	} {
		if err := runs.Append(ctx, r); err != nil {
			t.Fatalf("append run failed: %v", err)
		}
	}
	if err := weather.Append(ctx, record.WeatherReading{
		ID:          "w1",
		City:        "Campinas",
		Timestamp:   now.Add(-time.Hour),
		SourceRunID: "r1",
	}); err != nil {
		t.Fatalf("append reading failed: %v", err)
	}

	engine := NewEngine(runs, []DataSource{weather}, 24, map[string]VolumeRange{
		"weather": {MinMB: 0, MaxMB: 500},
	})

	rollup, err := engine.ComputeRollup(ctx, 1)
	if err != nil {
		t.Fatalf("rollup failed: %v", err)
	}
	if rollup.TotalInWindow != 2 {
		t.Fatalf("expected 2 runs in window, got %d", rollup.TotalInWindow)
	}

	report, err := engine.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if report.Summary.Status != "healthy" {
		t.Fatalf("expected healthy report for fresh data, got %+v", report.Summary)
	}
	if len(report.Quality) != 1 || report.Quality[0].RowsChecked != 1 {
		t.Fatalf("expected one sampled quality report, got %+v", report.Quality)
	}
}

func TestEngineReportsEmptySource(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	runs := store.New[record.RunRecord](backend, "jobs")
	weather := store.New[record.WeatherReading](backend, "weather")

	engine := NewEngine(runs, []DataSource{weather}, 24, nil)

	report, err := engine.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	// No partitions at all: freshness and volume both go critical.
	if report.Summary.CriticalAlerts < 2 {
		t.Fatalf("expected critical alerts for an empty namespace, got %+v", report.Summary)
	}
	if report.Summary.Status == "healthy" {
		t.Fatalf("empty namespace must not report healthy")
	}
}
