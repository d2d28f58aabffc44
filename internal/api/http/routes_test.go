package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/datalake-native/internal/metrics"
	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/runner"
	"github.com/i474232898/datalake-native/internal/scheduler"
	"github.com/i474232898/datalake-native/internal/service"
	"github.com/i474232898/datalake-native/internal/store"
)

type blockingProducer struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProducer) Collect(ctx context.Context, runID string) ([]record.WeatherReading, error) {
	if p.started != nil {
		close(p.started)
		p.started = nil
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []record.WeatherReading{{
		ID:          uuid.NewString(),
		City:        "Campinas",
		Timestamp:   time.Now().UTC(),
		SourceRunID: runID,
	}}, nil
}

func newTestApp(t *testing.T, producer runner.Producer[record.WeatherReading]) (*fiber.App, *store.Store[record.WeatherReading]) {
	t.Helper()

	backend := store.NewMemoryBackend()
	runs := store.New[record.RunRecord](backend, "jobs")
	weather := store.New[record.WeatherReading](backend, "weather")

	engine := metrics.NewEngine(runs, []metrics.DataSource{weather}, 24, nil)

	sched := scheduler.New()
	t.Cleanup(sched.Stop)
	if producer != nil {
		job := runner.New("weather_collection", runs, weather, producer, time.Second)
		if err := sched.RegisterPeriodic(job, time.Hour); err != nil {
			t.Fatalf("failed to register job: %v", err)
		}
	}

	app := fiber.New()
	RegisterRoutes(app, service.New(runs, weather, engine, sched))
	return app, weather
}

func TestMetricsEndpointEmptyStore(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics over empty store must not fail, got %d", resp.StatusCode)
	}

	var rollup metrics.Rollup
	if err := json.NewDecoder(resp.Body).Decode(&rollup); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rollup.JobsToday != 0 || rollup.SuccessRate != 0 {
		t.Fatalf("expected zero rollup, got %+v", rollup)
	}
}

func TestWeatherPagination(t *testing.T) {
	app, weather := newTestApp(t, nil)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		reading := record.WeatherReading{
			ID:        uuid.NewString(),
			City:      "Campinas",
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
		}
		if err := weather.Append(context.Background(), reading); err != nil {
			t.Fatalf("seed append failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?page=2&page_size=2", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page store.Page[record.WeatherReading]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if page.Total != 5 || page.Pages != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d pages=%d items=%d", page.Total, page.Pages, len(page.Items))
	}

	// Invalid pagination parameters are rejected before touching storage.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather?page=0", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for page=0, got %d", resp.StatusCode)
	}
}

func TestTriggerUnknownJob(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/trigger/nope", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", resp.StatusCode)
	}
}

func TestTriggerAcceptedAndConflict(t *testing.T) {
	producer := &blockingProducer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	app, _ := newTestApp(t, producer)

	started := producer.started

	// First trigger runs the collection; issue it from a goroutine since the
	// producer blocks until released.
	done := make(chan *http.Response, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/trigger/weather_collection", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- resp
	}()

	<-started

	// Second trigger while in flight is a recoverable conflict.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/trigger/weather_collection", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while job in flight, got %d", resp.StatusCode)
	}

	close(producer.release)
	first := <-done
	if first != nil && first.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202 for accepted trigger, got %d", first.StatusCode)
	}
}

func TestLatestWeatherNotFound(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any collection, got %d", resp.StatusCode)
	}
}

func TestStorageInfo(t *testing.T) {
	app, weather := newTestApp(t, nil)

	if err := weather.Append(context.Background(), record.WeatherReading{
		ID:        uuid.NewString(),
		City:      "Campinas",
		Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed append failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/storage/info", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var info service.StorageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(info.Kinds) != 2 {
		t.Fatalf("expected descriptors for jobs and weather, got %+v", info.Kinds)
	}
	if info.TotalRecords != 1 || info.TotalFiles != 1 {
		t.Fatalf("unexpected totals: %+v", info)
	}
}

func TestHealthReportEndpoint(t *testing.T) {
	app, weather := newTestApp(t, nil)

	if err := weather.Append(context.Background(), record.WeatherReading{
		ID:        uuid.NewString(),
		City:      "Campinas",
		Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed append failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/report", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report metrics.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if report.Summary.Status == "" || len(report.Summary.Recommendations) == 0 {
		t.Fatalf("expected populated summary, got %+v", report.Summary)
	}
}
