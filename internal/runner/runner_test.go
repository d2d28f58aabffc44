package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/store"
)

type stubProducer struct {
	readings int
	err      error

	started chan struct{} // closed when Collect begins, if set
	release chan struct{} // Collect blocks until closed, if set
	block   bool
}

func (p *stubProducer) Collect(ctx context.Context, runID string) ([]record.WeatherReading, error) {
	if p.started != nil {
		close(p.started)
		p.started = nil
	}
	if p.block {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}

	out := make([]record.WeatherReading, 0, p.readings)
	for i := 0; i < p.readings; i++ {
		out = append(out, record.WeatherReading{
			ID:          uuid.NewString(),
			City:        "Campinas",
			Timestamp:   time.Now().UTC(),
			SourceRunID: runID,
		})
	}
	return out, nil
}

func newStores() (*store.Store[record.RunRecord], *store.Store[record.WeatherReading]) {
	backend := store.NewMemoryBackend()
	return store.New[record.RunRecord](backend, "jobs"), store.New[record.WeatherReading](backend, "weather")
}

func loadRuns(t *testing.T, runs *store.Store[record.RunRecord]) []record.RunRecord {
	t.Helper()
	now := time.Now().UTC()
	records, err := runs.LoadRange(context.Background(), now, now)
	if err != nil {
		t.Fatalf("load runs failed: %v", err)
	}
	return records
}

func TestRunSuccess(t *testing.T) {
	ctx := context.Background()
	runs, data := newStores()
	r := New("weather_collection", runs, data, &stubProducer{readings: 2}, time.Second)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	records := loadRuns(t, runs)
	if len(records) != 1 {
		t.Fatalf("expected one merged run record, got %d", len(records))
	}
	run := records[0]
	if run.Status != record.StatusSuccess {
		t.Fatalf("expected success status, got %s", run.Status)
	}
	if run.EndTime == nil || run.DurationSeconds == nil {
		t.Fatalf("terminal run must have end time and duration: %+v", run)
	}
	if run.RecordsProduced != 2 {
		t.Fatalf("expected 2 records produced, got %d", run.RecordsProduced)
	}

	now := time.Now().UTC()
	readings, err := data.LoadRange(ctx, now, now)
	if err != nil {
		t.Fatalf("load readings failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 data records, got %d", len(readings))
	}
	for _, reading := range readings {
		if reading.SourceRunID != run.ID {
			t.Fatalf("data record does not reference its run: %s != %s", reading.SourceRunID, run.ID)
		}
	}
}

func TestRunProducerFailureCaptured(t *testing.T) {
	ctx := context.Background()
	runs, data := newStores()
	r := New("weather_collection", runs, data, &stubProducer{err: fmt.Errorf("upstream exploded")}, time.Second)

	// Producer errors are captured into the run record, never propagated.
	if err := r.Run(ctx); err != nil {
		t.Fatalf("producer failure must not escape the runner, got %v", err)
	}

	records := loadRuns(t, runs)
	if len(records) != 1 {
		t.Fatalf("expected one run record, got %d", len(records))
	}
	run := records[0]
	if run.Status != record.StatusError {
		t.Fatalf("expected error status, got %s", run.Status)
	}
	if run.ErrorMessage == nil || !strings.Contains(*run.ErrorMessage, "upstream exploded") {
		t.Fatalf("expected captured error message, got %+v", run.ErrorMessage)
	}
}

func TestRunTimeout(t *testing.T) {
	ctx := context.Background()
	runs, data := newStores()
	producer := &stubProducer{block: true, release: make(chan struct{})}
	r := New("weather_collection", runs, data, producer, 20*time.Millisecond)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("timeout must be captured, got %v", err)
	}

	records := loadRuns(t, runs)
	if len(records) != 1 || records[0].Status != record.StatusError {
		t.Fatalf("expected failed run after timeout, got %+v", records)
	}
	if records[0].ErrorMessage == nil || !strings.Contains(*records[0].ErrorMessage, "timeout") {
		t.Fatalf("expected timeout error kind, got %+v", records[0].ErrorMessage)
	}
}

func TestConcurrencyGuard(t *testing.T) {
	ctx := context.Background()
	runs, data := newStores()
	producer := &stubProducer{
		readings: 1,
		block:    true,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	r := New("weather_collection", runs, data, producer, time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = r.Run(ctx)
	}()

	<-producer.started

	// Second trigger while the first is in flight is rejected and appends
	// nothing beyond the first invocation's records.
	if err := r.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(producer.release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first run failed: %v", firstErr)
	}

	records := loadRuns(t, runs)
	if len(records) != 1 {
		t.Fatalf("expected exactly one run record, got %d", len(records))
	}
	if records[0].Status != record.StatusSuccess {
		t.Fatalf("expected the single run to reach success, got %s", records[0].Status)
	}

	// Guard released: a later trigger is accepted again.
	producer.block = false
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run after guard release failed: %v", err)
	}
	if records := loadRuns(t, runs); len(records) != 2 {
		t.Fatalf("expected two run records after second accepted run, got %d", len(records))
	}
}
