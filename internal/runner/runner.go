// Package runner executes collection jobs: each invocation produces exactly
// one run record in the store, transitioning running -> success|error.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.uber.org/atomic"

	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/store"
)

// ErrAlreadyRunning is a recoverable rejection, not a failure: a trigger
// arrived while a previous invocation of the same job was still in flight.
var ErrAlreadyRunning = errors.New("collection already running")

// Producer is the external data source being collected. It receives the run
// id so produced records can carry their source-run back-reference.
type Producer[T store.Record] interface {
	Collect(ctx context.Context, runID string) ([]T, error)
}

// Job is the scheduler-facing view of a runner.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner wraps one producer with run-record bookkeeping and an in-flight
// guard. At most one invocation per job name runs at a time; the timer path
// and the manual trigger path share the same entry point.
type Runner[T store.Record] struct {
	jobName  string
	runs     *store.Store[record.RunRecord]
	data     *store.Store[T]
	producer Producer[T]
	timeout  time.Duration

	inFlight *atomic.Bool
}

// New creates a runner for the named job. The timeout bounds a single
// producer call; on expiry the run is recorded as failed with a timeout
// message.
func New[T store.Record](jobName string, runs *store.Store[record.RunRecord], data *store.Store[T], producer Producer[T], timeout time.Duration) *Runner[T] {
	return &Runner[T]{
		jobName:  jobName,
		runs:     runs,
		data:     data,
		producer: producer,
		timeout:  timeout,
		inFlight: atomic.NewBool(false),
	}
}

func (r *Runner[T]) Name() string { return r.jobName }

// Run executes one collection. The running record is appended before the
// producer is invoked, so a crash mid-collection is visible as a stuck
// "running" entry. Producer failures are captured into the run record and
// never propagated; only structural store failures surface to the caller.
func (r *Runner[T]) Run(ctx context.Context) error {
	if !r.inFlight.CAS(false, true) {
		return ErrAlreadyRunning
	}
	defer r.inFlight.Store(false)

	run := record.NewRunRecord(r.jobName, time.Now())
	if err := r.runs.Append(ctx, run); err != nil {
		return fmt.Errorf("append run record: %w", err)
	}

	pctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	readings, err := r.producer.Collect(pctx, run.ID)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("timeout: producer exceeded %s", r.timeout)
		}
		log.Printf("ERROR: %s collection failed: %s", r.jobName, msg)
		return r.finish(ctx, run, record.StatusError, 0, msg)
	}

	produced := 0
	for _, reading := range readings {
		if err := r.data.Append(ctx, reading); err != nil {
			msg := fmt.Sprintf("persist record %s: %v", reading.RecordID(), err)
			log.Printf("ERROR: %s %s", r.jobName, msg)
			if ferr := r.finish(ctx, run, record.StatusError, produced, msg); ferr != nil {
				return ferr
			}
			return fmt.Errorf("append data record: %w", err)
		}
		produced++
	}

	log.Printf("INFO: %s collected %d records", r.jobName, produced)
	return r.finish(ctx, run, record.StatusSuccess, produced, "")
}

func (r *Runner[T]) finish(ctx context.Context, run record.RunRecord, status record.RunStatus, produced int, errMsg string) error {
	final := run.Finish(status, time.Now(), produced, errMsg)
	if err := r.runs.Append(ctx, final); err != nil {
		return fmt.Errorf("finalize run record: %w", err)
	}
	return nil
}
