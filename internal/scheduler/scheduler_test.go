package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeJob struct {
	name string
	runs int
	err  error
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestRunOnce(t *testing.T) {
	s := New()
	defer s.Stop()

	job := &fakeJob{name: "weather_collection"}
	if err := s.RegisterPeriodic(job, time.Hour); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := s.RunOnce(context.Background(), "weather_collection"); err != nil {
		t.Fatalf("manual trigger failed: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected one invocation, got %d", job.runs)
	}
}

func TestRunOnceUnknownJob(t *testing.T) {
	s := New()
	defer s.Stop()

	err := s.RunOnce(context.Background(), "missing")
	if !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
}

func TestJobNames(t *testing.T) {
	s := New()
	defer s.Stop()

	if err := s.RegisterPeriodic(&fakeJob{name: "a"}, time.Hour); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.RegisterPeriodic(&fakeJob{name: "b"}, time.Hour); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	names := s.JobNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 registered jobs, got %v", names)
	}
}
