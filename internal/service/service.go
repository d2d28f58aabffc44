// Package service is the facade the HTTP layer calls into: metrics,
// paginated history, manual triggers, and storage inventory.
package service

import (
	"context"

	"github.com/i474232898/datalake-native/internal/metrics"
	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/scheduler"
	"github.com/i474232898/datalake-native/internal/store"
)

// Window defaults: job history is queried a week back, weather two days.
const (
	JobHistoryDays     = 7
	WeatherHistoryDays = 2
	RollupWindowDays   = 30
)

// StorageInfo is the per-kind inventory of persisted partitions.
type StorageInfo struct {
	Kinds        []store.Descriptor `json:"kinds"`
	TotalFiles   int                `json:"total_files"`
	TotalRecords int                `json:"total_records"`
}

// Service wires the stores, the metrics engine, and the scheduler together.
type Service struct {
	runs    *store.Store[record.RunRecord]
	weather *store.Store[record.WeatherReading]
	engine  *metrics.Engine
	sched   *scheduler.Scheduler
}

// New creates the service facade.
func New(runs *store.Store[record.RunRecord], weather *store.Store[record.WeatherReading], engine *metrics.Engine, sched *scheduler.Scheduler) *Service {
	return &Service{
		runs:    runs,
		weather: weather,
		engine:  engine,
		sched:   sched,
	}
}

// GetMetrics computes the job-run rollup over the default window.
func (s *Service) GetMetrics(ctx context.Context) (metrics.Rollup, error) {
	return s.engine.ComputeRollup(ctx, RollupWindowDays)
}

// GetJobs returns one page of run history, most recent first.
func (s *Service) GetJobs(ctx context.Context, page, pageSize int) (store.Page[record.RunRecord], error) {
	runs, err := s.runs.Query(ctx, JobHistoryDays, true)
	if err != nil {
		return store.Page[record.RunRecord]{}, err
	}
	return store.Paginate(runs, page, pageSize)
}

// GetWeather returns one page of weather history, most recent first.
func (s *Service) GetWeather(ctx context.Context, page, pageSize int) (store.Page[record.WeatherReading], error) {
	readings, err := s.weather.Query(ctx, WeatherHistoryDays, true)
	if err != nil {
		return store.Page[record.WeatherReading]{}, err
	}
	return store.Paginate(readings, page, pageSize)
}

// GetLatestWeather returns the most recently collected reading.
func (s *Service) GetLatestWeather(ctx context.Context) (record.WeatherReading, error) {
	return s.weather.Latest(ctx)
}

// TriggerCollection runs the named job immediately. A nil return means the
// trigger was accepted and the run completed its bookkeeping; the caller
// distinguishes scheduler.ErrUnknownJob and runner.ErrAlreadyRunning.
func (s *Service) TriggerCollection(ctx context.Context, jobName string) error {
	return s.sched.RunOnce(ctx, jobName)
}

// GetStorageInfo summarizes every record-kind namespace.
func (s *Service) GetStorageInfo(ctx context.Context) (StorageInfo, error) {
	runsDesc, err := s.runs.Info(ctx)
	if err != nil {
		return StorageInfo{}, err
	}
	weatherDesc, err := s.weather.Info(ctx)
	if err != nil {
		return StorageInfo{}, err
	}

	var info StorageInfo
	for _, desc := range []store.Descriptor{runsDesc, weatherDesc} {
		info.Kinds = append(info.Kinds, desc)
		info.TotalFiles += desc.FileCount
		info.TotalRecords += desc.RecordCount
	}
	return info, nil
}

// CheckHealth runs the full data-quality health report.
func (s *Service) CheckHealth(ctx context.Context) (metrics.HealthReport, error) {
	return s.engine.CheckHealth(ctx)
}
