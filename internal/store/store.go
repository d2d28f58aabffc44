package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Record is anything the store can persist into a day partition.
type Record interface {
	// RecordID is the identity key for merge-on-write deduplication.
	RecordID() string
	// PartitionTime selects the UTC calendar day the record belongs to.
	PartitionTime() time.Time
}

// Descriptor summarizes one record-kind namespace: how many partitions and
// records exist, their total size, and when the namespace was last written.
// Computed on demand, never persisted.
type Descriptor struct {
	Kind           string     `json:"kind"`
	FileCount      int        `json:"file_count"`
	RecordCount    int        `json:"record_count"`
	TotalSizeBytes int64      `json:"total_size_bytes"`
	SizeMB         float64    `json:"size_mb"`
	LatestModified *time.Time `json:"latest_modified"`
}

// Store maps (kind, calendar day) to a partition blob and owns the
// merge/dedupe policy. Partition writes are a full load-modify-rewrite, so
// concurrent appends to the same partition serialize on a per-partition
// mutex; the backend's atomic replace keeps concurrent readers on a valid
// complete version.
type Store[T Record] struct {
	backend Backend
	kind    string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a store for one record kind on top of the given backend.
func New[T Record](backend Backend, kind string) *Store[T] {
	return &Store[T]{
		backend: backend,
		kind:    kind,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Kind returns the record-kind namespace this store persists.
func (s *Store[T]) Kind() string { return s.kind }

func (s *Store[T]) partitionKey(t time.Time) string {
	return fmt.Sprintf("%s_%s.json", s.kind, t.UTC().Format("20060102"))
}

func (s *Store[T]) latestKey() string {
	return s.kind + "_latest.json"
}

func (s *Store[T]) partitionLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// loadPartition reads and decodes one partition. Absent partitions yield an
// empty slice. A corrupt partition degrades to empty with a warning so one
// bad blob cannot take down queries over the rest of the history.
func (s *Store[T]) loadPartition(ctx context.Context, key string) ([]T, error) {
	data, err := s.backend.Read(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}

	records, err := Decode[T](data)
	if err != nil {
		if errors.Is(err, ErrCorruptPartition) {
			log.Printf("WARN: treating corrupt partition %s as empty: %v", key, err)
			return []T{}, nil
		}
		return nil, err
	}
	return records, nil
}

// Append merges the record into its day partition by identity key: an entry
// with the same id is replaced in place, otherwise the record is added. The
// full partition is re-encoded and atomically replaced. After Append returns,
// a LoadRange covering that day sees the record exactly once.
func (s *Store[T]) Append(ctx context.Context, rec T) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	key := s.partitionKey(rec.PartitionTime())

	lock := s.partitionLock(key)
	lock.Lock()
	defer lock.Unlock()

	records, err := s.loadPartition(ctx, key)
	if err != nil {
		return err
	}

	replaced := false
	for i := range records {
		if records[i].RecordID() == rec.RecordID() {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	data, err := Encode(records)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, key, data); err != nil {
		return err
	}

	// Convenience mirror of the most recent write; non-authoritative, so a
	// failure here does not fail the append.
	if snap, err := json.MarshalIndent(rec, "", "  "); err == nil {
		if err := s.backend.Write(ctx, s.latestKey(), snap); err != nil {
			log.Printf("WARN: failed to update %s: %v", s.latestKey(), err)
		}
	}
	return nil
}

// LoadRange concatenates every existing partition in the inclusive day range.
// Missing days contribute nothing. The result is an unordered union; callers
// sort as needed.
func (s *Store[T]) LoadRange(ctx context.Context, from, to time.Time) ([]T, error) {
	fromDay := truncateDay(from)
	toDay := truncateDay(to)
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalidQuery)
	}

	var all []T
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		records, err := s.loadPartition(ctx, s.partitionKey(day))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// Query returns the last N days of records sorted by partition time with id
// as tiebreak. Day boundaries are UTC; to guarantee full 24h-per-day
// coverage across the current day boundary, N+1 partitions are scanned and
// the result post-filtered by exact timestamp.
func (s *Store[T]) Query(ctx context.Context, days int, descending bool) ([]T, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be >= 1", ErrInvalidQuery)
	}

	now := time.Now().UTC()
	all, err := s.LoadRange(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	filtered := all[:0]
	for _, rec := range all {
		if !rec.PartitionTime().Before(cutoff) {
			filtered = append(filtered, rec)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		ti, tj := filtered[i].PartitionTime(), filtered[j].PartitionTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return filtered[i].RecordID() < filtered[j].RecordID()
	})

	if descending {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}
	return filtered, nil
}

// Latest returns the most recently appended record from the snapshot mirror.
func (s *Store[T]) Latest(ctx context.Context) (T, error) {
	var rec T

	data, err := s.backend.Read(ctx, s.latestKey())
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrCorruptPartition, err)
	}
	return rec, nil
}

// Info computes the namespace descriptor from the backend listing plus
// per-partition record counts.
func (s *Store[T]) Info(ctx context.Context) (Descriptor, error) {
	infos, err := s.backend.List(ctx, s.kind+"_")
	if err != nil {
		return Descriptor{}, err
	}

	desc := Descriptor{Kind: s.kind}
	for _, info := range infos {
		if info.Key == s.latestKey() {
			continue
		}
		desc.FileCount++
		desc.TotalSizeBytes += info.SizeBytes

		if desc.LatestModified == nil || info.LastModified.After(*desc.LatestModified) {
			mod := info.LastModified
			desc.LatestModified = &mod
		}

		data, err := s.backend.Read(ctx, info.Key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return Descriptor{}, err
		}
		rows, err := decodeRows(data)
		if err != nil {
			log.Printf("WARN: skipping corrupt partition %s in info scan: %v", info.Key, err)
			continue
		}
		desc.RecordCount += len(rows)
	}

	desc.SizeMB = math.Round(float64(desc.TotalSizeBytes)/(1024*1024)*100) / 100
	return desc, nil
}

// SampleRows decodes up to maxPartitions of the most recent partitions into
// untyped rows for data-quality sampling.
func (s *Store[T]) SampleRows(ctx context.Context, maxPartitions int) ([]map[string]any, error) {
	infos, err := s.backend.List(ctx, s.kind+"_")
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Key == s.latestKey() {
			continue
		}
		keys = append(keys, info.Key)
	}
	// Partition keys embed YYYYMMDD, so lexicographic order is date order.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var rows []map[string]any
	for i, key := range keys {
		if maxPartitions > 0 && i >= maxPartitions {
			break
		}
		data, err := s.backend.Read(ctx, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		partRows, err := decodeRows(data)
		if err != nil {
			log.Printf("WARN: skipping corrupt partition %s in quality sample: %v", key, err)
			continue
		}
		rows = append(rows, partRows...)
	}
	return rows, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
