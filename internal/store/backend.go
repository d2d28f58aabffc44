package store

import (
	"context"
	"time"
)

// BlobInfo describes one stored blob, used for storage inventories and
// freshness checks.
type BlobInfo struct {
	Key          string    `json:"key"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// Backend abstracts blob persistence so the merge/dedupe/range logic is
// written once. Read returns ErrNotFound when the key does not exist and
// wraps any other failure in ErrStoreUnavailable. Write must replace the
// blob atomically: a reader never observes a truncated version.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Close() error
}
