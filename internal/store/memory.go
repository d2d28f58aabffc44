package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryBackend is a concurrency-safe in-memory blob backend, used in tests
// and for ephemeral deployments where durability does not matter.
type MemoryBackend struct {
	mu sync.RWMutex

	// key: blob key, value: stored bytes
	blobs map[string][]byte
	mods  map[string]time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		blobs: make(map[string][]byte),
		mods:  make(map[string]time.Time),
	}
}

func (b *MemoryBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *MemoryBackend) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	b.blobs[key] = stored
	b.mods[key] = time.Now().UTC()
	return nil
}

func (b *MemoryBackend) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var infos []BlobInfo
	for key, data := range b.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, BlobInfo{
			Key:          key,
			SizeBytes:    int64(len(data)),
			LastModified: b.mods[key],
		})
	}
	return infos, nil
}

func (b *MemoryBackend) Close() error { return nil }
