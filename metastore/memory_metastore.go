package metastore

import (
	"context"
	"sort"
	"sync"

	"github.com/danthegoodman1/dfgrid/part"
)

// MemoryMetaStore keeps the catalog for the life of the process.
type MemoryMetaStore struct {
	mu    sync.RWMutex
	parts map[string][]part.Part
}

func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{parts: make(map[string][]part.Part)}
}

func memoryKey(sessionID, dfID string) string {
	return sessionID + "/" + dfID
}

func (mms *MemoryMetaStore) RecordParts(_ context.Context, sessionID, dfID string, parts []part.Part) error {
	mms.mu.Lock()
	defer mms.mu.Unlock()
	key := memoryKey(sessionID, dfID)
	mms.parts[key] = append(mms.parts[key], parts...)
	return nil
}

func (mms *MemoryMetaStore) ListParts(_ context.Context, sessionID, dfID string) ([]part.Part, error) {
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	stored := mms.parts[memoryKey(sessionID, dfID)]
	out := make([]part.Part, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (mms *MemoryMetaStore) Shutdown(context.Context) error {
	return nil
}
