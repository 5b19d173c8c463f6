// Package registry maps short opaque identifiers to registered tables. A Registry is
// owned by one session; every method is safe for concurrent use and all of them share
// a single lock.
package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
)

var (
	logger = gologger.NewLogger()

	ErrNotFound = errors.New("table not found")
)

type (
	Entry struct {
		ID    string
		Table *table.Table
		// DisplayName is advisory, used only to write edits back to the caller's binding
		DisplayName string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	CleanupResult struct {
		Removed   int `json:"removed"`
		Remaining int `json:"remaining"`
	}

	Registry struct {
		mu      sync.Mutex
		entries map[string]*Entry
		// ever holds every id minted so an id is never handed out twice
		ever  map[string]struct{}
		now   func() time.Time
		genID func() string
	}

	Option func(*Registry)
)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator overrides the nanoid generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.genID = gen
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		ever:    make(map[string]struct{}),
		now:     time.Now,
		genID:   utils.GenRandomShortID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores t under a freshly minted id and returns the id.
func (r *Registry) Register(t *table.Table, displayName string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.genID()
	for _, taken := r.ever[id]; taken; _, taken = r.ever[id] {
		id = r.genID()
	}
	r.ever[id] = struct{}{}

	now := r.now()
	r.entries[id] = &Entry{
		ID:          id,
		Table:       t,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	logger.Debug().Str("dfId", id).Str("variableName", displayName).Int("rows", t.NumRows()).Msg("registered table")
	return id
}

func (r *Registry) Lookup(id string) (*table.Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.Table, true
}

// DisplayName returns the entry's display name, empty if unset or absent.
func (r *Registry) DisplayName(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.DisplayName
	}
	return ""
}

// Replace overwrites the table stored under id. Absent ids are ignored.
func (r *Registry) Replace(id string, t *table.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.Table = t
		e.UpdatedAt = r.now()
	}
}

// Update runs fn under the registry lock with a snapshot of the entry. The table fn
// returns is stored only when fn succeeds, so a failed update leaves the entry as it
// was. The committed entry is returned.
func (r *Registry) Update(id string, fn func(e Entry) (*table.Table, error)) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	next, err := fn(*e)
	if err != nil {
		return *e, err
	}
	e.Table = next
	e.UpdatedAt = r.now()
	return *e, nil
}

// View runs fn under the registry lock. It reports false when id is absent.
func (r *Registry) View(id string, fn func(e Entry)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	fn(*e)
	return true
}

// ClearAll removes every entry.
func (r *Registry) ClearAll() CleanupResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := len(r.entries)
	r.entries = make(map[string]*Entry)
	return CleanupResult{Removed: removed, Remaining: 0}
}

// Sweep removes entries not updated within maxAge. A maxAge of zero or less clears
// everything.
func (r *Registry) Sweep(maxAge time.Duration) CleanupResult {
	if maxAge <= 0 {
		return r.ClearAll()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, e := range r.entries {
		if e.UpdatedAt.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug().Int("removed", removed).Dur("maxAge", maxAge).Msg("swept registry")
	}
	return CleanupResult{Removed: removed, Remaining: len(r.entries)}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs returns the registered ids sorted by creation time.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
