// Package session ties one client's registry, variable scope, editor and formatter
// together. A registry never outlives its session.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danthegoodman1/dfgrid/editor"
	"github.com/danthegoodman1/dfgrid/formatter"
	"github.com/danthegoodman1/dfgrid/gologger"
	"github.com/danthegoodman1/dfgrid/namespace"
	"github.com/danthegoodman1/dfgrid/registry"
	"github.com/danthegoodman1/dfgrid/table"
	"github.com/danthegoodman1/dfgrid/utils"
	"github.com/rs/zerolog"
)

var (
	logger = gologger.NewLogger()

	ErrVariableNotFound = errors.New("variable not found")
)

type (
	Session struct {
		ID        string
		CreatedAt time.Time
		Registry  *registry.Registry
		Namespace *namespace.Namespace
		Editor    *editor.Editor
		Formatter *formatter.Formatter

		lastSeen atomic.Int64
	}

	// VarInfo summarizes one bound variable.
	VarInfo struct {
		Name      string             `json:"name"`
		TotalRows int                `json:"totalRows"`
		Columns   []table.ColumnInfo `json:"columns"`
	}

	SweepResult struct {
		SessionsRemoved int `json:"sessionsRemoved"`
		EntriesRemoved  int `json:"entriesRemoved"`
	}

	Manager struct {
		mu              sync.Mutex
		sessions        map[string]*Session
		defaultPageSize int
		now             func() time.Time
	}
)

func newSession(id string, defaultPageSize int, now func() time.Time) *Session {
	reg := registry.New(registry.WithClock(now))
	ns := namespace.New()
	s := &Session{
		ID:        id,
		CreatedAt: now(),
		Registry:  reg,
		Namespace: ns,
		Editor:    editor.New(reg, ns),
		Formatter: formatter.New(reg, ns, defaultPageSize),
	}
	s.lastSeen.Store(s.CreatedAt.UnixNano())
	return s
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Load binds t to name and returns its display payload.
func (s *Session) Load(name string, t *table.Table, page, pageSize int) formatter.Display {
	s.Namespace.Set(name, t)
	return s.Formatter.Format(t, name, page, pageSize)
}

// Display formats whatever is currently bound to name under a fresh id.
func (s *Session) Display(name string, page, pageSize int) (formatter.Display, error) {
	t, ok := s.Namespace.Get(name)
	if !ok {
		return formatter.Display{}, ErrVariableNotFound
	}
	return s.Formatter.Format(t, name, page, pageSize), nil
}

// Vars describes every bound variable, sorted by name.
func (s *Session) Vars() []VarInfo {
	names := s.Namespace.Names()
	infos := make([]VarInfo, 0, len(names))
	for _, name := range names {
		t, ok := s.Namespace.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, VarInfo{
			Name:      name,
			TotalRows: t.NumRows(),
			Columns:   table.DescribeColumns(t),
		})
	}
	return infos
}

type ManagerOption func(*Manager)

func WithDefaultPageSize(n int) ManagerOption {
	return func(m *Manager) {
		m.defaultPageSize = n
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := utils.GenRandomID("ses_")
	for _, exists := m.sessions[id]; exists; _, exists = m.sessions[id] {
		id = utils.GenRandomID("ses_")
	}
	s := newSession(id, m.defaultPageSize, m.now)
	m.sessions[id] = s
	logger.Debug().Str("sessionID", id).Msg("created session")
	return s
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen.Store(m.now().UnixNano())
	return s, true
}

// Delete drops a session together with its registry.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.Registry.ClearAll()
	delete(m.sessions, id)
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// IDs returns the live session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sweep drops sessions idle for longer than idleTTL, then removes registry entries
// older than entryMaxAge from the sessions that remain. A non-positive duration
// disables that half of the sweep.
func (m *Manager) Sweep(idleTTL, entryMaxAge time.Duration) SweepResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res SweepResult
	now := m.now()
	for id, s := range m.sessions {
		if idleTTL > 0 && now.Sub(s.LastSeen()) > idleTTL {
			res.EntriesRemoved += s.Registry.ClearAll().Removed
			delete(m.sessions, id)
			res.SessionsRemoved++
			continue
		}
		if entryMaxAge > 0 {
			res.EntriesRemoved += s.Registry.Sweep(entryMaxAge).Removed
		}
	}
	return res
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, idleTTL, entryMaxAge time.Duration) {
	logger := zerolog.Ctx(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			res := m.Sweep(idleTTL, entryMaxAge)
			if res.SessionsRemoved > 0 || res.EntriesRemoved > 0 {
				logger.Info().Int("sessionsRemoved", res.SessionsRemoved).Int("entriesRemoved", res.EntriesRemoved).Msg("swept sessions")
			}
		}
	}
}
