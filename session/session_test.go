package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/danthegoodman1/dfgrid/table"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func sample(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewColumn("city", "object", []any{"Oslo", "Lima"}),
		table.NewColumn("pop", "int64", []any{int64(700000), int64(10000000)}),
	)
	require.NoError(t, err)
	return tbl
}

func TestEditsRebindTheVariable(t *testing.T) {
	m := NewManager()
	s := m.Create()

	d := s.Load("cities", sample(t), 0, 0)
	require.Equal(t, "cities", d.VariableName)
	require.Equal(t, 25, d.Pagination.PageSize)

	res := s.Editor.AddRow(d.DFID, map[string]any{"city": "Quito", "pop": "2800000"})
	require.True(t, res.Success, res.Error)

	bound, ok := s.Namespace.Get("cities")
	require.True(t, ok)
	stored, _ := s.Registry.Lookup(d.DFID)
	require.Same(t, stored, bound)
	require.Equal(t, 3, bound.NumRows())

	again, err := s.Display("cities", 0, 0)
	require.NoError(t, err)
	require.Equal(t, 3, again.TotalRows)
	require.NotEqual(t, d.DFID, again.DFID)

	_, err = s.Display("nope", 0, 0)
	require.ErrorIs(t, err, ErrVariableNotFound)

	vars := s.Vars()
	require.Len(t, vars, 1)
	require.Equal(t, "cities", vars[0].Name)
	require.Equal(t, 3, vars[0].TotalRows)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager()
	a := m.Create()
	b := m.Create()
	require.NotEqual(t, a.ID, b.ID)

	d := a.Load("df", sample(t), 0, 0)
	res := b.Editor.DeleteRow(d.DFID, 0)
	require.False(t, res.Success)
	require.Equal(t, "DataFrame not found: "+d.DFID, res.Error)
}

func TestGetAndDelete(t *testing.T) {
	m := NewManager()
	s := m.Create()

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	require.Same(t, s, got)

	s.Load("df", sample(t), 0, 0)
	require.True(t, m.Delete(s.ID))
	require.Equal(t, 0, s.Registry.Len())
	_, ok = m.Get(s.ID)
	require.False(t, ok)
	require.False(t, m.Delete(s.ID))
}

func TestSweep(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(WithClock(c.Now))

	idle := m.Create()
	idle.Load("df", sample(t), 0, 0)
	active := m.Create()
	stale := active.Load("old", sample(t), 0, 0)

	c.Advance(40 * time.Minute)
	_, ok := m.Get(active.ID)
	require.True(t, ok)
	fresh := active.Load("new", sample(t), 0, 0)

	c.Advance(25 * time.Minute)
	res := m.Sweep(time.Hour, 30*time.Minute)
	require.Equal(t, SweepResult{SessionsRemoved: 1, EntriesRemoved: 2}, res)
	require.Equal(t, []string{active.ID}, m.IDs())

	_, ok = active.Registry.Lookup(stale.DFID)
	require.False(t, ok)
	_, ok = active.Registry.Lookup(fresh.DFID)
	require.True(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond, time.Hour, time.Hour)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
