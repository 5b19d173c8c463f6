// Package namespace is a variable scope binding names to tables. It is the Binder
// the editor and formatter write edits back through.
package namespace

import (
	"sort"
	"strings"
	"sync"

	"github.com/danthegoodman1/dfgrid/table"
)

type Namespace struct {
	mu   sync.RWMutex
	vars map[string]*table.Table
}

func New() *Namespace {
	return &Namespace{
		vars: make(map[string]*table.Table),
	}
}

func (n *Namespace) Set(name string, t *table.Table) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vars[name] = t
}

func (n *Namespace) Get(name string) (*table.Table, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	t, ok := n.vars[name]
	return t, ok
}

// Delete unbinds name and reports whether it was bound.
func (n *Namespace) Delete(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.vars[name]
	delete(n.vars, name)
	return ok
}

// Names returns the bound names in sorted order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.vars))
	for name := range n.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveDisplayName returns the first name, in sorted order, bound to this exact
// table. Names starting with an underscore are private and never returned.
func (n *Namespace) ResolveDisplayName(t *table.Table) string {
	for _, name := range n.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if bound, ok := n.Get(name); ok && bound == t {
			return name
		}
	}
	return ""
}

// Rebind points name at t. An empty name is ignored.
func (n *Namespace) Rebind(name string, t *table.Table) {
	if name == "" {
		return
	}
	n.Set(name, t)
}
