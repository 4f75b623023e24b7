package models

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kbukum/ollamacmd/feedback"
)

// DefaultTag is the tag ollama assumes when a model name has none.
const DefaultTag = "latest"

// Registry holds the cached model list and the current model.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names []string
	index map[string]struct{}

	current atomic.Pointer[string]
}

// NewRegistry creates a Registry seeded with names.
func NewRegistry(names ...string) *Registry {
	r := &Registry{}
	r.SetModels(names)
	return r
}

// SetModels replaces the cached list. Blank and duplicate names are dropped;
// order is preserved.
func (r *Registry) SetModels(names []string) {
	list := make([]string, 0, len(names))
	index := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := index[n]; dup {
			continue
		}
		index[n] = struct{}{}
		list = append(list, n)
	}

	r.mu.Lock()
	r.names = list
	r.index = index
	r.mu.Unlock()
}

// Models returns a copy of the cached list.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of cached models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// IsValid reports whether name is a cached model. A bare name also matches
// its ":latest" form.
func (r *Registry) IsValid(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.index[name]; ok {
		return true
	}
	if !strings.Contains(name, ":") {
		_, ok := r.index[name+":"+DefaultTag]
		return ok
	}
	return false
}

// Current returns the selected model, if any.
func (r *Registry) Current() (string, bool) {
	p := r.current.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetCurrent sets the selected model without validation.
func (r *Registry) SetCurrent(name string) {
	r.current.Store(&name)
}

// Select validates name against the cache. A known name becomes the current
// model; an unknown name emits the not-found message and leaves the current
// model untouched.
func (r *Registry) Select(name string, sink feedback.Sink) bool {
	name = strings.TrimSpace(name)
	if !r.IsValid(name) {
		if sink != nil {
			sink.Emit(feedback.Final(feedback.KeyModelNotFound, name))
		}
		return false
	}
	r.SetCurrent(name)
	return true
}

// Suggest returns cached names starting with prefix (case-insensitive).
// Entries that are error message keys are never suggested.
func (r *Registry) Suggest(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, n := range r.names {
		if strings.HasPrefix(n, feedback.ErrorKeyPrefix) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(n), prefix) {
			out = append(out, n)
		}
	}
	return out
}
