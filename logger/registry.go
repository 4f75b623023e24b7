package logger

import (
	"sync"
)

// components caches one logger per component name. Init clears it so the
// next Get picks up the new configuration.
var components = &componentLoggers{byName: make(map[string]*Logger)}

type componentLoggers struct {
	mu     sync.RWMutex
	byName map[string]*Logger
}

// Register pins l as the logger Get returns for name.
func Register(name string, l *Logger) {
	components.mu.Lock()
	defer components.mu.Unlock()
	components.byName[name] = l
}

// Get returns the logger of a component. An unknown name is derived from
// the global logger and cached.
func Get(name string) *Logger {
	components.mu.RLock()
	l, ok := components.byName[name]
	components.mu.RUnlock()
	if ok {
		return l
	}

	components.mu.Lock()
	defer components.mu.Unlock()
	if l, ok := components.byName[name]; ok {
		return l
	}
	l = GetGlobalLogger().WithComponent(name)
	components.byName[name] = l
	return l
}

// RegisterDefaults derives a logger for each name from base, replacing any
// cached one. A nil base means the global logger.
func RegisterDefaults(base *Logger, names ...string) {
	if base == nil {
		base = GetGlobalLogger()
	}
	components.mu.Lock()
	defer components.mu.Unlock()
	for _, name := range names {
		components.byName[name] = base.WithComponent(name)
	}
}

// Named returns l tagged with name, or the component logger for name when
// l is nil. Constructors use it for their optional logger argument.
func Named(l *Logger, name string) *Logger {
	if l == nil {
		return Get(name)
	}
	return l.WithComponent(name)
}

func resetComponents() {
	components.mu.Lock()
	defer components.mu.Unlock()
	clear(components.byName)
}
