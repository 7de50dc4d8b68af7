package validate

import (
	"fmt"
	"sort"
	"sync"
)

// Arena is a per-package table of object validators. Generated packages
// register every object once with Define and express references that would
// otherwise form an initialization cycle through Lazy, which looks the
// target up by name on first use.
type Arena struct {
	name string

	mu      sync.RWMutex
	objects map[string]*ObjectSchema
}

// NewArena returns an empty arena. The name is used in messages only.
func NewArena(name string) *Arena {
	return &Arena{name: name, objects: make(map[string]*ObjectSchema)}
}

// Define registers o under name and returns it. Defining a name twice is a
// programming error and panics.
func (a *Arena) Define(name string, o *ObjectSchema) *ObjectSchema {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[name]; ok {
		panic(fmt.Sprintf("validate: %s: object %q defined twice", a.name, name))
	}
	a.objects[name] = o
	return o
}

// Lookup returns the object registered under name.
func (a *Arena) Lookup(name string) (*ObjectSchema, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	o, ok := a.objects[name]
	return o, ok
}

// Names returns the registered names in sorted order.
func (a *Arena) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.objects))
	for n := range a.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lazy returns a schema that resolves name in the arena when it is first
// used. Validating against an unresolved name reports CodeUnresolved.
func (a *Arena) Lazy(name string) Schema {
	return &lazySchema{arena: a, name: name}
}

type lazySchema struct {
	arena *Arena
	name  string

	once   sync.Once
	target *ObjectSchema
}

func (l *lazySchema) resolve() *ObjectSchema {
	l.once.Do(func() {
		l.target, _ = l.arena.Lookup(l.name)
	})
	return l.target
}

// Kind implements Schema.
func (l *lazySchema) Kind() string { return "object " + l.name }

func (l *lazySchema) check(v any, p path, is *Issues) {
	o := l.resolve()
	if o == nil {
		is.add(p, CodeUnresolved, "object %q is not defined in %s", l.name, l.arena.name)
		return
	}
	o.check(v, p, is)
}
