package fnboot

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// slotKey identifies one scoped registration: the service key plus the index
// of the registration under that key.
type slotKey struct {
	Type  reflect.Type
	Index int
}

type scopeEntry struct {
	cell     instanceCell
	owned    bool // created by the scope, as opposed to seeded with Put
	disposed bool
}

// Scope holds the scoped instances of one unit of work, typically a single
// trigger invocation. Instances are created lazily on first resolution and
// released by DisposeScope or DisposeScopeSync.
//
// A Scope is never shared between invocations. Its methods are safe for
// concurrent use by the goroutines of the invocation that owns it.
type Scope struct {
	id string

	mu       sync.Mutex
	entries  map[slotKey]*scopeEntry
	order    []slotKey
	disposed bool
}

// ID returns the unique identifier of the scope.
func (s *Scope) ID() string {
	return s.id
}

// Len returns the number of instances held by the scope.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Values returns the instances held by the scope in creation order. Disposal
// does not remove entries, so a disposed scope still reports them.
func (s *Scope) Values() []any {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]any, 0, len(s.order))
	for _, slot := range s.order {
		values = append(values, s.entries[slot].cell.value)
	}
	return values
}

// seededIndex is the slot index of values seeded with Put. Registrations use
// indexes from zero, so a seeded value never shares a cell with one.
const seededIndex = -1

// Put seeds the scope with value for key. Resolving key in this scope then
// returns value when key has no registration. Seeded values belong to the
// caller and are not disposed with the scope. Seeding a key again replaces
// the previous value.
func (s *Scope) Put(key reflect.Type, value any) error {
	if key == nil {
		return newValidationError(nil, ErrServiceKeyNil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrScopeDisposed
	}

	slot := slotKey{Type: key, Index: seededIndex}
	entry, ok := s.entries[slot]
	if !ok {
		entry = &scopeEntry{}
		s.entries[slot] = entry
		s.order = append(s.order, slot)
	}
	entry.cell.set(value)
	return nil
}

// Lookup returns the value seeded for key or, failing that, the instance held
// for the first registration of key. It never creates instances.
func (s *Scope) Lookup(key reflect.Type) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, index := range [...]int{seededIndex, 0} {
		entry, ok := s.entries[slotKey{Type: key, Index: index}]
		if ok && entry.cell.ready.Load() {
			return entry.cell.value, true
		}
	}
	return nil, false
}

// seeded returns the value seeded for key with Put.
func (s *Scope) seeded(key reflect.Type) (any, bool) {
	s.mu.Lock()
	entry, ok := s.entries[slotKey{Type: key, Index: seededIndex}]
	s.mu.Unlock()

	if !ok || !entry.cell.ready.Load() {
		return nil, false
	}
	return entry.cell.value, true
}

// IsDisposed reports whether the scope has been disposed.
func (s *Scope) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// load returns the instance in slot, creating it at most once.
func (s *Scope) load(ctx context.Context, slot slotKey, create Factory) (any, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ResolutionError{ServiceType: slot.Type, Cause: ErrScopeDisposed}
	}

	entry, ok := s.entries[slot]
	if !ok {
		entry = &scopeEntry{}
		s.entries[slot] = entry
	}
	s.mu.Unlock()

	// The scope lock is not held during construction: the factory may
	// resolve other scoped services from this scope.
	value, created, err := entry.cell.load(ctx, create)
	if err != nil {
		return nil, err
	}

	if !created {
		return value, nil
	}

	s.mu.Lock()
	entry.owned = true
	s.order = append(s.order, slot)
	late := s.disposed
	if late {
		entry.disposed = true
	}
	s.mu.Unlock()

	// The scope was disposed while value was being built. Nothing else will
	// release it, so it is disposed here and not handed out.
	if late {
		if _, derr := dispose(context.WithoutCancel(ctx), value); derr != nil {
			return nil, ResolutionError{ServiceType: slot.Type, Cause: errors.Join(ErrScopeDisposed, derr)}
		}
		return nil, ResolutionError{ServiceType: slot.Type, Cause: ErrScopeDisposed}
	}

	return value, nil
}

// takeUndisposed marks the scope disposed and returns the owned instances
// accepted by take that were not disposed yet, newest first. Those instances
// are marked disposed.
func (s *Scope) takeUndisposed(take func(any) bool) []any {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disposed = true

	var values []any
	for i := len(s.order) - 1; i >= 0; i-- {
		entry := s.entries[s.order[i]]
		if !entry.owned || entry.disposed || !take(entry.cell.value) {
			continue
		}

		entry.disposed = true
		values = append(values, entry.cell.value)
	}
	return values
}

// pending returns the owned instances not disposed yet, newest first.
func (s *Scope) pending() []any {
	s.mu.Lock()
	defer s.mu.Unlock()

	var values []any
	for i := len(s.order) - 1; i >= 0; i-- {
		entry := s.entries[s.order[i]]
		if entry.owned && !entry.disposed {
			values = append(values, entry.cell.value)
		}
	}
	return values
}

func newScope() *Scope {
	return &Scope{
		id:      uuid.NewString(),
		entries: make(map[slotKey]*scopeEntry),
	}
}
