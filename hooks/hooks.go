// Package hooks provides typed event registries with priority ordering.
// Handlers run synchronously on the emitting goroutine.
package hooks

import (
	"fmt"
	"log"
	"reflect"
	"runtime"
	"sort"
	"sync"
)

// Hook handles one event. A returned error is logged and reported by Emit
// but does not stop the remaining hooks.
type Hook[T any] func(event T) error

// HookInfo stores information about a registered hook including its priority
type HookInfo[T any] struct {
	ID       int     // Handle returned by Subscribe, used to unsubscribe
	Name     string  // Name of the hook function
	Hook     Hook[T] // The hook function itself
	Priority int64   // Lower values run first, like Unix nice
}

// Registry manages the subscribers of one event type
type Registry[T any] struct {
	mu     sync.RWMutex
	hooks  []HookInfo[T]
	nextID int
}

// NewRegistry creates a new hook registry for the given event type
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		hooks: make([]HookInfo[T], 0),
	}
}

// Subscribe adds a hook with default priority (0) and returns its handle
func (r *Registry[T]) Subscribe(hook Hook[T]) int {
	return r.SubscribeWithPriority(hook, 0)
}

// SubscribeWithPriority adds a hook with the specified priority. Hooks with
// equal priority run in subscription order.
func (r *Registry[T]) SubscribeWithPriority(hook Hook[T], priority int64) int {
	name := runtime.FuncForPC(reflect.ValueOf(hook).Pointer()).Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.hooks = append(r.hooks, HookInfo[T]{
		ID:       r.nextID,
		Name:     name,
		Hook:     hook,
		Priority: priority,
	})
	sort.SliceStable(r.hooks, func(i, j int) bool {
		return r.hooks[i].Priority < r.hooks[j].Priority
	})
	return r.nextID
}

// Unsubscribe removes the hook with the given handle
func (r *Registry[T]) Unsubscribe(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, info := range r.hooks {
		if info.ID == id {
			r.hooks = append(r.hooks[:i], r.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// Emit runs every hook with event in priority order. A panicking hook is
// recovered and reported like an error. It returns nil when all hooks
// succeeded, otherwise the errors keyed by hook handle.
func (r *Registry[T]) Emit(event T) map[int]error {
	r.mu.RLock()
	// Copy so hooks may subscribe or unsubscribe while running
	hooks := make([]HookInfo[T], len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()

	var hookErrors map[int]error
	for _, info := range hooks {
		if err := call(info, event); err != nil {
			if hookErrors == nil {
				hookErrors = make(map[int]error)
			}
			hookErrors[info.ID] = err
			log.Printf("ERROR in hook %s: %v", info.Name, err)
		}
	}
	return hookErrors
}

func call[T any](info HookInfo[T], event T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in hook %s: %v", info.Name, r)
			err = fmt.Errorf("panic in hook %s: %v", info.Name, r)
		}
	}()
	return info.Hook(event)
}

// Clear removes all hooks from the registry
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = make([]HookInfo[T], 0)
}

// Count returns the number of registered hooks
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.hooks)
}
