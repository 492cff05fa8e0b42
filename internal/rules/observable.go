package rules

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// observable is the single authoritative in-memory copy of one rule
// collection. Readers get copies; writers go through mutate, which persists
// before committing so a failed save leaves memory untouched.
type observable[R any] struct {
	listeners    map[int]func([]R)
	rules        []R
	nextListener int
	mu           sync.RWMutex
	writeMu      sync.Mutex
}

func newObservable[R any]() *observable[R] {
	return &observable[R]{listeners: make(map[int]func([]R))}
}

func (o *observable[R]) snapshot() []R {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.rules)
}

func (o *observable[R]) subscribe(fn func([]R)) func() {
	o.mu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// commit replaces the collection and notifies subscribers outside the lock.
func (o *observable[R]) commit(rules []R) {
	o.mu.Lock()
	o.rules = slices.Clone(rules)
	listeners := make([]func([]R), 0, len(o.listeners))
	for _, fn := range o.listeners {
		listeners = append(listeners, fn)
	}
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(slices.Clone(rules))
	}
}

func (o *observable[R]) mutate(ctx context.Context, change func([]R) ([]R, error), save func(context.Context, []R) error) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	next, err := change(o.snapshot())
	if err != nil {
		return err
	}
	if err := save(ctx, next); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	o.commit(next)
	return nil
}

func indexByID[R any](rules []R, id string, idOf func(R) string) int {
	return slices.IndexFunc(rules, func(r R) bool { return idOf(r) == id })
}

// move relocates rules[from] to position to, shifting the others.
func move[R any](rules []R, from, to int) []R {
	item := rules[from]
	rules = slices.Delete(rules, from, from+1)
	return slices.Insert(rules, to, item)
}
