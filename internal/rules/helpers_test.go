package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/keihi/internal/model"
)

// memoryPersister is an in-memory settings store for both rule families.
type memoryPersister struct {
	category   *model.CategoryRulesSettings
	validation *model.ValidationRulesSettings
	loadErr    error
	saveErr    error
	saves      int
	mu         sync.Mutex
}

func (p *memoryPersister) LoadCategorySettings(context.Context) (*model.CategoryRulesSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.category, p.loadErr
}

func (p *memoryPersister) SaveCategorySettings(_ context.Context, s *model.CategoryRulesSettings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves++
	p.category = s
	return nil
}

func (p *memoryPersister) LoadValidationSettings(context.Context) (*model.ValidationRulesSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validation, p.loadErr
}

func (p *memoryPersister) SaveValidationSettings(_ context.Context, s *model.ValidationRulesSettings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves++
	p.validation = s
	return nil
}

var errDiskFull = errors.New("disk full")

// stableIDs makes generated ids and timestamps deterministic for one test.
func stableIDs(t *testing.T) {
	t.Helper()
	origID, origNow := newID, now
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	fixed := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() {
		newID, now = origID, origNow
	})
}
