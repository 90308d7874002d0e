// Package titles maintains the pre-generated, consumable title pool.
//
// Titles are minted in batches by the text service and drawn down by the
// generation engine. The pool is intentionally coarse: one shared category is
// used across all style/mood combinations so any schedule can consume any
// pre-generated title.
package titles

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/services"
	"github.com/soundry/soundry/internal/shared"
)

// Availability reports pool levels for one category.
type Availability struct {
	Available int `json:"available"`
	Total     int `json:"total"`
}

// Manager owns the title pool lifecycle: availability checks, replenishment
// through the text service, and atomic consumption.
type Manager struct {
	store  *cache.Store
	text   services.TextService
	logger *log.Logger
}

// NewManager creates a title pool manager.
func NewManager(store *cache.Store, text services.TextService, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{store: store, text: text, logger: logger}
}

// CheckAvailability reports how many unused titles the category holds.
func (m *Manager) CheckAvailability(category string) (*Availability, error) {
	available, total, err := m.store.TitleAvailability(category)
	if err != nil {
		return nil, fmt.Errorf("failed to check title pool: %w", err)
	}
	return &Availability{Available: available, Total: total}, nil
}

// Replenish mints count fresh titles for the category and appends them to the
// pool. The hints string seeds the text service's keyword context; when it is
// empty the category name is used.
func (m *Manager) Replenish(ctx context.Context, category string, count int, hints string) (int, error) {
	if m.text == nil {
		return 0, fmt.Errorf("%w: text service not initialized", shared.ErrServiceUnavailable)
	}
	if count <= 0 {
		return 0, fmt.Errorf("%w: replenish count must be positive", shared.ErrInvalidArgument)
	}
	if hints == "" {
		hints = category
	}

	generated, err := m.text.GenerateTitles(ctx, hints, "", "", count)
	if err != nil {
		m.store.RecordUsage(cache.ServiceText, false, 0)
		return 0, fmt.Errorf("%w: title generation: %v", shared.ErrAPIRequest, err)
	}
	m.store.RecordUsage(cache.ServiceText, true, len(generated))

	records := make([]cache.TitleRecord, 0, len(generated))
	for _, title := range generated {
		if title.NativeText == "" && title.ForeignText == "" {
			continue
		}
		records = append(records, cache.TitleRecord{
			NativeText:  title.NativeText,
			ForeignText: title.ForeignText,
			Keywords:    hints,
		})
	}

	if err := m.store.AppendTitles(category, records); err != nil {
		return 0, fmt.Errorf("failed to append titles: %w", err)
	}

	m.logger.Info("replenished title pool", "category", category, "added", len(records))
	return len(records), nil
}

// Take returns up to count unused titles, marking them used atomically.
// Callers handle any shortfall; the pool never blocks.
func (m *Manager) Take(category string, count int) ([]cache.TitleRecord, error) {
	records, err := m.store.TakeTitles(category, count)
	if err != nil {
		return nil, fmt.Errorf("failed to take titles: %w", err)
	}
	return records, nil
}
