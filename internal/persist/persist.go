// Package persist saves dashboard state between runs.
package persist

import (
	"time"

	"TickerBoard/internal/model"
)

// Snapshot is the saved dashboard state. Widgets carry only their
// identity and config; fetched data is never persisted.
type Snapshot struct {
	Widgets   []model.Widget         `json:"widgets"`
	Providers []model.ProviderConfig `json:"providers"`
	SavedAt   time.Time              `json:"savedAt"`
}

// Store persists widgets and providers. Load on an empty store returns an
// empty snapshot, not an error.
type Store interface {
	SaveWidgets(widgets []model.Widget) error
	SaveProviders(providers []model.ProviderConfig) error
	Load() (*Snapshot, error)
	Close() error
}

// Strip drops runtime fields so only user-owned state is saved.
func Strip(widgets []model.Widget) []model.Widget {
	out := make([]model.Widget, len(widgets))
	for i, w := range widgets {
		out[i] = model.Widget{ID: w.ID, Type: w.Type, Title: w.Title, Config: w.Config.Clone()}
	}
	return out
}
