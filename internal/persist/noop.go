package persist

import "TickerBoard/internal/model"

// NoopStore is used when persistence is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (NoopStore) SaveWidgets(_ []model.Widget) error           { return nil }
func (NoopStore) SaveProviders(_ []model.ProviderConfig) error { return nil }
func (NoopStore) Load() (*Snapshot, error)                     { return &Snapshot{}, nil }
func (NoopStore) Close() error                                 { return nil }
