// Package store holds the authoritative widget collection.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/model"
	"TickerBoard/internal/persist"
)

// Patch edits widget identity fields. Nil fields are left alone.
type Patch struct {
	Title *string           `json:"title"`
	Type  *model.WidgetType `json:"type"`
}

// Store is safe for concurrent use. Structural mutations are saved through
// the persist hook and announced to subscribers; data writes are not.
type Store struct {
	mu      sync.RWMutex
	widgets []*model.Widget
	persist persist.Store
	log     *zap.SugaredLogger
	now     func() time.Time

	subMu sync.Mutex
	subs  map[int]chan struct{}
	next  int
}

// New creates an empty store. A nil persist store means nothing is saved.
func New(p persist.Store, log *zap.SugaredLogger) *Store {
	if p == nil {
		p = persist.NoopStore{}
	}
	return &Store{persist: p, log: log, now: time.Now, subs: make(map[int]chan struct{})}
}

// Load replaces the collection with the persisted widgets.
func (s *Store) Load() error {
	snap, err := s.persist.Load()
	if err != nil {
		return fmt.Errorf("load widgets: %w", err)
	}
	s.mu.Lock()
	s.widgets = s.widgets[:0]
	for _, w := range persist.Strip(snap.Widgets) {
		if w.ID == "" || !w.Type.Valid() {
			s.log.Warnf("skipping persisted widget %q of type %q", w.ID, w.Type)
			continue
		}
		w := w
		s.widgets = append(s.widgets, &w)
	}
	n := len(s.widgets)
	s.mu.Unlock()

	s.log.Infof("loaded %d widgets", n)
	s.notify()
	return nil
}

// Subscribe returns a channel that receives a signal after every
// structural change. Signals coalesce; cancel releases the channel.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// List returns copies of all widgets in insertion order.
func (s *Store) List() []model.Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Widget, len(s.widgets))
	for i, w := range s.widgets {
		out[i] = w.Clone()
	}
	return out
}

// Get returns a copy of the widget with the given id.
func (s *Store) Get(id string) (model.Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w := s.find(id); w != nil {
		return w.Clone(), true
	}
	return model.Widget{}, false
}

// Add creates a widget, filling in the default title, symbol and interval.
func (s *Store) Add(t model.WidgetType, title string, cfg model.WidgetConfig) (model.Widget, error) {
	w, err := newWidget(t, title, cfg)
	if err != nil {
		return model.Widget{}, err
	}
	s.mu.Lock()
	s.widgets = append(s.widgets, &w)
	out := w.Clone()
	s.mu.Unlock()

	s.log.Infof("added %s widget %s (%s)", t, w.ID, w.Config.Symbol)
	s.changed()
	return out, nil
}

func newWidget(t model.WidgetType, title string, cfg model.WidgetConfig) (model.Widget, error) {
	if !t.Valid() {
		return model.Widget{}, errs.NewValidationError(fmt.Sprintf("unknown widget type %q", t))
	}
	if cfg.RefreshIntervalMs < 0 {
		return model.Widget{}, errs.NewValidationError("refreshIntervalMs must not be negative")
	}
	cfg = cfg.Clone()
	if strings.TrimSpace(cfg.Symbol) == "" {
		cfg.Symbol = model.DefaultSymbol
	}
	if cfg.RefreshIntervalMs == 0 {
		cfg.RefreshIntervalMs = model.DefaultRefreshInterval.Milliseconds()
	}
	if cfg.DisplayFields == nil {
		cfg.DisplayFields = []string{}
	}
	if strings.TrimSpace(title) == "" {
		title = string(t) + " Widget"
	}
	return model.Widget{ID: uuid.NewString(), Type: t, Title: title, Config: cfg}, nil
}

// Remove deletes a widget.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return errs.NewNotFoundError("widget " + id + " not found")
	}
	s.widgets = append(s.widgets[:idx], s.widgets[idx+1:]...)
	s.mu.Unlock()

	s.log.Infof("removed widget %s", id)
	s.changed()
	return nil
}

// Update edits the title or type of a widget.
func (s *Store) Update(id string, p Patch) (model.Widget, error) {
	if p.Type != nil && !p.Type.Valid() {
		return model.Widget{}, errs.NewValidationError(fmt.Sprintf("unknown widget type %q", *p.Type))
	}
	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		return model.Widget{}, errs.NewNotFoundError("widget " + id + " not found")
	}
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Type != nil {
		w.Type = *p.Type
	}
	out := w.Clone()
	s.mu.Unlock()

	s.changed()
	return out, nil
}

// UpdateConfig applies edit to a copy of the widget's config and stores the
// result. Fetched data is kept until the next refresh replaces it.
func (s *Store) UpdateConfig(id string, edit func(*model.WidgetConfig)) (model.Widget, error) {
	s.mu.Lock()
	w := s.find(id)
	if w == nil {
		s.mu.Unlock()
		return model.Widget{}, errs.NewNotFoundError("widget " + id + " not found")
	}
	cfg := w.Config.Clone()
	edit(&cfg)
	if cfg.RefreshIntervalMs < 0 {
		s.mu.Unlock()
		return model.Widget{}, errs.NewValidationError("refreshIntervalMs must not be negative")
	}
	w.Config = cfg
	out := w.Clone()
	s.mu.Unlock()

	s.changed()
	return out, nil
}

// Clear removes every widget.
func (s *Store) Clear() {
	s.mu.Lock()
	s.widgets = nil
	s.mu.Unlock()
	s.log.Info("dashboard cleared")
	s.changed()
}

// Export returns the user-owned part of every widget.
func (s *Store) Export() []model.Widget {
	return persist.Strip(s.List())
}

// Import replaces the collection. Widgets without an id get a new one and
// runtime fields are reset.
func (s *Store) Import(widgets []model.Widget) error {
	next := make([]*model.Widget, 0, len(widgets))
	seen := make(map[string]bool, len(widgets))
	for _, w := range persist.Strip(widgets) {
		if !w.Type.Valid() {
			return errs.NewValidationError(fmt.Sprintf("unknown widget type %q", w.Type))
		}
		if w.ID == "" || seen[w.ID] {
			w.ID = uuid.NewString()
		}
		seen[w.ID] = true
		w := w
		next = append(next, &w)
	}
	s.mu.Lock()
	s.widgets = next
	s.mu.Unlock()

	s.log.Infof("imported %d widgets", len(next))
	s.changed()
	return nil
}

// ApplyTemplate replaces the collection with the widgets of a template.
func (s *Store) ApplyTemplate(id string) ([]model.Widget, error) {
	t, ok := FindTemplate(id)
	if !ok {
		return nil, errs.NewNotFoundError("template " + id + " not found")
	}
	next := make([]*model.Widget, 0, len(t.Widgets))
	for _, tw := range t.Widgets {
		w, err := newWidget(tw.Type, tw.Title, tw.Config)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", id, err)
		}
		next = append(next, &w)
	}
	s.mu.Lock()
	s.widgets = next
	s.mu.Unlock()

	s.log.Infof("applied template %s (%d widgets)", id, len(next))
	s.changed()
	return s.List(), nil
}

// SetLoading marks a widget as fetching and clears its error. It reports
// false when the widget no longer exists.
func (s *Store) SetLoading(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.find(id)
	if w == nil {
		return false
	}
	w.Loading = true
	w.Error = ""
	w.ErrorKind = errs.KindNone
	return true
}

// SetResult records the outcome of a fetch cycle. On failure the data is
// cleared. It reports false when the widget no longer exists.
func (s *Store) SetResult(id string, data model.Payload, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.find(id)
	if w == nil {
		return false
	}
	at := s.now()
	w.Loading = false
	w.LastUpdated = &at
	if err != nil {
		w.Data = nil
		w.Error = errorMessage(err)
		w.ErrorKind = errs.KindOf(err)
		return true
	}
	w.Data = data
	w.Error = ""
	w.ErrorKind = errs.KindNone
	return true
}

func errorMessage(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func (s *Store) changed() {
	if err := s.persist.SaveWidgets(s.Export()); err != nil {
		s.log.Errorf("failed to save widgets: %v", err)
	}
	s.notify()
}

func (s *Store) find(id string) *model.Widget {
	if i := s.indexOf(id); i >= 0 {
		return s.widgets[i]
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, w := range s.widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}
