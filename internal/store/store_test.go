package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/format"
	"TickerBoard/internal/logging"
	"TickerBoard/internal/model"
	"TickerBoard/internal/persist"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(nil, logging.Nop())
}

func TestAddDefaults(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Add(model.WidgetCard, "", model.WidgetConfig{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if w.ID == "" {
		t.Fatal("expected generated id")
	}
	if w.Title != "card Widget" {
		t.Errorf("title = %q", w.Title)
	}
	if w.Config.Symbol != "AAPL" || w.Config.RefreshIntervalMs != 30000 {
		t.Errorf("config defaults = %+v", w.Config)
	}
	if w.Config.DisplayFields == nil {
		t.Error("display fields should be an empty list")
	}

	if _, err := s.Add("gauge", "", model.WidgetConfig{}); err == nil {
		t.Fatal("expected validation error for unknown type")
	} else {
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("error type = %T", err)
		}
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	w, _ := s.Add(model.WidgetTable, "Watch", model.WidgetConfig{DisplayFields: []string{"price"}})

	list := s.List()
	list[0].Title = "changed"
	list[0].Config.DisplayFields[0] = "volume"

	got, ok := s.Get(w.ID)
	if !ok {
		t.Fatal("widget missing")
	}
	if got.Title != "Watch" || got.Config.DisplayFields[0] != "price" {
		t.Errorf("store mutated through copy: %+v", got)
	}
}

func TestUpdateAndConfig(t *testing.T) {
	s := newTestStore(t)
	w, _ := s.Add(model.WidgetCard, "A", model.WidgetConfig{Symbol: "IBM"})

	title := "Renamed"
	typ := model.WidgetTable
	got, err := s.Update(w.ID, Patch{Title: &title, Type: &typ})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Renamed" || got.Type != model.WidgetTable {
		t.Errorf("update = %+v", got)
	}

	got, err = s.UpdateConfig(w.ID, func(c *model.WidgetConfig) {
		c.RefreshIntervalMs = 5000
		c.FieldFormats = map[string]string{"price": "currency-usd"}
	})
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if got.Config.Symbol != "IBM" || got.Config.RefreshIntervalMs != 5000 {
		t.Errorf("merge lost fields: %+v", got.Config)
	}

	if _, err := s.UpdateConfig(w.ID, func(c *model.WidgetConfig) { c.RefreshIntervalMs = -1 }); err == nil {
		t.Error("expected negative interval to be rejected")
	}
	if _, err := s.UpdateConfig("missing", func(*model.WidgetConfig) {}); err == nil {
		t.Error("expected not found")
	}
	bad := model.WidgetType("pie")
	if _, err := s.Update(w.ID, Patch{Type: &bad}); err == nil {
		t.Error("expected invalid type to be rejected")
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add(model.WidgetCard, "", model.WidgetConfig{})
	b, _ := s.Add(model.WidgetChart, "", model.WidgetConfig{})

	if err := s.Remove(a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	var nf *errs.NotFoundError
	if err := s.Remove(a.ID); !errors.As(err, &nf) {
		t.Errorf("second remove err = %v", err)
	}
	if list := s.List(); len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("list after remove = %+v", list)
	}
	s.Clear()
	if n := len(s.List()); n != 0 {
		t.Errorf("len after clear = %d", n)
	}
}

func TestSetLoadingAndResult(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return at }
	w, _ := s.Add(model.WidgetCard, "", model.WidgetConfig{})

	if !s.SetResult(w.ID, nil, errs.Provider("alphavantage", errs.KindRateLimit, "slow down")) {
		t.Fatal("set result on existing widget")
	}
	got, _ := s.Get(w.ID)
	if got.Error != "slow down" || got.ErrorKind != errs.KindRateLimit || got.Data != nil {
		t.Errorf("after error = %+v", got)
	}

	if !s.SetLoading(w.ID) {
		t.Fatal("set loading")
	}
	got, _ = s.Get(w.ID)
	if !got.Loading || got.Error != "" || got.ErrorKind != errs.KindNone {
		t.Errorf("loading must clear error: %+v", got)
	}

	q := &model.Quote{Symbol: "AAPL", Price: 150.25}
	s.SetResult(w.ID, q, nil)
	got, _ = s.Get(w.ID)
	if got.Loading || got.Error != "" {
		t.Errorf("after success = %+v", got)
	}
	if diff := cmp.Diff(model.Payload(q), got.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if got.LastUpdated == nil || !got.LastUpdated.Equal(at) {
		t.Errorf("lastUpdated = %v", got.LastUpdated)
	}

	// Plain errors keep their message and count as transport failures.
	s.SetResult(w.ID, nil, errors.New("dial tcp: refused"))
	got, _ = s.Get(w.ID)
	if got.Error != "dial tcp: refused" || got.ErrorKind != errs.KindTransport {
		t.Errorf("plain error = %+v", got)
	}

	s.Remove(w.ID)
	if s.SetLoading(w.ID) || s.SetResult(w.ID, q, nil) {
		t.Error("writes to a removed widget must report false")
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	w, _ := s.Add(model.WidgetCard, "", model.WidgetConfig{})
	s.UpdateConfig(w.ID, func(c *model.WidgetConfig) { c.Symbol = "MSFT" })

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}

	s.SetLoading(w.ID)
	s.SetResult(w.ID, nil, nil)
	select {
	case <-ch:
		t.Fatal("data writes must not signal")
	default:
	}

	cancel()
	s.Clear()
	select {
	case <-ch:
		t.Fatal("cancelled subscriber received a signal")
	default:
	}
}

func TestImportExport(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	in := []model.Widget{
		{ID: "w1", Type: model.WidgetCard, Title: "One", Config: model.WidgetConfig{Symbol: "IBM"},
			Data: &model.Quote{Symbol: "IBM"}, Error: "old", LastUpdated: &now},
		{Type: model.WidgetChart, Title: "Two"},
		{ID: "w1", Type: model.WidgetTable, Title: "Dup"},
	}
	if err := s.Import(in); err != nil {
		t.Fatalf("import: %v", err)
	}
	out := s.Export()
	if len(out) != 3 {
		t.Fatalf("exported %d widgets", len(out))
	}
	if out[0].ID != "w1" || out[0].Data != nil || out[0].Error != "" || out[0].LastUpdated != nil {
		t.Errorf("runtime fields survived import: %+v", out[0])
	}
	if out[1].ID == "" || out[2].ID == "w1" || out[2].ID == "" {
		t.Errorf("ids not regenerated: %q %q", out[1].ID, out[2].ID)
	}

	if err := s.Import([]model.Widget{{Type: "bogus"}}); err == nil {
		t.Error("expected invalid import to fail")
	}
	if len(s.List()) != 3 {
		t.Error("failed import must leave the collection untouched")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.json")
	fs := persist.NewFileStore(path)
	s := New(fs, logging.Nop())
	w, _ := s.Add(model.WidgetChart, "IBM", model.WidgetConfig{Symbol: "IBM", Interval: "weekly"})
	s.SetResult(w.ID, &model.Quote{Symbol: "IBM"}, nil)

	reloaded := New(persist.NewFileStore(path), logging.Nop())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := reloaded.Get(w.ID)
	if !ok {
		t.Fatal("widget not persisted")
	}
	if got.Config.Interval != "weekly" || got.Data != nil {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestTemplates(t *testing.T) {
	all, err := Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	var ids []string
	for _, tpl := range all {
		ids = append(ids, tpl.ID)
		for _, w := range tpl.Widgets {
			if !w.Type.Valid() {
				t.Errorf("%s: widget %q has type %q", tpl.ID, w.Title, w.Type)
			}
			sample := samplePayload(w)
			for _, f := range w.Config.DisplayFields {
				if !format.IsValidFieldPath(sample, f) {
					t.Errorf("%s: invalid field path %q", tpl.ID, f)
				}
			}
			for _, id := range w.Config.FieldFormats {
				if !knownFormat(id) {
					t.Errorf("%s: unknown format %q", tpl.ID, id)
				}
			}
		}
	}
	want := []string{"basic", "comprehensive", "crypto", "dayTrader", "minimal"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("template ids (-want +got):\n%s", diff)
	}
}

func knownFormat(id string) bool {
	for _, f := range format.Formats {
		if f == id {
			return true
		}
	}
	return false
}

func samplePayload(w TemplateWidget) model.Payload {
	switch {
	case w.Config.TableType == "search":
		return &model.SearchResults{Matches: []model.SearchMatch{{Symbol: "X", Name: "X Corp", Type: "Equity", MatchScore: 1}}}
	case w.Config.CardType == "gainers" || w.Config.CardType == "losers" || w.Config.CardType == "active":
		return &model.List{Items: []model.ListItem{{Symbol: "X", Price: 1, Change: 1, ChangePercent: "1%", Volume: 1}}}
	}
	return &model.Quote{Symbol: "X", Price: 1, Change: 1, ChangePercent: "1%", Open: 1, High: 1, Low: 1, Volume: 1, PreviousClose: 1}
}

func TestApplyTemplate(t *testing.T) {
	s := newTestStore(t)
	s.Add(model.WidgetCard, "old", model.WidgetConfig{})

	got, err := s.ApplyTemplate("crypto")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("crypto widgets = %d", len(got))
	}
	first := got[0]
	if first.Title != "Bitcoin (BTC)" || first.Config.Symbol != "BINANCE:BTCUSDT" ||
		first.Config.APIProvider != "finnhub" || first.Config.RefreshIntervalMs != 15000 {
		t.Errorf("first widget = %+v", first)
	}
	if first.Config.FormatFor("price") != "currency-usd" {
		t.Errorf("format for price = %q", first.Config.FormatFor("price"))
	}
	// Movers cards without a symbol get the default.
	got, _ = s.ApplyTemplate("comprehensive")
	if got[0].Config.Symbol != model.DefaultSymbol {
		t.Errorf("symbol default = %q", got[0].Config.Symbol)
	}

	if _, err := s.ApplyTemplate("nope"); err == nil {
		t.Error("expected unknown template error")
	}
}
