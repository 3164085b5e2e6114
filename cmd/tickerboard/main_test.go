package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"TickerBoard/internal/model"
)

func TestTemplatesCommand(t *testing.T) {
	cmd := newTemplatesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, id := range []string{"basic", "comprehensive", "crypto", "dayTrader", "minimal"} {
		if !strings.Contains(out.String(), id) {
			t.Errorf("output missing %s:\n%s", id, out.String())
		}
	}
}

func TestPrintRaw(t *testing.T) {
	now := time.Now()
	widgets := []model.Widget{
		{ID: "a", Title: "Apple", Config: model.WidgetConfig{APIProvider: "finnhub"},
			Data: &model.Quote{Symbol: "AAPL", Price: 150, PreviousClose: 148}, LastUpdated: &now},
		{ID: "b", Title: "Empty"},
	}
	resolve := func(id string) (model.ProviderConfig, error) { return model.ProviderConfig{ID: id}, nil }

	var out bytes.Buffer
	if err := printRaw(&out, widgets, resolve); err != nil {
		t.Fatal(err)
	}
	var docs []struct {
		ID       string         `json:"id"`
		Provider string         `json:"provider"`
		Response map[string]any `json:"response"`
	}
	if err := json.Unmarshal(out.Bytes(), &docs); err != nil {
		t.Fatalf("decode %s: %v", out.String(), err)
	}
	if len(docs) != 1 || docs[0].ID != "a" || docs[0].Provider != "finnhub" {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].Response["c"] != 150.0 || docs[0].Response["pc"] != 148.0 {
		t.Errorf("finnhub quote = %v", docs[0].Response)
	}
}
