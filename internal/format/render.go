package format

import (
	"fmt"
	"strings"

	"TickerBoard/internal/calculator"
	"TickerBoard/internal/model"
)

// RenderedField is one display field of a widget, ready to show.
type RenderedField struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Raw   any    `json:"raw"`
}

var defaultFields = map[model.PayloadKind][]string{
	model.KindQuote:      {"symbol", "price", "change", "changePercent", "volume"},
	model.KindTimeSeries: {"symbol", "interval", "lastRefreshed"},
	model.KindList:       {"category", "items.0.symbol", "items.0.price", "items.0.changePercent"},
	model.KindSearch:     {"matches.0.symbol", "matches.0.name", "matches.0.region"},
	model.KindError:      {"message"},
}

// RenderFields formats the widget's display fields using its configured
// per-field formats. Widgets without display fields get a default set for
// their payload kind.
func RenderFields(w model.Widget) []RenderedField {
	if w.Data == nil {
		return nil
	}
	paths := w.Config.DisplayFields
	if len(paths) == 0 {
		paths = defaultFields[w.Data.Kind()]
	}
	flat := Flatten(w.Data)
	out := make([]RenderedField, 0, len(paths))
	for _, path := range paths {
		raw := FieldValue(flat, path)
		typ := InferType(raw)
		out = append(out, RenderedField{
			Path:  path,
			Label: DisplayName(path),
			Type:  typ,
			Value: FormatValue(raw, w.Config.FormatFor(path), typ),
			Raw:   raw,
		})
	}
	return out
}

// RenderText formats a widget as a short plain-text block.
func RenderText(w model.Widget) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s [%s] %s", w.Title, w.Type, w.Config.SymbolOrDefault()))
	if w.Config.APIProvider != "" {
		b.WriteString(fmt.Sprintf(" via %s", w.Config.APIProvider))
	}
	b.WriteString("\n")

	switch {
	case w.Loading:
		b.WriteString("  loading...\n")
	case w.Error != "":
		b.WriteString(fmt.Sprintf("  error (%s): %s\n", w.ErrorKind, w.Error))
	case w.Data == nil:
		b.WriteString("  no data\n")
	}

	for _, f := range RenderFields(w) {
		b.WriteString(fmt.Sprintf("  %s: %s\n", f.Label, f.Value))
	}

	if ts, ok := w.Data.(*model.TimeSeries); ok {
		if last, ok := ts.Latest(); ok {
			b.WriteString(fmt.Sprintf("  %d points, last close %s on %s\n",
				len(ts.Points), usd(last.Close), last.Date))
		}
		if s, ok := calculator.Summarize(ts); ok {
			b.WriteString(fmt.Sprintf("  SMA(%d) %s, range %s - %s (at %s)",
				s.SMAPeriod, usd(s.SMA), usd(s.Low), usd(s.High),
				FormatValue(s.Position*100, "percentage-0", TypeNumber)))
			if s.HasRSI {
				b.WriteString(fmt.Sprintf(", RSI %s", FormatValue(s.RSI, "decimal-2", TypeNumber)))
			}
			b.WriteString("\n")
		}
	}

	if w.LastUpdated != nil {
		b.WriteString(fmt.Sprintf("  updated %s\n", FormatValue(*w.LastUpdated, "date-relative", TypeDate)))
	}
	return b.String()
}
