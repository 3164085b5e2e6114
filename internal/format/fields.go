package format

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/PaesslerAG/jsonpath"

	"TickerBoard/internal/model"
)

// Flatten turns a payload into the generic map form that field paths
// address. A nil payload yields nil.
func Flatten(p model.Payload) map[string]any {
	if p == nil {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// FieldValue resolves path inside data. Paths starting with "$" are JSONPath
// expressions; anything else is split on dots, with numeric segments
// indexing into lists. A missing segment anywhere yields nil.
func FieldValue(data any, path string) any {
	if data == nil || path == "" {
		return nil
	}
	if p, ok := data.(model.Payload); ok {
		flat := Flatten(p)
		if flat == nil {
			return nil
		}
		data = flat
	}
	if strings.HasPrefix(path, "$") {
		v, err := jsonpath.Get(path, data)
		if err != nil {
			return nil
		}
		return v
	}
	cur := data
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

// IsValidFieldPath reports whether path resolves to a non-nil value.
func IsValidFieldPath(data any, path string) bool {
	return FieldValue(data, path) != nil
}

var (
	lastBracketKey = regexp.MustCompile(`\[\s*["']([^"']+)["']\s*\]$`)
	upperRune      = regexp.MustCompile(`([A-Z])`)
)

// DisplayName derives a label from the last path segment, turning camelCase
// and snake_case into Title Case words.
func DisplayName(path string) string {
	if path == "" {
		return ""
	}
	last := path
	if m := lastBracketKey.FindStringSubmatch(path); m != nil {
		last = m[1]
	} else if i := strings.LastIndex(path, "."); i >= 0 {
		last = path[i+1:]
	}
	last = upperRune.ReplaceAllString(last, " $1")
	last = strings.ReplaceAll(last, "_", " ")
	words := strings.Fields(last)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

var (
	datePrefix    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	currencyShape = regexp.MustCompile(`^\$?\d+(\.\d{2})?$`)
)

// InferType classifies a field value for default formatting.
func InferType(value any) string {
	switch v := value.(type) {
	case nil:
		return TypeNull
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	case bool:
		return TypeBoolean
	case string:
		switch {
		case datePrefix.MatchString(v):
			return TypeDate
		case strings.Contains(v, "%"):
			return TypePercentage
		case currencyShape.MatchString(v):
			return TypeCurrency
		}
		return TypeString
	}
	if _, ok := numeric(value); ok {
		return TypeNumber
	}
	return TypeString
}

// FieldInfo describes one selectable path inside a payload.
type FieldInfo struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Expandable bool   `json:"expandable"`
	Parent     string `json:"parent,omitempty"`
}

// Fields lists every path reachable through nested objects, sorted by path.
// Lists are reported but not descended into.
func Fields(data any) []FieldInfo {
	if p, ok := data.(model.Payload); ok {
		data = Flatten(p)
	}
	root, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	var out []FieldInfo
	var walk func(m map[string]any, prefix string)
	walk = func(m map[string]any, prefix string) {
		for key, v := range m {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			_, isObj := v.(map[string]any)
			out = append(out, FieldInfo{
				Path: path, Name: DisplayName(path), Type: InferType(v),
				Expandable: isObj, Parent: prefix,
			})
			if isObj {
				walk(v.(map[string]any), path)
			}
		}
	}
	walk(root, "")
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
