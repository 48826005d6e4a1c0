package tool

import "encoding/json"

// Args is the decoded argument object of one tool call. Models emit
// JSON, so numbers arrive as float64.
type Args map[string]any

func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a Args) Int(key string) int64 {
	switch v := a[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// IntOr returns the argument as an int, or def when absent or invalid.
func (a Args) IntOr(key string, def int) int {
	if _, ok := a[key]; !ok {
		return def
	}
	return int(a.Int(key))
}

func (a Args) Float(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// FloatOr returns the argument as a float, or def when absent.
func (a Args) FloatOr(key string, def float64) float64 {
	if _, ok := a[key]; !ok {
		return def
	}
	return a.Float(key)
}

func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Decode re-marshals one argument into a typed value, for structured
// arguments like journal entry lines.
func (a Args) Decode(key string, out any) error {
	raw, err := json.Marshal(a[key])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
