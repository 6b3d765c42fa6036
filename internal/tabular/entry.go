// Package tabular models loosely-structured spreadsheet data: ordered
// records with arbitrary column names and scalar cell values.
package tabular

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind identifies the scalar variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value is a single cell: a string, a number, or null. Numeric values keep
// their original text so identifiers like "0042" survive round trips.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Null is the absent/empty cell value.
var Null = Value{}

// String returns a string-kinded Value.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Number returns a number-kinded Value rendered with the given text.
func Number(f float64, text string) Value {
	if text == "" {
		text = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return Value{kind: KindNumber, text: text, num: f}
}

// Classify converts raw cell text into a Value, tagging numeric-looking
// cells as numbers. Whitespace-only cells classify as null.
func Classify(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Null
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(f, s)
	}
	return String(s)
}

// Kind reports the scalar variant.
func (v Value) Kind() Kind { return v.kind }

// Text renders the value as text. Null renders as "".
func (v Value) Text() string { return v.text }

// Float returns the numeric value; zero for non-numbers.
func (v Value) Float() float64 { return v.num }

// IsEmpty reports whether the value is null or blank text.
func (v Value) IsEmpty() bool {
	return v.kind == KindNull || strings.TrimSpace(v.text) == ""
}

// Entry is a record keyed by column name, preserving column order.
// The reconciliation engine never mutates input entries; output entries
// are always built fresh.
type Entry struct {
	keys []string
	vals map[string]Value
}

// NewEntry returns an empty Entry.
func NewEntry() *Entry {
	return &Entry{vals: make(map[string]Value)}
}

// Set stores a value under key, appending the key on first use.
func (e *Entry) Set(key string, v Value) {
	if _, ok := e.vals[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.vals[key] = v
}

// Get returns the value stored under key.
func (e *Entry) Get(key string) (Value, bool) {
	v, ok := e.vals[key]
	return v, ok
}

// Keys returns the column names in insertion order.
func (e *Entry) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Len returns the number of columns.
func (e *Entry) Len() int { return len(e.keys) }

// Clone returns an independent copy of the entry.
func (e *Entry) Clone() *Entry {
	c := &Entry{
		keys: make([]string, len(e.keys)),
		vals: make(map[string]Value, len(e.vals)),
	}
	copy(c.keys, e.keys)
	for k, v := range e.vals {
		c.vals[k] = v
	}
	return c
}

// MarshalJSON renders the entry as a JSON object in column order.
func (e *Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrap(err, "tabular: marshal key")
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		v := e.vals[k]
		switch v.kind {
		case KindNull:
			buf.WriteString("null")
		case KindNumber:
			buf.WriteString(strconv.FormatFloat(v.num, 'f', -1, 64))
		default:
			textJSON, err := json.Marshal(v.text)
			if err != nil {
				return nil, eris.Wrap(err, "tabular: marshal value")
			}
			buf.Write(textJSON)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, preserving key order.
// Values must be scalar: strings, numbers, booleans, or null.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return eris.Wrap(err, "tabular: decode entry")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return eris.New("tabular: entry must be a JSON object")
	}

	e.keys = nil
	e.vals = make(map[string]Value)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "tabular: decode entry key")
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "tabular: decode entry value")
		}
		switch v := valTok.(type) {
		case nil:
			e.Set(key, Null)
		case string:
			e.Set(key, String(v))
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return eris.Wrapf(err, "tabular: invalid number for %q", key)
			}
			e.Set(key, Number(f, v.String()))
		case bool:
			e.Set(key, String(strconv.FormatBool(v)))
		default:
			return eris.Errorf("tabular: value for %q is not scalar", key)
		}
	}

	// Consume closing brace.
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "tabular: decode entry close")
	}
	return nil
}
