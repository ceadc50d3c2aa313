// Package record holds the schema-less rows produced by connectors and the
// normalizer that reads typed values out of them.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered bag of fields. Field order is preserved from the
// producer and drives column resolution. Records are immutable: With returns
// a copy.
type Record struct {
	fields []Field
}

var ErrNotObject = errors.New("record_not_object")

// New builds a record from fields. Later duplicates replace earlier values
// in place.
func New(fields ...Field) Record {
	r := Record{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		r = r.set(f.Name, f.Value)
	}
	return r
}

// FromMap builds a record with keys in lexical order.
func FromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Name: k, Value: m[k]})
	}
	return Record{fields: fields}
}

func (r Record) Len() int { return len(r.fields) }

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the value stored under name.
func (r Record) Get(name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy of r with name set to value.
func (r Record) With(name string, value any) Record {
	out := Record{fields: make([]Field, len(r.fields), len(r.fields)+1)}
	copy(out.fields, r.fields)
	return out.set(name, value)
}

func (r Record) set(name string, value any) Record {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return r
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
	return r
}

// Map returns an unordered copy of the fields.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value
	}
	return m
}

// Equal compares field names, order and values.
func (r Record) Equal(other Record) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i].Name != other.fields[i].Name {
			return false
		}
		if fmt.Sprint(r.fields[i].Value) != fmt.Sprint(other.fields[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}
	out := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return ErrNotObject
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out = out.set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// Columns returns the union of keys across records in first-seen order.
func Columns(records []Record) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range records {
		for _, f := range r.fields {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			cols = append(cols, f.Name)
		}
	}
	return cols
}
