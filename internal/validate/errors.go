package validate

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Errors maps field names to violation messages. Fields keep the order in
// which their first violation was recorded and messages keep insertion order.
type Errors struct {
	order  []string
	fields map[string][]string
}

// NewErrors returns an empty error map.
func NewErrors() *Errors {
	return &Errors{fields: make(map[string][]string)}
}

// Add records a violation for field.
func (e *Errors) Add(field, message string) {
	if _, ok := e.fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.fields[field] = append(e.fields[field], message)
}

// Empty reports whether no violation was recorded.
func (e *Errors) Empty() bool {
	return e == nil || len(e.order) == 0
}

// Fields returns the field names in discovery order.
func (e *Errors) Fields() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.order...)
}

// Messages returns the violations recorded for field.
func (e *Errors) Messages(field string) []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.fields[field]...)
}

// Error implements error as "field: msg, msg; field: msg".
func (e *Errors) Error() string {
	var b strings.Builder
	for i, f := range e.Fields() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.fields[f], ", "))
	}
	return b.String()
}

// MarshalJSON renders the map as a JSON object preserving field order.
func (e *Errors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		msgs, err := json.Marshal(e.fields[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(msgs)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
