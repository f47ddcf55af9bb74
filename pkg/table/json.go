package table

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ColumnJSON is the wire form of a Series. Null entries and NaN floats are
// encoded as JSON null.
type ColumnJSON struct {
	Name   string            `json:"name"`
	Kind   string            `json:"kind,omitempty"`
	Values []json.RawMessage `json:"values"`
}

type tableJSON struct {
	Columns []ColumnJSON `json:"columns"`
}

var null = json.RawMessage("null")

// MarshalJSON encodes a Series as a ColumnJSON object.
func (s *Series) MarshalJSON() ([]byte, error) {
	c := ColumnJSON{Name: s.name, Kind: s.kind.String(), Values: make([]json.RawMessage, s.Len())}
	for i := range c.Values {
		if s.IsNull(i) {
			c.Values[i] = null
			continue
		}
		var v any
		switch s.kind {
		case KindFloat:
			f := s.floats[i]
			if math.IsNaN(f) || math.IsInf(f, 0) {
				c.Values[i] = null
				continue
			}
			v = f
		case KindInt:
			v = s.ints[i]
		case KindBool:
			v = s.bools[i]
		case KindString:
			v = s.strs[i]
		case KindTime:
			v = s.times[i].Format(time.RFC3339Nano)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		c.Values[i] = raw
	}
	return json.Marshal(c)
}

// UnmarshalJSON decodes a single ColumnJSON object.
func (s *Series) UnmarshalJSON(data []byte) error {
	var c ColumnJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	decoded, err := decodeColumn(c)
	if err != nil {
		return fmt.Errorf("column %q: %w", c.Name, err)
	}
	*s = *decoded
	return nil
}

// MarshalJSON encodes the table as {"columns": [...]}.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := struct {
		Columns []*Series `json:"columns"`
	}{Columns: t.Columns()}
	if out.Columns == nil {
		out.Columns = []*Series{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the {"columns": [...]} form. When a column has no
// kind, the kind is inferred from its first non-null value.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cols := make([]*Series, 0, len(raw.Columns))
	for _, c := range raw.Columns {
		s, err := decodeColumn(c)
		if err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
		cols = append(cols, s)
	}
	built, err := New(cols...)
	if err != nil {
		return err
	}
	*t = *built
	return nil
}

func decodeColumn(c ColumnJSON) (*Series, error) {
	kind := c.Kind
	if kind == "" {
		kind = inferKind(c.Values)
	}
	n := len(c.Values)
	valid := make([]bool, n)
	hasNull := false
	for i, v := range c.Values {
		valid[i] = string(v) != "null"
		hasNull = hasNull || !valid[i]
	}

	var s *Series
	switch kind {
	case "float", "":
		vals := make([]float64, n)
		for i, v := range c.Values {
			if !valid[i] {
				vals[i] = math.NaN()
				continue
			}
			if err := json.Unmarshal(v, &vals[i]); err != nil {
				return nil, err
			}
		}
		s = NewFloat(c.Name, vals)
	case "int":
		vals := make([]int64, n)
		for i, v := range c.Values {
			if valid[i] {
				if err := json.Unmarshal(v, &vals[i]); err != nil {
					return nil, err
				}
			}
		}
		s = NewInt(c.Name, vals)
	case "bool":
		vals := make([]bool, n)
		for i, v := range c.Values {
			if valid[i] {
				if err := json.Unmarshal(v, &vals[i]); err != nil {
					return nil, err
				}
			}
		}
		s = NewBool(c.Name, vals)
	case "string":
		vals := make([]string, n)
		for i, v := range c.Values {
			if valid[i] {
				if err := json.Unmarshal(v, &vals[i]); err != nil {
					return nil, err
				}
			}
		}
		s = NewString(c.Name, vals)
	case "time":
		vals := make([]time.Time, n)
		for i, v := range c.Values {
			if valid[i] {
				if err := json.Unmarshal(v, &vals[i]); err != nil {
					return nil, err
				}
			}
		}
		s = NewTime(c.Name, vals)
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	if hasNull {
		s = s.WithNulls(valid)
	}
	return s, nil
}

func inferKind(values []json.RawMessage) string {
	for _, v := range values {
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		switch v[0] {
		case '"':
			return "string"
		case 't', 'f':
			return "bool"
		default:
			return "float"
		}
	}
	return "float"
}
