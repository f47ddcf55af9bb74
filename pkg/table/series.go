package table

import (
	"fmt"
	"math"
	"time"
)

// Kind identifies the value type stored in a Series.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Numeric reports whether values of this kind can be read as float64.
func (k Kind) Numeric() bool {
	return k == KindFloat || k == KindInt || k == KindBool
}

// Series is a named, typed column. A Series is never modified after
// construction; every operation returns a new Series.
type Series struct {
	name   string
	kind   Kind
	floats []float64
	ints   []int64
	bools  []bool
	strs   []string
	times  []time.Time
	nulls  []bool
}

// NewFloat builds a float column. The slice is copied.
func NewFloat(name string, values []float64) *Series {
	return &Series{name: name, kind: KindFloat, floats: append([]float64(nil), values...)}
}

// NewFloatWithNulls builds a float column where valid[i] == false marks a null.
func NewFloatWithNulls(name string, values []float64, valid []bool) *Series {
	s := NewFloat(name, values)
	s.nulls = invert(valid, len(values))
	return s
}

func NewInt(name string, values []int64) *Series {
	return &Series{name: name, kind: KindInt, ints: append([]int64(nil), values...)}
}

func NewBool(name string, values []bool) *Series {
	return &Series{name: name, kind: KindBool, bools: append([]bool(nil), values...)}
}

func NewString(name string, values []string) *Series {
	return &Series{name: name, kind: KindString, strs: append([]string(nil), values...)}
}

func NewTime(name string, values []time.Time) *Series {
	return &Series{name: name, kind: KindTime, times: append([]time.Time(nil), values...)}
}

// WithNulls returns a copy of s where valid[i] == false marks row i as null.
func (s *Series) WithNulls(valid []bool) *Series {
	c := s.clone()
	c.nulls = invert(valid, s.Len())
	return c
}

func invert(valid []bool, n int) []bool {
	nulls := make([]bool, n)
	for i := 0; i < n && i < len(valid); i++ {
		nulls[i] = !valid[i]
	}
	return nulls
}

func (s *Series) Name() string { return s.name }
func (s *Series) Kind() Kind   { return s.kind }

// Len returns the number of rows.
func (s *Series) Len() int {
	switch s.kind {
	case KindFloat:
		return len(s.floats)
	case KindInt:
		return len(s.ints)
	case KindBool:
		return len(s.bools)
	case KindString:
		return len(s.strs)
	case KindTime:
		return len(s.times)
	}
	return 0
}

// IsNull reports whether row i holds no value. Out-of-range rows are null.
func (s *Series) IsNull(i int) bool {
	if i < 0 || i >= s.Len() {
		return true
	}
	return s.nulls != nil && s.nulls[i]
}

// Float returns row i as float64, or NaN when the row is out of range, null
// or not numeric.
func (s *Series) Float(i int) float64 {
	if s.IsNull(i) {
		return math.NaN()
	}
	switch s.kind {
	case KindFloat:
		return s.floats[i]
	case KindInt:
		return float64(s.ints[i])
	case KindBool:
		if s.bools[i] {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// Floats returns a fresh float64 copy of the whole column.
func (s *Series) Floats() []float64 {
	n := s.Len()
	out := make([]float64, n)
	if s.kind == KindFloat && s.nulls == nil {
		copy(out, s.floats)
		return out
	}
	for i := range out {
		out[i] = s.Float(i)
	}
	return out
}

// Str returns row i formatted as a string; empty for null rows.
func (s *Series) Str(i int) string {
	if s.IsNull(i) {
		return ""
	}
	switch s.kind {
	case KindString:
		return s.strs[i]
	case KindTime:
		return s.times[i].Format(time.RFC3339)
	case KindInt:
		return fmt.Sprintf("%d", s.ints[i])
	case KindBool:
		return fmt.Sprintf("%t", s.bools[i])
	default:
		return fmt.Sprintf("%g", s.floats[i])
	}
}

// Bool returns row i as a bool. Numeric rows are true when non-zero.
func (s *Series) Bool(i int) (bool, bool) {
	if s.IsNull(i) {
		return false, false
	}
	switch s.kind {
	case KindBool:
		return s.bools[i], true
	case KindString:
		switch s.strs[i] {
		case "true", "TRUE", "True", "1":
			return true, true
		case "false", "FALSE", "False", "0":
			return false, true
		}
		return false, false
	case KindTime:
		return false, false
	}
	v := s.Float(i)
	if math.IsNaN(v) {
		return false, false
	}
	return v != 0, true
}

// Time returns row i as a time when the column holds times.
func (s *Series) Time(i int) (time.Time, bool) {
	if s.kind != KindTime || s.IsNull(i) {
		return time.Time{}, false
	}
	return s.times[i], true
}

// Rename returns a copy of s under a new name.
func (s *Series) Rename(name string) *Series {
	c := s.clone()
	c.name = name
	return c
}

// Slice returns rows [start, end) as a new Series. Bounds are clamped.
func (s *Series) Slice(start, end int) *Series {
	n := s.Len()
	start, end = clamp(start, n), clamp(end, n)
	if end < start {
		end = start
	}
	c := &Series{name: s.name, kind: s.kind}
	switch s.kind {
	case KindFloat:
		c.floats = append([]float64(nil), s.floats[start:end]...)
	case KindInt:
		c.ints = append([]int64(nil), s.ints[start:end]...)
	case KindBool:
		c.bools = append([]bool(nil), s.bools[start:end]...)
	case KindString:
		c.strs = append([]string(nil), s.strs[start:end]...)
	case KindTime:
		c.times = append([]time.Time(nil), s.times[start:end]...)
	}
	if s.nulls != nil {
		c.nulls = append([]bool(nil), s.nulls[start:end]...)
	}
	return c
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (s *Series) clone() *Series {
	return s.Slice(0, s.Len())
}

// Add returns s + o elementwise, over the shorter of the two lengths.
func (s *Series) Add(o *Series) *Series {
	return s.zip(o, func(a, b float64) float64 { return a + b })
}

// Sub returns s - o elementwise.
func (s *Series) Sub(o *Series) *Series {
	return s.zip(o, func(a, b float64) float64 { return a - b })
}

// Mul returns s * o elementwise.
func (s *Series) Mul(o *Series) *Series {
	return s.zip(o, func(a, b float64) float64 { return a * b })
}

// Div returns s / o elementwise; a zero divisor yields NaN.
func (s *Series) Div(o *Series) *Series {
	return s.zip(o, func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	})
}

// Scale multiplies every value by k.
func (s *Series) Scale(k float64) *Series {
	out := s.Floats()
	for i := range out {
		out[i] *= k
	}
	return NewFloat(s.name, out)
}

func (s *Series) zip(o *Series, fn func(a, b float64) float64) *Series {
	n := s.Len()
	if o.Len() < n {
		n = o.Len()
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = fn(s.Float(i), o.Float(i))
	}
	return NewFloat(s.name, out)
}
