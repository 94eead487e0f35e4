package agent

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the type of a locally computed value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is the result of a local evaluation. Float values are always finite.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
}

func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Float64 converts numeric values to float64. Booleans map to 0 and 1.
func (v Value) Float64() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	}
	return v.Float
}

// String prints ints in decimal, bools as True/False and floats as the shortest
// decimal that round-trips, always with a fractional part.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	}
	s := decimal.NewFromFloat(v.Float).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.Int)
	case KindBool:
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Float)
}
