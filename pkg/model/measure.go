package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Measure is a numeric attribute that tolerates the loosely typed values mobile clients and
// language models send: JSON numbers, numeric strings ("68", " 170.5 ") and blank strings.
// Anything that cannot be read as a finite number decodes to zero.
type Measure float64

// Float returns the measure as float64.
func (m Measure) Float() float64 { return float64(m) }

// Int returns the measure rounded half away from zero.
func (m Measure) Int() int { return int(math.Round(float64(m))) }

// IsSet reports whether the measure carries a positive value.
func (m Measure) IsSet() bool { return m > 0 }

// ParseMeasure reads a measure from free text. Unparseable input yields zero.
func ParseMeasure(s string) Measure {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Measure(v)
}

var gramSuffixes = []string{"grams", "gram", "그램", "g"}

// ParseGrams reads a weight in grams such as "200", "200g" or "150 grams".
func ParseGrams(s string) Measure {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range gramSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return ParseMeasure(s)
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*m = 0
			return nil
		}
		*m = ParseMeasure(s)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*m = 0
		return nil
	}
	*m = Measure(v)
	return nil
}

// UnmarshalText gives text decoders such as yaml.v3 the same leniency as UnmarshalJSON.
func (m *Measure) UnmarshalText(text []byte) error {
	*m = ParseMeasure(string(text))
	return nil
}
