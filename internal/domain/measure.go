package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	notAvailableText = "N/A"
	errorText        = "Error"
)

type MeasureKind int

const (
	MeasureValue MeasureKind = iota
	MeasureNotAvailable
	MeasureError
)

// Measure is a resolved quantity (km or minutes) or one of the two sentinels:
// the API answered without the field (N/A), or the pair could not be resolved (Error).
type Measure struct {
	Kind  MeasureKind
	Value float64
}

func ValueOf(v float64) Measure { return Measure{Kind: MeasureValue, Value: v} }

func NotAvailable() Measure { return Measure{Kind: MeasureNotAvailable} }

func Failed() Measure { return Measure{Kind: MeasureError} }

func (m Measure) IsValue() bool { return m.Kind == MeasureValue }

func (m Measure) String() string {
	switch m.Kind {
	case MeasureNotAvailable:
		return notAvailableText
	case MeasureError:
		return errorText
	default:
		return strconv.FormatFloat(m.Value, 'f', -1, 64)
	}
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if m.Kind == MeasureValue {
		return json.Marshal(m.Value)
	}
	return json.Marshal(m.String())
}

func (m *Measure) UnmarshalJSON(b []byte) error {
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*m = ValueOf(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("measure: expected number or string: %w", err)
	}

	parsed, err := ParseMeasure(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMeasure reverses String, used when reading archived results.
func ParseMeasure(s string) (Measure, error) {
	switch s {
	case notAvailableText:
		return NotAvailable(), nil
	case errorText:
		return Failed(), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Measure{}, fmt.Errorf("parse measure %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measure{}, errors.New("parse measure: value must be finite")
	}
	return ValueOf(v), nil
}

// Round v to the given number of decimal places, working from its exact
// binary value; exact ties go to the even digit.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
