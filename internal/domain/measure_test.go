package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureString(t *testing.T) {
	tests := []struct {
		name string
		m    Measure
		want string
	}{
		{"value", ValueOf(9.3), "9.3"},
		{"whole", ValueOf(15), "15"},
		{"zero", ValueOf(0), "0"},
		{"not available", NotAvailable(), "N/A"},
		{"error", Failed(), "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.String())
		})
	}
}

func TestMeasureJSON(t *testing.T) {
	b, err := json.Marshal([]Measure{ValueOf(15.5), NotAvailable(), Failed()})
	require.NoError(t, err)
	assert.JSONEq(t, `[15.5, "N/A", "Error"]`, string(b))

	var decoded []Measure
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, []Measure{ValueOf(15.5), NotAvailable(), Failed()}, decoded)
}

func TestParseMeasureRejectsGarbage(t *testing.T) {
	_, err := ParseMeasure("twelve")
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 9.3, Round(9300.0/1000, 2))
	assert.Equal(t, 15.5, Round(930.0/60, 1))
	assert.Equal(t, 1.23, Round(1.2345, 2))

	// 0.125 is an exact tie; 2.675 is stored just below the tie.
	assert.Equal(t, 0.12, Round(125.0/1000, 2))
	assert.Equal(t, 2.67, Round(2675.0/1000, 2))
	assert.Equal(t, 0.4, Round(26.9/60, 1))
}

func TestRunStatsEstimatedCost(t *testing.T) {
	for _, n := range []int{0, 1, 3, 1000} {
		s := RunStats{RequestsMade: n, CostPerRequest: 0.005}
		assert.InDelta(t, float64(n)*0.005, s.EstimatedCost(), 1e-9)
	}
}
