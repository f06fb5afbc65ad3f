package services

import (
	"distance-batch-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	text := "SW1A 1AA, EC1A 1BB\n\nM1 1AE,L1 8JQ\r\nA,B,C\nA\n , X\nBS1 4ST,BT1 5GS\n"

	pairs, errs := ParsePairs(text)

	assert.Equal(t, []domain.Pair{
		{Origin: "SW1A 1AA", Destination: "EC1A 1BB"},
		{Origin: "M1 1AE", Destination: "L1 8JQ"},
		{Origin: "BS1 4ST", Destination: "BT1 5GS"},
	}, pairs)

	require.Len(t, errs, 3)
	assert.Equal(t, 4, errs[0].LineNumber)
	assert.Equal(t, "A,B,C", errs[0].Line)
	assert.Equal(t, 5, errs[1].LineNumber)
	assert.Equal(t, "A", errs[1].Line)
	assert.Equal(t, 6, errs[2].LineNumber)
	assert.Contains(t, errs[0].Error(), `line 4 "A,B,C"`)
}

func TestParsePairsEmptyInput(t *testing.T) {
	pairs, errs := ParsePairs("  \n\n")
	assert.Empty(t, pairs)
	assert.Empty(t, errs)
}
