package services

import (
	"distance-batch-service/internal/domain"
	"strings"
)

// ParsePairs turns pasted "origin,destination" lines into Pairs.
//
// Blank lines are skipped silently. A line that does not split into exactly
// two non-empty fields is reported as a ParseError and left out; parsing
// always continues with the next line.
func ParsePairs(text string) ([]domain.Pair, []domain.ParseError) {
	pairs := make([]domain.Pair, 0)
	var parseErrs []domain.ParseError

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			parseErrs = append(parseErrs, domain.ParseError{
				LineNumber: i + 1,
				Line:       line,
				Reason:     "should be 'Origin,Destination'",
			})
			continue
		}

		origin := strings.TrimSpace(fields[0])
		destination := strings.TrimSpace(fields[1])
		if origin == "" || destination == "" {
			parseErrs = append(parseErrs, domain.ParseError{
				LineNumber: i + 1,
				Line:       line,
				Reason:     "origin and destination must be non-empty",
			})
			continue
		}

		pairs = append(pairs, domain.Pair{Origin: origin, Destination: destination})
	}

	return pairs, parseErrs
}
