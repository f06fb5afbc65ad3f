package domain

import "fmt"

// Represents one origin/destination address combination to resolve.
type Pair struct {
	Origin      string
	Destination string
}

// Describes an input line that could not be turned into a Pair.
// LineNumber is 1-based and refers to the raw input text.
type ParseError struct {
	LineNumber int
	Line       string
	Reason     string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.LineNumber, e.Line, e.Reason)
}
