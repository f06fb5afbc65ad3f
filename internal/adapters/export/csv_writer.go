package export

import (
	"distance-batch-service/internal/domain"
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"
)

// Default file name offered for downloads.
const FileName = "distances.csv"

var header = []string{"Origin", "Destination", "Distance (km)", "Duration (mins)"}

// WriteCSV writes one row per result under the fixed header, UTF-8 encoded.
func WriteCSV(w io.Writer, results []domain.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, r := range results {
		row := []string{r.Origin, r.Destination, r.DistanceKm.String(), r.DurationMin.String()}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv flush: %w", err)
	}

	return nil
}

// WriteTable renders results as aligned columns for terminals.
func WriteTable(w io.Writer, results []domain.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", header[0], header[1], header[2], header[3])
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Origin, r.Destination, r.DistanceKm, r.DurationMin)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
