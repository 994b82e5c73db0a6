package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

func renderCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := make([][]string, 0, len(r.Lines)+4)
	records = append(records, columns)
	for _, l := range r.Lines {
		records = append(records, []string{
			dateLabel(l.Date),
			kindLabel(l.Kind),
			orDash(l.Description),
			money(l.Amount),
			l.Category,
		})
	}
	for _, t := range r.totals() {
		records = append(records, []string{"", "", t[0], t[1], ""})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
