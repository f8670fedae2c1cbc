package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// RenderCSV writes the timetable with a header row.
func RenderCSV(t Timetable) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(timetableHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := w.WriteAll(t.rows()); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

func itoa(n int) string { return strconv.Itoa(n) }
