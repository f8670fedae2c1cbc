package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

var pdfColumnWidths = []float64{20, 35, 35, 30, 30, 40}

// RenderPDF lays the timetable out as a single A4 table.
func RenderPDF(t Timetable) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetTitle(t.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, t.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, line := range [][2]string{{"Course", t.Course}, {"Student", t.Student}, {"Teacher", t.Teacher}} {
		if line[1] == "" {
			continue
		}
		pdf.CellFormat(0, 6, line[0]+": "+line[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range timetableHeaders {
		pdf.CellFormat(pdfColumnWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range t.rows() {
		for i, v := range row {
			pdf.CellFormat(pdfColumnWidths[i], 7, v, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
