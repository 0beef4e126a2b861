package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/samber/lo"
)

var pdfColumns = []struct {
	header string
	width  float64
}{
	{"start", 38},
	{"end", 38},
	{"class", 44},
	{"group", 28},
	{"size", 14},
}

// PDFExporter renders the timetable as one table per room.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	// Rows are already ordered by room, so grouping keeps each room's sessions in start order
	rooms := lo.Uniq(lo.Map(data.Rows, func(row map[string]string, _ int) string { return row["room"] }))
	perRoom := lo.GroupBy(data.Rows, func(row map[string]string) string { return row["room"] })

	for _, room := range rooms {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 9, room, "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 10)
		for _, column := range pdfColumns {
			pdf.CellFormat(column.width, 8, column.header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range perRoom[room] {
			for _, column := range pdfColumns {
				pdf.CellFormat(column.width, 7, row[column.header], "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
