package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into an A4 designation sheet.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

// Render draws the title block and a bordered table. When GroupBy is set the group
// column is dropped from the table and printed as a band above each block.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
	}
	if data.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(data.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	group := data.groupIndex()
	columns := make([]int, 0, len(data.Headers))
	for i := range data.Headers {
		if i != group {
			columns = append(columns, i)
		}
	}
	colWidth := 190.0 / float64(len(columns))

	pdf.SetFont("Arial", "B", 9)
	for _, i := range columns {
		pdf.CellFormat(colWidth, 8, tr(data.Headers[i]), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	current := ""
	for _, row := range data.Rows {
		if group >= 0 && row[group] != current {
			current = row[group]
			pdf.SetFont("Arial", "B", 9)
			pdf.SetFillColor(230, 230, 230)
			pdf.CellFormat(190, 7, tr(current), "1", 1, "L", true, 0, "")
		}
		pdf.SetFont("Arial", "", 9)
		for _, i := range columns {
			pdf.CellFormat(colWidth, 7, tr(row[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
