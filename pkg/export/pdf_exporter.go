package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is one label/value line in a report header block.
type Field struct {
	Label string
	Value string
}

// Report is a titled summary followed by an optional table.
type Report struct {
	Title   string
	Summary []Field
	Table   Dataset
}

// PDFExporter renders import reports into A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the report title, summary fields and table body.
// Table cells wrap so long error messages stay readable.
func (e *PDFExporter) Render(report Report) ([]byte, error) {
	if len(report.Summary) == 0 && len(report.Table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires a summary or a table")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if report.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(report.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	if len(report.Summary) > 0 {
		for _, f := range report.Summary {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(50, 6, tr(f.Label), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 6, tr(f.Value), "", 1, "", false, 0, "")
		}
		pdf.Ln(4)
	}

	if headers := report.Table.Headers; len(headers) > 0 {
		widths := columnWidths(len(headers))
		pdf.SetFont("Arial", "B", 10)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range report.Table.Rows {
			x, y := pdf.GetXY()
			lineCount := 1
			for i, header := range headers {
				if n := len(pdf.SplitLines([]byte(tr(row[header])), widths[i])); n > lineCount {
					lineCount = n
				}
			}
			height := float64(lineCount) * 5
			if y+height > 282 {
				pdf.AddPage()
				x, y = pdf.GetXY()
			}
			for i, header := range headers {
				pdf.SetXY(x, y)
				pdf.Rect(x, y, widths[i], height, "D")
				pdf.MultiCell(widths[i], 5, tr(row[header]), "", "", false)
				x += widths[i]
			}
			pdf.SetXY(10, y+height)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths gives the first column a narrow index slot when there are several columns.
func columnWidths(n int) []float64 {
	const page = 190.0
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = page
		return widths
	}
	widths[0] = 20
	rest := (page - widths[0]) / float64(n-1)
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}
