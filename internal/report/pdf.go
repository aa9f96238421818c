package report

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

// RenderError reports a failure to turn a payload into output bytes.
// Dispatch must abort on render errors so a partial attachment is never
// sent.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render failed: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// PDFRenderer renders payloads into PDF documents. Section order is
// preserved and no rows beyond those in the payload are dropped or added.
type PDFRenderer struct{}

// NewPDFRenderer creates a new PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the PDF bytes for a payload.
func (r *PDFRenderer) Render(p Payload) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	for _, section := range p.Sections {
		switch section.Kind {
		case SectionTitle:
			pdf.SetFont("Helvetica", "B", 16)
			pdf.CellFormat(0, 10, section.Text, "", 1, "L", false, 0, "")
			pdf.Ln(4)

		case SectionTimestamp:
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 6, section.Text, "", 1, "L", false, 0, "")

		default:
			r.renderTable(pdf, section)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) renderTable(pdf *fpdf.Fpdf, section Section) {
	if section.Heading != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, section.Heading, "", 1, "L", false, 0, "")
	}

	if len(section.Header) == 0 {
		return
	}

	colWidth := 180.0 / float64(len(section.Header))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 230, 240)
	for _, h := range section.Header {
		pdf.CellFormat(colWidth, 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range section.Rows {
		for i, cell := range row {
			if i >= len(section.Header) {
				break
			}
			pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
