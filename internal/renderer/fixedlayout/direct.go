package fixedlayout

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
)

// DirectRenderer paints the layout model straight onto a page canvas. It is
// the fallback path for bundles marked print-direct or when no conversion
// collaborator is configured.
type DirectRenderer struct {
	log *zap.Logger
}

func NewDirect(log *zap.Logger) *DirectRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectRenderer{log: log.Named("render.pdf")}
}

func (r *DirectRenderer) Engine() string { return "pdf-direct" }

func (r *DirectRenderer) Render(_ context.Context, model *mapping.LayoutModel, p *payload.Normalized, branding renderer.Branding) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pr, pg, pb := renderer.RGB(branding.PrimaryColor)

	if model.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.SetTextColor(pr, pg, pb)
		pdf.CellFormat(0, 10, model.Title, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	pdf.SetTextColor(0, 0, 0)

	if branding.CompanyName != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, branding.CompanyName, "", 1, "L", false, 0, "")
	}
	for _, static := range model.StaticRegions {
		if static.Region == "footer" {
			continue // painted after the body
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, static.Text, "", 1, "L", false, 0, "")
	}

	var totals []string
	for _, binding := range model.Bindings {
		if binding.Region == "" {
			continue
		}
		value, ok := p.Field(binding.Field)
		if !ok {
			return nil, fmt.Errorf("unresolvable field %q", binding.Field)
		}
		label := binding.Label
		if label == "" {
			label = binding.Field
		}
		line := fmt.Sprintf("%s: %s", label, moneyOrPlain(binding.Field, value, p.Currency))
		if binding.Region == "totals" {
			totals = append(totals, line)
			continue
		}
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, table := range model.Tables {
		if err := r.paintTable(pdf, table, p.Items, pr, pg, pb); err != nil {
			return nil, err
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	for _, line := range totals {
		pdf.CellFormat(0, 7, line, "", 1, "R", false, 0, "")
	}

	for _, static := range model.StaticRegions {
		if static.Region != "footer" {
			continue
		}
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 5, static.Text, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	r.log.Debug("fixed layout painted", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (r *DirectRenderer) paintTable(pdf *gofpdf.Fpdf, table mapping.Table, items []payload.Item, pr, pg, pb int) error {
	widths := columnWidths(table, 180)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(pr, pg, pb)
	pdf.SetTextColor(255, 255, 255)
	for j, col := range table.Columns {
		pdf.CellFormat(widths[j], 7, col.Header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, item := range items {
		for j, col := range table.Columns {
			cell, err := cellText(col, item)
			if err != nil {
				return err
			}
			align := "L"
			if col.Field == "quantity" || col.Field == "unit_price" || col.Field == "line_total" || col.Formula != nil {
				align = "R"
			}
			pdf.CellFormat(widths[j], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return nil
}

func cellText(col mapping.Column, item payload.Item) (string, error) {
	switch {
	case col.Formula != nil:
		v, err := col.Formula.EvaluateItem(item)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.2f", v), nil
	case col.Field != "":
		value, ok := payload.ItemField(item, col.Field)
		if !ok {
			return "", fmt.Errorf("unresolvable item field %q", col.Field)
		}
		return value.Display, nil
	default:
		return col.Literal, nil
	}
}

func moneyOrPlain(path string, v payload.Value, currency string) string {
	switch path {
	case "totals.subtotal", "totals.tax", "totals.grand_total":
		if currency != "" {
			return currency + " " + v.Display
		}
	}
	return v.Display
}

// columnWidths honors mapped widths proportionally within the page width.
func columnWidths(table mapping.Table, total float64) []float64 {
	widths := make([]float64, len(table.Columns))
	sum := 0.0
	for _, col := range table.Columns {
		sum += col.Width
	}
	if sum <= 0 {
		even := total / float64(len(table.Columns))
		for j := range widths {
			widths[j] = even
		}
		return widths
	}
	for j, col := range table.Columns {
		w := col.Width
		if w <= 0 {
			w = sum / float64(len(table.Columns))
		}
		widths[j] = w / sum * total
	}
	return widths
}
