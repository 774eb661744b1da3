package flowdoc

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
)

// documentTemplate is the WordprocessingML skeleton. Regions are populated
// from the layout model; flow documents cannot carry live formulas, so
// formula columns arrive here already evaluated.
const documentTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
{{- if .Title}}
<w:p><w:pPr><w:spacing w:after="240"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="48"/><w:color w:val="{{.Color}}"/></w:rPr><w:t xml:space="preserve">{{esc .Title}}</w:t></w:r></w:p>
{{- end}}
{{- range .HeaderLines}}
<w:p><w:r><w:rPr><w:color w:val="{{$.MutedColor}}"/></w:rPr><w:t xml:space="preserve">{{esc .}}</w:t></w:r></w:p>
{{- end}}
{{- range .Fields}}
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">{{esc .Label}}: </w:t></w:r><w:r><w:t xml:space="preserve">{{esc .Value}}</w:t></w:r></w:p>
{{- end}}
{{- range .Tables}}
<w:tbl>
<w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders><w:top w:val="single" w:sz="4" w:color="auto"/><w:bottom w:val="single" w:sz="4" w:color="auto"/><w:insideH w:val="single" w:sz="4" w:color="auto"/></w:tblBorders></w:tblPr>
<w:tr>
{{- range .Headers}}
<w:tc><w:tcPr><w:shd w:val="clear" w:fill="{{$.Color}}"/></w:tcPr><w:p><w:r><w:rPr><w:b/><w:color w:val="FFFFFF"/></w:rPr><w:t xml:space="preserve">{{esc .}}</w:t></w:r></w:p></w:tc>
{{- end}}
</w:tr>
{{- range .Rows}}
<w:tr>
{{- range .}}
<w:tc><w:p><w:r><w:t xml:space="preserve">{{esc .}}</w:t></w:r></w:p></w:tc>
{{- end}}
</w:tr>
{{- end}}
</w:tbl>
<w:p/>
{{- end}}
{{- range .TotalLines}}
<w:p><w:pPr><w:jc w:val="right"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">{{esc .Label}}: </w:t></w:r><w:r><w:t xml:space="preserve">{{esc .Value}}</w:t></w:r></w:p>
{{- end}}
{{- range .FooterLines}}
<w:p><w:r><w:rPr><w:color w:val="{{$.MutedColor}}"/><w:sz w:val="18"/></w:rPr><w:t xml:space="preserve">{{esc .}}</w:t></w:r></w:p>
{{- end}}
<w:sectPr/>
</w:body>
</w:document>`

type labeledValue struct {
	Label string
	Value string
}

type tableView struct {
	Headers []string
	Rows    [][]string
}

type documentView struct {
	Title       string
	Color       string
	MutedColor  string
	HeaderLines []string
	Fields      []labeledValue
	Tables      []tableView
	TotalLines  []labeledValue
	FooterLines []string
}

// Renderer populates the flow-document skeleton from the layout model.
type Renderer struct {
	log *zap.Logger
	tpl *template.Template
}

func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	funcs := template.FuncMap{"esc": escape}
	return &Renderer{
		log: log.Named("render.docx"),
		tpl: template.Must(template.New("document").Funcs(funcs).Parse(documentTemplate)),
	}
}

func (r *Renderer) Engine() string { return "docx" }

func (r *Renderer) Render(_ context.Context, model *mapping.LayoutModel, p *payload.Normalized, branding renderer.Branding) ([]byte, error) {
	view, err := buildView(model, p, branding)
	if err != nil {
		return nil, err
	}

	var doc bytes.Buffer
	if err := r.tpl.Execute(&doc, view); err != nil {
		return nil, err
	}
	out, err := packageDocx(doc.Bytes())
	if err != nil {
		return nil, err
	}
	r.log.Debug("flow document rendered", zap.Int("bytes", len(out)))
	return out, nil
}

// buildView flattens the layout model into the skeleton's named regions:
// header, client/meta fields, item tables, totals, footer.
func buildView(model *mapping.LayoutModel, p *payload.Normalized, branding renderer.Branding) (*documentView, error) {
	view := &documentView{
		Title:      model.Title,
		Color:      renderer.HexRGB(branding.PrimaryColor),
		MutedColor: renderer.HexRGB(branding.SecondaryColor),
	}
	if branding.CompanyName != "" {
		view.HeaderLines = append(view.HeaderLines, branding.CompanyName)
	}

	for _, static := range model.StaticRegions {
		switch static.Region {
		case "header":
			view.HeaderLines = append(view.HeaderLines, static.Text)
		case "footer":
			view.FooterLines = append(view.FooterLines, static.Text)
		default:
			view.Fields = append(view.Fields, labeledValue{Label: static.Region, Value: static.Text})
		}
	}

	for _, binding := range model.Bindings {
		if binding.Region == "" {
			continue // cell-only binding, spreadsheet concern
		}
		value, ok := p.Field(binding.Field)
		if !ok {
			return nil, fmt.Errorf("unresolvable field %q", binding.Field)
		}
		display := value.Display
		if isMoneyField(binding.Field) && p.Currency != "" {
			display = p.Currency + " " + value.Display
		}
		entry := labeledValue{Label: binding.Label, Value: display}
		if entry.Label == "" {
			entry.Label = binding.Field
		}
		if binding.Region == "totals" {
			view.TotalLines = append(view.TotalLines, entry)
		} else {
			view.Fields = append(view.Fields, entry)
		}
	}

	for _, table := range model.Tables {
		tv := tableView{}
		for _, col := range table.Columns {
			tv.Headers = append(tv.Headers, col.Header)
		}
		for _, item := range p.Items {
			row := make([]string, 0, len(table.Columns))
			for _, col := range table.Columns {
				cell, err := literalCell(col, item)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			}
			tv.Rows = append(tv.Rows, row)
		}
		view.Tables = append(view.Tables, tv)
	}

	return view, nil
}

// literalCell resolves one table cell to its concrete value. Formula columns
// are evaluated here; the result must match what the spreadsheet's live
// formula computes for the same item.
func literalCell(col mapping.Column, item payload.Item) (string, error) {
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

func isMoneyField(path string) bool {
	switch path {
	case "totals.subtotal", "totals.tax", "totals.grand_total":
		return true
	}
	return false
}
