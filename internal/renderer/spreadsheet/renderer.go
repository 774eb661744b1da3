package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
)

const sheet = "Sheet1"

// Renderer writes the layout model into an xlsx workbook. Columns bound to a
// formula template get a live cell expression, so the workbook reprices
// itself when a quantity or unit price cell is edited.
type Renderer struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log.Named("render.xlsx")}
}

func (r *Renderer) Engine() string { return "xlsx" }

func (r *Renderer) Render(_ context.Context, model *mapping.LayoutModel, p *payload.Normalized, branding renderer.Branding) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	occupied := make(map[string]struct{})

	if model.Title != "" {
		if err := f.SetCellValue(sheet, "A1", model.Title); err != nil {
			return nil, err
		}
		occupied["A1"] = struct{}{}
	}

	for _, static := range model.StaticCells {
		name := static.Ref.Name()
		if err := f.SetCellValue(sheet, name, static.Text); err != nil {
			return nil, err
		}
		occupied[name] = struct{}{}
	}

	for _, binding := range model.Bindings {
		if binding.Ref == nil {
			continue // region-only binding, nothing to address in the cell grid
		}
		value, ok := p.Field(binding.Field)
		if !ok {
			// The compiler validated this path; reaching here means the
			// canonical shape and the field table diverged.
			return nil, fmt.Errorf("unresolvable field %q", binding.Field)
		}
		name := binding.Ref.Name()
		if err := setValue(f, name, value); err != nil {
			return nil, err
		}
		occupied[name] = struct{}{}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{renderer.HexRGB(branding.PrimaryColor)},
		},
	})
	if err != nil {
		return nil, err
	}

	for _, table := range model.Tables {
		if err := r.renderTable(f, table, p.Items, headerStyle, occupied); err != nil {
			return nil, err
		}
	}

	recalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &recalc}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	r.log.Debug("workbook rendered", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// renderTable expands one region: the start position holds the header row,
// data rows follow, one per item.
func (r *Renderer) renderTable(f *excelize.File, table mapping.Table, items []payload.Item, headerStyle int, occupied map[string]struct{}) error {
	lastRow := table.Start.Row + len(items)
	lastCol := table.Start.Col + len(table.Columns) - 1
	for name := range occupied {
		ref, err := mapping.ParseCellRef(name)
		if err != nil {
			continue
		}
		if ref.Row >= table.Start.Row && ref.Row <= lastRow &&
			ref.Col >= table.Start.Col && ref.Col <= lastCol {
			return &renderer.CollisionError{Cell: name}
		}
	}

	for j, col := range table.Columns {
		ref := mapping.CellRef{Col: table.Start.Col + j, Row: table.Start.Row}
		if err := f.SetCellValue(sheet, ref.Name(), col.Header); err != nil {
			return err
		}
		if col.Width > 0 {
			colName := mapping.ColumnName(ref.Col)
			if err := f.SetColWidth(sheet, colName, colName, col.Width); err != nil {
				return err
			}
		}
	}
	headerStart := table.Start.Name()
	headerEnd := mapping.CellRef{Col: lastCol, Row: table.Start.Row}.Name()
	if err := f.SetCellStyle(sheet, headerStart, headerEnd, headerStyle); err != nil {
		return err
	}

	// Claim the whole region so a later table overlapping this one fails
	// closed instead of silently overwriting.
	for row := table.Start.Row; row <= lastRow; row++ {
		for col := table.Start.Col; col <= lastCol; col++ {
			occupied[mapping.CellRef{Col: col, Row: row}.Name()] = struct{}{}
		}
	}

	for i, item := range items {
		row := table.Start.Row + 1 + i
		for j, col := range table.Columns {
			ref := mapping.CellRef{Col: table.Start.Col + j, Row: row}
			switch {
			case col.Formula != nil:
				if err := f.SetCellFormula(sheet, ref.Name(), col.Formula.ForRow(row)); err != nil {
					return err
				}
			case col.Field != "":
				value, ok := payload.ItemField(item, col.Field)
				if !ok {
					return fmt.Errorf("unresolvable item field %q", col.Field)
				}
				if err := setValue(f, ref.Name(), value); err != nil {
					return err
				}
			default:
				if err := f.SetCellValue(sheet, ref.Name(), col.Literal); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func setValue(f *excelize.File, cell string, value payload.Value) error {
	if value.Number != nil {
		return f.SetCellValue(sheet, cell, *value.Number)
	}
	return f.SetCellValue(sheet, cell, strings.TrimSpace(value.Display))
}
