package mapping

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/template/domain"
)

var fieldPathPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// Compiler turns a declarative mapping specification into a layout model.
// Compilation fails closed: an unresolvable binding is an error here, never
// a blank cell downstream.
type Compiler struct {
	log *zap.Logger
}

func NewCompiler(log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{log: log.Named("mapping")}
}

// Compile validates the mapping spec against the canonical payload shape and
// produces the placement plan shared by all renderers.
func (c *Compiler) Compile(spec domain.MappingSpec) (*LayoutModel, error) {
	model := &LayoutModel{Title: strings.TrimSpace(spec.Title)}

	for _, sc := range spec.StaticCells {
		ref, err := ParseCellRef(sc.At)
		if err != nil {
			return nil, mappingError("static_cells", "%v", err)
		}
		model.StaticCells = append(model.StaticCells, StaticPlacement{Ref: ref, Text: sc.Text})
	}

	for _, sr := range spec.StaticRegions {
		region := strings.TrimSpace(sr.Region)
		if region == "" {
			return nil, mappingError("static_regions", "region name required")
		}
		model.StaticRegions = append(model.StaticRegions, RegionText{Region: region, Text: sr.Text})
	}

	for _, b := range spec.Bindings {
		placement, err := c.compileBinding(b)
		if err != nil {
			return nil, err
		}
		model.Bindings = append(model.Bindings, placement)
	}

	for _, tr := range spec.Tables {
		table, err := c.compileTable(tr)
		if err != nil {
			return nil, err
		}
		model.Tables = append(model.Tables, table)
	}

	c.log.Debug("mapping compiled",
		zap.Int("static_cells", len(model.StaticCells)),
		zap.Int("bindings", len(model.Bindings)),
		zap.Int("tables", len(model.Tables)),
	)
	return model, nil
}

func (c *Compiler) compileBinding(b domain.Binding) (BindingPlacement, error) {
	field := strings.TrimSpace(b.Field)
	if !fieldPathPattern.MatchString(field) {
		return BindingPlacement{}, mappingError(field, "malformed field path")
	}
	if !payload.KnownField(field) {
		return BindingPlacement{}, mappingError(field, "unknown payload field")
	}

	placement := BindingPlacement{
		Field:  field,
		Region: strings.TrimSpace(b.Region),
		Label:  strings.TrimSpace(b.Label),
	}
	if at := strings.TrimSpace(b.At); at != "" {
		ref, err := ParseCellRef(at)
		if err != nil {
			return BindingPlacement{}, mappingError(field, "%v", err)
		}
		placement.Ref = &ref
	}
	if placement.Ref == nil && placement.Region == "" {
		return BindingPlacement{}, mappingError(field, "binding needs a cell address or a region")
	}
	return placement, nil
}

func (c *Compiler) compileTable(tr domain.TableRegion) (Table, error) {
	dataKey := strings.TrimSpace(tr.DataKey)
	if dataKey != "items" {
		return Table{}, mappingError(dataKey, "unknown table data key")
	}
	start, err := ParseCellRef(tr.Start)
	if err != nil {
		return Table{}, mappingError(dataKey, "bad start position: %v", err)
	}
	if len(tr.Columns) == 0 {
		return Table{}, mappingError(dataKey, "table region needs at least one column")
	}

	table := Table{DataKey: dataKey, Start: start}
	for _, col := range tr.Columns {
		compiled := Column{
			Header:  strings.TrimSpace(col.Header),
			Field:   strings.TrimSpace(col.Field),
			Literal: col.Literal,
			Width:   col.Width,
		}
		if compiled.Field != "" && !payload.KnownItemField(compiled.Field) {
			return Table{}, mappingError(compiled.Field, "unknown item field")
		}
		table.Columns = append(table.Columns, compiled)
	}

	// Formulas are parsed after all columns are known so operands can
	// reference any column of the region.
	for i, col := range tr.Columns {
		formula := strings.TrimSpace(col.Formula)
		if formula == "" {
			if table.Columns[i].Field == "" && table.Columns[i].Literal == "" {
				return Table{}, mappingError(table.Columns[i].Header, "column needs a field, literal or formula")
			}
			continue
		}
		compiled, err := parseFormula(table.Columns[i].Header, formula, table)
		if err != nil {
			return Table{}, err
		}
		table.Columns[i].Formula = compiled
	}

	return table, nil
}
