package mapping

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/template/domain"
)

func quoteSpec() domain.MappingSpec {
	return domain.MappingSpec{
		Title: "Quotation",
		StaticCells: []domain.StaticCell{
			{At: "A1", Text: "QUOTATION"},
		},
		Bindings: []domain.Binding{
			{Field: "client_info.name", At: "B3", Region: "client", Label: "Client"},
			{Field: "totals.grand_total", Region: "totals", Label: "Grand Total"},
		},
		Tables: []domain.TableRegion{
			{
				DataKey: "items",
				Start:   "A7",
				Columns: []domain.Column{
					{Header: "Description", Field: "description"},
					{Header: "Qty", Field: "quantity"},
					{Header: "Unit Price", Field: "unit_price"},
					{Header: "Total", Field: "line_total", Formula: "B{row}*C{row}"},
				},
			},
		},
	}
}

func TestCompileQuoteSpec(t *testing.T) {
	model, err := NewCompiler(zap.NewNop()).Compile(quoteSpec())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(model.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(model.Bindings))
	}
	if model.Bindings[0].Ref == nil || model.Bindings[0].Ref.Name() != "B3" {
		t.Fatalf("expected B3 placement, got %+v", model.Bindings[0].Ref)
	}
	table := model.Tables[0]
	if table.Start.Name() != "A7" {
		t.Fatalf("expected table start A7, got %s", table.Start.Name())
	}
	if table.Columns[3].Formula == nil {
		t.Fatal("expected compiled formula on total column")
	}
}

func TestCompileUnknownFieldFailsClosed(t *testing.T) {
	spec := quoteSpec()
	spec.Bindings = append(spec.Bindings, domain.Binding{Field: "client_info.phone", At: "B4"})

	_, err := NewCompiler(zap.NewNop()).Compile(spec)
	if !errors.Is(err, ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if merr.Binding != "client_info.phone" {
		t.Fatalf("expected binding client_info.phone, got %q", merr.Binding)
	}
}

func TestCompileMalformedPath(t *testing.T) {
	spec := quoteSpec()
	spec.Bindings[0].Field = "client..name"
	if _, err := NewCompiler(zap.NewNop()).Compile(spec); !errors.Is(err, ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestCompileUnknownItemField(t *testing.T) {
	spec := quoteSpec()
	spec.Tables[0].Columns[0].Field = "sku"
	if _, err := NewCompiler(zap.NewNop()).Compile(spec); !errors.Is(err, ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestCompileFormulaOutsideRegion(t *testing.T) {
	spec := quoteSpec()
	spec.Tables[0].Columns[3].Formula = "B{row}*Z{row}"
	if _, err := NewCompiler(zap.NewNop()).Compile(spec); !errors.Is(err, ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestCompileColumnWithoutValueSource(t *testing.T) {
	spec := quoteSpec()
	spec.Tables[0].Columns[0] = domain.Column{Header: "Empty"}
	if _, err := NewCompiler(zap.NewNop()).Compile(spec); !errors.Is(err, ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestCompileUnknownDataKey(t *testing.T) {
	spec := quoteSpec()
	spec.Tables[0].DataKey = "lines"
	if _, err := NewCompiler(zap.NewNop()).Compile(spec); !errors.Is(err, ErrMapping) {
		t.Fatalf("expected mapping error, got %v", err)
	}
}

func TestFormulaForRowAndEvaluate(t *testing.T) {
	model, err := NewCompiler(zap.NewNop()).Compile(quoteSpec())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	formula := model.Tables[0].Columns[3].Formula

	if got := formula.ForRow(8); got != "B8*C8" {
		t.Fatalf("expected B8*C8, got %q", got)
	}

	it := payload.Item{Quantity: 4, UnitPrice: 12000, LineTotal: 48000}
	value, err := formula.EvaluateItem(it)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if value != 480.0 {
		t.Fatalf("expected 480.0, got %v", value)
	}
}

func TestParseCellRef(t *testing.T) {
	cases := []struct {
		in   string
		col  int
		row  int
		fail bool
	}{
		{"A1", 1, 1, false},
		{"b7", 2, 7, false},
		{"AA10", 27, 10, false},
		{"7A", 0, 0, true},
		{"A0", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tc := range cases {
		ref, err := ParseCellRef(tc.in)
		if tc.fail {
			if err == nil {
				t.Fatalf("ParseCellRef(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCellRef(%q): %v", tc.in, err)
		}
		if ref.Col != tc.col || ref.Row != tc.row {
			t.Fatalf("ParseCellRef(%q) = %+v, want col %d row %d", tc.in, ref, tc.col, tc.row)
		}
	}
}
