package mapping

import (
	"errors"
	"fmt"
)

// LayoutModel is the compiled, renderer-agnostic placement plan for one
// render invocation. It is owned by that invocation and never shared.
type LayoutModel struct {
	Title         string
	StaticCells   []StaticPlacement
	StaticRegions []RegionText
	Bindings      []BindingPlacement
	Tables        []Table
}

// StaticPlacement pins fixed text to a cell address.
type StaticPlacement struct {
	Ref  CellRef
	Text string
}

// RegionText pins fixed text to a named flow region.
type RegionText struct {
	Region string
	Text   string
}

// BindingPlacement is a resolved dynamic binding. Ref is nil for bindings
// that only target flow regions.
type BindingPlacement struct {
	Field  string
	Ref    *CellRef
	Region string
	Label  string
}

// Table is a compiled repeating region: a start anchor plus per-column
// binding rules. The region expands one row per payload item at render time.
type Table struct {
	DataKey string
	Start   CellRef
	Columns []Column
}

// Column is one compiled table column. Exactly one of Field, Literal or
// Formula is set; a Formula column may carry Field as its precomputed
// fallback for formats without live formulas.
type Column struct {
	Header  string
	Field   string
	Literal string
	Formula *Formula
	Width   float64
}

// ErrMapping tags every mapping compilation failure.
var ErrMapping = errors.New("mapping_error")

// Error reports a malformed or unresolvable mapping specification.
type Error struct {
	Binding string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mapping %q: %s", e.Binding, e.Reason)
}

func (e *Error) Unwrap() error { return ErrMapping }

func mappingError(binding, format string, args ...any) error {
	return &Error{Binding: binding, Reason: fmt.Sprintf(format, args...)}
}
