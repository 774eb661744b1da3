package domain

// Bundle is one resolvable template: layout source, mapping specification
// and style reference. Read-only at render time.
type Bundle struct {
	Key          string
	LayoutSource string // HTML-like structural description, layout source of truth
	Mapping      MappingSpec
	Style        Style
}

// MappingSpec is the declarative description of how payload fields land on
// the document. It is renderer-agnostic; the mapping compiler turns it into
// a layout model.
type MappingSpec struct {
	Title         string         `yaml:"title"`
	StaticCells   []StaticCell   `yaml:"static_cells"`
	StaticRegions []StaticRegion `yaml:"static_regions"`
	Bindings      []Binding      `yaml:"dynamic_bindings"`
	Tables        []TableRegion  `yaml:"table_regions"`
}

// StaticCell places fixed text at a spreadsheet address.
type StaticCell struct {
	At   string `yaml:"at"`
	Text string `yaml:"text"`
}

// StaticRegion places fixed text in a named flow region.
type StaticRegion struct {
	Region string `yaml:"region"`
	Text   string `yaml:"text"`
}

// Binding maps a payload field path to a placement. Cell addresses drive the
// spreadsheet renderer; regions drive the flow and fixed-layout renderers.
type Binding struct {
	Field  string `yaml:"field"`
	At     string `yaml:"at"`
	Region string `yaml:"region"`
	Label  string `yaml:"label"`
}

// TableRegion is a repeating block that expands one row per payload item.
type TableRegion struct {
	DataKey string   `yaml:"data_key"`
	Start   string   `yaml:"start"`
	Columns []Column `yaml:"columns"`
}

// Column binds one table column to an item field, a literal constant, or a
// formula template. Exactly one of Field/Literal/Formula drives the value;
// a formula column may also name Field as its precomputed equivalent for
// formats that cannot carry live formulas.
type Column struct {
	Header  string  `yaml:"header"`
	Field   string  `yaml:"field"`
	Literal string  `yaml:"literal"`
	Formula string  `yaml:"formula"`
	Width   float64 `yaml:"width"`
}

// Style carries the palette and render hints for a bundle.
type Style struct {
	PrimaryColor   string  `yaml:"primary_color"`
	SecondaryColor string  `yaml:"secondary_color"`
	FontFamily     string  `yaml:"font_family"`
	LogoRef        string  `yaml:"logo_ref"`
	DefaultTaxRate float64 `yaml:"default_tax_rate"`
	// PrintDirect marks bundles whose fixed-layout output is painted
	// directly instead of converted from the flow document.
	PrintDirect bool `yaml:"print_direct"`
}
