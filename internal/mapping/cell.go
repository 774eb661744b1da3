package mapping

import (
	"fmt"
	"strings"
)

// CellRef addresses one spreadsheet cell with 1-based coordinates.
type CellRef struct {
	Col int
	Row int
}

// ParseCellRef parses an A1-style address.
func ParseCellRef(ref string) (CellRef, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}

	i := 0
	col := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(ref) {
		return CellRef{}, fmt.Errorf("bad cell reference %q", ref)
	}
	row := 0
	for ; i < len(ref); i++ {
		if ref[i] < '0' || ref[i] > '9' {
			return CellRef{}, fmt.Errorf("bad cell reference %q", ref)
		}
		row = row*10 + int(ref[i]-'0')
	}
	if row == 0 {
		return CellRef{}, fmt.Errorf("bad cell reference %q: row is 1-based", ref)
	}
	return CellRef{Col: col, Row: row}, nil
}

// Name returns the A1-style address.
func (c CellRef) Name() string {
	return ColumnName(c.Col) + fmt.Sprintf("%d", c.Row)
}

// ColumnName converts a 1-based column index to letters.
func ColumnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}

// ColumnIndex converts column letters to a 1-based index, 0 on bad input.
func ColumnIndex(name string) int {
	name = strings.ToUpper(strings.TrimSpace(name))
	col := 0
	for i := 0; i < len(name); i++ {
		if name[i] < 'A' || name[i] > 'Z' {
			return 0
		}
		col = col*26 + int(name[i]-'A'+1)
	}
	return col
}
