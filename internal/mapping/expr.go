package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ingenia/docfactory/internal/payload"
)

// Formula is a compiled formula template for a table column. The template
// language is deliberately small: two operands joined by one arithmetic
// operator, where an operand is either a column reference with a positional
// row placeholder ("C{row}") or a numeric literal.
//
// The spreadsheet renderer emits the formula live, substituting the actual
// row index; all other renderers evaluate it per item through the column
// fields the operands resolve to.
type Formula struct {
	Template string
	Op       byte
	Left     Operand
	Right    Operand
}

// Operand is one side of a formula. Col/Field are set for column
// references; Literal holds constant operands.
type Operand struct {
	Col     int // absolute 1-based column, 0 for literals
	Field   string
	Literal float64
}

const rowPlaceholder = "{row}"

// parseFormula compiles a formula template against its owning table region.
// Referenced columns must exist inside the region and be bound to an item
// field, otherwise the literal evaluation path would have no value source.
func parseFormula(binding, template string, region Table) (*Formula, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(template), "="))
	opIdx := -1
	var op byte
	for i := 0; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '*', '+', '-', '/':
			if opIdx >= 0 {
				return nil, mappingError(binding, "formula %q: more than one operator", template)
			}
			opIdx = i
			op = trimmed[i]
		}
	}
	if opIdx <= 0 || opIdx == len(trimmed)-1 {
		return nil, mappingError(binding, "formula %q: expected <operand><op><operand>", template)
	}

	left, err := parseOperand(binding, template, trimmed[:opIdx], region)
	if err != nil {
		return nil, err
	}
	right, err := parseOperand(binding, template, trimmed[opIdx+1:], region)
	if err != nil {
		return nil, err
	}
	if left.Col == 0 && right.Col == 0 {
		return nil, mappingError(binding, "formula %q: at least one operand must reference a column", template)
	}

	return &Formula{Template: trimmed, Op: op, Left: left, Right: right}, nil
}

func parseOperand(binding, template, raw string, region Table) (Operand, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, rowPlaceholder) {
		colName := strings.TrimSpace(strings.TrimSuffix(raw, rowPlaceholder))
		col := ColumnIndex(colName)
		if col == 0 {
			return Operand{}, mappingError(binding, "formula %q: bad column reference %q", template, raw)
		}
		offset := col - region.Start.Col
		if offset < 0 || offset >= len(region.Columns) {
			return Operand{}, mappingError(binding, "formula %q: column %s outside table region", template, colName)
		}
		field := region.Columns[offset].Field
		if field == "" {
			return Operand{}, mappingError(binding, "formula %q: column %s is not bound to an item field", template, colName)
		}
		return Operand{Col: col, Field: field}, nil
	}

	literal, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Operand{}, mappingError(binding, "formula %q: bad operand %q", template, raw)
	}
	return Operand{Literal: literal}, nil
}

// ForRow renders the live spreadsheet expression for a 1-based sheet row.
func (f *Formula) ForRow(row int) string {
	return operandForRow(f.Left, row) + string(f.Op) + operandForRow(f.Right, row)
}

func operandForRow(op Operand, row int) string {
	if op.Col > 0 {
		return ColumnName(op.Col) + strconv.Itoa(row)
	}
	return strconv.FormatFloat(op.Literal, 'f', -1, 64)
}

// EvaluateItem computes the formula's concrete value for one item, in major
// units. Used by every renderer that cannot carry live formulas.
func (f *Formula) EvaluateItem(it payload.Item) (float64, error) {
	left, err := operandValue(f.Left, it)
	if err != nil {
		return 0, err
	}
	right, err := operandValue(f.Right, it)
	if err != nil {
		return 0, err
	}
	switch f.Op {
	case '*':
		return left * right, nil
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '/':
		if right == 0 {
			return 0, fmt.Errorf("formula %q: division by zero", f.Template)
		}
		return left / right, nil
	default:
		return 0, fmt.Errorf("formula %q: unknown operator %q", f.Template, string(f.Op))
	}
}

func operandValue(op Operand, it payload.Item) (float64, error) {
	if op.Col == 0 {
		return op.Literal, nil
	}
	value, ok := payload.ItemField(it, op.Field)
	if !ok || value.Number == nil {
		return 0, fmt.Errorf("item field %q has no numeric value", op.Field)
	}
	return *value.Number, nil
}
