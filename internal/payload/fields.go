package payload

// Value is a resolved payload field. Display is the formatted string used by
// flow and fixed-layout output; Number is set for numeric fields so the
// spreadsheet renderer can write a real number into the cell.
type Value struct {
	Display string
	Number  *float64
}

func stringValue(s string) Value { return Value{Display: s} }

func moneyValue(amount int64) Value {
	f := AmountToFloat(amount)
	return Value{Display: FormatAmount(amount), Number: &f}
}

func quantityValue(q float64) Value {
	v := q
	return Value{Display: FormatQuantity(q), Number: &v}
}

var knownFields = map[string]struct{}{
	"client_info.name":    {},
	"client_info.tax_id":  {},
	"client_info.address": {},
	"client_info.email":   {},
	"notes":               {},
	"currency":            {},
	"issue_date":          {},
	"due_date":            {},
	"totals.subtotal":     {},
	"totals.tax":          {},
	"totals.tax_rate":     {},
	"totals.grand_total":  {},
}

var knownItemFields = map[string]struct{}{
	"code":        {},
	"description": {},
	"quantity":    {},
	"unit_price":  {},
	"line_total":  {},
}

// KnownField reports whether a dot-path resolves against the canonical
// payload shape. The mapping compiler fails closed on anything unknown.
func KnownField(path string) bool {
	_, ok := knownFields[path]
	return ok
}

// KnownItemField reports whether a table column field exists on every item.
func KnownItemField(name string) bool {
	_, ok := knownItemFields[name]
	return ok
}

// Field resolves a canonical dot-path against the normalized payload.
func (n *Normalized) Field(path string) (Value, bool) {
	switch path {
	case "client_info.name":
		return stringValue(n.Client.Name), true
	case "client_info.tax_id":
		return stringValue(n.Client.TaxID), true
	case "client_info.address":
		return stringValue(n.Client.Address), true
	case "client_info.email":
		return stringValue(n.Client.Email), true
	case "notes":
		return stringValue(n.Notes), true
	case "currency":
		return stringValue(n.Currency), true
	case "issue_date":
		return stringValue(n.IssueDate), true
	case "due_date":
		return stringValue(n.DueDate), true
	case "totals.subtotal":
		return moneyValue(n.Totals.Subtotal), true
	case "totals.tax":
		return moneyValue(n.Totals.Tax), true
	case "totals.tax_rate":
		return Value{Display: FormatQuantity(n.Totals.TaxRate*100) + "%"}, true
	case "totals.grand_total":
		return moneyValue(n.Totals.GrandTotal), true
	default:
		return Value{}, false
	}
}

// ItemField resolves a table column field against one item.
func ItemField(it Item, name string) (Value, bool) {
	switch name {
	case "code":
		return stringValue(it.Code), true
	case "description":
		return stringValue(it.Description), true
	case "quantity":
		return quantityValue(it.Quantity), true
	case "unit_price":
		return moneyValue(it.UnitPrice), true
	case "line_total":
		return moneyValue(it.LineTotal), true
	default:
		return Value{}, false
	}
}
