package payload

import (
	"errors"
	"fmt"
)

// Raw is the caller-supplied payload before canonicalization. Numeric fields
// are typed any because callers hand us loosely decoded JSON; the normalizer
// rejects anything non-numeric.
type Raw struct {
	Client    RawClient  `json:"client_info" yaml:"client_info"`
	Items     []RawItem  `json:"items" yaml:"items"`
	Totals    *RawTotals `json:"totals,omitempty" yaml:"totals,omitempty"`
	TaxRate   *float64   `json:"tax_rate,omitempty" yaml:"tax_rate,omitempty"`
	Notes     string     `json:"notes" yaml:"notes"`
	Currency  string     `json:"currency" yaml:"currency"`
	IssueDate string     `json:"issue_date" yaml:"issue_date"`
	DueDate   string     `json:"due_date" yaml:"due_date"`
}

type RawClient struct {
	Name    string `json:"name" yaml:"name"`
	TaxID   string `json:"tax_id" yaml:"tax_id"`
	Address string `json:"address" yaml:"address"`
	Email   string `json:"email" yaml:"email"`
}

type RawItem struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
	Quantity    any    `json:"quantity" yaml:"quantity"`
	UnitPrice   any    `json:"unit_price" yaml:"unit_price"`
	LineTotal   any    `json:"line_total,omitempty" yaml:"line_total,omitempty"`
}

type RawTotals struct {
	Subtotal   any `json:"subtotal,omitempty" yaml:"subtotal,omitempty"`
	Tax        any `json:"tax,omitempty" yaml:"tax,omitempty"`
	GrandTotal any `json:"grand_total,omitempty" yaml:"grand_total,omitempty"`
}

// Normalized is the canonical payload every renderer consumes. Once built it
// is immutable for the duration of a render.
type Normalized struct {
	Client    Client
	Items     []Item
	Totals    Totals
	Notes     string
	Currency  string
	IssueDate string
	DueDate   string
}

type Client struct {
	Name    string
	TaxID   string
	Address string
	Email   string
}

type Item struct {
	Code        string
	Description string
	Quantity    float64
	UnitPrice   int64 // minor units
	LineTotal   int64 // minor units
}

type Totals struct {
	Subtotal   int64 // minor units
	Tax        int64
	GrandTotal int64
	TaxRate    float64
}

// ErrValidation tags every payload validation failure.
var ErrValidation = errors.New("validation_error")

// ValidationError reports a malformed payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalidField(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
