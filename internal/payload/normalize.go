package payload

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/observability/logger"
)

// PriceSource supplies unit prices from the pricing catalog collaborator.
type PriceSource interface {
	UnitPrice(serviceID, itemCode string) (int64, bool)
}

// DisplaySource supplies display fields from the identity collaborator.
type DisplaySource interface {
	Display(requesterID string) (name, email string, ok bool)
}

// Options carries request-scoped context for one normalization pass.
type Options struct {
	ServiceID       string
	RequesterID     string
	DefaultCurrency string
	DefaultTaxRate  float64
}

// Normalizer canonicalizes raw payloads. Stateless across requests.
type Normalizer struct {
	log      *zap.Logger
	prices   PriceSource
	identity DisplaySource
}

func NewNormalizer(log *zap.Logger, prices PriceSource, identity DisplaySource) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{
		log:      log.Named("payload"),
		prices:   prices,
		identity: identity,
	}
}

// Normalize validates and reshapes a raw payload into its canonical form,
// computing any missing derived values. Supplied values are kept as-is, so
// normalizing an already-normalized payload is a no-op on every numeric
// field.
func (n *Normalizer) Normalize(raw Raw, opts Options) (*Normalized, error) {
	out := &Normalized{
		Client: Client{
			Name:    strings.TrimSpace(raw.Client.Name),
			TaxID:   strings.TrimSpace(raw.Client.TaxID),
			Address: strings.TrimSpace(raw.Client.Address),
			Email:   strings.TrimSpace(raw.Client.Email),
		},
		Notes:     strings.TrimSpace(raw.Notes),
		Currency:  strings.ToUpper(strings.TrimSpace(raw.Currency)),
		IssueDate: strings.TrimSpace(raw.IssueDate),
		DueDate:   strings.TrimSpace(raw.DueDate),
	}
	if out.Currency == "" {
		out.Currency = strings.ToUpper(strings.TrimSpace(opts.DefaultCurrency))
	}

	if out.Client.Name == "" && n.identity != nil {
		if name, email, ok := n.identity.Display(opts.RequesterID); ok {
			out.Client.Name = name
			if out.Client.Email == "" {
				out.Client.Email = email
			}
		}
	}
	if out.Client.Name == "" {
		return nil, invalidField("client_info.name", "required")
	}

	items, err := n.normalizeItems(raw.Items, opts)
	if err != nil {
		return nil, err
	}
	out.Items = items

	totals, err := n.normalizeTotals(raw, items, opts)
	if err != nil {
		return nil, err
	}
	out.Totals = totals

	n.log.Debug("payload normalized",
		zap.String("client", out.Client.Name),
		zap.String("tax_id", logger.MaskTaxID(out.Client.TaxID)),
		zap.Int("items", len(out.Items)),
		zap.Int64("grand_total", out.Totals.GrandTotal),
	)
	return out, nil
}

func (n *Normalizer) normalizeItems(raw []RawItem, opts Options) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for i, ri := range raw {
		it := Item{
			Code:        strings.TrimSpace(ri.Code),
			Description: strings.TrimSpace(ri.Description),
		}

		qty, err := ParseQuantity(ri.Quantity)
		if err != nil {
			return nil, invalidField(itemField(i, "quantity"), "%v", err)
		}
		it.Quantity = qty

		if ri.UnitPrice == nil {
			price, ok := n.lookupPrice(opts.ServiceID, it.Code)
			if !ok {
				return nil, invalidField(itemField(i, "unit_price"), "missing and no catalog entry for code %q", it.Code)
			}
			it.UnitPrice = price
		} else {
			price, err := ParseAmount(ri.UnitPrice)
			if err != nil {
				return nil, invalidField(itemField(i, "unit_price"), "%v", err)
			}
			it.UnitPrice = price
		}

		if ri.LineTotal == nil {
			it.LineTotal = MulQuantity(it.Quantity, it.UnitPrice)
		} else {
			total, err := ParseAmount(ri.LineTotal)
			if err != nil {
				return nil, invalidField(itemField(i, "line_total"), "%v", err)
			}
			it.LineTotal = total
		}

		items = append(items, it)
	}
	return items, nil
}

func (n *Normalizer) normalizeTotals(raw Raw, items []Item, opts Options) (Totals, error) {
	rate := opts.DefaultTaxRate
	if raw.TaxRate != nil {
		rate = *raw.TaxRate
	}
	totals := Totals{TaxRate: rate}

	supplied := raw.Totals
	if supplied != nil && supplied.Subtotal != nil {
		v, err := ParseAmount(supplied.Subtotal)
		if err != nil {
			return totals, invalidField("totals.subtotal", "%v", err)
		}
		totals.Subtotal = v
	} else {
		for _, it := range items {
			totals.Subtotal += it.LineTotal
		}
	}

	if supplied != nil && supplied.Tax != nil {
		v, err := ParseAmount(supplied.Tax)
		if err != nil {
			return totals, invalidField("totals.tax", "%v", err)
		}
		totals.Tax = v
	} else {
		totals.Tax = ApplyRate(totals.Subtotal, rate)
	}

	if supplied != nil && supplied.GrandTotal != nil {
		v, err := ParseAmount(supplied.GrandTotal)
		if err != nil {
			return totals, invalidField("totals.grand_total", "%v", err)
		}
		totals.GrandTotal = v
	} else {
		totals.GrandTotal = totals.Subtotal + totals.Tax
	}

	return totals, nil
}

func (n *Normalizer) lookupPrice(serviceID, code string) (int64, bool) {
	if n.prices == nil || code == "" {
		return 0, false
	}
	price, ok := n.prices.UnitPrice(serviceID, code)
	if !ok {
		n.log.Debug("catalog miss", zap.String("service_id", serviceID), zap.String("code", code))
	}
	return price, ok
}

func itemField(index int, name string) string {
	return "items[" + strconv.Itoa(index) + "]." + name
}
