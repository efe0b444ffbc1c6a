package quote

import (
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/sheet"
)

// DefaultTaxRate applies when a quote states no tax rate
const DefaultTaxRate = 0.10

// Options tune extraction defaults
type Options struct {
	DefaultTaxRate  float64
	DefaultCurrency string
}

// DefaultOptions returns the extraction defaults
func DefaultOptions() Options {
	return Options{
		DefaultTaxRate:  DefaultTaxRate,
		DefaultCurrency: entity.DefaultCurrency,
	}
}

// Extractor turns a cell grid into a Quote. Extraction never fails: anything
// it cannot find is left empty or zero for the validators to report.
type Extractor struct {
	opts Options
}

// NewExtractor creates an extractor. Zero option values fall back to the defaults.
func NewExtractor(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.DefaultTaxRate == 0 {
		opts.DefaultTaxRate = def.DefaultTaxRate
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = def.DefaultCurrency
	}
	return &Extractor{opts: opts}
}

// Extract reads g with the default options
func Extract(g *sheet.Grid) entity.Quote {
	return NewExtractor(DefaultOptions()).Extract(g)
}

// ParseFile reads spreadsheet bytes and extracts a Quote. The only error is
// a sheet.ParseError for unreadable content.
func (e *Extractor) ParseFile(data []byte) (*entity.Quote, error) {
	g, err := sheet.Read(data)
	if err != nil {
		return nil, err
	}
	q := e.Extract(g)
	return &q, nil
}

// Extract builds the Quote found in g
func (e *Extractor) Extract(g *sheet.Grid) entity.Quote {
	table := ScanTable(g)
	return entity.Quote{
		Metadata:  e.extractMetadata(g),
		LineItems: table.Items,
		Totals:    e.extractTotals(g, table),
	}
}

func (e *Extractor) extractMetadata(g *sheet.Grid) entity.QuoteMetadata {
	values := map[string]string{}
	for _, rule := range sheet.MetadataLabels {
		if v, _, ok := g.Resolve(rule, 1); ok {
			values[rule.Field] = v
		}
	}

	md := entity.QuoteMetadata{
		CustomerName:  values[sheet.FieldCustomerName],
		QuoteNumber:   values[sheet.FieldQuoteNumber],
		QuoteDate:     normalizeDate(values[sheet.FieldQuoteDate]),
		ValidUntil:    normalizeDate(values[sheet.FieldValidUntil]),
		Currency:      values[sheet.FieldCurrency],
		ContactPerson: values[sheet.FieldContactPerson],
		Phone:         values[sheet.FieldPhone],
		Email:         values[sheet.FieldEmail],
	}
	if md.Currency == "" {
		md.Currency = e.opts.DefaultCurrency
	}
	return md
}

// extractTotals searches below the line-item table first, then above it for
// each field still unresolved. The table itself is never searched, so a
// "Total" or "할인" column header cannot shadow a totals row.
func (e *Extractor) extractTotals(g *sheet.Grid, table TableResult) entity.QuoteTotals {
	from := 1
	if table.HeaderRow > 0 {
		from = table.EndRow
	}

	raw := map[string]string{}
	for _, rule := range sheet.TotalsLabels {
		v, _, ok := g.Resolve(rule, from)
		if !ok && table.HeaderRow > 1 {
			v, _, ok = g.ResolveBetween(rule, 1, table.HeaderRow)
		}
		if ok {
			raw[rule.Field] = v
		}
	}

	totals := entity.QuoteTotals{TaxRate: e.opts.DefaultTaxRate}
	totals.Subtotal, _ = ParseAmount(raw[sheet.FieldSubtotal])
	totals.TaxAmount, _ = ParseAmount(raw[sheet.FieldTaxAmount])
	totals.Total, _ = ParseAmount(raw[sheet.FieldTotal])
	if v, ok := ParsePercent(raw[sheet.FieldDiscountPercent]); ok {
		totals.DiscountPercent = entity.Float(v)
	}
	if v, ok := ParseAmount(raw[sheet.FieldDiscountAmount]); ok {
		totals.DiscountAmount = entity.Float(v)
	}
	if v, ok := ParseRate(raw[sheet.FieldTaxRate]); ok {
		totals.TaxRate = v
	}
	totals.Currency = DetectCurrency(raw[sheet.FieldTotal])
	return totals
}
