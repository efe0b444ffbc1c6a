package entity

// Quote is the structured result of extracting a spreadsheet price quote.
// Extraction is lenient: missing values are left empty or zero, never rejected.
type Quote struct {
	Metadata  QuoteMetadata `json:"metadata"`
	LineItems []LineItem    `json:"line_items"`
	Totals    QuoteTotals   `json:"totals"`
}

// QuoteMetadata holds the header fields of a quote (고객명, 견적번호, ...)
type QuoteMetadata struct {
	CustomerName  string `json:"customer_name,omitempty"`
	QuoteNumber   string `json:"quote_number,omitempty"`
	QuoteDate     string `json:"quote_date,omitempty"`
	ValidUntil    string `json:"valid_until,omitempty"`
	Currency      string `json:"currency,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`

	// Extra carries any additional labelled fields keyed by lower-cased label
	Extra map[string]string `json:"extra,omitempty"`
}

// Lookup returns the metadata value stored under key. Known field names
// (customer_name, quote_number, ...) resolve to their struct fields, anything
// else is looked up in Extra.
func (m QuoteMetadata) Lookup(key string) string {
	switch key {
	case "customer_name":
		return m.CustomerName
	case "quote_number":
		return m.QuoteNumber
	case "quote_date":
		return m.QuoteDate
	case "valid_until":
		return m.ValidUntil
	case "currency":
		return m.Currency
	case "contact_person":
		return m.ContactPerson
	case "phone":
		return m.Phone
	case "email":
		return m.Email
	}
	if m.Extra == nil {
		return ""
	}
	return m.Extra[key]
}

// LineItem represents one priced row of the quote table.
// Quantity and UnitPrice are nil when the source cell could not be read as a
// number, which is distinct from an explicit zero.
type LineItem struct {
	ItemNumber      int      `json:"item_number"`
	Description     string   `json:"description"`
	Quantity        *float64 `json:"quantity"`
	UnitPrice       *float64 `json:"unit_price"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	DiscountAmount  *float64 `json:"discount_amount,omitempty"`
	LineTotal       float64  `json:"line_total"`
	Notes           string   `json:"notes,omitempty"`
}

// QuantityValue returns the quantity or 0 when absent
func (li LineItem) QuantityValue() float64 {
	return valueOrZero(li.Quantity)
}

// UnitPriceValue returns the unit price or 0 when absent
func (li LineItem) UnitPriceValue() float64 {
	return valueOrZero(li.UnitPrice)
}

// QuoteTotals holds the summary block of a quote.
// TaxRate is a fraction (0.10 = 10%); DiscountPercent is a percentage (30 = 30%).
type QuoteTotals struct {
	Subtotal        float64  `json:"subtotal"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	DiscountAmount  *float64 `json:"discount_amount,omitempty"`
	TaxRate         float64  `json:"tax_rate"`
	TaxAmount       float64  `json:"tax_amount"`
	Total           float64  `json:"total"`
	Currency        string   `json:"currency,omitempty"`
}

// DiscountAmountValue returns the discount amount or 0 when absent
func (t QuoteTotals) DiscountAmountValue() float64 {
	return valueOrZero(t.DiscountAmount)
}

// DiscountPercentValue returns the discount percentage or 0 when absent
func (t QuoteTotals) DiscountPercentValue() float64 {
	return valueOrZero(t.DiscountPercent)
}

// Float returns a pointer to v, for populating optional numeric fields
func Float(v float64) *float64 {
	return &v
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
