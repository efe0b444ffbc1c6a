package sheet

import "strings"

// LabelRule maps a canonical field to the label variants that may name it
// in a sheet, tried in order. Cells containing an Exclude fragment never match.
type LabelRule struct {
	Field    string
	Variants []string
	Exclude  []string
}

// Resolve returns the value of the first variant that has one, searching
// rows >= fromRow
func (g *Grid) Resolve(rule LabelRule, fromRow int) (string, Address, bool) {
	return g.ResolveBetween(rule, fromRow, 0)
}

// ResolveBetween is Resolve limited to rows [fromRow, toRow). A toRow of 0
// leaves the search unbounded.
func (g *Grid) ResolveBetween(rule LabelRule, fromRow, toRow int) (string, Address, bool) {
	for _, variant := range rule.Variants {
		if v, at, ok := g.FindValueBetween(variant, fromRow, toRow, rule.Exclude); ok {
			return v, at, true
		}
	}
	return "", Address{}, false
}

// Canonical field names
const (
	FieldCustomerName    = "customer_name"
	FieldQuoteNumber     = "quote_number"
	FieldQuoteDate       = "quote_date"
	FieldValidUntil      = "valid_until"
	FieldCurrency        = "currency"
	FieldContactPerson   = "contact_person"
	FieldPhone           = "phone"
	FieldEmail           = "email"
	FieldSubtotal        = "subtotal"
	FieldDiscountPercent = "discount_percent"
	FieldDiscountAmount  = "discount_amount"
	FieldTaxRate         = "tax_rate"
	FieldTaxAmount       = "tax_amount"
	FieldTotal           = "total"
)

// MetadataLabels is the quote header catalog
var MetadataLabels = []LabelRule{
	{Field: FieldCustomerName, Variants: []string{"고객명", "Customer"}},
	{Field: FieldQuoteNumber, Variants: []string{"견적번호", "Quote Number"}},
	{Field: FieldQuoteDate, Variants: []string{"견적일자", "Quote Date"}},
	{Field: FieldValidUntil, Variants: []string{"유효기한", "Valid Until"}},
	{Field: FieldCurrency, Variants: []string{"통화", "Currency"}},
	{Field: FieldContactPerson, Variants: []string{"담당자", "Contact"}},
	{Field: FieldPhone, Variants: []string{"연락처", "전화", "Phone", "Tel"}},
	{Field: FieldEmail, Variants: []string{"이메일", "Email", "E-mail"}},
}

// TotalsLabels is the quote summary catalog. Rate cells are excluded from
// the amount fields so "Tax Rate" never resolves as a tax amount.
var TotalsLabels = []LabelRule{
	{Field: FieldSubtotal, Variants: []string{"소계", "Subtotal"}},
	{Field: FieldDiscountPercent, Variants: []string{"할인율", "Discount Rate", "Discount %"}},
	{Field: FieldDiscountAmount, Variants: []string{"할인", "Discount"}, Exclude: []string{"율", "Rate", "%"}},
	{Field: FieldTaxRate, Variants: []string{"세율", "Tax Rate", "VAT Rate"}},
	{Field: FieldTaxAmount, Variants: []string{"세액", "Tax Amount", "VAT", "Tax"}, Exclude: []string{"율", "Rate"}},
	{Field: FieldTotal, Variants: []string{"총액", "Total"}},
}

// HeaderTokens mark the header row of the line-item table (case-sensitive)
var HeaderTokens = []string{"품목", "Description", "Item"}

// TrailerTokens end the line-item table when found in a row's first cell
var TrailerTokens = []string{"합계", "Total", "소계", "Subtotal"}

// Column roles of the line-item table
const (
	ColumnDescription = "description"
	ColumnQuantity    = "quantity"
	ColumnUnitPrice   = "unit_price"
	ColumnDiscount    = "discount"
	ColumnLineTotal   = "line_total"
)

// ColumnRole pairs a column role with the lower-case header fragments that claim it
type ColumnRole struct {
	Role   string
	Tokens []string
}

// ColumnRoles are tried in order against each lower-cased header cell.
// Discount precedes line total so "할인금액"/"Discount Amount" is not read
// as the row total.
var ColumnRoles = []ColumnRole{
	{Role: ColumnDescription, Tokens: []string{"품목", "description", "설명"}},
	{Role: ColumnQuantity, Tokens: []string{"수량", "quantity", "qty"}},
	{Role: ColumnUnitPrice, Tokens: []string{"단가", "unit"}},
	{Role: ColumnDiscount, Tokens: []string{"할인", "discount"}},
	{Role: ColumnLineTotal, Tokens: []string{"금액", "amount", "total"}},
}

// MatchColumnRole returns the first role whose token appears in header
func MatchColumnRole(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "", false
	}
	for _, cr := range ColumnRoles {
		for _, tok := range cr.Tokens {
			if strings.Contains(h, tok) {
				return cr.Role, true
			}
		}
	}
	return "", false
}
// Template label catalogs. Each label is looked up on its own; there is no
// Template probe catalogs. Each label is probed on its own; there is no
// variant fallback when analysing a template.
var (
	TemplateMetadataLabels = []string{
		"고객명", "Customer",
		"견적번호", "Quote Number",
		"견적일자", "Quote Date",
		"유효기한", "Valid Until",
		"통화", "Currency",
	}
	TemplateLineItemLabels = []string{
		"품목", "Item",
		"설명", "Description",
		"수량", "Quantity",
		"단가", "Unit Price",
		"금액", "Amount",
		"Total",
	}
	TemplateTotalLabels = []string{
		"소계", "Subtotal",
		"할인", "Discount",
		"세액", "Tax",
		"총액", "Total",
	}
)
