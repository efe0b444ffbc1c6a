package review

import (
	"regexp"
	"strings"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

// MaskedLineItem is a line item with prices replaced by a range label
type MaskedLineItem struct {
	entity.LineItem
	PriceRange string `json:"_priceRange"`
}

// MaskedTotals is the totals block with amounts replaced by a range label
type MaskedTotals struct {
	entity.QuoteTotals
	TotalRange string `json:"_totalRange"`
}

// MaskedQuote is the only quote shape sent to an AI reviewer
type MaskedQuote struct {
	Metadata  entity.QuoteMetadata `json:"metadata"`
	LineItems []MaskedLineItem     `json:"line_items"`
	Totals    MaskedTotals         `json:"totals"`
}

// Mask copies q with personal data obscured and every amount replaced by a
// coarse range. q is not modified.
func Mask(q *entity.Quote) MaskedQuote {
	md := q.Metadata
	if md.Extra != nil {
		extra := make(map[string]string, len(md.Extra))
		for k, v := range md.Extra {
			extra[k] = v
		}
		md.Extra = extra
	}
	if md.CustomerName != "" {
		md.CustomerName = MaskName(md.CustomerName)
	}
	if md.ContactPerson != "" {
		md.ContactPerson = MaskName(md.ContactPerson)
	}
	if md.Phone != "" {
		md.Phone = MaskPhone(md.Phone)
	}
	if md.Email != "" {
		md.Email = MaskEmail(md.Email)
	}

	items := make([]MaskedLineItem, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		masked := li
		masked.UnitPrice = entity.Float(0)
		masked.LineTotal = 0
		if li.DiscountAmount != nil {
			masked.DiscountAmount = entity.Float(0)
		}
		items = append(items, MaskedLineItem{LineItem: masked, PriceRange: AmountRange(li.UnitPriceValue())})
	}

	totals := q.Totals
	totals.Subtotal = 0
	totals.TaxAmount = 0
	totals.Total = 0
	if totals.DiscountAmount != nil {
		totals.DiscountAmount = entity.Float(0)
	}

	return MaskedQuote{
		Metadata:  md,
		LineItems: items,
		Totals:    MaskedTotals{QuoteTotals: totals, TotalRange: AmountRange(q.Totals.Total)},
	}
}

// MaskName keeps the first and last character: "홍길동" becomes "홍*동".
// Names of two characters or fewer become "***".
func MaskName(name string) string {
	r := []rune(name)
	if len(r) <= 2 {
		return "***"
	}
	return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
}

var trailingFourDigits = regexp.MustCompile(`\d{4}$`)

// MaskPhone replaces the trailing four digits with stars
func MaskPhone(phone string) string {
	return trailingFourDigits.ReplaceAllString(phone, "****")
}

// MaskEmail keeps two characters of the local part and the domain
func MaskEmail(email string) string {
	local, domain, found := strings.Cut(email, "@")
	r := []rune(local)
	if len(r) > 2 {
		r = r[:2]
	}
	if !found {
		return string(r) + "***"
	}
	return string(r) + "***@" + domain
}

// AmountRange buckets an amount in the quote's currency units
func AmountRange(amount float64) string {
	switch {
	case amount < 1_000:
		return "< 1K"
	case amount < 10_000:
		return "1K-10K"
	case amount < 100_000:
		return "10K-100K"
	case amount < 1_000_000:
		return "100K-1M"
	default:
		return "> 1M"
	}
}
