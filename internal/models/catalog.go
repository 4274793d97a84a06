package models

import "fmt"

// Variant is one purchasable option of a product (a size, a colour).
type Variant struct {
	ID      string
	Label   string
	Size    string
	SoldOut bool
}

// Product is a catalog entry. Products without variants are bought as-is.
type Product struct {
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Variants    []Variant
}

// HasVariants reports whether a variant must be chosen before buying.
func (p Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// HasSizes reports whether any variant carries size data.
func (p Product) HasSizes() bool {
	for _, v := range p.Variants {
		if v.Size != "" {
			return true
		}
	}
	return false
}

// Variant returns the variant with the given ID.
func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// FormattedPrice returns the unit price with its currency.
func (p Product) FormattedPrice() string {
	return FormatAmount(p.PriceCents, p.Currency)
}

// FormatAmount renders minor units as "12.50 EUR".
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(amount)/100.0, currency)
}
