package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 99")
	ErrVariantRequired  = errors.New("a variant must be selected")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrVariantSoldOut   = errors.New("variant is sold out")
	ErrCurrencyMismatch = errors.New("cart cannot mix currencies")
)

const MaxLineQuantity = 99

// CartLine is one product variant in a cart.
type CartLine struct {
	Slug         string
	Name         string
	VariantID    string
	VariantLabel string
	Quantity     int
	UnitPrice    int64
	Currency     string
}

// Total returns the line amount in minor units.
func (l CartLine) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart belongs to one shopper session.
type Cart struct {
	ID    string
	Lines []CartLine
}

// Add puts quantity units of product into the cart, merging with an
// existing line for the same variant.
func (c *Cart) Add(product Product, variantID string, quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return ErrInvalidQuantity
	}

	var label string
	if product.HasVariants() {
		if variantID == "" {
			return ErrVariantRequired
		}
		v, ok := product.Variant(variantID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariant, variantID)
		}
		if v.SoldOut {
			return fmt.Errorf("%w: %s", ErrVariantSoldOut, v.Label)
		}
		label = v.Label
	} else {
		variantID = ""
	}

	if currency := c.Currency(); currency != "" && currency != product.Currency {
		return ErrCurrencyMismatch
	}

	for i := range c.Lines {
		line := &c.Lines[i]
		if line.Slug == product.Slug && line.VariantID == variantID {
			if line.Quantity+quantity > MaxLineQuantity {
				return ErrInvalidQuantity
			}
			line.Quantity += quantity
			return nil
		}
	}

	c.Lines = append(c.Lines, CartLine{
		Slug:         product.Slug,
		Name:         product.Name,
		VariantID:    variantID,
		VariantLabel: label,
		Quantity:     quantity,
		UnitPrice:    product.PriceCents,
		Currency:     product.Currency,
	})
	return nil
}

// Count returns the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total returns the cart amount in minor units.
func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Total()
	}
	return total
}

// Currency returns the currency of the cart's lines, or "" for an empty cart.
func (c *Cart) Currency() string {
	if len(c.Lines) == 0 {
		return ""
	}
	return c.Lines[0].Currency
}

func (c *Cart) FormattedTotal() string {
	return FormatAmount(c.Total(), c.Currency())
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	return &Cart{ID: c.ID, Lines: append([]CartLine(nil), c.Lines...)}
}
