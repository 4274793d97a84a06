package services

import (
	"errors"
	"slices"

	"github.com/adyen/storesmoke/internal/models"
)

var ErrUnknownProduct = errors.New("unknown product")

// Catalog lists the products on sale.
type Catalog interface {
	Products() []models.Product
	Product(slug string) (models.Product, bool)
}

// StaticCatalog is a fixed, in-memory catalog.
type StaticCatalog struct {
	products []models.Product
}

func NewCatalog(products []models.Product) *StaticCatalog {
	return &StaticCatalog{products: slices.Clone(products)}
}

func (c *StaticCatalog) Products() []models.Product {
	return slices.Clone(c.products)
}

func (c *StaticCatalog) Product(slug string) (models.Product, bool) {
	i := slices.IndexFunc(c.products, func(p models.Product) bool { return p.Slug == slug })
	if i < 0 {
		return models.Product{}, false
	}
	return c.products[i], true
}
