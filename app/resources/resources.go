// Package resources shapes models for API responses, adding the derived
// fields the storefront renders.
package resources

import (
	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/collection"
)

// Product is a product with its computed pricing and stock fields.
type Product struct {
	*models.Product
	CurrentPrice       int64  `json:"currentPrice"`
	DiscountPercentage int    `json:"discountPercentage"`
	HasDiscount        bool   `json:"hasDiscount"`
	IsAvailable        bool   `json:"isAvailable"`
	CurrentStock       int    `json:"currentStock"`
	StockStatus        string `json:"stockStatus"`
}

func NewProduct(p *models.Product) *Product {
	if p == nil {
		return nil
	}
	if p.Images == nil {
		p.Images = []models.ProductImage{}
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	return &Product{
		Product:            p,
		CurrentPrice:       p.CurrentPrice(),
		DiscountPercentage: p.DiscountPercentage(),
		HasDiscount:        p.HasDiscount(),
		IsAvailable:        p.IsAvailable(),
		CurrentStock:       p.TotalStock,
		StockStatus:        p.StockStatus(),
	}
}

func Products(ps []models.Product) []*Product {
	if ps == nil {
		return []*Product{}
	}
	return collection.Map(ps, func(p models.Product) *Product { return NewProduct(&p) })
}

// Collection carries its member products as resources.
type Collection struct {
	models.Collection
	Products []*Product `json:"products"`
}

func NewCollection(c *models.Collection) *Collection {
	return &Collection{Collection: *c, Products: Products(c.Products)}
}

func Collections(cs []models.Collection) []models.Collection {
	if cs == nil {
		return []models.Collection{}
	}
	return cs
}

func Categories(cs []models.Category) []models.Category {
	if cs == nil {
		return []models.Category{}
	}
	return cs
}
