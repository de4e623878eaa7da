package models

import (
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Catalog enumerations.
var (
	Sizes         = []string{"XS", "S", "M", "L", "XL", "XXL", "0-6M", "6-12M", "1-2Y", "2-3Y", "3-4Y", "4-5Y", "5-6Y", "6-7Y", "7-8Y", "8-9Y", "9-10Y"}
	StitchTypes   = []string{"stitched", "unstitched"}
	TargetGenders = []string{"women", "men", "boys", "girls"}
	Seasons       = []string{"winter", "summer", "all-season"}
)

const StitchUnstitched = "unstitched"

// Product is a catalogue entry. Price fields are whole currency units.
type Product struct {
	Base
	Name             string `gorm:"size:200;not null;index" json:"name"`
	Slug             string `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Description      string `gorm:"size:2000;not null" json:"description"`
	ShortDescription string `gorm:"size:500" json:"shortDescription"`

	CategoryID  uint         `gorm:"not null;index" json:"categoryId"`
	Category    *Category    `json:"category,omitempty"`
	Collections []Collection `gorm:"many2many:product_collections" json:"collections,omitempty"`

	StitchType   string `gorm:"size:20;not null;index" json:"stitchType"`
	PieceCount   int    `gorm:"not null" json:"pieceCount"`
	TargetGender string `gorm:"size:10;not null;index" json:"targetGender"`
	Season       string `gorm:"size:20;not null;default:all-season" json:"season"`
	Brand        string `gorm:"size:50" json:"brand"`

	Images   []ProductImage `json:"images"`
	Variants []Variant      `json:"variants"`

	Colors           []string `gorm:"serializer:json" json:"colors"`
	Tags             []string `gorm:"serializer:json" json:"tags"`
	Features         []string `gorm:"serializer:json" json:"features"`
	Materials        []string `gorm:"serializer:json" json:"materials"`
	CareInstructions string   `gorm:"size:1000" json:"careInstructions"`

	Price           int64 `gorm:"not null;index" json:"price"`
	DiscountedPrice int64 `gorm:"not null;default:0" json:"discountedPrice"`

	IsActive      bool    `gorm:"not null;default:true;index" json:"isActive"`
	IsFeatured    bool    `gorm:"not null;default:false;index" json:"isFeatured"`
	RatingAverage float64 `gorm:"not null;default:0" json:"ratingAverage"`
	RatingCount   int     `gorm:"not null;default:0" json:"ratingCount"`

	Stock      int `gorm:"not null;default:0" json:"stock"`
	TotalStock int `gorm:"not null;default:0;index" json:"totalStock"`
	SoldCount  int `gorm:"not null;default:0" json:"soldCount"`
}

// Variant is one size/colour combination with its own stock.
type Variant struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"productId"`
	Size      string `gorm:"size:10" json:"size"`
	Color     string `gorm:"size:50" json:"color"`
	Stock     int    `gorm:"not null;default:0" json:"stock"`
	Price     int64  `gorm:"not null;default:0" json:"price"`
	SKU       string `gorm:"size:64" json:"sku"`
}

func (Variant) TableName() string { return "product_variants" }

type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"productId"`
	URL       string `gorm:"size:500;not null" json:"url"`
	Alt       string `gorm:"size:200" json:"alt"`
	Path      string `gorm:"size:300" json:"-"`
	Position  int    `gorm:"not null;default:0" json:"position"`
}

// BeforeSave keeps TotalStock equal to the variant sum, or to Stock when
// the product has no variants.
func (p *Product) BeforeSave(*gorm.DB) error {
	p.TotalStock = p.ComputeTotalStock()
	return nil
}

func (p *Product) ComputeTotalStock() int {
	if len(p.Variants) == 0 {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// HasDiscount reports whether the discounted price undercuts the list price.
func (p *Product) HasDiscount() bool {
	return p.DiscountedPrice > 0 && p.DiscountedPrice < p.Price
}

// CurrentPrice is what the product sells for without a specific variant.
func (p *Product) CurrentPrice() int64 {
	if p.HasDiscount() {
		return p.DiscountedPrice
	}
	return p.Price
}

func (p *Product) DiscountPercentage() int {
	if !p.HasDiscount() || p.Price == 0 {
		return 0
	}
	return int(math.Round(float64(p.Price-p.DiscountedPrice) / float64(p.Price) * 100))
}

// UnitPrice prices one unit of v (nil for variantless products). The
// variant price overrides the list price; the discounted price applies when
// it is lower than that base.
func (p *Product) UnitPrice(v *Variant) int64 {
	base := p.Price
	if v != nil && v.Price > 0 {
		base = v.Price
	}
	if p.DiscountedPrice > 0 && p.DiscountedPrice < base {
		return p.DiscountedPrice
	}
	return base
}

// FindVariant resolves the stock unit for size/colour. Matching is
// case-insensitive on both. An unstitched product with a single variant
// matches any selection. A product without variants returns (nil, true):
// stock is tracked on the product.
func (p *Product) FindVariant(size, color string) (*Variant, bool) {
	if len(p.Variants) == 0 {
		return nil, true
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if strings.EqualFold(v.Size, size) && strings.EqualFold(v.Color, color) {
			return v, true
		}
	}
	if p.StitchType == StitchUnstitched && len(p.Variants) == 1 {
		return &p.Variants[0], true
	}
	return nil, false
}

// Available returns the stock for the resolved unit.
func (p *Product) Available(v *Variant) int {
	if v != nil {
		return v.Stock
	}
	return p.Stock
}

// StockStatus renders the storefront stock label.
func (p *Product) StockStatus() string {
	switch {
	case p.TotalStock > 10:
		return "In Stock"
	case p.TotalStock > 0:
		return "Only " + strconv.Itoa(p.TotalStock) + " left"
	default:
		return "Out of Stock"
	}
}

func (p *Product) IsAvailable() bool { return p.IsActive && p.TotalStock > 0 }
