package seeders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
)

func init() {
	Register("categories", SeedCategories)
	Register("collections", SeedCollections)
	Register("products", SeedProducts)
}

type categorySeed struct {
	name, slug, description string
	sortOrder               int
	children                []categorySeed
}

var categoryTree = []categorySeed{
	{name: "Women", slug: "women", description: "Stitched and unstitched suits", sortOrder: 1, children: []categorySeed{
		{name: "Stitched", slug: "stitched", sortOrder: 1, children: []categorySeed{
			{name: "One Piece", slug: "one-piece", sortOrder: 1},
			{name: "Two Piece", slug: "two-piece", sortOrder: 2},
			{name: "Three Piece", slug: "three-piece", sortOrder: 3},
		}},
		{name: "Unstitched", slug: "unstitched", sortOrder: 2, children: []categorySeed{
			{name: "Two Piece", slug: "unstitched-two-piece", sortOrder: 1},
			{name: "Three Piece", slug: "unstitched-three-piece", sortOrder: 2},
		}},
	}},
	{name: "Men", slug: "men", description: "Kurtas and shalwar kameez", sortOrder: 2, children: []categorySeed{
		{name: "Kurta", slug: "men-kurta", sortOrder: 1},
		{name: "Shalwar Kameez", slug: "men-shalwar-kameez", sortOrder: 2},
	}},
	{name: "Kids", slug: "kids", description: "Clothing for boys and girls", sortOrder: 3, children: []categorySeed{
		{name: "Boys Shirts", slug: "boys-shirts", sortOrder: 1},
		{name: "Girls Frock", slug: "girls-frock", sortOrder: 2},
	}},
}

// SeedCategories creates the category tree, parents before children.
func SeedCategories(_ context.Context, db *gorm.DB) error {
	var walk func(nodes []categorySeed, parent *uint) error
	walk = func(nodes []categorySeed, parent *uint) error {
		for _, n := range nodes {
			c := models.Category{
				Name:        n.name,
				Slug:        n.slug,
				Description: n.description,
				ParentID:    parent,
				IsActive:    true,
				SortOrder:   n.sortOrder,
			}
			if err := db.Where(models.Category{Slug: n.slug}).FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("category %s: %w", n.slug, err)
			}
			if err := walk(n.children, &c.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(categoryTree, nil)
}

var collectionSeeds = []models.Collection{
	{Name: "Summer Collection", Slug: "summer-collection", Description: "Light lawn and chiffon for the warm months", IsActive: true},
	{Name: "Winter Collection", Slug: "winter-collection", Description: "Khaddar, karandi and velvet", IsActive: true},
	{Name: "New Arrivals", Slug: "new-arrivals", Description: "Fresh from the studio", IsActive: true},
}

func SeedCollections(_ context.Context, db *gorm.DB) error {
	for _, seed := range collectionSeeds {
		c := seed
		if err := db.Where(models.Collection{Slug: c.Slug}).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("collection %s: %w", c.Slug, err)
		}
	}
	return nil
}

type productSeed struct {
	product     models.Product
	category    string
	collections []string
}

var productSeeds = []productSeed{
	{
		category:    "two-piece",
		collections: []string{"summer-collection", "new-arrivals"},
		product: models.Product{
			Name:             "Elegant Summer Lawn Suit - Two Piece",
			Slug:             "elegant-summer-lawn-suit-two-piece",
			Description:      "Summer lawn suit with intricate embroidery work, made for casual and formal occasions.",
			ShortDescription: "Embroidered summer lawn suit",
			StitchType:       "stitched",
			PieceCount:       2,
			TargetGender:     "women",
			Season:           "summer",
			Price:            4500,
			DiscountedPrice:  3800,
			IsFeatured:       true,
			Images:           []models.ProductImage{{URL: "https://images.unsplash.com/photo-1594633312681-425c7b97ccd1?w=500", Alt: "Elegant Summer Lawn Suit"}},
			Variants: []models.Variant{
				{Size: "S", Color: "Blue", Stock: 10},
				{Size: "M", Color: "Blue", Stock: 15},
				{Size: "L", Color: "Blue", Stock: 8},
			},
			Colors:    []string{"Blue"},
			Tags:      []string{"summer", "lawn", "embroidery"},
			Features:  []string{"Premium lawn fabric", "Hand embroidery"},
			Materials: []string{"Lawn"},
		},
	},
	{
		category:    "unstitched-three-piece",
		collections: []string{"summer-collection"},
		product: models.Product{
			Name:             "Premium Unstitched Three Piece - Chiffon",
			Slug:             "premium-unstitched-three-piece-chiffon",
			Description:      "Unstitched three piece chiffon suit with digital prints and a matching dupatta.",
			ShortDescription: "Unstitched chiffon three piece",
			StitchType:       "unstitched",
			PieceCount:       3,
			TargetGender:     "women",
			Season:           "summer",
			Price:            6500,
			IsFeatured:       true,
			Images:           []models.ProductImage{{URL: "https://images.unsplash.com/photo-1583391733956-6c78276477e2?w=500", Alt: "Premium Chiffon Three Piece"}},
			Stock:            20,
			Colors:           []string{"Maroon", "Navy Blue", "Emerald Green"},
			Tags:             []string{"unstitched", "chiffon", "three-piece"},
			Materials:        []string{"Chiffon"},
		},
	},
	{
		category:    "boys-shirts",
		collections: []string{"new-arrivals"},
		product: models.Product{
			Name:             "Boys Cotton Shirt - Casual Wear",
			Slug:             "boys-cotton-shirt-casual",
			Description:      "Cotton shirt for boys, for school and casual outings.",
			ShortDescription: "Boys cotton shirt",
			StitchType:       "stitched",
			PieceCount:       1,
			TargetGender:     "boys",
			Season:           "all-season",
			Price:            1200,
			Variants: []models.Variant{
				{Size: "4-5Y", Color: "White", Stock: 12},
				{Size: "6-7Y", Color: "White", Stock: 6},
			},
			Colors:    []string{"White"},
			Materials: []string{"Cotton"},
		},
	},
	{
		category:    "girls-frock",
		collections: []string{"winter-collection"},
		product: models.Product{
			Name:             "Girls Velvet Frock",
			Slug:             "girls-velvet-frock",
			Description:      "Velvet party frock with an embellished neckline.",
			ShortDescription: "Velvet party frock",
			StitchType:       "stitched",
			PieceCount:       1,
			TargetGender:     "girls",
			Season:           "winter",
			Price:            2800,
			DiscountedPrice:  2400,
			Variants: []models.Variant{
				{Size: "2-3Y", Color: "Red", Stock: 4},
				{Size: "3-4Y", Color: "Red", Stock: 3},
			},
			Colors:    []string{"Red"},
			Materials: []string{"Velvet"},
		},
	},
}

// SeedProducts inserts the sample products. Their categories and
// collections must already exist.
func SeedProducts(_ context.Context, db *gorm.DB) error {
	for _, seed := range productSeeds {
		var n int64
		if err := db.Model(&models.Product{}).Where("slug = ?", seed.product.Slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}

		var cat models.Category
		if err := db.Where("slug = ?", seed.category).First(&cat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %s: category %s not seeded", seed.product.Slug, seed.category)
			}
			return err
		}
		var cols []models.Collection
		if err := db.Where("slug IN ?", seed.collections).Find(&cols).Error; err != nil {
			return err
		}

		p := seed.product
		p.CategoryID = cat.ID
		p.Collections = cols
		p.IsActive = true
		p.Images = append([]models.ProductImage(nil), seed.product.Images...)
		p.Variants = append([]models.Variant(nil), seed.product.Variants...)
		for i := range p.Variants {
			p.Variants[i].SKU = fmt.Sprintf("%s-%s-%s", p.Slug, p.Variants[i].Size, p.Variants[i].Color)
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("product %s: %w", p.Slug, err)
		}
	}
	return nil
}
