// Package graphql exposes a read-only view of the catalog at /graphql.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/collection"
	gql "github.com/shashiranjanraj/pehnawa/pkg/graphql"
)

var variantType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Variant",
	Fields: graphql.Fields{
		"id":    &graphql.Field{Type: graphql.Int},
		"size":  &graphql.Field{Type: graphql.String},
		"color": &graphql.Field{Type: graphql.String},
		"stock": &graphql.Field{Type: graphql.Int},
		"price": &graphql.Field{Type: graphql.Int},
		"sku":   &graphql.Field{Type: graphql.String},
	},
})

var imageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Image",
	Fields: graphql.Fields{
		"url":      &graphql.Field{Type: graphql.String},
		"alt":      &graphql.Field{Type: graphql.String},
		"position": &graphql.Field{Type: graphql.Int},
	},
})

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.Int},
		"name":         &graphql.Field{Type: graphql.String},
		"slug":         &graphql.Field{Type: graphql.String},
		"description":  &graphql.Field{Type: graphql.String},
		"image":        &graphql.Field{Type: graphql.String},
		"productCount": &graphql.Field{Type: graphql.Int},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":                 &graphql.Field{Type: graphql.Int},
		"name":               &graphql.Field{Type: graphql.String},
		"slug":               &graphql.Field{Type: graphql.String},
		"description":        &graphql.Field{Type: graphql.String},
		"shortDescription":   &graphql.Field{Type: graphql.String},
		"brand":              &graphql.Field{Type: graphql.String},
		"stitchType":         &graphql.Field{Type: graphql.String},
		"pieceCount":         &graphql.Field{Type: graphql.Int},
		"targetGender":       &graphql.Field{Type: graphql.String},
		"season":             &graphql.Field{Type: graphql.String},
		"price":              &graphql.Field{Type: graphql.Int},
		"discountedPrice":    &graphql.Field{Type: graphql.Int},
		"currentPrice":       &graphql.Field{Type: graphql.Int},
		"discountPercentage": &graphql.Field{Type: graphql.Int},
		"hasDiscount":        &graphql.Field{Type: graphql.Boolean},
		"isAvailable":        &graphql.Field{Type: graphql.Boolean},
		"isFeatured":         &graphql.Field{Type: graphql.Boolean},
		"totalStock":         &graphql.Field{Type: graphql.Int},
		"stockStatus":        &graphql.Field{Type: graphql.String},
		"colors":             &graphql.Field{Type: graphql.NewList(graphql.String)},
		"tags":               &graphql.Field{Type: graphql.NewList(graphql.String)},
		"category":           &graphql.Field{Type: categoryType},
		"images":             &graphql.Field{Type: graphql.NewList(imageType)},
		"variants":           &graphql.Field{Type: graphql.NewList(variantType)},
	},
})

var productPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductPage",
	Fields: graphql.Fields{
		"items": &graphql.Field{Type: graphql.NewList(productType)},
		"total": &graphql.Field{Type: graphql.Int},
		"page":  &graphql.Field{Type: graphql.Int},
		"pages": &graphql.Field{Type: graphql.Int},
	},
})

var collectionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Collection",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.Int},
		"name":        &graphql.Field{Type: graphql.String},
		"slug":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"image":       &graphql.Field{Type: graphql.String},
		"products":    &graphql.Field{Type: graphql.NewList(productType)},
	},
})

// NewSchema builds the catalog schema on top of the catalog service. Only
// active products are reachable.
func NewSchema(catalog *services.CatalogService) (graphql.Schema, error) {
	r := resolver{catalog: catalog}
	key := graphql.FieldConfigArgument{"key": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: productPageType,
				Args: graphql.FieldConfigArgument{
					"category":   &graphql.ArgumentConfig{Type: graphql.String},
					"collection": &graphql.ArgumentConfig{Type: graphql.String},
					"search":     &graphql.ArgumentConfig{Type: graphql.String},
					"gender":     &graphql.ArgumentConfig{Type: graphql.String},
					"minPrice":   &graphql.ArgumentConfig{Type: graphql.Int},
					"maxPrice":   &graphql.ArgumentConfig{Type: graphql.Int},
					"sort":       &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "-createdAt"},
					"page":       &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 12},
				},
				Resolve: r.products,
			},
			"featured": &graphql.Field{
				Type:    graphql.NewList(productType),
				Args:    graphql.FieldConfigArgument{"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 8}},
				Resolve: r.featured,
			},
			"product":     &graphql.Field{Type: productType, Args: key, Resolve: r.product},
			"categories":  &graphql.Field{Type: graphql.NewList(categoryType), Resolve: r.categories},
			"category":    &graphql.Field{Type: categoryType, Args: key, Resolve: r.category},
			"collections": &graphql.Field{Type: graphql.NewList(collectionType), Resolve: r.collections},
			"collection":  &graphql.Field{Type: collectionType, Args: key, Resolve: r.collection},
		},
	})
	return gql.NewSchema(query)
}

type resolver struct {
	catalog *services.CatalogService
}

func (r resolver) products(p graphql.ResolveParams) (any, error) {
	q := services.ProductQuery{
		Category:   stringArg(p, "category"),
		Collection: stringArg(p, "collection"),
		Search:     stringArg(p, "search"),
		Gender:     stringArg(p, "gender"),
		MinPrice:   int64Arg(p, "minPrice"),
		MaxPrice:   int64Arg(p, "maxPrice"),
		Sort:       stringArg(p, "sort"),
		Page:       intArg(p, "page"),
		Limit:      intArg(p, "limit"),
	}
	items, page, err := r.catalog.FindProducts(p.Context, q)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"items": productMaps(items),
		"total": int(page.Total),
		"page":  page.Page,
		"pages": page.Pages,
	}, nil
}

func (r resolver) featured(p graphql.ResolveParams) (any, error) {
	items, err := r.catalog.FeaturedProducts(p.Context, intArg(p, "limit"))
	if err != nil {
		return nil, err
	}
	return productMaps(items), nil
}

func (r resolver) product(p graphql.ResolveParams) (any, error) {
	found, err := r.catalog.FindProduct(p.Context, stringArg(p, "key"), false)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return productMap(found), nil
}

func (r resolver) categories(p graphql.ResolveParams) (any, error) {
	cats, err := r.catalog.ListCategories(p.Context)
	if err != nil {
		return nil, err
	}
	return collection.Map(cats, func(c models.Category) map[string]any { return categoryMap(&c) }), nil
}

func (r resolver) category(p graphql.ResolveParams) (any, error) {
	c, err := r.catalog.FindCategory(p.Context, stringArg(p, "key"))
	if err != nil {
		return nil, err
	}
	return categoryMap(c), nil
}

func (r resolver) collections(p graphql.ResolveParams) (any, error) {
	cols, err := r.catalog.ListCollections(p.Context)
	if err != nil {
		return nil, err
	}
	return collection.Map(cols, func(c models.Collection) map[string]any { return collectionMap(&c) }), nil
}

func (r resolver) collection(p graphql.ResolveParams) (any, error) {
	c, err := r.catalog.FindCollection(p.Context, stringArg(p, "key"))
	if err != nil {
		return nil, err
	}
	return collectionMap(c), nil
}

func productMaps(ps []models.Product) []map[string]any {
	out := make([]map[string]any, 0, len(ps))
	for i := range ps {
		out = append(out, productMap(&ps[i]))
	}
	return out
}

func productMap(m *models.Product) map[string]any {
	p := resources.NewProduct(m)
	out := map[string]any{
		"id":                 int(p.ID),
		"name":               p.Name,
		"slug":               p.Slug,
		"description":        p.Description,
		"shortDescription":   p.ShortDescription,
		"brand":              p.Brand,
		"stitchType":         p.StitchType,
		"pieceCount":         p.PieceCount,
		"targetGender":       p.TargetGender,
		"season":             p.Season,
		"price":              int(p.Price),
		"discountedPrice":    int(p.DiscountedPrice),
		"currentPrice":       int(p.CurrentPrice),
		"discountPercentage": p.DiscountPercentage,
		"hasDiscount":        p.HasDiscount,
		"isAvailable":        p.IsAvailable,
		"isFeatured":         p.IsFeatured,
		"totalStock":         p.CurrentStock,
		"stockStatus":        p.StockStatus,
		"colors":             p.Colors,
		"tags":               p.Tags,
		"images": collection.Map(p.Images, func(i models.ProductImage) map[string]any {
			return map[string]any{"url": i.URL, "alt": i.Alt, "position": i.Position}
		}),
		"variants": collection.Map(p.Variants, func(v models.Variant) map[string]any {
			return map[string]any{"id": int(v.ID), "size": v.Size, "color": v.Color, "stock": v.Stock, "price": int(v.Price), "sku": v.SKU}
		}),
	}
	if p.Category != nil {
		out["category"] = categoryMap(p.Category)
	}
	return out
}

func categoryMap(c *models.Category) map[string]any {
	return map[string]any{
		"id":           int(c.ID),
		"name":         c.Name,
		"slug":         c.Slug,
		"description":  c.Description,
		"image":        c.Image,
		"productCount": int(c.ProductCount),
	}
}

func collectionMap(c *models.Collection) map[string]any {
	active := collection.Filter(c.Products, func(p models.Product) bool { return p.IsActive })
	return map[string]any{
		"id":          int(c.ID),
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"image":       c.Image,
		"products":    productMaps(active),
	}
}

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func intArg(p graphql.ResolveParams, name string) int {
	n, _ := p.Args[name].(int)
	return n
}

func int64Arg(p graphql.ResolveParams, name string) *int64 {
	n, ok := p.Args[name].(int)
	if !ok {
		return nil
	}
	v := int64(n)
	return &v
}
