package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/apperr"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

// maxImageBytes bounds one multipart product image upload.
const maxImageBytes = 5 << 20

type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Index lists products. Only admins may use the status filter to see
// inactive products.
func (pc *ProductController) Index(c *ctx.Context) {
	q := services.ProductQuery{
		Category:   c.Query("category"),
		Collection: c.Query("collection"),
		Search:     c.Query("search"),
		MinPrice:   c.QueryInt64Ptr("minPrice"),
		MaxPrice:   c.QueryInt64Ptr("maxPrice"),
		Gender:     c.DefaultQuery("targetGender", c.Query("gender")),
		StitchType: c.Query("stitchType"),
		Season:     c.Query("season"),
		Featured:   c.QueryBoolPtr("featured"),
		Sort:       c.DefaultQuery("sort", "-createdAt"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 12),
	}
	if n := c.QueryInt("pieceCount", 0); n > 0 {
		q.PieceCount = &n
	}
	if c.IsAdmin() {
		q.Status = c.Query("status")
	}

	products, p, err := pc.catalog.FindProducts(c.Context(), q)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated("products", resources.Products(products), p)
}

func (pc *ProductController) Featured(c *ctx.Context) {
	products, err := pc.catalog.FeaturedProducts(c.Context(), c.QueryInt("limit", 8))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"products": resources.Products(products)})
}

// Show hides inactive products from everyone but admins.
func (pc *ProductController) Show(c *ctx.Context) {
	p, err := pc.catalog.FindProduct(c.Context(), c.Param("idOrSlug"), c.IsAdmin())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"product": resources.NewProduct(p)})
}

func (pc *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.CreateProduct(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created("Product created successfully", map[string]any{"product": resources.NewProduct(p)})
}

func (pc *ProductController) Update(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in services.ProductUpdate
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.UpdateProduct(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message("Product updated successfully", map[string]any{"product": resources.NewProduct(p)})
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	if err := pc.catalog.DeleteProduct(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Product deleted successfully", nil)
}

// UploadImage stores the multipart "image" field and appends it to the
// product's gallery.
func (pc *ProductController) UploadImage(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, maxImageBytes)
	file, header, err := c.R.FormFile("image")
	if err != nil {
		c.Fail(apperr.ValidationFields(map[string]string{"image": "An image file up to 5 MB is required."}))
		return
	}
	defer file.Close()

	img, err := pc.catalog.UploadProductImage(c.Context(), id, header.Filename, file, c.R.FormValue("alt"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created("Image uploaded successfully", map[string]any{"image": img})
}

func (pc *ProductController) DeleteImage(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	imageID, err := c.ParamID("imageId")
	if err != nil {
		c.Fail(err)
		return
	}
	if err := pc.catalog.DeleteProductImage(c.Context(), id, imageID); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Image deleted successfully", nil)
}
