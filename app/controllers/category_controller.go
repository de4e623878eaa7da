package controllers

import (
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

type CategoryController struct {
	catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{catalog: catalog}
}

func (cc *CategoryController) Index(c *ctx.Context) {
	cats, err := cc.catalog.ListCategories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"categories": resources.Categories(cats)})
}

func (cc *CategoryController) Show(c *ctx.Context) {
	cat, err := cc.catalog.FindCategory(c.Context(), c.Param("idOrSlug"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"category": cat})
}

func (cc *CategoryController) Store(c *ctx.Context) {
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := cc.catalog.CreateCategory(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created("Category created successfully", map[string]any{"category": cat})
}

func (cc *CategoryController) Update(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := cc.catalog.UpdateCategory(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message("Category updated successfully", map[string]any{"category": cat})
}

// Destroy refuses while products still reference the category.
func (cc *CategoryController) Destroy(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	if err := cc.catalog.DeleteCategory(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Category deleted successfully", nil)
}
