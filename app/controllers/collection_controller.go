package controllers

import (
	"github.com/shashiranjanraj/pehnawa/app/resources"
	"github.com/shashiranjanraj/pehnawa/app/services"
	"github.com/shashiranjanraj/pehnawa/pkg/ctx"
)

type CollectionController struct {
	catalog *services.CatalogService
}

func NewCollectionController(catalog *services.CatalogService) *CollectionController {
	return &CollectionController{catalog: catalog}
}

func (cc *CollectionController) Index(c *ctx.Context) {
	cols, err := cc.catalog.ListCollections(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"collections": resources.Collections(cols)})
}

func (cc *CollectionController) Show(c *ctx.Context) {
	col, err := cc.catalog.FindCollection(c.Context(), c.Param("idOrSlug"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{"collection": resources.NewCollection(col)})
}

func (cc *CollectionController) Store(c *ctx.Context) {
	var in services.CollectionInput
	if !c.BindJSON(&in) {
		return
	}
	col, err := cc.catalog.CreateCollection(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created("Collection created successfully", map[string]any{"collection": col})
}

func (cc *CollectionController) Update(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in services.CollectionInput
	if !c.BindJSON(&in) {
		return
	}
	col, err := cc.catalog.UpdateCollection(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message("Collection updated successfully", map[string]any{"collection": col})
}

func (cc *CollectionController) Destroy(c *ctx.Context) {
	id, err := c.ParamID("id")
	if err != nil {
		c.Fail(err)
		return
	}
	if err := cc.catalog.DeleteCollection(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Collection deleted successfully", nil)
}
