package controllers

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(db *gorm.DB) *CatalogController {
	return &CatalogController{service: services.NewCatalogService(db)}
}

func (ctl *CatalogController) Categories(c *ctx.Context) {
	cats, err := ctl.service.Categories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cats)
}

func (ctl *CatalogController) Shops(c *ctx.Context) {
	shops, err := ctl.service.Shops(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(shops)
}

// Products accepts optional shop_id and category_id filters.
func (ctl *CatalogController) Products(c *ctx.Context) {
	shopID, err := c.QueryUint("shop_id")
	if err != nil {
		c.Fail(err)
		return
	}
	categoryID, err := c.QueryUint("category_id")
	if err != nil {
		c.Fail(err)
		return
	}
	offers, err := ctl.service.Products(c.Context(), shopID, categoryID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(offers)
}
