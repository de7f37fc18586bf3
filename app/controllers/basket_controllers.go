package controllers

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type BasketController struct {
	basket *services.BasketService
}

func NewBasketController(db *gorm.DB) *BasketController {
	return &BasketController{basket: services.NewBasketService(db)}
}

type countResult struct {
	Count int `json:"count"`
}

func (ctl *BasketController) Show(c *ctx.Context) {
	basket, err := ctl.basket.Get(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(basket)
}

func (ctl *BasketController) Add(c *ctx.Context) {
	var in services.AddToBasketInput
	if !c.BindJSON(&in) {
		return
	}
	n, err := ctl.basket.Add(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(countResult{Count: n})
}

func (ctl *BasketController) Update(c *ctx.Context) {
	var in services.UpdateBasketInput
	if !c.BindJSON(&in) {
		return
	}
	ctl.update(c, in)
}

func (ctl *BasketController) Remove(c *ctx.Context) {
	var in services.RemoveFromBasketInput
	if !c.BindJSON(&in) {
		return
	}
	ctl.remove(c, in)
}

// itemQuantity is the body of PUT /api/basket/{id}.
type itemQuantity struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (ctl *BasketController) UpdateItem(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in itemQuantity
	if !c.BindJSON(&in) {
		return
	}
	ctl.update(c, services.UpdateBasketInput{Items: []services.BasketItemUpdate{{ID: id, Quantity: in.Quantity}}})
}

func (ctl *BasketController) RemoveItem(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Fail(err)
		return
	}
	ctl.remove(c, services.RemoveFromBasketInput{Items: []uint{id}})
}

func (ctl *BasketController) update(c *ctx.Context, in services.UpdateBasketInput) {
	n, err := ctl.basket.Update(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(countResult{Count: n})
}

func (ctl *BasketController) remove(c *ctx.Context, in services.RemoveFromBasketInput) {
	n, err := ctl.basket.Remove(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(countResult{Count: n})
}
