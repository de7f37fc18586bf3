package controllers

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{orders: services.NewOrderService(db)}
}

func (ctl *OrderController) Index(c *ctx.Context) {
	list, page, err := ctl.orders.List(c.Context(), c.UserID(), orm.PageRequest(c.Query("page"), c.Query("per_page")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(list, page)
}

func (ctl *OrderController) Place(c *ctx.Context) {
	var in services.PlaceOrderInput
	if !c.BindJSON(&in) {
		return
	}
	order, err := ctl.orders.Place(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(order)
}
