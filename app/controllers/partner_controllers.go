package controllers

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
	"github.com/shashiranjanraj/bazaar/pkg/ws"
)

type PartnerController struct {
	partner  *services.PartnerService
	importer *services.ImportService
	hub      *ws.Hub
}

// NewPartnerController archives imports on disk (nil disables archiving)
// and serves the live order feed from hub.
func NewPartnerController(db *gorm.DB, disk storage.Disk, hub *ws.Hub) *PartnerController {
	return &PartnerController{
		partner:  services.NewPartnerService(db),
		importer: services.NewImportService(db, disk),
		hub:      hub,
	}
}

type importInput struct {
	URL string `json:"url" validate:"required"`
}

// Update imports the price list at the posted url.
func (ctl *PartnerController) Update(c *ctx.Context) {
	var in importInput
	if !c.BindJSON(&in) {
		return
	}
	res, err := ctl.importer.Import(c.Context(), c.UserID(), in.URL)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ctl *PartnerController) State(c *ctx.Context) {
	shop, err := ctl.partner.Shop(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(shop)
}

func (ctl *PartnerController) SetState(c *ctx.Context) {
	var in services.StateInput
	if !c.BindJSON(&in) {
		return
	}
	shop, err := ctl.partner.SetState(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(shop)
}

func (ctl *PartnerController) Orders(c *ctx.Context) {
	list, page, err := ctl.partner.Orders(c.Context(), c.UserID(), orm.PageRequest(c.Query("page"), c.Query("per_page")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(list, page)
}

// Feed upgrades to a WebSocket that receives order.placed notices for the
// caller's shop.
func (ctl *PartnerController) Feed(c *ctx.Context) {
	shop, err := ctl.partner.Shop(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	ws.Upgrade(c.W, c.R, ctl.hub, shop.ID)
}
