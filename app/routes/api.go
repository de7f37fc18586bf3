package routes

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/controllers"
	appgraphql "github.com/shashiranjanraj/bazaar/app/graphql"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/graphql"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/middleware"
	"github.com/shashiranjanraj/bazaar/pkg/rbac"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
	"github.com/shashiranjanraj/bazaar/pkg/ws"
)

// Deps are the shared resources controllers are built on. Disk may be nil
// to skip price-list archiving; Hub may be nil outside the server.
type Deps struct {
	DB   *gorm.DB
	Disk storage.Disk
	Hub  *ws.Hub
}

func RegisterAPI(r *router.Router, d Deps) {
	hub := d.Hub
	if hub == nil {
		hub = ws.NewHub()
	}

	account := controllers.NewAccountController(d.DB)
	catalog := controllers.NewCatalogController(d.DB)
	basket := controllers.NewBasketController(d.DB)
	orders := controllers.NewOrderController(d.DB)
	partner := controllers.NewPartnerController(d.DB, d.Disk, hub)

	api := r.Group("/api")

	api.Post("/user/register", "user.register", ctx.Wrap(account.Register))
	api.Post("/user/register/confirm", "user.confirm", ctx.Wrap(account.Confirm))
	api.Post("/user/login", "user.login", ctx.Wrap(account.Login))
	api.Post("/user/refresh", "user.refresh", ctx.Wrap(account.Refresh))

	api.Get("/categories", "catalog.categories", ctx.Wrap(catalog.Categories))
	api.Get("/shops", "catalog.shops", ctx.Wrap(catalog.Shops))
	api.Get("/products", "catalog.products", ctx.Wrap(catalog.Products))

	protected := api.Group("", middleware.AuthMiddleware)

	protected.Get("/user/details", "user.details", ctx.Wrap(account.Details))
	protected.Post("/user/details", "user.details.update", ctx.Wrap(account.UpdateDetails))
	protected.Get("/user/contacts", "contacts.index", ctx.Wrap(account.Contacts))
	protected.Post("/user/contacts", "contacts.store", ctx.Wrap(account.StoreContact))
	protected.Put("/user/contacts/{id}", "contacts.update", ctx.Wrap(account.UpdateContact))
	protected.Delete("/user/contacts/{id}", "contacts.destroy", ctx.Wrap(account.DestroyContact))

	protected.Get("/basket", "basket.show", ctx.Wrap(basket.Show))
	protected.Post("/basket", "basket.add", ctx.Wrap(basket.Add))
	protected.Put("/basket", "basket.update", ctx.Wrap(basket.Update))
	protected.Delete("/basket", "basket.remove", ctx.Wrap(basket.Remove))
	protected.Put("/basket/{id}", "basket.item.update", ctx.Wrap(basket.UpdateItem))
	protected.Delete("/basket/{id}", "basket.item.remove", ctx.Wrap(basket.RemoveItem))

	protected.Get("/order", "orders.index", ctx.Wrap(orders.Index))
	protected.Post("/order", "orders.place", ctx.Wrap(orders.Place))

	shop := protected.Group("/partner", rbac.HasRole(models.TypeShop))
	shop.Post("/update", "partner.update", ctx.Wrap(partner.Update))
	shop.Get("/state", "partner.state", ctx.Wrap(partner.State))
	shop.Post("/state", "partner.state.update", ctx.Wrap(partner.SetState))
	shop.Get("/orders", "partner.orders", ctx.Wrap(partner.Orders))
	shop.Get("/feed", "partner.feed", ctx.Wrap(partner.Feed))

	schema, err := appgraphql.NewSchema(services.NewCatalogService(d.DB))
	if err != nil {
		logger.Error("routes: graphql schema", "error", err)
		return
	}
	r.Post("/graphql", "graphql", graphql.Handler(schema))
}
