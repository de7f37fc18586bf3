package routes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/pkg/app"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/migration"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/testkit"

	_ "github.com/shashiranjanraj/bazaar/database/migrations"
)

func TestStorefrontFlow(t *testing.T) {
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	_, err = migration.New(db, nil).Run()
	require.NoError(t, err)

	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)
	for _, u := range []models.User{
		{FirstName: "Cam", LastName: "Buyer", Email: "customer@bazaar.test", Type: models.TypeCustomer, IsActive: true, Password: hash},
		{FirstName: "Pat", LastName: "Seller", Email: "partner@bazaar.test", Type: models.TypeShop, IsActive: true, Password: hash},
	} {
		require.NoError(t, db.Create(&u).Error)
	}

	handler := app.New().Routes(func(r *router.Router) {
		routes.RegisterAPI(r, routes.Deps{DB: db})
	}).Handler()

	testkit.RunFile(t, handler, "testdata/storefront.json")
}

func TestRouteNames(t *testing.T) {
	list := app.New().Routes(func(r *router.Router) {
		routes.RegisterAPI(r, routes.Deps{})
	}).RouteList()

	names := map[string]string{}
	for _, ri := range list {
		names[ri.Name] = ri.Method + " " + ri.Path
	}
	for name, want := range map[string]string{
		"user.register":        "POST /api/user/register",
		"user.confirm":         "POST /api/user/register/confirm",
		"user.details.update":  "POST /api/user/details",
		"contacts.destroy":     "DELETE /api/user/contacts/{id}",
		"catalog.products":     "GET /api/products",
		"basket.item.update":   "PUT /api/basket/{id}",
		"orders.place":         "POST /api/order",
		"partner.update":       "POST /api/partner/update",
		"partner.state.update": "POST /api/partner/state",
		"partner.feed":         "GET /api/partner/feed",
		"graphql":              "POST /graphql",
	} {
		assert.Equal(t, want, names[name], name)
	}
}
