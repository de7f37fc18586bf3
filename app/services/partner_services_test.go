package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
)

func TestPartnerStateWithoutShop(t *testing.T) {
	db := newDB(t)
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	svc := NewPartnerService(db)

	_, err := svc.Shop(context.Background(), owner.ID)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
	_, err = svc.SetState(context.Background(), owner.ID, StateInput{State: "on"})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
}

func TestPartnerSetState(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner, _ := importCatalog(t, db)
	changed := record(events.CatalogChanged)
	svc := NewPartnerService(db)

	shop, err := svc.SetState(ctx, owner.ID, StateInput{State: "off"})
	require.NoError(t, err)
	assert.False(t, shop.State)

	shops, err := NewCatalogService(db).Shops(ctx)
	require.NoError(t, err)
	assert.Empty(t, shops)

	shop, err = svc.SetState(ctx, owner.ID, StateInput{State: "Yes"})
	require.NoError(t, err)
	assert.True(t, shop.State)
	assert.Len(t, changed.all(), 2)

	_, err = svc.SetState(ctx, owner.ID, StateInput{State: "maybe"})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "state")
}

func TestPartnerOrdersShowOnlyOwnLines(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	contact := newContact(t, db, buyer.ID)

	// A second shop with its own offer.
	rival := newUser(t, db, "rival@example.com", models.TypeShop)
	up := newUpstream(t, "shop: Евросеть\ncategories:\n  - id: 15\n    name: Аксессуары\ngoods:\n  - id: 1\n    category: 15\n    model: usb-c\n    name: Кабель\n    price: 300\n    quantity: 5\n")
	_, err := NewImportService(db, nil).Import(ctx, rival.ID, up.url())
	require.NoError(t, err)
	rivalOffers, err := NewCatalogService(db).Products(ctx, 0, 15)
	require.NoError(t, err)
	var cable models.ProductInfo
	for _, o := range rivalOffers {
		if o.Product.Name == "Кабель" {
			cable = o
		}
	}
	require.NotZero(t, cable.ID)

	_, err = NewBasketService(db).Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4216292].ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = NewOrderService(db).Place(ctx, buyer.ID, PlaceOrderInput{
		Contact: uptr(contact.ID),
		Items: []BasketLine{
			{ProductInfoID: offers[4216292].ID, Quantity: 1},
			{ProductInfoID: cable.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	_, err = NewOrderService(db).Place(ctx, buyer.ID, PlaceOrderInput{
		Contact: uptr(contact.ID),
		Items:   []BasketLine{{ProductInfoID: cable.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	list, page, err := NewPartnerService(db).Orders(ctx, owner.ID, orm.PageRequest("", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, "110000", list[0].TotalSum.String())

	list, _, err = NewPartnerService(db).Orders(ctx, rival.ID, orm.PageRequest("", ""))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "300", list[0].TotalSum.String())
}
