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

func uptr(v uint) *uint { return &v }

func TestPlaceOrderCreatesOrderAndTrimsBasket(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	_, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	contact := newContact(t, db, buyer.ID)
	placedEvents := record(events.OrderPlaced)

	basket := NewBasketService(db)
	_, err := basket.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{
		{ProductInfoID: offers[4216292].ID, Quantity: 1},
		{ProductInfoID: offers[4672670].ID, Quantity: 3},
	}})
	require.NoError(t, err)

	order, err := NewOrderService(db).Place(ctx, buyer.ID, PlaceOrderInput{
		Contact: uptr(contact.ID),
		Items: []BasketLine{
			{ProductInfoID: offers[4216292].ID, Quantity: 1},
			{ProductInfoID: offers[4216292].ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateNew, order.State)
	require.Len(t, order.Items, 1, "repeated offers merge into one line")
	assert.Equal(t, uint(2), order.Items[0].Quantity)
	assert.Equal(t, "220000", order.TotalSum.String())
	require.NotNil(t, order.Contact)
	assert.Equal(t, "Moscow", order.Contact.City)

	b, err := basket.Get(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.Equal(t, offers[4672670].ID, b.Items[0].ProductInfoID)

	require.Len(t, placedEvents.all(), 1)
	assert.Equal(t, events.OrderPlacedPayload{OrderID: order.ID, UserID: buyer.ID}, placedEvents.all()[0])
}

func TestPlaceOrderWithEmptyItems(t *testing.T) {
	db := newDB(t)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	contact := newContact(t, db, buyer.ID)

	order, err := NewOrderService(db).Place(context.Background(), buyer.ID, PlaceOrderInput{
		Contact: uptr(contact.ID),
		Items:   []BasketLine{},
	})
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.True(t, order.TotalSum.IsZero())
}

func TestPlaceOrderValidation(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	_, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	stranger := newUser(t, db, "stranger@example.com", models.TypeCustomer)
	mine := newContact(t, db, buyer.ID)
	theirs := newContact(t, db, stranger.ID)
	svc := NewOrderService(db)

	_, err := svc.Place(ctx, buyer.ID, PlaceOrderInput{Items: []BasketLine{}})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "contact")

	_, err = svc.Place(ctx, buyer.ID, PlaceOrderInput{Contact: uptr(mine.ID)})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "items")

	_, err = svc.Place(ctx, buyer.ID, PlaceOrderInput{Contact: uptr(theirs.ID), Items: []BasketLine{}})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	_, err = svc.Place(ctx, buyer.ID, PlaceOrderInput{
		Contact: uptr(mine.ID),
		Items:   []BasketLine{{ProductInfoID: offers[4216292].ID, Quantity: 0}},
	})
	assert.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))

	_, err = svc.Place(ctx, buyer.ID, PlaceOrderInput{
		Contact: uptr(mine.ID),
		Items:   []BasketLine{{ProductInfoID: 4242, Quantity: 1}},
	})
	assert.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))

	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n)
}

func TestListOrdersExcludesBasket(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	_, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	contact := newContact(t, db, buyer.ID)
	svc := NewOrderService(db)

	_, err := NewBasketService(db).Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4216313].ID, Quantity: 1}}})
	require.NoError(t, err)
	first, err := svc.Place(ctx, buyer.ID, PlaceOrderInput{Contact: uptr(contact.ID), Items: []BasketLine{{ProductInfoID: offers[4216292].ID, Quantity: 1}}})
	require.NoError(t, err)
	second, err := svc.Place(ctx, buyer.ID, PlaceOrderInput{Contact: uptr(contact.ID), Items: []BasketLine{{ProductInfoID: offers[4672670].ID, Quantity: 2}}})
	require.NoError(t, err)

	list, page, err := svc.List(ctx, buyer.ID, orm.PageRequest("", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "1981", list[0].TotalSum.String())
}
