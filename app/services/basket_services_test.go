package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
)

func TestBasketGetWithoutBasketIsEmpty(t *testing.T) {
	db := newDB(t)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)

	b, err := NewBasketService(db).Get(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, b.Items)
	assert.NotNil(t, b.Items)
	assert.True(t, b.TotalSum.IsZero())

	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n, "reading must not create a basket")
}

func TestBasketAddCreatesOnceAndIncrements(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	_, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	svc := NewBasketService(db)

	xs, xr := offers[4216292], offers[4216313]
	n, err := svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{
		{ProductInfoID: xs.ID, Quantity: 1},
		{ProductInfoID: xr.ID, Quantity: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: xs.ID, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var baskets int64
	db.Model(&models.Order{}).Where("user_id = ? AND state = ?", buyer.ID, models.StateBasket).Count(&baskets)
	assert.Equal(t, int64(1), baskets)

	b, err := svc.Get(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, b.Items, 2)
	assert.Equal(t, uint(3), b.Items[0].Quantity)
	assert.Equal(t, "Смартфоны", b.Items[0].ProductInfo.Product.Category.Name)
	// 3 × 110000 + 2 × 65000
	assert.Equal(t, "460000", b.TotalSum.String())
}

func TestBasketAddValidation(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	_, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	svc := NewBasketService(db)

	_, err := svc.Add(ctx, buyer.ID, AddToBasketInput{})
	assert.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))

	_, err = svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4216292].ID, Quantity: 0}}})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "items[0].quantity")

	_, err = svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4216292].ID, Quantity: -1}}})
	assert.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))

	_, err = svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: 9999, Quantity: 1}}})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "items[0].product_info_id")
}

func TestBasketRejectsInactiveShopAndPricesOnlyLiveItems(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	svc := NewBasketService(db)

	_, err := svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4672670].ID, Quantity: 2}}})
	require.NoError(t, err)

	_, err = repositories.NewCatalogRepository(db).SetShopState(ctx, owner.ID, false)
	require.NoError(t, err)

	_, err = svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4216292].ID, Quantity: 1}}})
	assert.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))

	b, err := svc.Get(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.True(t, b.TotalSum.IsZero(), "items of closed shops are not priced")
}

func TestBasketUpdateAndRemove(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	_, offers := importCatalog(t, db)
	buyer := newUser(t, db, "buyer@example.com", models.TypeCustomer)
	other := newUser(t, db, "other@example.com", models.TypeCustomer)
	svc := NewBasketService(db)

	_, err := svc.Update(ctx, buyer.ID, UpdateBasketInput{Items: []BasketItemUpdate{{ID: 1, Quantity: 1}}})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err), "no basket yet")

	_, err = svc.Add(ctx, buyer.ID, AddToBasketInput{Items: []BasketLine{
		{ProductInfoID: offers[4216292].ID, Quantity: 1},
		{ProductInfoID: offers[4672670].ID, Quantity: 1},
	}})
	require.NoError(t, err)
	_, err = svc.Add(ctx, other.ID, AddToBasketInput{Items: []BasketLine{{ProductInfoID: offers[4216313].ID, Quantity: 1}}})
	require.NoError(t, err)

	mine, err := svc.Get(ctx, buyer.ID)
	require.NoError(t, err)
	theirs, err := svc.Get(ctx, other.ID)
	require.NoError(t, err)

	n, err := svc.Update(ctx, buyer.ID, UpdateBasketInput{Items: []BasketItemUpdate{{ID: mine.Items[0].ID, Quantity: 5}}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Update(ctx, buyer.ID, UpdateBasketInput{Items: []BasketItemUpdate{{ID: theirs.Items[0].ID, Quantity: 5}}})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	_, err = svc.Remove(ctx, buyer.ID, RemoveFromBasketInput{Items: []uint{mine.Items[1].ID, theirs.Items[0].ID}})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	b, err := svc.Get(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, b.Items, 2, "a failed remove deletes nothing")
	assert.Equal(t, uint(5), b.Items[0].Quantity)

	n, err = svc.Remove(ctx, buyer.ID, RemoveFromBasketInput{Items: []uint{mine.Items[1].ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, err = svc.Get(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, b.Items, 1)
}
