package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

func TestImportCreatesShopCatalogAndArchive(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	disk := storage.NewLocal(t.TempDir(), "")
	imported := record(events.PriceListImported)
	changed := record(events.CatalogChanged)

	svc := NewImportService(db, disk)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	res, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)
	assert.Equal(t, "Связной", res.Shop)
	assert.Equal(t, 2, res.Categories)
	assert.Equal(t, 3, res.Products)
	assert.True(t, strings.HasPrefix(res.Archive, "pricelists/"))
	assert.Contains(t, res.Archive, "20260301T120000Z-")

	raw, err := disk.Get(ctx, res.Archive)
	require.NoError(t, err)
	assert.Equal(t, priceList, string(raw))

	shop, err := repositories.NewCatalogRepository(db).ShopByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ShopID, shop.ID)
	require.NotNil(t, shop.URL)
	assert.Equal(t, up.url(), *shop.URL)
	assert.True(t, shop.State)

	offers, err := repositories.NewCatalogRepository(db).SearchOffers(ctx, repositories.OfferFilter{CategoryID: 224})
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "110000", offers[0].Price.String())
	assert.Equal(t, "Смартфоны", offers[0].Product.Category.Name)
	require.Len(t, offers[0].Parameters, 3)

	var linked int64
	db.Table("shop_categories").Where("shop_id = ?", shop.ID).Count(&linked)
	assert.Equal(t, int64(2), linked)

	require.Len(t, imported.all(), 1)
	p := imported.all()[0].(events.PriceListImportedPayload)
	assert.Equal(t, owner.ID, p.UserID)
	assert.Equal(t, 3, p.Products)
	assert.Len(t, changed.all(), 1)
}

func TestReimportReplacesOffersAndKeepsHistory(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)

	up.serve(http.StatusOK, `
shop: Связной
categories:
  - id: 224
    name: Телефоны
goods:
  - id: 4216292
    category: 224
    model: apple/iphone/xs-max
    name: Смартфон Apple iPhone XS Max 512GB (золотистый)
    price: 99000
    quantity: 2
`)
	res, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Products)

	live, err := repositories.NewCatalogRepository(db).SearchOffers(ctx, repositories.OfferFilter{})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "99000", live[0].Price.String())
	assert.Equal(t, "Телефоны", live[0].Product.Category.Name)

	var all int64
	db.Unscoped().Model(&models.ProductInfo{}).Count(&all)
	assert.Equal(t, int64(4), all, "replaced offers are kept soft-deleted")
}

func TestImportRejectsBadURL(t *testing.T) {
	db := newDB(t)
	owner := newUser(t, db, "shop@example.com", models.TypeShop)

	_, err := NewImportService(db, nil).Import(context.Background(), owner.ID, "ftp://example.com/x.yaml")
	assert.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
}

func TestImportUpstreamFailures(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, "")
	svc := NewImportService(db, nil)

	up.serve(http.StatusNotFound, "gone")
	_, err := svc.Import(ctx, owner.ID, up.url())
	assert.Equal(t, apperr.UpstreamFetch, apperr.CodeOf(err))

	up.Close()
	_, err = svc.Import(ctx, owner.ID, up.url())
	assert.Equal(t, apperr.UpstreamFetch, apperr.CodeOf(err))
}

func TestImportOversizedDocumentIsMalformed(t *testing.T) {
	db := newDB(t)
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)

	config.Set("IMPORT_MAX_BYTES", "64")
	t.Cleanup(func() { config.Set("IMPORT_MAX_BYTES", "8388608") })

	_, err := NewImportService(db, nil).Import(context.Background(), owner.ID, up.url())
	assert.Equal(t, apperr.Malformed, apperr.CodeOf(err))
}

func TestMalformedImportKeepsPriorCatalog(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)

	up.serve(http.StatusOK, "shop: Связной\ngoods:\n  - id: 1\n    category: 999\n    name: x\n    price: 1\n")
	_, err = svc.Import(ctx, owner.ID, up.url())
	assert.Equal(t, apperr.Malformed, apperr.CodeOf(err))

	live, err := repositories.NewCatalogRepository(db).SearchOffers(ctx, repositories.OfferFilter{})
	require.NoError(t, err)
	assert.Len(t, live, 3)
}

func TestImportOfAnotherPartnersShopIsForbidden(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	first := newUser(t, db, "first@example.com", models.TypeShop)
	second := newUser(t, db, "second@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, first.ID, up.url())
	require.NoError(t, err)

	_, err = svc.Import(ctx, second.ID, up.url())
	assert.Equal(t, apperr.Forbidden, apperr.CodeOf(err))

	live, err := repositories.NewCatalogRepository(db).SearchOffers(ctx, repositories.OfferFilter{})
	require.NoError(t, err)
	assert.Len(t, live, 3)
}

func TestImportRenamesOwnersShop(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	first, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)

	up.serve(http.StatusOK, strings.Replace(priceList, "shop: Связной", "shop: Евросеть", 1))
	second, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)

	assert.Equal(t, first.ShopID, second.ShopID)
	assert.Equal(t, "Евросеть", second.Shop)
}

func TestRefreshAllReimportsActiveShops(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)

	report, err := svc.RefreshAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, RefreshReport{Shops: 1, Succeeded: 1}, report)
	assert.Equal(t, 2, up.hits)

	_, err = repositories.NewCatalogRepository(db).SetShopState(ctx, owner.ID, false)
	require.NoError(t, err)
	report, err = svc.RefreshAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Shops)
}

func TestImportWithoutGoodsKeepsPriorCatalog(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, owner.ID, up.url())
	require.NoError(t, err)

	up.serve(http.StatusOK, "shop: Связной\n")
	_, err = svc.Import(ctx, owner.ID, up.url())
	assert.Equal(t, apperr.Malformed, apperr.CodeOf(err))

	live, err := repositories.NewCatalogRepository(db).SearchOffers(ctx, repositories.OfferFilter{})
	require.NoError(t, err)
	assert.Len(t, live, 3)
}

func TestImportCannotRenameSharedCategory(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	first := newUser(t, db, "first@example.com", models.TypeShop)
	second := newUser(t, db, "second@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, first.ID, up.url())
	require.NoError(t, err)

	up.serve(http.StatusOK, `
shop: Евросеть
categories:
  - id: 224
    name: Hacked
goods:
  - {id: 1, category: 224, model: x, name: Телефон, price: 1}
`)
	_, err = svc.Import(ctx, second.ID, up.url())
	require.Equal(t, apperr.Malformed, apperr.CodeOf(err))
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "categories[0].name")

	var cat models.Category
	require.NoError(t, db.First(&cat, 224).Error)
	assert.Equal(t, "Смартфоны", cat.Name)

	_, err = repositories.NewCatalogRepository(db).ShopByOwner(ctx, second.ID)
	assert.Error(t, err, "the rejected import leaves no shop behind")
}

func TestImportMayReuseSharedCategoryUnderItsName(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	first := newUser(t, db, "first@example.com", models.TypeShop)
	second := newUser(t, db, "second@example.com", models.TypeShop)
	up := newUpstream(t, priceList)
	svc := NewImportService(db, nil)

	_, err := svc.Import(ctx, first.ID, up.url())
	require.NoError(t, err)

	up.serve(http.StatusOK, `
shop: Евросеть
categories:
  - id: 224
    name: Смартфоны
goods:
  - {id: 1, category: 224, model: x, name: Телефон, price: 1}
`)
	res, err := svc.Import(ctx, second.ID, up.url())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Products)
}
