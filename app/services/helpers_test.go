package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/migration"

	_ "github.com/shashiranjanraj/bazaar/database/migrations"
)

const priceList = `
shop: Связной
categories:
  - id: 224
    name: Смартфоны
  - id: 15
    name: Аксессуары
goods:
  - id: 4216292
    category: 224
    model: apple/iphone/xs-max
    name: Смартфон Apple iPhone XS Max 512GB (золотистый)
    price: 110000
    price_rrc: 116990
    quantity: 14
    parameters:
      "Диагональ (дюйм)": 6.5
      "Встроенная память (Гб)": 512
      "Цвет": золотистый
  - id: 4216313
    category: 224
    model: apple/iphone/xr
    name: Смартфон Apple iPhone XR 256GB (красный)
    price: 65000
    price_rrc: 69990
    quantity: 9
    parameters:
      "Диагональ (дюйм)": 6.1
      "Цвет": красный
  - id: 4672670
    category: 15
    model: case/book
    name: Чехол-книжка
    price: 990.50
    price_rrc: 1290
    quantity: 100
`

// newDB returns a migrated in-memory database private to the test.
func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	_, err = migration.New(db, nil).Run()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	event.Flush()
	t.Cleanup(event.Flush)
	return db
}

func newUser(t *testing.T, db *gorm.DB, email, typ string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)
	u := models.User{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     email,
		Company:   "Acme",
		Position:  "Buyer",
		Password:  hash,
		Type:      typ,
		IsActive:  true,
	}
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), &u))
	return u
}

func newContact(t *testing.T, db *gorm.DB, userID uint) models.Contact {
	t.Helper()
	c := models.Contact{UserID: userID, City: "Moscow", Street: "Tverskaya", House: "1", Phone: "+70000000000"}
	require.NoError(t, repositories.NewContactRepository(db).Create(context.Background(), &c))
	return c
}

// upstream serves body at /price.yaml and counts hits.
type upstream struct {
	*httptest.Server
	mu     sync.Mutex
	body   string
	status int
	hits   int
}

func newUpstream(t *testing.T, body string) *upstream {
	t.Helper()
	u := &upstream{body: body, status: http.StatusOK}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.hits++
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(u.body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) serve(status int, body string) {
	u.mu.Lock()
	u.status, u.body = status, body
	u.mu.Unlock()
}

func (u *upstream) url() string { return u.URL + "/price.yaml" }

// importCatalog imports priceList for a fresh shop owner and returns the
// owner and the live offers keyed by external id.
func importCatalog(t *testing.T, db *gorm.DB) (models.User, map[uint]models.ProductInfo) {
	t.Helper()
	owner := newUser(t, db, "shop@example.com", models.TypeShop)
	up := newUpstream(t, priceList)

	_, err := NewImportService(db, nil).Import(context.Background(), owner.ID, up.url())
	require.NoError(t, err)

	offers, err := repositories.NewCatalogRepository(db).SearchOffers(context.Background(), repositories.OfferFilter{})
	require.NoError(t, err)
	byExt := make(map[uint]models.ProductInfo, len(offers))
	for _, o := range offers {
		byExt[o.ExternalID] = o
	}
	return owner, byExt
}

// recorder captures payloads fired for one event.
type recorder struct {
	mu       sync.Mutex
	payloads []any
}

func record(name string) *recorder {
	r := &recorder{}
	event.Listen(name, func(_ context.Context, p any) {
		r.mu.Lock()
		r.payloads = append(r.payloads, p)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.payloads...)
}
