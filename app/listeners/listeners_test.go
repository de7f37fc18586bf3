package listeners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/jobs"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
	"github.com/shashiranjanraj/bazaar/pkg/migration"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
	"github.com/shashiranjanraj/bazaar/pkg/testkit"

	_ "github.com/shashiranjanraj/bazaar/database/migrations"
)

func setup(t *testing.T) *testkit.Mailer {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	_, err = migration.New(db, nil).Run()
	require.NoError(t, err)

	owner := models.User{Email: "shop@example.com", Type: models.TypeShop, IsActive: true, Password: "x"}
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), &owner))

	jobs.Register()
	jobs.UseDB(db)
	queue.SetSync(true)
	t.Cleanup(func() { queue.SetSync(false) })

	event.Flush()
	Register()
	t.Cleanup(event.Flush)

	mailer := testkit.NewMailer()
	mail.Use(mailer)
	t.Cleanup(func() { mail.Use(nil) })
	return mailer
}

func TestUserRegisteredMailsToken(t *testing.T) {
	mailer := setup(t)

	event.Fire(context.Background(), events.UserRegistered, events.UserRegisteredPayload{
		UserID: 5, Email: "ann@example.com", Token: "f00d",
	})

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ann@example.com"}, sent[0].To)
	assert.Contains(t, sent[0].Body, "f00d")
}

func TestPriceListImportedReportsToOwner(t *testing.T) {
	mailer := setup(t)

	event.Fire(context.Background(), events.PriceListImported, events.PriceListImportedPayload{
		ShopID: 1, Shop: "Связной", UserID: 1, Categories: 2, Products: 3,
	})

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"shop@example.com"}, sent[0].To)
}

func TestWrongPayloadIsIgnored(t *testing.T) {
	mailer := setup(t)

	assert.NotPanics(t, func() {
		event.Fire(context.Background(), events.UserRegistered, "not a payload")
		event.Fire(context.Background(), events.CatalogChanged, events.CatalogChangedPayload{})
	})
	assert.Empty(t, mailer.Sent())
}
