package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
)

func registration() RegisterInput {
	return RegisterInput{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "Ann@Example.com",
		Password:  "s3cret-pass",
		Company:   "Acme",
		Position:  "Buyer",
	}
}

func TestRegisterConfirmLogin(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	registered := record(events.UserRegistered)
	svc := NewAccountService(db)

	user, err := svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.TypeCustomer, user.Type)
	assert.False(t, user.IsActive)
	assert.NotEqual(t, "s3cret-pass", user.Password)

	require.Len(t, registered.all(), 1)
	payload := registered.all()[0].(events.UserRegisteredPayload)
	assert.Len(t, payload.Token, 48)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret-pass"})
	assert.Equal(t, apperr.Unauthorized, apperr.CodeOf(err), "inactive users cannot log in")

	err = svc.Confirm(ctx, ConfirmInput{Email: "ann@example.com", Token: "wrong"})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
	err = svc.Confirm(ctx, ConfirmInput{Email: "nobody@example.com", Token: payload.Token})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))

	require.NoError(t, svc.Confirm(ctx, ConfirmInput{Email: "ann@example.com", Token: payload.Token}))
	err = svc.Confirm(ctx, ConfirmInput{Email: "ann@example.com", Token: payload.Token})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err), "tokens are single use")

	pair, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err := auth.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.TypeCustomer, claims.Role)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong-pass"})
	assert.Equal(t, apperr.Unauthorized, apperr.CodeOf(err))

	refreshed, err := svc.Refresh(ctx, RefreshInput{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, RefreshInput{RefreshToken: pair.AccessToken})
	assert.Equal(t, apperr.Unauthorized, apperr.CodeOf(err), "access tokens cannot refresh")
}

func TestRegisterValidation(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	svc := NewAccountService(db)

	in := registration()
	in.Password = "short"
	in.Type = "admin"
	_, err := svc.Register(ctx, in)
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	fields := apperr.From(err).Fields
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "type")

	_, err = svc.Register(ctx, registration())
	require.NoError(t, err)
	_, err = svc.Register(ctx, registration())
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "email")
}

func TestRegisterShopType(t *testing.T) {
	db := newDB(t)
	in := registration()
	in.Type = models.TypeShop

	user, err := NewAccountService(db).Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.TypeShop, user.Type)
}

func TestUpdateDetails(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	user := newUser(t, db, "ann@example.com", models.TypeCustomer)
	newUser(t, db, "taken@example.com", models.TypeCustomer)
	svc := NewAccountService(db)

	taken := "taken@example.com"
	_, err := svc.UpdateDetails(ctx, user.ID, DetailsInput{Email: &taken})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))

	company, password := "Globex", "another-pass"
	updated, err := svc.UpdateDetails(ctx, user.ID, DetailsInput{Company: &company, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Globex", updated.Company)
	assert.Equal(t, "Ann", updated.FirstName)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "another-pass"})
	assert.NoError(t, err)

	_, err = svc.Details(ctx, 9999)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
}
