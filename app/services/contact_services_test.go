package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
)

func TestContactsCRUD(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	user := newUser(t, db, "ann@example.com", models.TypeCustomer)
	stranger := newUser(t, db, "bob@example.com", models.TypeCustomer)
	svc := NewContactService(db)

	list, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = svc.Create(ctx, user.ID, ContactInput{City: "Moscow"})
	require.Equal(t, apperr.InvalidInput, apperr.CodeOf(err))
	assert.Contains(t, apperr.From(err).Fields, "street")
	assert.Contains(t, apperr.From(err).Fields, "phone")

	c, err := svc.Create(ctx, user.ID, ContactInput{City: "Moscow", Street: "Tverskaya", House: "7", Phone: "+7 900"})
	require.NoError(t, err)

	phone := "+7 901"
	updated, err := svc.Update(ctx, user.ID, c.ID, ContactPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "+7 901", updated.Phone)
	assert.Equal(t, "Tverskaya", updated.Street)

	_, err = svc.Update(ctx, stranger.ID, c.ID, ContactPatch{Phone: &phone})
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(svc.Delete(ctx, stranger.ID, c.ID)))

	require.NoError(t, svc.Delete(ctx, user.ID, c.ID))
	list, err = svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
