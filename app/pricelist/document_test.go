package pricelist_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/app/pricelist"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
)

const sample = `
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
      "Разрешение (пикс)": 2688x1242
      "Встроенная память (Гб)": 512
  - id: 4216313
    category: 15
    model: ""
    name: Чехол
    price: 99.90
`

func parseErr(src string) error {
	_, err := pricelist.Parse([]byte(src))
	return err
}

func malformedFields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, apperr.Malformed, e.Code)
	return e.Fields
}

func TestParseValidDocument(t *testing.T) {
	doc, err := pricelist.Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Связной", doc.Shop)
	require.Len(t, doc.Categories, 2)
	assert.Equal(t, uint(224), doc.Categories[0].ID)

	require.Len(t, doc.Goods, 2)
	g := doc.Goods[0]
	assert.Equal(t, uint(4216292), g.ID)
	assert.Equal(t, uint(224), g.CategoryID)
	assert.Equal(t, "110000", g.Price.String())
	assert.Equal(t, "116990", g.PriceRRC.String())
	assert.Equal(t, uint(14), g.Quantity)
	require.Len(t, g.Parameters, 3)
	assert.Equal(t, pricelist.Parameter{Name: "Встроенная память (Гб)", Value: "512"}, g.Parameters[0])
	assert.Equal(t, pricelist.Parameter{Name: "Диагональ (дюйм)", Value: "6.5"}, g.Parameters[1])

	accessory := doc.Goods[1]
	assert.Equal(t, "99.9", accessory.Price.String())
	assert.True(t, accessory.PriceRRC.IsZero())
	assert.Zero(t, accessory.Quantity)

	assert.Len(t, doc.ParameterNames(), 3)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := pricelist.Parse([]byte("shop: [unterminated"))
	assert.Equal(t, apperr.Malformed, apperr.CodeOf(err))
}

func TestParseMissingShop(t *testing.T) {
	fields := malformedFields(t, parseErr("categories: []\ngoods: []\n"))
	assert.Contains(t, fields, "shop")
}

func TestParseMissingGoodFields(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories:
  - id: 1
    name: One
goods:
  - category: 1
    name: No id
    price: 1
  - id: 2
    name: No category
    price: 1
  - id: 3
    category: 1
    price: 1
  - id: 4
    category: 1
    name: No price
`))
	assert.Contains(t, fields, "goods[0].id")
	assert.Contains(t, fields, "goods[1].category")
	assert.Contains(t, fields, "goods[2].name")
	assert.Contains(t, fields, "goods[3].price")
}

func TestParseUnknownCategory(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories:
  - id: 1
    name: One
goods:
  - id: 1
    category: 7
    name: Orphan
    price: 10
`))
	assert.Equal(t, "Category 7 is not listed in categories.", fields["goods[0].category"])
}

func TestParseNegativeValues(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories:
  - id: 1
    name: One
goods:
  - id: 1
    category: 1
    name: Cheap
    price: -1
    quantity: -3
`))
	assert.Contains(t, fields, "goods[0].price")
	assert.Contains(t, fields, "goods[0].quantity")
}

func TestParseCategoryWithoutName(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories:
  - id: 1
goods: []
`))
	assert.Contains(t, fields, "categories[0].name")
}

func TestParseDuplicateGood(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories:
  - id: 1
    name: One
goods:
  - {id: 5, category: 1, name: A, price: 1}
  - {id: 5, category: 1, name: B, price: 2}
`))
	assert.Contains(t, fields, "goods[1].id")
}

func TestParseNonNumericPrice(t *testing.T) {
	_, err := pricelist.Parse([]byte(`
shop: Test
categories: [{id: 1, name: One}]
goods:
  - {id: 5, category: 1, name: A, price: free}
`))
	assert.Equal(t, apperr.Malformed, apperr.CodeOf(err))
}

func TestParseMissingGoods(t *testing.T) {
	fields := malformedFields(t, parseErr("shop: Связной\n"))
	assert.Equal(t, "The goods field is required.", fields["goods"])
	assert.Equal(t, "The categories field is required.", fields["categories"])
}

func TestParseEmptyListsAreAllowed(t *testing.T) {
	doc, err := pricelist.Parse([]byte("shop: Связной\ncategories: []\ngoods: []\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Goods)
}

func TestParseMissingModel(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories: [{id: 1, name: One}]
goods:
  - {id: 5, category: 1, name: A, price: 1}
`))
	assert.Equal(t, "The model field is required.", fields["goods[0].model"])
}

func TestParseBlankNames(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: "  "
categories: [{id: 1, name: ""}]
goods:
  - {id: 5, category: 1, model: m, name: " ", price: 1, parameters: {"": x}}
`))
	assert.Contains(t, fields, "shop")
	assert.Contains(t, fields, "categories[0].name")
	assert.Contains(t, fields, "goods[0].name")
	assert.Contains(t, fields, "goods[0].parameters[0].name")
}

func TestParseNegativeRRC(t *testing.T) {
	fields := malformedFields(t, parseErr(`
shop: Test
categories: [{id: 1, name: One}]
goods:
  - {id: 5, category: 1, model: m, name: A, price: 0, price_rrc: -0.5}
`))
	assert.Contains(t, fields, "goods[0].price_rrc")
	assert.NotContains(t, fields, "goods[0].price")
}
