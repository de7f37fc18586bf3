// Package graphql exposes the catalog read path as a GraphQL schema:
//
//	{ products(shopId: 1, categoryId: 224) { id model price product { name } shop { name } } }
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/services"
	gql "github.com/shashiranjanraj/bazaar/pkg/graphql"
)

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: resolve(func(c models.Category) any { return int(c.ID) })},
		"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolve(func(c models.Category) any { return c.Name })},
	},
})

var shopType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Shop",
	Fields: graphql.Fields{
		"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: resolve(func(s models.Shop) any { return int(s.ID) })},
		"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolve(func(s models.Shop) any { return s.Name })},
		"state": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Resolve: resolve(func(s models.Shop) any { return s.State })},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"name":     &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolve(func(p models.Product) any { return p.Name })},
		"category": &graphql.Field{Type: categoryType, Resolve: resolve(func(p models.Product) any { return p.Category })},
	},
})

var parameterType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Parameter",
	Fields: graphql.Fields{
		"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolve(func(p models.ProductParameter) any { return p.Parameter.Name })},
		"value": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolve(func(p models.ProductParameter) any { return p.Value })},
	},
})

// Prices are strings so no precision is lost.
var offerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Offer",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: resolve(func(o models.ProductInfo) any { return int(o.ID) })},
		"externalId": &graphql.Field{Type: graphql.Int, Resolve: resolve(func(o models.ProductInfo) any { return int(o.ExternalID) })},
		"model":      &graphql.Field{Type: graphql.String, Resolve: resolve(func(o models.ProductInfo) any { return o.Model })},
		"quantity":   &graphql.Field{Type: graphql.Int, Resolve: resolve(func(o models.ProductInfo) any { return int(o.Quantity) })},
		"price":      &graphql.Field{Type: graphql.String, Resolve: resolve(func(o models.ProductInfo) any { return o.Price.String() })},
		"priceRrc":   &graphql.Field{Type: graphql.String, Resolve: resolve(func(o models.ProductInfo) any { return o.PriceRRC.String() })},
		"product":    &graphql.Field{Type: productType, Resolve: resolve(func(o models.ProductInfo) any { return o.Product })},
		"shop":       &graphql.Field{Type: shopType, Resolve: resolve(func(o models.ProductInfo) any { return o.Shop })},
		"parameters": &graphql.Field{Type: graphql.NewList(parameterType), Resolve: resolve(func(o models.ProductInfo) any { return o.Parameters })},
	},
})

// resolve adapts a typed field getter to graphql-go's untyped resolver.
func resolve[T any](get func(T) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		switch src := p.Source.(type) {
		case T:
			return get(src), nil
		case *T:
			return get(*src), nil
		}
		return nil, nil
	}
}

// NewSchema builds the catalog schema on svc.
func NewSchema(svc *services.CatalogService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return svc.Categories(p.Context)
				},
			},
			"shops": &graphql.Field{
				Type: graphql.NewList(shopType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return svc.Shops(p.Context)
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(offerType),
				Args: graphql.FieldConfigArgument{
					"shopId":     &graphql.ArgumentConfig{Type: graphql.Int},
					"categoryId": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					shopID, _ := p.Args["shopId"].(int)
					categoryID, _ := p.Args["categoryId"].(int)
					if shopID < 0 || categoryID < 0 {
						return []models.ProductInfo{}, nil
					}
					return svc.Products(p.Context, uint(shopID), uint(categoryID))
				},
			},
		},
	})
	return gql.NewSchema(query)
}
