// Package events names the domain events services fire after commit and
// the payload each one carries.
package events

const (
	UserRegistered    = "user.registered"
	OrderPlaced       = "order.placed"
	PriceListImported = "pricelist.imported"
	CatalogChanged    = "catalog.changed"
)

type UserRegisteredPayload struct {
	UserID uint
	Email  string
	Token  string
}

type OrderPlacedPayload struct {
	OrderID uint
	UserID  uint
}

type PriceListImportedPayload struct {
	ShopID     uint
	Shop       string
	UserID     uint
	Categories int
	Products   int
	Archive    string
}

// CatalogChangedPayload names the shop whose catalog changed, 0 for many.
type CatalogChangedPayload struct {
	ShopID uint
}
