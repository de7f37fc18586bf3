package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order states.
const (
	StateBasket    = "basket"
	StateNew       = "new"
	StateConfirmed = "confirmed"
	StateAssembled = "assembled"
	StateSent      = "sent"
	StateDelivered = "delivered"
	StateCanceled  = "canceled"
)

type Order struct {
	ID        uint        `gorm:"primaryKey"             json:"id"`
	UserID    uint        `gorm:"index:idx_order_user_state;not null" json:"-"`
	User      User        `gorm:"constraint:OnDelete:CASCADE"         json:"-"`
	State     string      `gorm:"size:15;index:idx_order_user_state"  json:"state"`
	ContactID *uint       `                              json:"-"`
	Contact   *Contact    `gorm:"constraint:OnDelete:SET NULL"        json:"contact,omitempty"`
	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE"         json:"ordered_items"`
	CreatedAt time.Time   `                              json:"dt"`
	UpdatedAt time.Time   `                              json:"-"`

	// Computed on read.
	TotalSum decimal.Decimal `gorm:"-" json:"total_sum"`
}

type OrderItem struct {
	ID            uint        `gorm:"primaryKey"                  json:"id"`
	OrderID       uint        `gorm:"uniqueIndex:idx_order_offer" json:"order"`
	ProductInfoID uint        `gorm:"uniqueIndex:idx_order_offer" json:"-"`
	ProductInfo   ProductInfo `                                   json:"product_info"`
	Quantity      uint        `gorm:"not null"                    json:"quantity"`
}

// Total sums quantity × price over every loaded item, at the price the
// offer had when it was replaced if it has been.
func (o *Order) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// BasketTotal is Total restricted to items that can still be bought: live
// offers of active shops.
func (o *Order) BasketTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		if it.Priced() {
			sum = sum.Add(it.Subtotal())
		}
	}
	return sum
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.ProductInfo.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Priced reports whether the item can still be bought. It needs
// ProductInfo and its Shop preloaded.
func (it OrderItem) Priced() bool {
	return it.ProductInfo.ID != 0 && !it.ProductInfo.DeletedAt.Valid && it.ProductInfo.Shop.State
}
