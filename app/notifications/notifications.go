// Package notifications holds the messages bazaar sends to customers and
// partners.
package notifications

import (
	"fmt"
	"strings"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/collection"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
	"github.com/shashiranjanraj/bazaar/pkg/notification"
)

// AccountConfirmation mails the token a new user needs to activate their
// account.
type AccountConfirmation struct {
	Email string
	Token string
}

func (n *AccountConfirmation) Via() []string { return []string{notification.Mail} }

func (n *AccountConfirmation) ToMail() *mail.Message {
	return &mail.Message{
		To:      []string{n.Email},
		Subject: "Confirm your bazaar account",
		Body: fmt.Sprintf("Welcome!\n\nSend this token with your email to /api/user/register/confirm:\n\n%s\n",
			n.Token),
	}
}

// OrderPlaced tells the customer their order was received and pushes a live
// notice to every shop with lines in it. With ORDER_WEBHOOK_URL set the
// order is also POSTed there.
type OrderPlaced struct {
	Order models.Order
	Email string
}

func (n *OrderPlaced) Via() []string {
	via := []string{notification.Mail, notification.Feed}
	if webhookURL() != "" {
		via = append(via, notification.Webhook)
	}
	return via
}

func (n *OrderPlaced) ToMail() *mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order #%d.\n\n", n.Order.ID)
	for _, it := range n.Order.Items {
		fmt.Fprintf(&b, "  %s x %d = %s\n", it.ProductInfo.Product.Name, it.Quantity, it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", n.Order.Total().StringFixed(2))
	return &mail.Message{
		To:      []string{n.Email},
		Subject: fmt.Sprintf("Order #%d received", n.Order.ID),
		Body:    b.String(),
	}
}

// FeedLine is one ordered line as shown to the shop.
type FeedLine struct {
	ProductInfoID uint   `json:"product_info_id"`
	ExternalID    uint   `json:"external_id"`
	Name          string `json:"name"`
	Quantity      uint   `json:"quantity"`
	Subtotal      string `json:"subtotal"`
}

// FeedNotice is the payload a shop receives on its live feed.
type FeedNotice struct {
	OrderID uint       `json:"order_id"`
	Lines   []FeedLine `json:"lines"`
	Total   string     `json:"total"`
}

// ToFeed builds one notice per shop, keyed by shop id, holding only that
// shop's lines.
func (n *OrderPlaced) ToFeed() []notification.FeedData {
	groups := collection.GroupBy(n.Order.Items, func(it models.OrderItem) uint { return it.ProductInfo.ShopID })

	out := make([]notification.FeedData, 0, len(groups))
	for _, g := range groups {
		part := models.Order{ID: n.Order.ID, Items: g.Items}
		notice := FeedNotice{OrderID: part.ID, Total: part.Total().StringFixed(2)}
		for _, it := range part.Items {
			notice.Lines = append(notice.Lines, FeedLine{
				ProductInfoID: it.ProductInfoID,
				ExternalID:    it.ProductInfo.ExternalID,
				Name:          it.ProductInfo.Product.Name,
				Quantity:      it.Quantity,
				Subtotal:      it.Subtotal().StringFixed(2),
			})
		}
		out = append(out, notification.FeedData{Key: g.Key, Event: "order.placed", Payload: notice})
	}
	return out
}

func (n *OrderPlaced) ToWebhook() notification.WebhookData {
	return notification.WebhookData{
		URL: webhookURL(),
		Payload: map[string]any{
			"event": "order.placed",
			"order": n.Order,
		},
	}
}

func webhookURL() string { return config.Get("ORDER_WEBHOOK_URL", "") }

// PriceListImported reports a finished import to the shop owner.
type PriceListImported struct {
	Email      string
	Shop       string
	Categories int
	Products   int
}

func (n *PriceListImported) Via() []string { return []string{notification.Mail} }

func (n *PriceListImported) ToMail() *mail.Message {
	return &mail.Message{
		To:      []string{n.Email},
		Subject: fmt.Sprintf("Price list for %s imported", n.Shop),
		Body: fmt.Sprintf("Your price list for %s was imported: %d categories, %d products.\n",
			n.Shop, n.Categories, n.Products),
	}
}
