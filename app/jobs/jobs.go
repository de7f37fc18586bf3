// Package jobs holds the queued work bazaar does after a request commits:
// mails and partner notices.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/notifications"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/notification"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
)

// Job names.
const (
	SendConfirmationName  = "account.send_confirmation"
	NotifyOrderPlacedName = "orders.notify_placed"
	ReportImportName      = "pricelist.report_import"
)

// Register makes the jobs known to the queue.
func Register() {
	queue.Register(SendConfirmationName, func() queue.Job { return &SendConfirmation{} })
	queue.Register(NotifyOrderPlacedName, func() queue.Job { return &NotifyOrderPlaced{} })
	queue.Register(ReportImportName, func() queue.Job { return &ReportImport{} })
}

// db is the connection jobs read from; swapped in tests.
var db = func() *gorm.DB { return database.DB }

// UseDB points jobs at conn instead of database.DB.
func UseDB(conn *gorm.DB) { db = func() *gorm.DB { return conn } }

// SendConfirmation mails the registration token.
type SendConfirmation struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func (j *SendConfirmation) Name() string { return SendConfirmationName }

func (j *SendConfirmation) Handle(ctx context.Context) error {
	return errors.Join(notification.Send(ctx, &notifications.AccountConfirmation{Email: j.Email, Token: j.Token})...)
}

// NotifyOrderPlaced mails the customer and feeds the shops of an order.
type NotifyOrderPlaced struct {
	OrderID uint `json:"order_id"`
	UserID  uint `json:"user_id"`
}

func (j *NotifyOrderPlaced) Name() string { return NotifyOrderPlacedName }

func (j *NotifyOrderPlaced) Handle(ctx context.Context) error {
	conn := db()
	order, err := repositories.NewOrderRepository(conn).Find(ctx, j.OrderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", j.OrderID, err)
	}
	user, err := repositories.NewUserRepository(conn).FindByID(ctx, j.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", j.UserID, err)
	}
	return errors.Join(notification.Send(ctx, &notifications.OrderPlaced{Order: order, Email: user.Email})...)
}

// ReportImport mails the shop owner a summary of their import.
type ReportImport struct {
	UserID     uint   `json:"user_id"`
	Shop       string `json:"shop"`
	Categories int    `json:"categories"`
	Products   int    `json:"products"`
}

func (j *ReportImport) Name() string { return ReportImportName }

func (j *ReportImport) Handle(ctx context.Context) error {
	user, err := repositories.NewUserRepository(db()).FindByID(ctx, j.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", j.UserID, err)
	}
	return errors.Join(notification.Send(ctx, &notifications.PriceListImported{
		Email: user.Email, Shop: j.Shop, Categories: j.Categories, Products: j.Products,
	})...)
}
