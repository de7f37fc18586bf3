package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/collection"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// PlaceOrderInput needs both keys present; items may be an empty list.
type PlaceOrderInput struct {
	Contact *uint        `json:"contact" validate:"required"`
	Items   []BasketLine `json:"items"   validate:"required,dive"`
}

type OrderService struct {
	db       *gorm.DB
	orders   *repositories.OrderRepository
	contacts *repositories.ContactRepository
	catalog  *repositories.CatalogRepository
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:       db,
		orders:   repositories.NewOrderRepository(db),
		contacts: repositories.NewContactRepository(db),
		catalog:  repositories.NewCatalogRepository(db),
	}
}

// List returns the user's placed orders, newest first, each with its total.
func (s *OrderService) List(ctx context.Context, userID uint, page orm.Pagination) ([]models.Order, orm.Pagination, error) {
	out, page, err := s.orders.Placed(ctx, userID, page)
	if err != nil {
		return nil, page, fmt.Errorf("orders: %w", err)
	}
	for i := range out {
		out[i].TotalSum = out[i].Total()
	}
	return nonNil(out), page, nil
}

// Place creates a new order for contact in one transaction. Ordered offers
// are taken out of the caller's basket in the same transaction. Repeated
// offers are merged into one line.
func (s *OrderService) Place(ctx context.Context, userID uint, in PlaceOrderInput) (models.Order, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Order{}, apperr.Invalid("Validation failed", errs)
	}

	contact, err := s.contacts.FindOwned(ctx, *in.Contact, userID)
	if repositories.IsNotFound(err) {
		return models.Order{}, apperr.NotFoundf("Contact %d not found", *in.Contact)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: contact: %w", err)
	}

	ids := offerIDs(in.Items)
	if err := checkOffers(ctx, s.catalog, ids, "product_info_id"); err != nil {
		return models.Order{}, err
	}

	order := models.Order{UserID: userID, State: models.StateNew, ContactID: &contact.ID, Items: mergeLines(in.Items)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		if err := orders.Create(ctx, &order); err != nil {
			return err
		}
		basket, err := orders.BasketHeader(ctx, userID)
		if repositories.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		return orders.DeleteItemsByOffer(ctx, basket.ID, collection.Unique(ids))
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: place: %w", err)
	}

	placed, err := s.orders.Find(ctx, order.ID)
	if err != nil {
		return models.Order{}, fmt.Errorf("orders: reload: %w", err)
	}
	placed.Items = nonNil(placed.Items)
	placed.TotalSum = placed.Total()

	metrics.OrdersPlaced.Inc()
	logger.WithCtx(ctx).Info("orders: placed", "order_id", placed.ID, "user_id", userID, "items", len(placed.Items))
	event.Fire(ctx, events.OrderPlaced, events.OrderPlacedPayload{OrderID: placed.ID, UserID: userID})
	return placed, nil
}

func mergeLines(lines []BasketLine) []models.OrderItem {
	at := make(map[uint]int, len(lines))
	out := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		if i, ok := at[l.ProductInfoID]; ok {
			out[i].Quantity += uint(l.Quantity)
			continue
		}
		at[l.ProductInfoID] = len(out)
		out = append(out, models.OrderItem{ProductInfoID: l.ProductInfoID, Quantity: uint(l.Quantity)})
	}
	return out
}
