package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/collection"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// BasketLine adds quantity of an offer to the basket.
type BasketLine struct {
	ProductInfoID uint `json:"product_info_id" validate:"required"`
	Quantity      int  `json:"quantity"        validate:"required,min=1"`
}

// BasketItemUpdate sets the quantity of a basket item.
type BasketItemUpdate struct {
	ID       uint `json:"id"       validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

type AddToBasketInput struct {
	Items []BasketLine `json:"items" validate:"required,min=1,dive"`
}

type UpdateBasketInput struct {
	Items []BasketItemUpdate `json:"items" validate:"required,min=1,dive"`
}

type RemoveFromBasketInput struct {
	Items []uint `json:"items" validate:"required,min=1,dive,required"`
}

type BasketService struct {
	db      *gorm.DB
	users   *repositories.UserRepository
	orders  *repositories.OrderRepository
	catalog *repositories.CatalogRepository
}

func NewBasketService(db *gorm.DB) *BasketService {
	return &BasketService{
		db:      db,
		users:   repositories.NewUserRepository(db),
		orders:  repositories.NewOrderRepository(db),
		catalog: repositories.NewCatalogRepository(db),
	}
}

// Get returns the user's basket with its total over items that can still be
// bought. A user without a basket gets an empty one; nothing is created.
func (s *BasketService) Get(ctx context.Context, userID uint) (models.Order, error) {
	o, err := s.orders.Basket(ctx, userID)
	if repositories.IsNotFound(err) {
		return models.Order{UserID: userID, State: models.StateBasket, Items: []models.OrderItem{}}, nil
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("basket: %w", err)
	}
	o.Items = nonNil(o.Items)
	o.TotalSum = o.BasketTotal()
	return o, nil
}

// Add puts offers into the basket, creating it on first use, and returns
// how many items were created or updated. The user row is locked for the
// whole transaction so concurrent adds share one basket.
func (s *BasketService) Add(ctx context.Context, userID uint, in AddToBasketInput) (int, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return 0, apperr.Invalid("Validation failed", errs)
	}
	if err := s.requireLive(ctx, in.Items); err != nil {
		return 0, err
	}

	n := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.WithTx(tx).LockByID(ctx, userID); err != nil {
			return err
		}
		orders := s.orders.WithTx(tx)
		basket, err := orders.FirstOrCreateBasket(ctx, userID)
		if err != nil {
			return err
		}

		for _, line := range in.Items {
			item, err := orders.ItemByOffer(ctx, basket.ID, line.ProductInfoID)
			switch {
			case err == nil:
				item.Quantity += uint(line.Quantity)
			case repositories.IsNotFound(err):
				item = models.OrderItem{OrderID: basket.ID, ProductInfoID: line.ProductInfoID, Quantity: uint(line.Quantity)}
			default:
				return err
			}
			if err := orders.SaveItem(ctx, &item); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("basket: add: %w", err)
	}

	metrics.BasketOps.WithLabelValues("add").Add(float64(n))
	return n, nil
}

// Update sets item quantities exactly. Every id must be an item of the
// caller's basket.
func (s *BasketService) Update(ctx context.Context, userID uint, in UpdateBasketInput) (int, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return 0, apperr.Invalid("Validation failed", errs)
	}
	basket, err := s.header(ctx, userID)
	if err != nil {
		return 0, err
	}

	n := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		for _, u := range in.Items {
			item, err := orders.Item(ctx, basket.ID, u.ID)
			if repositories.IsNotFound(err) {
				return apperr.NotFoundf("Basket item %d not found", u.ID)
			}
			if err != nil {
				return err
			}
			item.Quantity = uint(u.Quantity)
			if err := orders.SaveItem(ctx, &item); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, wrapTx("basket: update", err)
	}

	metrics.BasketOps.WithLabelValues("update").Add(float64(n))
	return n, nil
}

// Remove deletes items from the caller's basket. If any id is not in the
// basket nothing is deleted.
func (s *BasketService) Remove(ctx context.Context, userID uint, in RemoveFromBasketInput) (int, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return 0, apperr.Invalid("Validation failed", errs)
	}
	basket, err := s.header(ctx, userID)
	if err != nil {
		return 0, err
	}
	ids := collection.Unique(in.Items)

	var n int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		found, err := orders.ItemsByIDs(ctx, basket.ID, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return apperr.NotFoundf("Basket item %d not found", missing(ids, found))
		}
		n, err = orders.DeleteItems(ctx, basket.ID, ids)
		return err
	})
	if err != nil {
		return 0, wrapTx("basket: remove", err)
	}

	metrics.BasketOps.WithLabelValues("remove").Add(float64(n))
	return int(n), nil
}

func (s *BasketService) header(ctx context.Context, userID uint) (models.Order, error) {
	o, err := s.orders.BasketHeader(ctx, userID)
	if repositories.IsNotFound(err) {
		return models.Order{}, apperr.NotFoundf("Basket is empty")
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("basket: %w", err)
	}
	return o, nil
}

// requireLive rejects lines whose offer is replaced, unknown or belongs to
// an inactive shop.
func (s *BasketService) requireLive(ctx context.Context, lines []BasketLine) error {
	return checkOffers(ctx, s.catalog, offerIDs(lines), "product_info_id")
}

func checkOffers(ctx context.Context, catalog *repositories.CatalogRepository, ids []uint, field string) error {
	live, err := catalog.LiveOffers(ctx, collection.Unique(ids))
	if err != nil {
		return fmt.Errorf("offers: %w", err)
	}
	errs := map[string]string{}
	for i, id := range ids {
		if _, ok := live[id]; !ok {
			errs[validate.Index("items", i)+"."+field] = fmt.Sprintf("Product %d is not available", id)
		}
	}
	if len(errs) > 0 {
		return apperr.Invalid("Some products are not available", errs)
	}
	return nil
}

// wrapTx keeps typed errors raised inside a transaction and wraps the rest.
func wrapTx(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return fmt.Errorf("%s: %w", op, err)
}

func offerIDs(lines []BasketLine) []uint {
	return collection.Map(lines, func(l BasketLine) uint { return l.ProductInfoID })
}

// missing returns the first id absent from found.
func missing(ids []uint, found []models.OrderItem) uint {
	have := collection.KeyBy(found, func(it models.OrderItem) uint { return it.ID })
	id, _ := collection.First(ids, func(id uint) bool {
		_, ok := have[id]
		return !ok
	})
	return id
}
