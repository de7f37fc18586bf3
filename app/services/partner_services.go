package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

type StateInput struct {
	State string `json:"state" validate:"required"`
}

// PartnerService is the shop owner's view of their shop and its orders.
type PartnerService struct {
	catalog *repositories.CatalogRepository
	orders  *repositories.OrderRepository
}

func NewPartnerService(db *gorm.DB) *PartnerService {
	return &PartnerService{
		catalog: repositories.NewCatalogRepository(db),
		orders:  repositories.NewOrderRepository(db),
	}
}

// Shop returns the caller's shop.
func (s *PartnerService) Shop(ctx context.Context, userID uint) (models.Shop, error) {
	shop, err := s.catalog.ShopByOwner(ctx, userID)
	if repositories.IsNotFound(err) {
		return models.Shop{}, apperr.NotFoundf("You have no shop yet; import a price list first")
	}
	if err != nil {
		return models.Shop{}, fmt.Errorf("partner: %w", err)
	}
	return shop, nil
}

// SetState opens or closes the caller's shop for orders. state accepts the
// usual boolean spellings (yes/no, on/off, 1/0, ...).
func (s *PartnerService) SetState(ctx context.Context, userID uint, in StateInput) (models.Shop, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Shop{}, apperr.Invalid("Validation failed", errs)
	}
	on, err := validate.ParseBool(in.State)
	if err != nil {
		return models.Shop{}, apperr.Field("state", fmt.Sprintf("%q is not a valid state", in.State))
	}
	if _, err := s.Shop(ctx, userID); err != nil {
		return models.Shop{}, err
	}

	shop, err := s.catalog.SetShopState(ctx, userID, on)
	if err != nil {
		return models.Shop{}, fmt.Errorf("partner: state: %w", err)
	}
	event.Fire(ctx, events.CatalogChanged, events.CatalogChangedPayload{ShopID: shop.ID})
	return shop, nil
}

// Orders lists placed orders holding the caller's goods. Only the shop's
// own lines are included, so each total is the shop's share.
func (s *PartnerService) Orders(ctx context.Context, userID uint, page orm.Pagination) ([]models.Order, orm.Pagination, error) {
	shop, err := s.Shop(ctx, userID)
	if err != nil {
		return nil, page, err
	}
	out, page, err := s.orders.ForShop(ctx, shop.ID, page)
	if err != nil {
		return nil, page, fmt.Errorf("partner: orders: %w", err)
	}
	for i := range out {
		out[i].TotalSum = out[i].Total()
	}
	return nonNil(out), page, nil
}
