package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
)

// Cache keys of the catalog read path.
const (
	CacheKeyCategories = "catalog:categories"
	CacheKeyShops      = "catalog:shops"
)

// CatalogService is the public read path: categories, shops and offers.
type CatalogService struct {
	repo *repositories.CatalogRepository
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{repo: repositories.NewCatalogRepository(db)}
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	out, err := cache.Remember(CacheKeyCategories, config.CatalogCacheTTL(), func() ([]models.Category, error) {
		return s.repo.Categories(ctx)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Could not load categories", err)
	}
	return nonNil(out), nil
}

// Shops lists shops currently accepting orders.
func (s *CatalogService) Shops(ctx context.Context) ([]models.Shop, error) {
	out, err := cache.Remember(CacheKeyShops, config.CatalogCacheTTL(), func() ([]models.Shop, error) {
		return s.repo.ActiveShops(ctx)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Could not load shops", err)
	}
	return nonNil(out), nil
}

// Products searches live offers; zero ids are not filtered on.
func (s *CatalogService) Products(ctx context.Context, shopID, categoryID uint) ([]models.ProductInfo, error) {
	out, err := s.repo.SearchOffers(ctx, repositories.OfferFilter{ShopID: shopID, CategoryID: categoryID})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Could not load products", err)
	}
	return nonNil(out), nil
}

// FlushCatalogCache drops the cached category and shop lists.
func FlushCatalogCache() error {
	return cache.Del(CacheKeyCategories, CacheKeyShops)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
