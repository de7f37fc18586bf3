package repositories

import (
	"context"

	"github.com/shashiranjanraj/bazaar/app/models"
	"gorm.io/gorm"
)

// OfferFilter narrows SearchOffers; zero fields are ignored.
type OfferFilter struct {
	ShopID     uint
	CategoryID uint
}

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) WithTx(tx *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

func (r *CatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

// ActiveShops lists shops with state=true.
func (r *CatalogRepository) ActiveShops(ctx context.Context) ([]models.Shop, error) {
	var out []models.Shop
	err := r.db.WithContext(ctx).Where("state = ?", true).Order("id").Find(&out).Error
	return out, err
}

// SearchOffers returns live offers of active shops with product, category,
// shop and parameters attached.
func (r *CatalogRepository) SearchOffers(ctx context.Context, f OfferFilter) ([]models.ProductInfo, error) {
	q := r.db.WithContext(ctx).Model(&models.ProductInfo{}).
		Joins("JOIN shops ON shops.id = product_infos.shop_id AND shops.state = ?", true).
		Joins("JOIN products ON products.id = product_infos.product_id")
	if f.ShopID != 0 {
		q = q.Where("product_infos.shop_id = ?", f.ShopID)
	}
	if f.CategoryID != 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}

	var out []models.ProductInfo
	err := q.
		Preload("Product.Category").
		Preload("Shop").
		Preload("Parameters.Parameter").
		Order("product_infos.id").
		Find(&out).Error
	return out, err
}

// LiveOffers loads the given offers that are buyable (not replaced, shop
// active), keyed by id. Missing ids are simply absent from the map.
func (r *CatalogRepository) LiveOffers(ctx context.Context, ids []uint) (map[uint]models.ProductInfo, error) {
	out := make(map[uint]models.ProductInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.ProductInfo
	err := r.db.WithContext(ctx).
		Joins("JOIN shops ON shops.id = product_infos.shop_id AND shops.state = ?", true).
		Where("product_infos.id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ShopByOwner returns the shop owned by userID.
func (r *CatalogRepository) ShopByOwner(ctx context.Context, userID uint) (models.Shop, error) {
	var s models.Shop
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	return s, err
}

// SetShopState updates state of the shop owned by userID.
func (r *CatalogRepository) SetShopState(ctx context.Context, userID uint, state bool) (models.Shop, error) {
	err := r.db.WithContext(ctx).Model(&models.Shop{}).
		Where("user_id = ?", userID).
		Update("state", state).Error
	if err != nil {
		return models.Shop{}, err
	}
	return r.ShopByOwner(ctx, userID)
}

// RefreshableShops lists active shops that have a stored price-list URL.
func (r *CatalogRepository) RefreshableShops(ctx context.Context) ([]models.Shop, error) {
	var out []models.Shop
	err := r.db.WithContext(ctx).
		Where("state = ? AND url IS NOT NULL AND url <> '' AND user_id IS NOT NULL", true).
		Order("id").
		Find(&out).Error
	return out, err
}
