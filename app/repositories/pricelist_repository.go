package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/bazaar/app/models"
)

// PriceListRepository writes an imported price list. Every method is meant
// to run on the import transaction.
type PriceListRepository struct {
	db *gorm.DB
}

func NewPriceListRepository(db *gorm.DB) *PriceListRepository {
	return &PriceListRepository{db: db}
}

func (r *PriceListRepository) WithTx(tx *gorm.DB) *PriceListRepository {
	return &PriceListRepository{db: tx}
}

// ShopByName locks and returns the shop called name.
func (r *PriceListRepository) ShopByName(ctx context.Context, name string) (models.Shop, error) {
	var s models.Shop
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&s).Error
	return s, err
}

func (r *PriceListRepository) SaveShop(ctx context.Context, s *models.Shop) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

// EnsureCategory creates c when its id is new and returns the stored row.
// An existing row is never changed.
func (r *PriceListRepository) EnsureCategory(ctx context.Context, c models.Category) (models.Category, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(&c).Error
	if err != nil {
		return models.Category{}, err
	}
	var stored models.Category
	err = db.First(&stored, c.ID).Error
	return stored, err
}

// CategoryShared reports whether a shop other than shopID lists the category.
func (r *PriceListRepository) CategoryShared(ctx context.Context, categoryID, shopID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("shop_categories").
		Where("category_id = ? AND shop_id <> ?", categoryID, shopID).
		Count(&n).Error
	return n > 0, err
}

func (r *PriceListRepository) RenameCategory(ctx context.Context, id uint, name string) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name).Error
}

// AttachCategories adds cats to the shop's categories, keeping existing links.
func (r *PriceListRepository) AttachCategories(ctx context.Context, shop *models.Shop, cats []models.Category) error {
	if len(cats) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(shop).
		Omit("Categories.*").
		Association("Categories").
		Append(cats)
}

// RetireOffers soft-deletes every live offer of the shop and returns how
// many were retired.
func (r *PriceListRepository) RetireOffers(ctx context.Context, shopID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&models.ProductInfo{})
	return res.RowsAffected, res.Error
}

// Product returns the product (name, category), creating it if needed.
func (r *PriceListRepository) Product(ctx context.Context, name string, categoryID uint) (models.Product, error) {
	p := models.Product{Name: name, CategoryID: categoryID}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Where(models.Product{Name: name, CategoryID: categoryID}).
		FirstOrCreate(&p).Error
	return p, err
}

// Parameters returns the ids of the named parameters, creating missing ones.
func (r *PriceListRepository) Parameters(ctx context.Context, names []string) (map[string]uint, error) {
	out := make(map[string]uint, len(names))
	if len(names) == 0 {
		return out, nil
	}

	var existing []models.Parameter
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&existing).Error; err != nil {
		return nil, err
	}
	for _, p := range existing {
		out[p.Name] = p.ID
	}

	for _, n := range names {
		if _, ok := out[n]; ok {
			continue
		}
		p := models.Parameter{Name: n}
		if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, err
		}
		out[n] = p.ID
	}
	return out, nil
}

// CreateOffer inserts the offer, then its parameters. Parameter ids must
// already be set on info.Parameters.
func (r *PriceListRepository) CreateOffer(ctx context.Context, info *models.ProductInfo) error {
	params := info.Parameters
	info.Parameters = nil
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(info).Error; err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	for i := range params {
		params[i].ProductInfoID = info.ID
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&params).Error; err != nil {
		return err
	}
	info.Parameters = params
	return nil
}
