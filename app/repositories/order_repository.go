package repositories

import (
	"context"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// withItems preloads items with their offers. Replaced offers are loaded
// too (Unscoped) so order history stays readable; itemScope may narrow the
// items themselves.
func withItems(q *gorm.DB, itemScope func(*gorm.DB) *gorm.DB) *gorm.DB {
	return q.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			db = db.Order("order_items.id")
			if itemScope != nil {
				db = itemScope(db)
			}
			return db
		}).
		Preload("Items.ProductInfo", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items.ProductInfo.Product.Category").
		Preload("Items.ProductInfo.Shop").
		Preload("Items.ProductInfo.Parameters.Parameter")
}

// Basket returns the user's basket with items, or gorm.ErrRecordNotFound.
func (r *OrderRepository) Basket(ctx context.Context, userID uint) (models.Order, error) {
	var o models.Order
	err := withItems(r.db.WithContext(ctx), nil).
		Where("user_id = ? AND state = ?", userID, models.StateBasket).
		First(&o).Error
	return o, err
}

// BasketHeader returns the basket row without items.
func (r *OrderRepository) BasketHeader(ctx context.Context, userID uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND state = ?", userID, models.StateBasket).
		First(&o).Error
	return o, err
}

// FirstOrCreateBasket must run under the caller's user-row lock so two
// concurrent calls cannot both create a basket.
func (r *OrderRepository) FirstOrCreateBasket(ctx context.Context, userID uint) (models.Order, error) {
	o := models.Order{UserID: userID, State: models.StateBasket}
	err := r.db.WithContext(ctx).
		Where(models.Order{UserID: userID, State: models.StateBasket}).
		FirstOrCreate(&o).Error
	return o, err
}

// Item loads an item of orderID.
func (r *OrderRepository) Item(ctx context.Context, orderID, itemID uint) (models.OrderItem, error) {
	var it models.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		First(&it).Error
	return it, err
}

// ItemsByIDs loads the items of orderID among ids.
func (r *OrderRepository) ItemsByIDs(ctx context.Context, orderID uint, ids []uint) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND id IN ?", orderID, ids).
		Find(&out).Error
	return out, err
}

func (r *OrderRepository) ItemByOffer(ctx context.Context, orderID, productInfoID uint) (models.OrderItem, error) {
	var it models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_info_id = ?", orderID, productInfoID).
		First(&it).Error
	return it, err
}

func (r *OrderRepository) SaveItem(ctx context.Context, it *models.OrderItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(it).Error
}

// DeleteItems removes ids from orderID and returns how many went.
func (r *OrderRepository) DeleteItems(ctx context.Context, orderID uint, ids []uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("order_id = ? AND id IN ?", orderID, ids).
		Delete(&models.OrderItem{})
	return res.RowsAffected, res.Error
}

// DeleteItemsByOffer removes items of orderID whose offer is in offerIDs.
func (r *OrderRepository) DeleteItemsByOffer(ctx context.Context, orderID uint, offerIDs []uint) error {
	if len(offerIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("order_id = ? AND product_info_id IN ?", orderID, offerIDs).
		Delete(&models.OrderItem{}).Error
}

// Create inserts o, then o.Items. Offers and contacts are referenced by id
// only and never written.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	items := o.Items
	o.Items = nil
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(o).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	if len(items) > 0 {
		if err := db.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
	}
	o.Items = items
	return nil
}

// Find loads one order with items and contact.
func (r *OrderRepository) Find(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := withItems(r.db.WithContext(ctx), nil).Preload("Contact").First(&o, id).Error
	return o, err
}

// Placed lists the user's orders other than the basket, newest first.
func (r *OrderRepository) Placed(ctx context.Context, userID uint, page orm.Pagination) ([]models.Order, orm.Pagination, error) {
	var out []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ? AND state <> ?", userID, models.StateBasket).
		Order("created_at DESC, id DESC")
	page, err := orm.Paginate(q, page, &out, func(db *gorm.DB) *gorm.DB {
		return withItems(db, nil).Preload("Contact")
	})
	return out, page, err
}

// ForShop lists placed orders containing at least one item of shopID.
// Only that shop's items are loaded.
func (r *OrderRepository) ForShop(ctx context.Context, shopID uint, page orm.Pagination) ([]models.Order, orm.Pagination, error) {
	shopItems := func(db *gorm.DB) *gorm.DB {
		return db.Where("order_items.product_info_id IN (?)",
			r.db.Unscoped().Model(&models.ProductInfo{}).Select("id").Where("shop_id = ?", shopID))
	}

	var out []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("state <> ?", models.StateBasket).
		Where("id IN (?)", shopItems(r.db.Model(&models.OrderItem{}).Select("order_items.order_id"))).
		Order("created_at DESC, id DESC")
	page, err := orm.Paginate(q, page, &out, func(db *gorm.DB) *gorm.DB {
		return withItems(db, shopItems).Preload("Contact")
	})
	return out, page, err
}
