package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Shop struct {
	ID         uint       `gorm:"primaryKey"             json:"id"`
	Name       string     `gorm:"size:50;uniqueIndex"    json:"name"`
	URL        *string    `gorm:"size:2048"              json:"url,omitempty"`
	UserID     *uint      `gorm:"uniqueIndex"            json:"-"`
	User       *User      `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	State      bool       `gorm:"default:true;index"     json:"state"`
	Categories []Category `gorm:"many2many:shop_categories" json:"-"`
}

// Category ids come from partner price lists and are shared by every shop
// that lists the same id.
type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name  string `gorm:"size:40"                        json:"name"`
	Shops []Shop `gorm:"many2many:shop_categories"      json:"-"`
}

type Product struct {
	ID         uint     `gorm:"primaryKey"                                  json:"-"`
	Name       string   `gorm:"size:80;uniqueIndex:idx_product_name_category" json:"name"`
	CategoryID uint     `gorm:"uniqueIndex:idx_product_name_category"       json:"-"`
	Category   Category `                                                   json:"category"`
}

// ProductInfo is one shop's offer for a product. Rows are soft-deleted when
// a newer price list replaces them, so placed orders keep their lines.
// (product, shop, external_id) is unique among live rows; the importer
// rejects documents that would break it.
type ProductInfo struct {
	ID         uint               `gorm:"primaryKey"                         json:"id"`
	ProductID  uint               `gorm:"index:idx_offer"                   json:"-"`
	Product    Product            `                                          json:"product"`
	ShopID     uint               `gorm:"index:idx_offer"                    json:"shop_id"`
	Shop       Shop               `                                          json:"shop"`
	ExternalID uint               `gorm:"index:idx_offer"                    json:"external_id"`
	Model      string             `gorm:"size:80"                            json:"model"`
	Quantity   uint               `                                          json:"quantity"`
	Price      decimal.Decimal    `gorm:"type:decimal(12,2)"                 json:"price"`
	PriceRRC   decimal.Decimal    `gorm:"type:decimal(12,2)"                 json:"price_rrc"`
	Parameters []ProductParameter `                                          json:"product_parameters"`
	DeletedAt  gorm.DeletedAt     `gorm:"index"                              json:"-"`
}

type Parameter struct {
	ID   uint   `gorm:"primaryKey"          json:"-"`
	Name string `gorm:"size:40;uniqueIndex" json:"name"`
}

type ProductParameter struct {
	ID            uint      `gorm:"primaryKey"                  json:"-"`
	ProductInfoID uint      `gorm:"uniqueIndex:idx_info_param"  json:"-"`
	ParameterID   uint      `gorm:"uniqueIndex:idx_info_param"  json:"-"`
	Parameter     Parameter `                                   json:"parameter"`
	Value         string    `gorm:"size:100"                    json:"value"`
}
