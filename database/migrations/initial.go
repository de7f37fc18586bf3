// Package migrations registers the schema of bazaar. Importing it for side
// effects makes the migrations available to pkg/migration.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/migration"
	"github.com/shashiranjanraj/bazaar/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_accounts", &createAccounts{})
	migration.Register("20260101000100_create_catalog", &createCatalog{})
	migration.Register("20260101000200_create_orders", &createOrders{})
	migration.Register("20260101000300_create_failed_jobs", &createFailedJobs{})
}

// drop removes tables in the order given.
func drop(db *gorm.DB, tables ...string) error {
	for _, t := range tables {
		if err := db.Migrator().DropTable(t); err != nil {
			return err
		}
	}
	return nil
}

type createAccounts struct{}

func (createAccounts) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.ConfirmToken{}, &models.Contact{})
}

func (createAccounts) Down(db *gorm.DB) error {
	return drop(db, "contacts", "confirm_tokens", "users")
}

type createCatalog struct{}

func (createCatalog) Up(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Shop{},
		&models.Product{},
		&models.Parameter{},
		&models.ProductInfo{},
		&models.ProductParameter{},
	)
}

func (createCatalog) Down(db *gorm.DB) error {
	return drop(db, "product_parameters", "product_infos", "parameters", "products", "shop_categories", "shops", "categories")
}

type createOrders struct{}

func (createOrders) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{}, &models.OrderItem{})
}

func (createOrders) Down(db *gorm.DB) error {
	return drop(db, "order_items", "orders")
}

type createFailedJobs struct{}

func (createFailedJobs) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (createFailedJobs) Down(db *gorm.DB) error {
	return drop(db, "failed_jobs")
}
