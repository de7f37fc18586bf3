package seeders

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
)

func init() {
	Register("accounts", SeedAccounts)
}

// SeedAccounts creates one active customer and one active shop account
// with SEED_PASSWORD. Existing accounts are left alone.
func SeedAccounts(db *gorm.DB) error {
	hash, err := auth.HashPassword(config.Get("SEED_PASSWORD", "password1"))
	if err != nil {
		return err
	}

	accounts := []models.User{
		{FirstName: "Demo", LastName: "Customer", Email: "customer@bazaar.local", Type: models.TypeCustomer},
		{FirstName: "Demo", LastName: "Partner", Email: "partner@bazaar.local", Type: models.TypeShop, Company: "Demo Shop"},
	}
	for _, u := range accounts {
		u.Password = hash
		u.IsActive = true
		var existing models.User
		if err := db.Where("email = ?", u.Email).Attrs(u).FirstOrCreate(&existing).Error; err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return nil
}
