package repositories

import (
	"context"

	"github.com/shashiranjanraj/bazaar/app/models"
	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) WithTx(tx *gorm.DB) *ContactRepository {
	return &ContactRepository{db: tx}
}

func (r *ContactRepository) ListByUser(ctx context.Context, userID uint) ([]models.Contact, error) {
	var out []models.Contact
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&out).Error
	return out, err
}

// FindOwned returns gorm.ErrRecordNotFound for ids owned by someone else.
func (r *ContactRepository) FindOwned(ctx context.Context, id, userID uint) (models.Contact, error) {
	var c models.Contact
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	return c, err
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContactRepository) Save(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *ContactRepository) Delete(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).Delete(c).Error
}
