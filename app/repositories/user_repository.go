package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/bazaar/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for User and its
// confirmation tokens.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, err
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	return user, err
}

// LockByID loads the user row with FOR UPDATE. Only meaningful inside a
// transaction; used to serialise per-user basket writes.
func (r *UserRepository) LockByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
	return user, err
}

// EmailTaken reports whether another user (not exceptID) owns email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, err
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// ─── Confirmation tokens ──────────────────────────────────────────────────────

// PutToken replaces any existing token of the user.
func (r *UserRepository) PutToken(ctx context.Context, tok *models.ConfirmToken) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", tok.UserID).Delete(&models.ConfirmToken{}).Error; err != nil {
		return err
	}
	return db.Create(tok).Error
}

// ConsumeToken deletes the user's token if key matches. It returns
// gorm.ErrRecordNotFound when there is no such token.
func (r *UserRepository) ConsumeToken(ctx context.Context, userID uint, key string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, key).
		Delete(&models.ConfirmToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound is shorthand for errors.Is(err, gorm.ErrRecordNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
