package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/events"
	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name"  validate:"required,max=50"`
	Email     string `json:"email"      validate:"required,email,max=254"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
	Company   string `json:"company"    validate:"required,max=40"`
	Position  string `json:"position"   validate:"required,max=40"`
	Type      string `json:"type"       validate:"omitempty,oneof=customer shop"`
}

type ConfirmInput struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// DetailsInput is a partial update; nil fields are left alone.
type DetailsInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name"  validate:"omitempty,min=1,max=50"`
	Email     *string `json:"email"      validate:"omitempty,email,max=254"`
	Password  *string `json:"password"   validate:"omitempty,min=8,max=72"`
	Company   *string `json:"company"    validate:"omitempty,max=40"`
	Position  *string `json:"position"   validate:"omitempty,max=40"`
}

const tokenBytes = 24

// AccountService covers registration, confirmation, login and the user's
// own details.
type AccountService struct {
	db    *gorm.DB
	users *repositories.UserRepository
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db, users: repositories.NewUserRepository(db)}
}

// Register creates an inactive user and a confirmation token, then fires
// user.registered so the token gets mailed.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.User{}, apperr.Invalid("Validation failed", errs)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Type == "" {
		in.Type = models.TypeCustomer
	}

	taken, err := s.users.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return models.User{}, fmt.Errorf("register: %w", err)
	}
	if taken {
		return models.User{}, apperr.Field("email", "A user with this email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("register: hash: %w", err)
	}
	key, err := newToken()
	if err != nil {
		return models.User{}, fmt.Errorf("register: token: %w", err)
	}

	user := models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Company:   in.Company,
		Position:  in.Position,
		Password:  hash,
		Type:      in.Type,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		if err := users.Create(ctx, &user); err != nil {
			return err
		}
		return users.PutToken(ctx, &models.ConfirmToken{UserID: user.ID, Key: key})
	})
	if err != nil {
		return models.User{}, fmt.Errorf("register: %w", err)
	}

	logger.WithCtx(ctx).Info("account: registered", "user_id", user.ID, "type", user.Type)
	event.Fire(ctx, events.UserRegistered, events.UserRegisteredPayload{UserID: user.ID, Email: user.Email, Token: key})
	return user, nil
}

// Confirm activates the account when token matches the one mailed to email.
func (s *AccountService) Confirm(ctx context.Context, in ConfirmInput) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return apperr.Invalid("Validation failed", errs)
	}
	wrong := apperr.New(apperr.NotFound, "Invalid email or token")

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if repositories.IsNotFound(err) {
		return wrong
	}
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		if err := users.ConsumeToken(ctx, user.ID, in.Token); err != nil {
			return err
		}
		user.IsActive = true
		return users.Update(ctx, &user)
	})
	if repositories.IsNotFound(err) {
		return wrong
	}
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	logger.WithCtx(ctx).Info("account: confirmed", "user_id", user.ID)
	return nil
}

// Login returns an access/refresh pair for an active user.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (auth.TokenPair, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return auth.TokenPair{}, apperr.Invalid("Validation failed", errs)
	}
	denied := apperr.New(apperr.Unauthorized, "Invalid credentials")

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if repositories.IsNotFound(err) {
		return auth.TokenPair{}, denied
	}
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("login: %w", err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return auth.TokenPair{}, denied
	}
	if !user.IsActive {
		return auth.TokenPair{}, apperr.New(apperr.Unauthorized, "Account is not confirmed")
	}

	pair, err := auth.IssuePair(user.ID, user.Type)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("login: sign: %w", err)
	}
	return pair, nil
}

// Refresh trades a refresh token for a new access token. The user must
// still exist and be active; their current type becomes the token role.
func (s *AccountService) Refresh(ctx context.Context, in RefreshInput) (auth.TokenPair, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return auth.TokenPair{}, apperr.Invalid("Validation failed", errs)
	}
	claims, err := auth.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, apperr.Wrap(apperr.Unauthorized, "Invalid refresh token", err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if repositories.IsNotFound(err) || (err == nil && !user.IsActive) {
		return auth.TokenPair{}, apperr.New(apperr.Unauthorized, "Invalid refresh token")
	}
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}

	access, err := auth.GenerateToken(user.ID, user.Type)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("refresh: sign: %w", err)
	}
	return auth.TokenPair{AccessToken: access, ExpiresIn: int64(auth.AccessTTL.Seconds())}, nil
}

func (s *AccountService) Details(ctx context.Context, userID uint) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if repositories.IsNotFound(err) {
		return models.User{}, apperr.NotFoundf("User not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("details: %w", err)
	}
	return user, nil
}

// UpdateDetails applies the non-nil fields of in. A new password is hashed;
// a new email must be unused.
func (s *AccountService) UpdateDetails(ctx context.Context, userID uint, in DetailsInput) (models.User, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.User{}, apperr.Invalid("Validation failed", errs)
	}
	user, err := s.Details(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		taken, err := s.users.EmailTaken(ctx, email, userID)
		if err != nil {
			return models.User{}, fmt.Errorf("details: %w", err)
		}
		if taken {
			return models.User{}, apperr.Field("email", "A user with this email already exists")
		}
		user.Email = email
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("details: hash: %w", err)
		}
		user.Password = hash
	}
	assign(&user.FirstName, in.FirstName)
	assign(&user.LastName, in.LastName)
	assign(&user.Company, in.Company)
	assign(&user.Position, in.Position)

	if err := s.users.Update(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("details: save: %w", err)
	}
	return user, nil
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
