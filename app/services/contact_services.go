package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/pkg/apperr"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

type ContactInput struct {
	City      string `json:"city"      validate:"required,max=50"`
	Street    string `json:"street"    validate:"required,max=100"`
	House     string `json:"house"     validate:"max=15"`
	Structure string `json:"structure" validate:"max=15"`
	Building  string `json:"building"  validate:"max=15"`
	Apartment string `json:"apartment" validate:"max=15"`
	Phone     string `json:"phone"     validate:"required,max=20"`
}

// ContactPatch is a partial update; nil fields are left alone.
type ContactPatch struct {
	City      *string `json:"city"      validate:"omitempty,min=1,max=50"`
	Street    *string `json:"street"    validate:"omitempty,min=1,max=100"`
	House     *string `json:"house"     validate:"omitempty,max=15"`
	Structure *string `json:"structure" validate:"omitempty,max=15"`
	Building  *string `json:"building"  validate:"omitempty,max=15"`
	Apartment *string `json:"apartment" validate:"omitempty,max=15"`
	Phone     *string `json:"phone"     validate:"omitempty,min=1,max=20"`
}

type ContactService struct {
	contacts *repositories.ContactRepository
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{contacts: repositories.NewContactRepository(db)}
}

func (s *ContactService) List(ctx context.Context, userID uint) ([]models.Contact, error) {
	out, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: %w", err)
	}
	return nonNil(out), nil
}

func (s *ContactService) Create(ctx context.Context, userID uint, in ContactInput) (models.Contact, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Contact{}, apperr.Invalid("Validation failed", errs)
	}
	c := models.Contact{
		UserID:    userID,
		City:      in.City,
		Street:    in.Street,
		House:     in.House,
		Structure: in.Structure,
		Building:  in.Building,
		Apartment: in.Apartment,
		Phone:     in.Phone,
	}
	if err := s.contacts.Create(ctx, &c); err != nil {
		return models.Contact{}, fmt.Errorf("contacts: create: %w", err)
	}
	return c, nil
}

func (s *ContactService) Update(ctx context.Context, userID, id uint, in ContactPatch) (models.Contact, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Contact{}, apperr.Invalid("Validation failed", errs)
	}
	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.Contact{}, err
	}
	assign(&c.City, in.City)
	assign(&c.Street, in.Street)
	assign(&c.House, in.House)
	assign(&c.Structure, in.Structure)
	assign(&c.Building, in.Building)
	assign(&c.Apartment, in.Apartment)
	assign(&c.Phone, in.Phone)
	if err := s.contacts.Save(ctx, &c); err != nil {
		return models.Contact{}, fmt.Errorf("contacts: save: %w", err)
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, id uint) error {
	c, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.contacts.Delete(ctx, &c); err != nil {
		return fmt.Errorf("contacts: delete: %w", err)
	}
	return nil
}

func (s *ContactService) owned(ctx context.Context, userID, id uint) (models.Contact, error) {
	c, err := s.contacts.FindOwned(ctx, id, userID)
	if repositories.IsNotFound(err) {
		return models.Contact{}, apperr.NotFoundf("Contact %d not found", id)
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("contacts: %w", err)
	}
	return c, nil
}
