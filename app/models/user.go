package models

import (
	"time"

	"gorm.io/gorm"
)

// User types.
const (
	TypeCustomer = "customer"
	TypeShop     = "shop"
)

type User struct {
	gorm.Model
	FirstName string    `gorm:"size:50"                 json:"first_name"`
	LastName  string    `gorm:"size:50"                 json:"last_name"`
	Email     string    `gorm:"size:254;uniqueIndex"    json:"email"`
	Company   string    `gorm:"size:40"                 json:"company"`
	Position  string    `gorm:"size:40"                 json:"position"`
	Password  string    `gorm:"size:100"                json:"-"`
	Type      string    `gorm:"size:8;default:customer" json:"type"`
	IsActive  bool      `gorm:"default:false"           json:"is_active"`
	Contacts  []Contact `                               json:"contacts,omitempty"`
}

// ConfirmToken is the one-time key mailed after registration.
type ConfirmToken struct {
	ID        uint      `gorm:"primaryKey"          json:"-"`
	UserID    uint      `gorm:"uniqueIndex"         json:"-"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Key       string    `gorm:"column:token;size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"-"`
}

type Contact struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null" json:"-"`
	City      string `gorm:"size:50"        json:"city"`
	Street    string `gorm:"size:100"       json:"street"`
	House     string `gorm:"size:15"        json:"house"`
	Structure string `gorm:"size:15"        json:"structure"`
	Building  string `gorm:"size:15"        json:"building"`
	Apartment string `gorm:"size:15"        json:"apartment"`
	Phone     string `gorm:"size:20"        json:"phone"`
}
