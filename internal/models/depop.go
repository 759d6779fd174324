package models

import "time"

// DepopUser represents a Depop shop account.
type DepopUser struct {
	UserID        string     `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	Username      string     `json:"username" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required"`
	Bio           string     `json:"bio,omitempty" gorm:"type:text"`
	FirstName     string     `json:"first_name,omitempty"`
	Followers     int        `json:"followers" gorm:"default:0"`
	Following     int        `json:"following" gorm:"default:0"`
	Initials      string     `json:"initials,omitempty"`
	ItemsSold     int        `json:"items_sold" gorm:"default:0"`
	LastName      string     `json:"last_name,omitempty"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	ReviewsRating float64    `json:"reviews_rating"`
	ReviewsTotal  int        `json:"reviews_total" gorm:"default:0"`
	Verified      bool       `json:"verified"`
	Website       string     `json:"website,omitempty"`

	// Products are the listings this user owns. Deleting a user cascades to
	// its products; a product never changes owner.
	Products []DepopProduct `json:"products" gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

// DepopProduct represents a single Depop listing. The camelCase JSON names on
// the discount and update fields match the upstream Depop payloads they were
// lifted from.
type DepopProduct struct {
	ID                    string     `json:"id" gorm:"primaryKey;type:varchar(128)"`
	UserID                string     `json:"user_id" gorm:"index;not null"`
	Sold                  bool       `json:"sold"`
	Gender                string     `json:"gender,omitempty"`
	Category              string     `json:"category,omitempty"`
	Size                  string     `json:"size,omitempty"`
	State                 string     `json:"state,omitempty"`
	Brand                 string     `json:"brand,omitempty"`
	Colors                string     `json:"colors,omitempty"`
	Price                 float64    `json:"price"`
	Images                []string   `json:"images" gorm:"serializer:json"`
	Description           string     `json:"description,omitempty" gorm:"type:text"`
	Title                 string     `json:"title,omitempty"`
	Platform              string     `json:"platform" gorm:"default:depop"`
	Address               string     `json:"address,omitempty"`
	DiscountedPriceAmount float64    `json:"discountedPriceAmount"`
	DateUpdated           *time.Time `json:"dateUpdated,omitempty"`

	Owner *DepopUser `json:"owner,omitempty" gorm:"foreignKey:UserID;references:UserID"`
}
