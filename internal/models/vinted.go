package models

import "time"

// VintedUser represents a Vinted seller account.
type VintedUser struct {
	UserID                string     `json:"user_id" gorm:"primaryKey;type:varchar(64)"`
	Username              string     `json:"username" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required"`
	Gender                string     `json:"gender,omitempty"`
	GivenItemCount        int        `json:"given_item_count" gorm:"default:0"`
	TakenItemCount        int        `json:"taken_item_count" gorm:"default:0"`
	FollowersCount        int        `json:"followers_count" gorm:"default:0"`
	FollowingCount        int        `json:"following_count" gorm:"default:0"`
	PositiveFeedbackCount int        `json:"positive_feedback_count" gorm:"default:0"`
	NegativeFeedbackCount int        `json:"negative_feedback_count" gorm:"default:0"`
	FeedbackReputation    float64    `json:"feedback_reputation" gorm:"default:0"`
	Avatar                string     `json:"avatar,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	LastLoggedOnTS        *time.Time `json:"last_logged_on_ts,omitempty"`
	CityID                string     `json:"city_id,omitempty"`
	City                  string     `json:"city,omitempty"`
	CountryTitle          string     `json:"country_title,omitempty"`
	VerificationEmail     bool       `json:"verification_email"`
	VerificationFacebook  bool       `json:"verification_facebook"`
	VerificationGoogle    bool       `json:"verification_google"`
	VerificationPhone     bool       `json:"verification_phone"`

	// Products are the listings this user owns. Deleting a user cascades to
	// its products; a product never changes owner.
	Products []VintedProduct `json:"products" gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

// VintedProduct represents a single Vinted listing.
type VintedProduct struct {
	ID          string   `json:"id" gorm:"primaryKey;type:varchar(128)"`
	UserID      string   `json:"user_id" gorm:"index;not null"`
	URL         string   `json:"url" gorm:"not null"`
	Favourite   bool     `json:"favourite"`
	Gender      string   `json:"gender,omitempty"`
	Category    string   `json:"category,omitempty"`
	Size        string   `json:"size,omitempty"`
	State       string   `json:"state,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Colors      string   `json:"colors,omitempty"`
	Price       float64  `json:"price"`
	Images      []string `json:"images" gorm:"serializer:json"`
	Description string   `json:"description,omitempty" gorm:"type:text"`
	Title       string   `json:"title,omitempty"`
	Platform    string   `json:"platform" gorm:"default:vinted"`

	Owner *VintedUser `json:"owner,omitempty" gorm:"foreignKey:UserID;references:UserID"`
}
