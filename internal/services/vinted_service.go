package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"encore/internal/models"
	"encore/internal/repositories"
	"encore/pkg/rabbitmq"

	"github.com/google/uuid"
)

// Baseline dataset inserted once per store lifetime.
var sampleVintedUsers = []models.VintedUser{
	{
		UserID:             "vin_001",
		Username:           "northloop",
		Gender:             "female",
		FollowersCount:     1280,
		FollowingCount:     320,
		FeedbackReputation: 4.9,
		City:               "Portland",
		CountryTitle:       "United States",
		VerificationEmail:  true,
		VerificationPhone:  true,
		CreatedAt:          time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
	},
	{
		UserID:             "vin_002",
		Username:           "streetthreadz",
		Gender:             "male",
		FollowersCount:     866,
		FollowingCount:     127,
		FeedbackReputation: 4.7,
		City:               "Toronto",
		CountryTitle:       "Canada",
		VerificationEmail:  true,
		VerificationGoogle: true,
		CreatedAt:          time.Date(2021, 10, 12, 0, 0, 0, 0, time.UTC),
	},
}

var sampleVintedProducts = []models.VintedProduct{
	{
		ID:          "vin_prod_001",
		UserID:      "vin_001",
		URL:         "https://www.vinted.com/items/vin_prod_001",
		Favourite:   true,
		Gender:      "women",
		Category:    "Sneakers",
		Size:        "W8",
		State:       "Very good",
		Brand:       "New Balance",
		Colors:      "Cream",
		Price:       95.0,
		Images:      []string{"https://images.unsplash.com/photo-1528701800489-20be3c2e0e2c?auto=format&fit=crop&w=600&q=80"},
		Description: "Limited 990v5 drop sourced from showroom.",
		Title:       "New Balance 990v5",
		Platform:    "vinted",
	},
	{
		ID:          "vin_prod_002",
		UserID:      "vin_002",
		URL:         "https://www.vinted.com/items/vin_prod_002",
		Gender:      "men",
		Category:    "Outerwear",
		Size:        "L",
		State:       "Good",
		Brand:       "Patagonia",
		Colors:      "Navy",
		Price:       120.0,
		Images:      []string{"https://images.unsplash.com/photo-1484519332611-516457305ff6?auto=format&fit=crop&w=600&q=80"},
		Description: "Retro Synchilla in excellent condition.",
		Title:       "Vintage Patagonia fleece",
		Platform:    "vinted",
	},
}

// vintedImagePool is the fixed set stub records draw their images from.
var vintedImagePool = []string{
	"https://images.unsplash.com/photo-1475180098004-ca77a66827be?auto=format&fit=crop&w=600&q=80",
	"https://images.unsplash.com/photo-1483985988355-763728e1935b?auto=format&fit=crop&w=600&q=80",
	"https://images.unsplash.com/photo-1484519332611-516457305ff6?auto=format&fit=crop&w=600&q=80",
	"https://images.unsplash.com/photo-1475180098004-ca77a66827be?auto=format&fit=crop&w=600&q=80",
}

// Stub pricing: ordinal n in a scrape request is priced base + n*step.
const (
	vintedStubBasePrice = 64.0
	vintedStubPriceStep = 1.0
)

// VintedScrapeOptions carries the knobs of a simulated Vinted scrape.
// SessionToken is accepted for compatibility with the legacy tool and is only
// ever logged; no authentication happens anywhere in this service.
type VintedScrapeOptions struct {
	MaxImages    int
	SessionToken string
}

// VintedService handles seeding, simulated ingestion, and read queries for
// the Vinted side of the catalog.
type VintedService struct {
	repo   repositories.VintedRepository
	events EventPublisher
}

// NewVintedService creates a new VintedService.
func NewVintedService(repo repositories.VintedRepository, events EventPublisher) *VintedService {
	return &VintedService{
		repo:   repo,
		events: events,
	}
}

// Seed inserts the baseline dataset. The underlying repository makes this a
// no-op when users already exist, so calling it on every start is safe.
func (s *VintedService) Seed() error {
	users := make([]models.VintedUser, len(sampleVintedUsers))
	copy(users, sampleVintedUsers)
	products := make([]models.VintedProduct, len(sampleVintedProducts))
	copy(products, sampleVintedProducts)
	return s.repo.SeedBaseline(users, products)
}

// SimulateScrape stores one placeholder product per requested user id and
// returns the created records with their owners attached. Blank ids are
// skipped; ids without a known user get a placeholder account first.
func (s *VintedService) SimulateScrape(userIDs []string, opts VintedScrapeOptions) ([]models.VintedProduct, error) {
	if opts.SessionToken != "" {
		log.Println("Session token received and ignored. Authentication is out of scope for this simulation.")
	}

	// The whole request is one unit of work: a failure partway through the
	// identifier list rolls back every user and product created before it.
	created := make([]models.VintedProduct, 0, len(userIDs))
	err := s.repo.WithTx(func(tx repositories.VintedRepository) error {
		for idx, externalID := range userIDs {
			if strings.TrimSpace(externalID) == "" {
				continue
			}

			user, err := resolveVintedUser(tx, externalID)
			if err != nil {
				return err
			}

			product := synthesizeVintedProduct(user, externalID, idx, opts.MaxImages)
			if err := tx.CreateProduct(product); err != nil {
				return err
			}

			product.Owner = user
			created = append(created, *product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishScrapeCompleted(s.events, rabbitmq.ScrapeEvent{
		Platform:     "vinted",
		Requested:    len(userIDs),
		Created:      len(created),
		IgnoredFlags: ignoredVintedFlags(opts),
		CompletedAt:  time.Now().UTC(),
	})

	return created, nil
}

// ListUsers returns all users matching the filter with their products.
func (s *VintedService) ListUsers(filter repositories.VintedUserFilter) ([]models.VintedUser, error) {
	return s.repo.FindUsers(filter)
}

// GetUser returns one user by primary id with its products.
func (s *VintedService) GetUser(id string) (*models.VintedUser, error) {
	return s.repo.GetUserWithProducts(id)
}

// ListProducts returns all products matching the filter with their owners.
func (s *VintedService) ListProducts(filter repositories.VintedProductFilter) ([]models.VintedProduct, error) {
	return s.repo.FindProducts(filter)
}

// resolveVintedUser maps an external Vinted user id to a stored account
// within the request's transaction. On Vinted the external id is the primary
// key, so an unknown id gets a placeholder account persisted before any
// product can reference it.
func resolveVintedUser(repo repositories.VintedRepository, externalID string) (*models.VintedUser, error) {
	user, err := repo.GetUserByID(externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	user = &models.VintedUser{
		UserID:            externalID,
		Username:          "reseller_" + strings.ToLower(externalID),
		City:              "Remote",
		CountryTitle:      "Unknown",
		VerificationEmail: true,
		CreatedAt:         time.Now().UTC(),
	}
	if err := repo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to resolve vinted user %s: %w", externalID, err)
	}
	return user, nil
}

// synthesizeVintedProduct builds the placeholder listing for one resolved id.
func synthesizeVintedProduct(owner *models.VintedUser, externalID string, ordinal, maxImages int) *models.VintedProduct {
	return &models.VintedProduct{
		ID:          fmt.Sprintf("vin_stub_%s_%s", externalID, randomSuffix(6)),
		UserID:      owner.UserID,
		URL:         fmt.Sprintf("https://example.com/vinted/%s/%d", externalID, ordinal),
		Favourite:   false,
		Gender:      "unisex",
		Category:    "Apparel",
		Size:        "M",
		State:       "Great",
		Brand:       "Encore Demo",
		Colors:      "Multi",
		Price:       vintedStubBasePrice + float64(ordinal)*vintedStubPriceStep,
		Images:      clampImages(vintedImagePool, maxImages),
		Description: "Placeholder record generated for educational scraping stub.",
		Title:       fmt.Sprintf("Sample find #%d", ordinal+1),
		Platform:    "vinted",
	}
}

// clampImages draws images from the pool, bounding the requested count to
// [1, len(pool)].
func clampImages(pool []string, requested int) []string {
	n := requested
	if n > len(pool) {
		n = len(pool)
	}
	if n < 1 {
		n = 1
	}
	images := make([]string, n)
	copy(images, pool[:n])
	return images
}

// ignoredVintedFlags names the accepted-but-ignored options of a request.
func ignoredVintedFlags(opts VintedScrapeOptions) []string {
	if opts.SessionToken != "" {
		return []string{"session_token"}
	}
	return nil
}

// randomSuffix returns n hex characters used to keep stub ids collision-free
// across repeated scrapes.
func randomSuffix(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}
