package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"encore/internal/models"
	"encore/internal/repositories"
	"encore/pkg/rabbitmq"
)

// Baseline dataset inserted once per store lifetime.
var sampleDepopUsers = []models.DepopUser{
	{
		UserID:        "dep_001",
		Username:      "studioflux",
		Bio:           "Curated streetwear and archival denim.",
		FirstName:     "Mei",
		LastName:      "Chen",
		Followers:     3400,
		ItemsSold:     980,
		Verified:      true,
		ReviewsRating: 4.95,
	},
	{
		UserID:        "dep_002",
		Username:      "midnightmemo",
		Bio:           "Minimalist silhouettes + handmade jewelry.",
		FirstName:     "Luca",
		Followers:     1850,
		ItemsSold:     302,
		Verified:      false,
		ReviewsRating: 4.7,
	},
}

func sampleDepopProducts() []models.DepopProduct {
	twoDaysAgo := time.Now().UTC().Add(-48 * time.Hour)
	fiveDaysAgo := time.Now().UTC().Add(-120 * time.Hour)
	return []models.DepopProduct{
		{
			ID:                    "dep_prod_001",
			UserID:                "dep_001",
			Sold:                  false,
			Gender:                "unisex",
			Category:              "Outerwear",
			Size:                  "L",
			State:                 "Like new",
			Brand:                 "Arc'teryx",
			Colors:                "Black",
			Price:                 210.0,
			Images:                []string{"https://images.unsplash.com/photo-1521579971123-1192931a1452?auto=format&fit=crop&w=600&q=80"},
			Description:           "Veilance composite shell with zero flaws.",
			Title:                 "Veilance shell jacket",
			Platform:              "depop",
			Address:               "Brooklyn, NY",
			DiscountedPriceAmount: 0.0,
			DateUpdated:           &twoDaysAgo,
		},
		{
			ID:                    "dep_prod_002",
			UserID:                "dep_002",
			Sold:                  true,
			Gender:                "women",
			Category:              "Dresses",
			Size:                  "S",
			State:                 "Great",
			Brand:                 "Reformation",
			Colors:                "Emerald",
			Price:                 120.0,
			Images:                []string{"https://images.unsplash.com/photo-1483985988355-763728e1935b?auto=format&fit=crop&w=600&q=80"},
			Description:           "Silk midi dress with open back.",
			Title:                 "Emerald silk midi",
			Platform:              "depop",
			Address:               "Austin, TX",
			DiscountedPriceAmount: 15.0,
			DateUpdated:           &fiveDaysAgo,
		},
	}
}

const depopStubImage = "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?auto=format&fit=crop&w=600&q=80"

// Stub pricing: ordinal n in a scrape request is priced base + n*step.
const (
	depopStubBasePrice = 48.0
	depopStubPriceStep = 5.0
)

// DepopScrapeOptions carries the knobs of a simulated Depop scrape.
// DownloadFiles and StartFromItem are legacy flags: accepted, logged, and
// otherwise without effect. IncludeSold controls the sold flag on synthesized
// records.
type DepopScrapeOptions struct {
	DownloadFiles bool
	IncludeSold   bool
	StartFromItem string
}

// DepopService handles seeding, simulated ingestion, and read queries for
// the Depop side of the catalog.
type DepopService struct {
	repo   repositories.DepopRepository
	events EventPublisher
}

// NewDepopService creates a new DepopService.
func NewDepopService(repo repositories.DepopRepository, events EventPublisher) *DepopService {
	return &DepopService{
		repo:   repo,
		events: events,
	}
}

// Seed inserts the baseline dataset. The underlying repository makes this a
// no-op when users already exist, so calling it on every start is safe.
func (s *DepopService) Seed() error {
	users := make([]models.DepopUser, len(sampleDepopUsers))
	copy(users, sampleDepopUsers)
	return s.repo.SeedBaseline(users, sampleDepopProducts())
}

// SimulateScrape stores one placeholder product per requested username and
// returns the created records with their owners attached. Blank usernames
// are skipped; unknown usernames get a fresh account first. With IncludeSold
// set, synthesized records alternate sold/unsold by ordinal parity (even
// ordinals sold); without it every record is unsold.
func (s *DepopService) SimulateScrape(usernames []string, opts DepopScrapeOptions) ([]models.DepopProduct, error) {
	// The whole request is one unit of work: a failure partway through the
	// username list rolls back every user and product created before it.
	created := make([]models.DepopProduct, 0, len(usernames))
	err := s.repo.WithTx(func(tx repositories.DepopRepository) error {
		for idx, username := range usernames {
			if strings.TrimSpace(username) == "" {
				continue
			}

			user, err := resolveDepopUser(tx, username)
			if err != nil {
				return err
			}

			product := synthesizeDepopProduct(user, idx, opts.IncludeSold)
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

	if opts.StartFromItem != "" {
		log.Printf("start_from_item flag received (%s). This is a no-op in the simulation.", opts.StartFromItem)
	}
	if opts.DownloadFiles {
		log.Println("download_files flag is informational only. No assets are fetched by the simulation.")
	}

	publishScrapeCompleted(s.events, rabbitmq.ScrapeEvent{
		Platform:     "depop",
		Requested:    len(usernames),
		Created:      len(created),
		IgnoredFlags: ignoredDepopFlags(opts),
		CompletedAt:  time.Now().UTC(),
	})

	return created, nil
}

// ListUsers returns all users matching the filter with their products.
func (s *DepopService) ListUsers(filter repositories.DepopUserFilter) ([]models.DepopUser, error) {
	return s.repo.FindUsers(filter)
}

// GetUser returns one user by primary id with its products.
func (s *DepopService) GetUser(id string) (*models.DepopUser, error) {
	return s.repo.GetUserWithProducts(id)
}

// ListProducts returns all products matching the filter with their owners.
func (s *DepopService) ListProducts(filter repositories.DepopProductFilter) ([]models.DepopProduct, error) {
	return s.repo.FindProducts(filter)
}

// resolveDepopUser maps a Depop username to a stored account within the
// request's transaction. Depop identities resolve by username; an unknown one
// gets a fresh account with a generated id, persisted before any product can
// reference it.
func resolveDepopUser(repo repositories.DepopRepository, username string) (*models.DepopUser, error) {
	user, err := repo.GetUserByUsername(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	firstRune, _ := utf8.DecodeRuneInString(username)
	user = &models.DepopUser{
		UserID:    "dep_" + randomSuffix(8),
		Username:  username,
		FirstName: strings.ToUpper(string(firstRune)),
		Followers: 0,
		ItemsSold: 0,
		Verified:  false,
	}
	if err := repo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to resolve depop user %s: %w", username, err)
	}
	return user, nil
}

// synthesizeDepopProduct builds the placeholder listing for one resolved
// username.
func synthesizeDepopProduct(owner *models.DepopUser, ordinal int, includeSold bool) *models.DepopProduct {
	now := time.Now().UTC()
	return &models.DepopProduct{
		ID:                    "dep_stub_" + randomSuffix(8),
		UserID:                owner.UserID,
		Sold:                  includeSold && ordinal%2 == 0,
		Gender:                "unisex",
		Category:              "Accessories",
		Size:                  "OS",
		State:                 "Great",
		Brand:                 "Encore Demo",
		Colors:                "Assorted",
		Price:                 depopStubBasePrice + float64(ordinal)*depopStubPriceStep,
		Images:                []string{depopStubImage},
		Description:           "Educational placeholder listing.",
		Title:                 fmt.Sprintf("Demo drop %d", ordinal+1),
		Platform:              "depop",
		Address:               "Remote",
		DiscountedPriceAmount: 0.0,
		DateUpdated:           &now,
	}
}

// ignoredDepopFlags names the accepted-but-ignored options of a request.
func ignoredDepopFlags(opts DepopScrapeOptions) []string {
	var flags []string
	if opts.DownloadFiles {
		flags = append(flags, "download_files")
	}
	if opts.StartFromItem != "" {
		flags = append(flags, "start_from_item")
	}
	return flags
}
