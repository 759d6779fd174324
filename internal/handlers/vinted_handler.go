package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"encore/internal/repositories"
	"encore/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ScrapeVintedRequest is the body of a simulated Vinted scrape. SessionToken
// is accepted for legacy compatibility and is never used for anything beyond
// a log line. MaxImages carries no bound here; the synthesizer clamps any
// value into the image pool's range.
type ScrapeVintedRequest struct {
	UserIDs      []string `json:"user_ids" validate:"required,min=1"`
	MaxImages    int      `json:"max_images"`
	SessionToken string   `json:"session_token"`
}

// VintedHandler handles HTTP requests for the Vinted catalog.
type VintedHandler struct {
	service  *services.VintedService
	validate *validator.Validate
}

// NewVintedHandler creates a new VintedHandler.
func NewVintedHandler(service *services.VintedService) *VintedHandler {
	return &VintedHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the Vinted routes with the Fiber app.
func (h *VintedHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/scrape/vinted", h.HandleScrape)

	vintedRoutes := router.Group("/vinted")
	vintedRoutes.Get("/users", h.HandleListUsers)
	vintedRoutes.Get("/users/:id", h.HandleGetUser)
	vintedRoutes.Get("/products", h.HandleListProducts)
}

// HandleScrape runs a simulated Vinted scrape for the requested user ids and
// returns the created products.
func (h *VintedHandler) HandleScrape(c *fiber.Ctx) error {
	req := ScrapeVintedRequest{MaxImages: 10}
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing vinted scrape request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "user_ids cannot be empty",
			"errors":  validationMessages(err),
		})
	}

	records, err := h.service.SimulateScrape(req.UserIDs, services.VintedScrapeOptions{
		MaxImages:    req.MaxImages,
		SessionToken: req.SessionToken,
	})
	if err != nil {
		log.Printf("Error during vinted scrape: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete scrape",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(records)
}

// HandleListUsers lists Vinted users with optional username/city/follower
// filters.
func (h *VintedHandler) HandleListUsers(c *fiber.Ctx) error {
	filter := repositories.VintedUserFilter{
		UsernameContains: c.Query("username"),
		City:             c.Query("city"),
	}
	if raw := c.Query("min_followers"); raw != "" {
		minFollowers, err := strconv.Atoi(raw)
		if err != nil || minFollowers < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "min_followers must be a non-negative integer",
			})
		}
		filter.MinFollowers = &minFollowers
	}

	users, err := h.service.ListUsers(filter)
	if err != nil {
		log.Printf("Error listing vinted users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
			"error":   err.Error(),
		})
	}
	return c.JSON(users)
}

// HandleGetUser retrieves one Vinted user by id with its products.
func (h *VintedHandler) HandleGetUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	user, err := h.service.GetUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("User %s not found", userID),
			})
		}
		log.Printf("Error getting vinted user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve user",
			"error":   err.Error(),
		})
	}
	return c.JSON(user)
}

// HandleListProducts lists Vinted products with optional owner-username,
// brand, size, and price-range filters.
func (h *VintedHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.VintedProductFilter{
		UsernameContains: c.Query("username"),
		BrandContains:    c.Query("brand"),
		Size:             c.Query("size"),
	}

	minPrice, err := parsePriceQuery(c, "min_price")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	filter.MinPrice = minPrice

	maxPrice, err := parsePriceQuery(c, "max_price")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	filter.MaxPrice = maxPrice

	products, err := h.service.ListProducts(filter)
	if err != nil {
		log.Printf("Error listing vinted products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// parsePriceQuery reads an optional non-negative float query parameter.
func parsePriceQuery(c *fiber.Ctx, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("%s must be a non-negative number", name)
	}
	return &price, nil
}

// validationMessages flattens validator errors into a field→message map.
func validationMessages(err error) map[string]string {
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return messages
}
