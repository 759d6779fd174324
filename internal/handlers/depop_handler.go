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

// ScrapeDepopRequest is the body of a simulated Depop scrape. DownloadFiles
// and StartFromItem are legacy flags that are accepted and logged but never
// acted on.
type ScrapeDepopRequest struct {
	Usernames     []string `json:"usernames" validate:"required,min=1"`
	DownloadFiles bool     `json:"download_files"`
	IncludeSold   bool     `json:"include_sold"`
	StartFromItem string   `json:"start_from_item"`
}

// DepopHandler handles HTTP requests for the Depop catalog.
type DepopHandler struct {
	service  *services.DepopService
	validate *validator.Validate
}

// NewDepopHandler creates a new DepopHandler.
func NewDepopHandler(service *services.DepopService) *DepopHandler {
	return &DepopHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the Depop routes with the Fiber app.
func (h *DepopHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/scrape/depop", h.HandleScrape)

	depopRoutes := router.Group("/depop")
	depopRoutes.Get("/users", h.HandleListUsers)
	depopRoutes.Get("/users/:id", h.HandleGetUser)
	depopRoutes.Get("/products", h.HandleListProducts)
}

// HandleScrape runs a simulated Depop scrape for the requested usernames and
// returns the created products.
func (h *DepopHandler) HandleScrape(c *fiber.Ctx) error {
	var req ScrapeDepopRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing depop scrape request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "usernames cannot be empty",
			"errors":  validationMessages(err),
		})
	}

	records, err := h.service.SimulateScrape(req.Usernames, services.DepopScrapeOptions{
		DownloadFiles: req.DownloadFiles,
		IncludeSold:   req.IncludeSold,
		StartFromItem: req.StartFromItem,
	})
	if err != nil {
		log.Printf("Error during depop scrape: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete scrape",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(records)
}

// HandleListUsers lists Depop users with optional username/verified/follower
// filters.
func (h *DepopHandler) HandleListUsers(c *fiber.Ctx) error {
	filter := repositories.DepopUserFilter{
		UsernameContains: c.Query("username"),
	}
	if raw := c.Query("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "verified must be a boolean",
			})
		}
		filter.Verified = &verified
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
		log.Printf("Error listing depop users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
			"error":   err.Error(),
		})
	}
	return c.JSON(users)
}

// HandleGetUser retrieves one Depop user by id with its products.
func (h *DepopHandler) HandleGetUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	user, err := h.service.GetUser(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("User %s not found", userID),
			})
		}
		log.Printf("Error getting depop user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve user",
			"error":   err.Error(),
		})
	}
	return c.JSON(user)
}

// HandleListProducts lists Depop products with optional owner-username,
// brand, and size filters. Sold listings are included unless include_sold is
// explicitly false.
func (h *DepopHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.DepopProductFilter{
		UsernameContains: c.Query("username"),
		BrandContains:    c.Query("brand"),
		Size:             c.Query("size"),
		IncludeSold:      c.QueryBool("include_sold", true),
	}

	products, err := h.service.ListProducts(filter)
	if err != nil {
		log.Printf("Error listing depop products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}
