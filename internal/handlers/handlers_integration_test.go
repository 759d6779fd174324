package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"encore/internal/handlers"
	"encore/internal/models"
	"encore/internal/repositories"
	"encore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv bundles the Fiber app with direct handles for assertions.
type testEnv struct {
	app           *fiber.App
	db            *gorm.DB
	vintedService *services.VintedService
	depopService  *services.DepopService
}

// setupEnv builds a fully wired app over an in-memory SQLite database. Each
// test gets its own named shared-cache database so tests stay isolated.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.VintedUser{}, &models.VintedProduct{},
		&models.DepopUser{}, &models.DepopProduct{},
	); err != nil {
		t.Fatalf("failed to auto-migrate database: %v", err)
	}

	vintedRepo := repositories.NewGORMVintedRepository(db)
	depopRepo := repositories.NewGORMDepopRepository(db)

	// No broker in tests; eventing is skipped with a nil publisher.
	vintedService := services.NewVintedService(vintedRepo, nil)
	depopService := services.NewDepopService(depopRepo, nil)

	if err := vintedService.Seed(); err != nil {
		t.Fatalf("failed to seed vinted baseline: %v", err)
	}
	if err := depopService.Seed(); err != nil {
		t.Fatalf("failed to seed depop baseline: %v", err)
	}

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewVintedHandler(vintedService).RegisterRoutes(apiV1)
	handlers.NewDepopHandler(depopService).RegisterRoutes(apiV1)

	return &testEnv{
		app:           app,
		db:            db,
		vintedService: vintedService,
		depopService:  depopService,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func (e *testEnv) getJSON(t *testing.T, path string, out interface{}) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	if out != nil && resp.StatusCode == http.StatusOK {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	resp.Body.Close()
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(data, out))
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestSeedIsIdempotent(t *testing.T) {
	env := setupEnv(t)

	countAll := func() (int64, int64, int64, int64) {
		var vu, vp, du, dp int64
		env.db.Model(&models.VintedUser{}).Count(&vu)
		env.db.Model(&models.VintedProduct{}).Count(&vp)
		env.db.Model(&models.DepopUser{}).Count(&du)
		env.db.Model(&models.DepopProduct{}).Count(&dp)
		return vu, vp, du, dp
	}

	vu1, vp1, du1, dp1 := countAll()
	assert.EqualValues(t, 2, vu1)
	assert.EqualValues(t, 2, vp1)
	assert.EqualValues(t, 2, du1)
	assert.EqualValues(t, 2, dp1)

	// Seeding again must not change a single count.
	assert.NoError(t, env.vintedService.Seed())
	assert.NoError(t, env.depopService.Seed())

	vu2, vp2, du2, dp2 := countAll()
	assert.Equal(t, vu1, vu2)
	assert.Equal(t, vp1, vp2)
	assert.Equal(t, du1, du2)
	assert.Equal(t, dp1, dp2)
}

func TestScrapeVintedEndToEnd(t *testing.T) {
	env := setupEnv(t)

	resp := env.postJSON(t, "/api/v1/scrape/vinted", map[string]interface{}{
		"user_ids": []string{"U1", "U2"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created []models.VintedProduct
	decodeBody(t, resp, &created)
	assert.Len(t, created, 2)

	assert.Equal(t, 64.0, created[0].Price)
	assert.Equal(t, 65.0, created[1].Price)
	assert.Equal(t, "U1", created[0].UserID)
	assert.Equal(t, "U2", created[1].UserID)
	assert.NotNil(t, created[0].Owner)
	assert.Equal(t, "reseller_u1", created[0].Owner.Username)

	// The default image cap of 10 clamps to the pool size.
	assert.Len(t, created[0].Images, 4)

	// The resolved users are now reachable with their products attached.
	var user models.VintedUser
	getResp := env.getJSON(t, "/api/v1/vinted/users/U1", &user)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, "reseller_u1", user.Username)
	assert.Len(t, user.Products, 1)
}

func TestScrapeVintedRejectsEmptyList(t *testing.T) {
	env := setupEnv(t)

	resp := env.postJSON(t, "/api/v1/scrape/vinted", map[string]interface{}{
		"user_ids": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Rejection happens before any store mutation.
	var count int64
	env.db.Model(&models.VintedProduct{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestScrapeVintedImageCap(t *testing.T) {
	env := setupEnv(t)

	resp := env.postJSON(t, "/api/v1/scrape/vinted", map[string]interface{}{
		"user_ids":   []string{"U1"},
		"max_images": 2,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created []models.VintedProduct
	decodeBody(t, resp, &created)
	assert.Len(t, created, 1)
	assert.Len(t, created[0].Images, 2)

	// A negative cap is not rejected; it clamps to a single image.
	resp = env.postJSON(t, "/api/v1/scrape/vinted", map[string]interface{}{
		"user_ids":   []string{"U2"},
		"max_images": -5,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	created = nil
	decodeBody(t, resp, &created)
	assert.Len(t, created, 1)
	assert.Len(t, created[0].Images, 1)
}

func TestScrapeDepopReusesUserAcrossCalls(t *testing.T) {
	env := setupEnv(t)

	payload := map[string]interface{}{"usernames": []string{"alice"}}

	resp := env.postJSON(t, "/api/v1/scrape/depop", payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var first []models.DepopProduct
	decodeBody(t, resp, &first)
	assert.Len(t, first, 1)

	resp = env.postJSON(t, "/api/v1/scrape/depop", payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var second []models.DepopProduct
	decodeBody(t, resp, &second)
	assert.Len(t, second, 1)

	// Second scrape attaches to the same account instead of duplicating it.
	assert.Equal(t, first[0].UserID, second[0].UserID)
	assert.Equal(t, "alice", second[0].Owner.Username)

	var userCount int64
	env.db.Model(&models.DepopUser{}).Where("username = ?", "alice").Count(&userCount)
	assert.EqualValues(t, 1, userCount)
}

func TestScrapeDepopSoldAlternation(t *testing.T) {
	env := setupEnv(t)

	resp := env.postJSON(t, "/api/v1/scrape/depop", map[string]interface{}{
		"usernames":    []string{"a", "b", "c"},
		"include_sold": true,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created []models.DepopProduct
	decodeBody(t, resp, &created)
	assert.Len(t, created, 3)
	assert.True(t, created[0].Sold)
	assert.False(t, created[1].Sold)
	assert.True(t, created[2].Sold)
}

func TestGetVintedUserNotFound(t *testing.T) {
	env := setupEnv(t)

	resp := env.getJSON(t, "/api/v1/vinted/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListVintedUsersWithFilters(t *testing.T) {
	env := setupEnv(t)

	// Case-insensitive substring match on username.
	var users []models.VintedUser
	resp := env.getJSON(t, "/api/v1/vinted/users?username=NORTH", &users)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, users, 1)
	assert.Equal(t, "northloop", users[0].Username)
	assert.Len(t, users[0].Products, 1)

	// City equality.
	users = nil
	resp = env.getJSON(t, "/api/v1/vinted/users?city=Toronto", &users)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, users, 1)
	assert.Equal(t, "streetthreadz", users[0].Username)

	// Follower floor.
	users = nil
	resp = env.getJSON(t, "/api/v1/vinted/users?min_followers=1000", &users)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, users, 1)
	assert.Equal(t, "northloop", users[0].Username)

	// Absent filters return everything.
	users = nil
	resp = env.getJSON(t, "/api/v1/vinted/users", &users)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, users, 2)
}

func TestListDepopUsersVerifiedFilter(t *testing.T) {
	env := setupEnv(t)

	var users []models.DepopUser
	resp := env.getJSON(t, "/api/v1/depop/users?verified=true", &users)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, users, 1)
	assert.Equal(t, "studioflux", users[0].Username)
}

func TestListVintedProductsBrandFilterExcludesBaseline(t *testing.T) {
	env := setupEnv(t)

	resp := env.postJSON(t, "/api/v1/scrape/vinted", map[string]interface{}{
		"user_ids": []string{"U1", "U2"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var products []models.VintedProduct
	listResp := env.getJSON(t, "/api/v1/vinted/products?brand=demo", &products)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Len(t, products, 2)
	for _, product := range products {
		assert.Equal(t, "Encore Demo", product.Brand)
		assert.NotNil(t, product.Owner)
	}
}

func TestListVintedProductsPriceRange(t *testing.T) {
	env := setupEnv(t)

	var products []models.VintedProduct
	resp := env.getJSON(t, "/api/v1/vinted/products?min_price=100&max_price=130", &products)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, products, 1)
	assert.Equal(t, "Patagonia", products[0].Brand)
}

func TestListVintedProductsByOwnerUsername(t *testing.T) {
	env := setupEnv(t)

	var products []models.VintedProduct
	resp := env.getJSON(t, "/api/v1/vinted/products?username=northloop", &products)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, products, 1)
	assert.Equal(t, "vin_prod_001", products[0].ID)
	assert.NotNil(t, products[0].Owner)
	assert.Equal(t, "northloop", products[0].Owner.Username)
}

func TestListDepopProductsSoldFilter(t *testing.T) {
	env := setupEnv(t)

	// Sold listings are included by default.
	var products []models.DepopProduct
	resp := env.getJSON(t, "/api/v1/depop/products", &products)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, products, 2)

	// include_sold=false drops the sold baseline listing.
	products = nil
	resp = env.getJSON(t, "/api/v1/depop/products?include_sold=false", &products)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, products, 1)
	assert.Equal(t, "dep_prod_001", products[0].ID)
	assert.False(t, products[0].Sold)
}

func TestReferentialIntegrityAfterScrapes(t *testing.T) {
	env := setupEnv(t)

	resp := env.postJSON(t, "/api/v1/scrape/vinted", map[string]interface{}{
		"user_ids": []string{"U1", "U2", "U3"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Every product row must reference an existing user.
	var orphans int64
	env.db.Model(&models.VintedProduct{}).
		Where("user_id NOT IN (?)", env.db.Model(&models.VintedUser{}).Select("user_id")).
		Count(&orphans)
	assert.EqualValues(t, 0, orphans)
}
