package services_test

import (
	"fmt"
	"strings"
	"testing"

	"encore/internal/models"
	"encore/internal/repositories"
	"encore/internal/services"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupScrapeDB(t *testing.T) *gorm.DB {
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
	return db
}

// failingVintedRepo wraps a real repository and fails the nth product insert,
// standing in for a storage error partway through an ingestion request.
type failingVintedRepo struct {
	repositories.VintedRepository
	productInserts *int
	failOn         int
}

func (f *failingVintedRepo) WithTx(fn func(repositories.VintedRepository) error) error {
	return f.VintedRepository.WithTx(func(tx repositories.VintedRepository) error {
		return fn(&failingVintedRepo{VintedRepository: tx, productInserts: f.productInserts, failOn: f.failOn})
	})
}

func (f *failingVintedRepo) CreateProduct(product *models.VintedProduct) error {
	*f.productInserts++
	if *f.productInserts == f.failOn {
		return fmt.Errorf("simulated storage failure")
	}
	return f.VintedRepository.CreateProduct(product)
}

// failingDepopRepo is the Depop counterpart of failingVintedRepo.
type failingDepopRepo struct {
	repositories.DepopRepository
	productInserts *int
	failOn         int
}

func (f *failingDepopRepo) WithTx(fn func(repositories.DepopRepository) error) error {
	return f.DepopRepository.WithTx(func(tx repositories.DepopRepository) error {
		return fn(&failingDepopRepo{DepopRepository: tx, productInserts: f.productInserts, failOn: f.failOn})
	})
}

func (f *failingDepopRepo) CreateProduct(product *models.DepopProduct) error {
	*f.productInserts++
	if *f.productInserts == f.failOn {
		return fmt.Errorf("simulated storage failure")
	}
	return f.DepopRepository.CreateProduct(product)
}

func TestVintedService_SimulateScrape_FailureRollsBackWholeRequest(t *testing.T) {
	db := setupScrapeDB(t)
	inserts := 0
	repo := &failingVintedRepo{
		VintedRepository: repositories.NewGORMVintedRepository(db),
		productInserts:   &inserts,
		failOn:           2,
	}
	service := services.NewVintedService(repo, nil)

	created, err := service.SimulateScrape([]string{"U1", "U2"}, services.VintedScrapeOptions{MaxImages: 10})

	assert.Error(t, err)
	assert.Nil(t, created)

	// The first product and both resolved users must not survive the failed
	// request; the unit of work rolls back as a whole.
	var userCount, productCount int64
	db.Model(&models.VintedUser{}).Count(&userCount)
	db.Model(&models.VintedProduct{}).Count(&productCount)
	assert.EqualValues(t, 0, userCount)
	assert.EqualValues(t, 0, productCount)
}

func TestDepopService_SimulateScrape_FailureRollsBackWholeRequest(t *testing.T) {
	db := setupScrapeDB(t)
	inserts := 0
	repo := &failingDepopRepo{
		DepopRepository: repositories.NewGORMDepopRepository(db),
		productInserts:  &inserts,
		failOn:          2,
	}
	service := services.NewDepopService(repo, nil)

	created, err := service.SimulateScrape([]string{"alice", "bob"}, services.DepopScrapeOptions{})

	assert.Error(t, err)
	assert.Nil(t, created)

	var userCount, productCount int64
	db.Model(&models.DepopUser{}).Count(&userCount)
	db.Model(&models.DepopProduct{}).Count(&productCount)
	assert.EqualValues(t, 0, userCount)
	assert.EqualValues(t, 0, productCount)
}

func TestVintedService_SimulateScrape_CommitsWholeRequest(t *testing.T) {
	db := setupScrapeDB(t)
	service := services.NewVintedService(repositories.NewGORMVintedRepository(db), nil)

	created, err := service.SimulateScrape([]string{"U1", "U2"}, services.VintedScrapeOptions{MaxImages: 10})

	assert.NoError(t, err)
	assert.Len(t, created, 2)

	var userCount, productCount int64
	db.Model(&models.VintedUser{}).Count(&userCount)
	db.Model(&models.VintedProduct{}).Count(&productCount)
	assert.EqualValues(t, 2, userCount)
	assert.EqualValues(t, 2, productCount)
}
