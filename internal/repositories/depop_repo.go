package repositories

import "encore/internal/models"

// DepopUserFilter narrows FindUsers. Zero-valued fields are ignored;
// populated fields are AND-combined.
type DepopUserFilter struct {
	UsernameContains string
	Verified         *bool
	MinFollowers     *int
}

// DepopProductFilter narrows FindProducts. IncludeSold defaults to true at
// the HTTP boundary; when false, sold listings are excluded.
type DepopProductFilter struct {
	UsernameContains string
	BrandContains    string
	Size             string
	IncludeSold      bool
}

// DepopRepository defines the interface for Depop catalog data access.
// Depop identity lookups during ingestion go by username, so the bare lookup
// shape is GetUserByUsername; GetUserWithProducts serves primary-id reads at
// the HTTP boundary. No update or delete operations are exposed.
//
// WithTx scopes a unit of work: fn receives a repository bound to one
// transaction, and every write made through it commits or rolls back as a
// whole when fn returns.
type DepopRepository interface {
	WithTx(fn func(DepopRepository) error) error
	SeedBaseline(users []models.DepopUser, products []models.DepopProduct) error
	CreateUser(user *models.DepopUser) error
	CreateProduct(product *models.DepopProduct) error
	GetUserByUsername(username string) (*models.DepopUser, error)
	GetUserWithProducts(id string) (*models.DepopUser, error)
	FindUsers(filter DepopUserFilter) ([]models.DepopUser, error)
	FindProducts(filter DepopProductFilter) ([]models.DepopProduct, error)
}
