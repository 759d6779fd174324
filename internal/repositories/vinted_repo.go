package repositories

import "encore/internal/models"

// VintedUserFilter narrows FindUsers. Zero-valued fields are ignored;
// populated fields are AND-combined.
type VintedUserFilter struct {
	UsernameContains string
	City             string
	MinFollowers     *int
}

// VintedProductFilter narrows FindProducts. Zero-valued fields are ignored;
// populated fields are AND-combined.
type VintedProductFilter struct {
	UsernameContains string
	BrandContains    string
	Size             string
	MinPrice         *float64
	MaxPrice         *float64
}

// VintedRepository defines the interface for Vinted catalog data access.
// Reads come in two explicit shapes: user lookups either stay bare
// (GetUserByID) or eagerly attach owned products (GetUserWithProducts,
// FindUsers), and FindProducts eagerly attaches each owner. No update or
// delete operations are exposed.
//
// WithTx scopes a unit of work: fn receives a repository bound to one
// transaction, and every write made through it commits or rolls back as a
// whole when fn returns.
type VintedRepository interface {
	WithTx(fn func(VintedRepository) error) error
	SeedBaseline(users []models.VintedUser, products []models.VintedProduct) error
	CreateUser(user *models.VintedUser) error
	CreateProduct(product *models.VintedProduct) error
	GetUserByID(id string) (*models.VintedUser, error)
	GetUserWithProducts(id string) (*models.VintedUser, error)
	FindUsers(filter VintedUserFilter) ([]models.VintedUser, error)
	FindProducts(filter VintedProductFilter) ([]models.VintedProduct, error)
}
