package repositories

import (
	"errors"
	"fmt"

	"encore/internal/models"

	"gorm.io/gorm"
)

// GORMDepopRepository is a GORM implementation of DepopRepository.
type GORMDepopRepository struct {
	db *gorm.DB
}

// NewGORMDepopRepository creates a new instance of GORMDepopRepository.
func NewGORMDepopRepository(db *gorm.DB) *GORMDepopRepository {
	return &GORMDepopRepository{
		db: db,
	}
}

// WithTx runs fn against a repository bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise, so a
// request's writes land or vanish together.
func (r *GORMDepopRepository) WithTx(fn func(DepopRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMDepopRepository(tx))
	})
}

// SeedBaseline inserts the baseline users and products if the store holds no
// Depop users yet. The existence check and both inserts run in a single
// transaction, so concurrent startups cannot leave a partial seed.
func (r *GORMDepopRepository) SeedBaseline(users []models.DepopUser, products []models.DepopProduct) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DepopUser{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for existing depop users: %w", err)
		}
		if count > 0 {
			// Already seeded.
			return nil
		}

		// Users must be in place before the products that reference them.
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("failed to seed depop users: %w", err)
		}
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed depop products: %w", err)
		}
		return nil
	})
}

// CreateUser inserts a new user in the database.
func (r *GORMDepopRepository) CreateUser(user *models.DepopUser) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create depop user %s: %w", user.Username, err)
	}
	return nil
}

// CreateProduct inserts a product after verifying that its owner exists. The
// check and the insert share one transaction, so the row can never land
// orphaned.
func (r *GORMDepopRepository) CreateProduct(product *models.DepopProduct) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DepopUser{}).Where("user_id = ?", product.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to verify owner of depop product %s: %w", product.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("depop product %s references missing user %s: %w", product.ID, product.UserID, ErrIntegrity)
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create depop product %s: %w", product.ID, err)
		}
		return nil
	})
}

// GetUserByUsername retrieves a user by username without loading its
// products. Ingestion resolves Depop identities through this lookup.
func (r *GORMDepopRepository) GetUserByUsername(username string) (*models.DepopUser, error) {
	var user models.DepopUser
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("depop user %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get depop user %s: %w", username, err)
	}
	return &user, nil
}

// GetUserWithProducts retrieves a user by primary id with all owned products
// eagerly attached.
func (r *GORMDepopRepository) GetUserWithProducts(id string) (*models.DepopUser, error) {
	var user models.DepopUser
	if err := r.db.Preload("Products").First(&user, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("depop user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get depop user %s: %w", id, err)
	}
	return &user, nil
}

// FindUsers returns all users matching the filter, each with its owned
// products eagerly attached. Substring matches are case-insensitive.
func (r *GORMDepopRepository) FindUsers(filter DepopUserFilter) ([]models.DepopUser, error) {
	query := r.db.Preload("Products")

	if filter.UsernameContains != "" {
		query = query.Where("LOWER(username) LIKE ?", containsPattern(filter.UsernameContains))
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	if filter.MinFollowers != nil {
		query = query.Where("followers >= ?", *filter.MinFollowers)
	}

	var users []models.DepopUser
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find depop users: %w", err)
	}
	return users, nil
}

// FindProducts returns all products matching the filter, each with its owner
// eagerly attached. A username filter forces an inner join to the users table.
func (r *GORMDepopRepository) FindProducts(filter DepopProductFilter) ([]models.DepopProduct, error) {
	query := r.db.Model(&models.DepopProduct{}).Preload("Owner")

	if filter.UsernameContains != "" {
		query = query.
			Joins("JOIN depop_users ON depop_users.user_id = depop_products.user_id").
			Where("LOWER(depop_users.username) LIKE ?", containsPattern(filter.UsernameContains))
	}
	if filter.BrandContains != "" {
		query = query.Where("LOWER(depop_products.brand) LIKE ?", containsPattern(filter.BrandContains))
	}
	if filter.Size != "" {
		query = query.Where("depop_products.size = ?", filter.Size)
	}
	if !filter.IncludeSold {
		query = query.Where("depop_products.sold = ?", false)
	}

	var products []models.DepopProduct
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find depop products: %w", err)
	}
	return products, nil
}
