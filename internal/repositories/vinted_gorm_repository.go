package repositories

import (
	"errors"
	"fmt"
	"strings"

	"encore/internal/models"

	"gorm.io/gorm"
)

// GORMVintedRepository is a GORM implementation of VintedRepository.
type GORMVintedRepository struct {
	db *gorm.DB
}

// NewGORMVintedRepository creates a new instance of GORMVintedRepository.
func NewGORMVintedRepository(db *gorm.DB) *GORMVintedRepository {
	return &GORMVintedRepository{
		db: db,
	}
}

// WithTx runs fn against a repository bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise, so a
// request's writes land or vanish together.
func (r *GORMVintedRepository) WithTx(fn func(VintedRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMVintedRepository(tx))
	})
}

// SeedBaseline inserts the baseline users and products if the store holds no
// Vinted users yet. The existence check and both inserts run in a single
// transaction, so concurrent startups cannot leave a partial seed and calling
// it on every process start is safe.
func (r *GORMVintedRepository) SeedBaseline(users []models.VintedUser, products []models.VintedProduct) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.VintedUser{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for existing vinted users: %w", err)
		}
		if count > 0 {
			// Already seeded.
			return nil
		}

		// Users must be in place before the products that reference them.
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("failed to seed vinted users: %w", err)
		}
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed vinted products: %w", err)
		}
		return nil
	})
}

// CreateUser inserts a new user in the database.
func (r *GORMVintedRepository) CreateUser(user *models.VintedUser) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create vinted user %s: %w", user.UserID, err)
	}
	return nil
}

// CreateProduct inserts a product after verifying that its owner exists. The
// check and the insert share one transaction, so the row can never land
// orphaned.
func (r *GORMVintedRepository) CreateProduct(product *models.VintedProduct) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.VintedUser{}).Where("user_id = ?", product.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to verify owner of vinted product %s: %w", product.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("vinted product %s references missing user %s: %w", product.ID, product.UserID, ErrIntegrity)
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create vinted product %s: %w", product.ID, err)
		}
		return nil
	})
}

// GetUserByID retrieves a user by primary id without loading its products.
func (r *GORMVintedRepository) GetUserByID(id string) (*models.VintedUser, error) {
	var user models.VintedUser
	if err := r.db.First(&user, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vinted user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vinted user %s: %w", id, err)
	}
	return &user, nil
}

// GetUserWithProducts retrieves a user by primary id with all owned products
// eagerly attached.
func (r *GORMVintedRepository) GetUserWithProducts(id string) (*models.VintedUser, error) {
	var user models.VintedUser
	if err := r.db.Preload("Products").First(&user, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vinted user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vinted user %s: %w", id, err)
	}
	return &user, nil
}

// FindUsers returns all users matching the filter, each with its owned
// products eagerly attached. Substring matches are case-insensitive.
func (r *GORMVintedRepository) FindUsers(filter VintedUserFilter) ([]models.VintedUser, error) {
	query := r.db.Preload("Products")

	if filter.UsernameContains != "" {
		query = query.Where("LOWER(username) LIKE ?", containsPattern(filter.UsernameContains))
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.MinFollowers != nil {
		query = query.Where("followers_count >= ?", *filter.MinFollowers)
	}

	var users []models.VintedUser
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find vinted users: %w", err)
	}
	return users, nil
}

// FindProducts returns all products matching the filter, each with its owner
// eagerly attached. A username filter forces an inner join to the users table.
func (r *GORMVintedRepository) FindProducts(filter VintedProductFilter) ([]models.VintedProduct, error) {
	query := r.db.Model(&models.VintedProduct{}).Preload("Owner")

	if filter.UsernameContains != "" {
		query = query.
			Joins("JOIN vinted_users ON vinted_users.user_id = vinted_products.user_id").
			Where("LOWER(vinted_users.username) LIKE ?", containsPattern(filter.UsernameContains))
	}
	if filter.BrandContains != "" {
		query = query.Where("LOWER(vinted_products.brand) LIKE ?", containsPattern(filter.BrandContains))
	}
	if filter.Size != "" {
		query = query.Where("vinted_products.size = ?", filter.Size)
	}
	if filter.MinPrice != nil {
		query = query.Where("vinted_products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("vinted_products.price <= ?", *filter.MaxPrice)
	}

	var products []models.VintedProduct
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find vinted products: %w", err)
	}
	return products, nil
}

// containsPattern builds the lowercased LIKE argument for a substring match.
func containsPattern(value string) string {
	return "%" + strings.ToLower(value) + "%"
}
