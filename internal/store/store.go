package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shop-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProducts retrieves a page of products, newest first
func (s *Store) GetProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return products, err
}

// CountProducts returns the total number of products
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products")
	return count, err
}

// GetProductBySlug retrieves a product by slug
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetVariantsByProductID retrieves all variants of a product
func (s *Store) GetVariantsByProductID(ctx context.Context, productID uuid.UUID) ([]models.Variant, error) {
	var variants []models.Variant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM variants WHERE product_id = $1 ORDER BY id", productID)
	return variants, err
}

// GetSellerByID retrieves a seller by ID
func (s *Store) GetSellerByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := s.db.GetContext(ctx, &seller, "SELECT * FROM sellers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// GetSellerBySlug retrieves a seller by slug
func (s *Store) GetSellerBySlug(ctx context.Context, slug string) (*models.Seller, error) {
	var seller models.Seller
	err := s.db.GetContext(ctx, &seller, "SELECT * FROM sellers WHERE slug = $1", slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// GetAddressesByUserID retrieves the shipping addresses of a user
func (s *Store) GetAddressesByUserID(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	var addresses []models.ShippingAddress
	err := s.db.SelectContext(ctx, &addresses,
		"SELECT * FROM shipping_addresses WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return addresses, err
}

// GetAddressByID retrieves a single shipping address
func (s *Store) GetAddressByID(ctx context.Context, id uuid.UUID) (*models.ShippingAddress, error) {
	var address models.ShippingAddress
	err := s.db.GetContext(ctx, &address, "SELECT * FROM shipping_addresses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// CreateAddress creates a shipping address for a user
func (s *Store) CreateAddress(ctx context.Context, address *models.ShippingAddress) error {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	query := `
		INSERT INTO shipping_addresses (id, user_id, name, email, phone, address, city, state, country, zipcode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	return s.db.GetContext(ctx, &address.CreatedAt, query,
		address.ID, address.UserID, address.Name, address.Email, address.Phone,
		address.Address, address.City, address.State, address.Country, address.Zipcode)
}
