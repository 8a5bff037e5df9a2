package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mandihub/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store wraps the SQL database and exposes one method per query. The
// confirmation path and the vendor claim are the only multi-statement units;
// everything else is a single statement with per-row atomicity.
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

// GetUserByID retrieves a user from the directory (read-only lookup)
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateCrop inserts a new crop listing
func (s *Store) CreateCrop(ctx context.Context, crop *models.Crop) error {
	query := `
		INSERT INTO crops (id, name, stock, price_per_kg, location, farmer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, crop, query,
		crop.ID, crop.Name, crop.Stock, crop.PricePerKg, crop.Location, crop.FarmerID)
}

// GetCropByID retrieves a crop by ID
func (s *Store) GetCropByID(ctx context.Context, id string) (*models.Crop, error) {
	var crop models.Crop
	err := s.db.GetContext(ctx, &crop, "SELECT * FROM crops WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("crop %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &crop, nil
}

// CropFilter narrows the public marketplace listing.
type CropFilter struct {
	Search   string
	Location string
	MinPrice float64
	MaxPrice float64
	SortBy   string
}

// ListCrops retrieves in-stock crops for the marketplace with optional
// search, location and price filters.
func (s *Store) ListCrops(ctx context.Context, f CropFilter) ([]models.Crop, error) {
	query := "SELECT * FROM crops WHERE stock > 0"
	args := []interface{}{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if f.MinPrice > 0 {
		args = append(args, f.MinPrice)
		query += fmt.Sprintf(" AND price_per_kg >= $%d", len(args))
	}
	if f.MaxPrice > 0 {
		args = append(args, f.MaxPrice)
		query += fmt.Sprintf(" AND price_per_kg <= $%d", len(args))
	}

	switch f.SortBy {
	case "price_asc":
		query += " ORDER BY price_per_kg ASC"
	case "price_desc":
		query += " ORDER BY price_per_kg DESC"
	case "name_asc":
		query += " ORDER BY name ASC"
	case "name_desc":
		query += " ORDER BY name DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	crops := []models.Crop{}
	err := s.db.SelectContext(ctx, &crops, query, args...)
	return crops, err
}

// ListCropsByFarmer retrieves all crops owned by a farmer
func (s *Store) ListCropsByFarmer(ctx context.Context, farmerID string) ([]models.Crop, error) {
	crops := []models.Crop{}
	err := s.db.SelectContext(ctx, &crops,
		"SELECT * FROM crops WHERE farmer_id = $1 ORDER BY created_at DESC", farmerID)
	return crops, err
}

// UpdateCrop updates a crop listing (farmer edit path, not the confirmation
// path; ownership is checked by the caller)
func (s *Store) UpdateCrop(ctx context.Context, crop *models.Crop) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE crops SET name = $1, stock = $2, price_per_kg = $3, location = $4, updated_at = NOW()
		 WHERE id = $5`,
		crop.Name, crop.Stock, crop.PricePerKg, crop.Location, crop.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crop %s: %w", crop.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteCrop removes a crop listing
func (s *Store) DeleteCrop(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM crops WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crop %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetPlatformStats computes the admin analytics aggregate
func (s *Store) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var stats models.PlatformStats

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'customer'),
			(SELECT COUNT(*) FROM users WHERE role = 'farmer'),
			(SELECT COUNT(*) FROM users WHERE role = 'vendor'),
			(SELECT COUNT(*) FROM crops),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COALESCE(SUM(total_price), 0) FROM transactions)`)

	err := row.Scan(
		&stats.TotalUsers, &stats.TotalCustomers, &stats.TotalFarmers,
		&stats.TotalVendors, &stats.TotalCrops, &stats.TotalOrders,
		&stats.TotalTransactions, &stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return &stats, nil
}
