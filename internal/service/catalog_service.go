package service

import (
	"context"
	"fmt"

	"mandihub/internal/models"
	"mandihub/internal/store"
	"mandihub/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogStore is what the catalog manager needs from persistence. Stock
// mutation on the order path happens inside the store's confirmation
// transaction, never here.
type CatalogStore interface {
	CreateCrop(ctx context.Context, crop *models.Crop) error
	GetCropByID(ctx context.Context, id string) (*models.Crop, error)
	ListCrops(ctx context.Context, f store.CropFilter) ([]models.Crop, error)
	ListCropsByFarmer(ctx context.Context, farmerID string) ([]models.Crop, error)
	UpdateCrop(ctx context.Context, crop *models.Crop) error
	DeleteCrop(ctx context.Context, id string) error
}

// CropCache is the cache-aside layer for single-crop reads.
type CropCache interface {
	GetCachedCrop(ctx context.Context, id string) (*models.Crop, error)
	SetCachedCrop(ctx context.Context, crop *models.Crop) error
	InvalidateCrop(ctx context.Context, cropID string) error
}

// CatalogService manages crop listings for farmers and the public
// marketplace view.
type CatalogService struct {
	store  CatalogStore
	cache  CropCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, cache CropCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// CreateCropRequest is a farmer's new listing.
type CreateCropRequest struct {
	Name       string  `json:"name" binding:"required"`
	Stock      float64 `json:"stock" binding:"required"`
	PricePerKg float64 `json:"pricePerKg" binding:"required"`
	Location   string  `json:"location" binding:"required"`
}

// UpdateCropRequest carries a farmer's edits; zero fields keep current values.
type UpdateCropRequest struct {
	Name       string   `json:"name"`
	Stock      *float64 `json:"stock"`
	PricePerKg float64  `json:"pricePerKg"`
	Location   string   `json:"location"`
}

// CreateCrop adds a new listing owned by the calling farmer.
func (s *CatalogService) CreateCrop(ctx context.Context, farmerID string, req *CreateCropRequest) (*models.Crop, error) {
	if req.Stock < 0 || req.PricePerKg <= 0 {
		return nil, fmt.Errorf("stock and price must be positive: %w", models.ErrValidation)
	}

	crop := &models.Crop{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Stock:      req.Stock,
		PricePerKg: req.PricePerKg,
		Location:   req.Location,
		FarmerID:   farmerID,
	}
	if err := s.store.CreateCrop(ctx, crop); err != nil {
		return nil, fmt.Errorf("failed to create crop: %w", err)
	}

	s.logger.Info("Crop listed",
		zap.String("crop_id", crop.ID),
		zap.String("name", crop.Name),
		zap.Float64("stock", crop.Stock))
	return crop, nil
}

// GetCrop retrieves a crop, serving from cache when possible.
func (s *CatalogService) GetCrop(ctx context.Context, id string) (*models.Crop, error) {
	if cached, err := s.cache.GetCachedCrop(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	crop, err := s.store.GetCropByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetCachedCrop(ctx, crop); err != nil {
		s.logger.Warn("Failed to cache crop", zap.String("crop_id", id), zap.Error(err))
	}
	return crop, nil
}

// ListCrops retrieves the public marketplace listing.
func (s *CatalogService) ListCrops(ctx context.Context, f store.CropFilter) ([]models.Crop, error) {
	return s.store.ListCrops(ctx, f)
}

// ListFarmerCrops retrieves a farmer's own listings.
func (s *CatalogService) ListFarmerCrops(ctx context.Context, farmerID string) ([]models.Crop, error) {
	return s.store.ListCropsByFarmer(ctx, farmerID)
}

// UpdateCrop applies a farmer's edit to their own listing.
func (s *CatalogService) UpdateCrop(ctx context.Context, farmerID, cropID string, req *UpdateCropRequest) (*models.Crop, error) {
	crop, err := s.store.GetCropByID(ctx, cropID)
	if err != nil {
		return nil, err
	}
	if crop.FarmerID != farmerID {
		return nil, fmt.Errorf("crop belongs to another farmer: %w", models.ErrForbidden)
	}

	if req.Name != "" {
		crop.Name = req.Name
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock cannot be negative: %w", models.ErrValidation)
		}
		crop.Stock = *req.Stock
	}
	if req.PricePerKg > 0 {
		crop.PricePerKg = req.PricePerKg
	}
	if req.Location != "" {
		crop.Location = req.Location
	}

	if err := s.store.UpdateCrop(ctx, crop); err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateCrop(ctx, cropID); err != nil {
		s.logger.Warn("Failed to invalidate crop cache", zap.String("crop_id", cropID), zap.Error(err))
	}
	return crop, nil
}

// DeleteCrop removes a farmer's own listing.
func (s *CatalogService) DeleteCrop(ctx context.Context, farmerID, cropID string) error {
	crop, err := s.store.GetCropByID(ctx, cropID)
	if err != nil {
		return err
	}
	if crop.FarmerID != farmerID {
		return fmt.Errorf("crop belongs to another farmer: %w", models.ErrForbidden)
	}

	if err := s.store.DeleteCrop(ctx, cropID); err != nil {
		return err
	}
	if err := s.cache.InvalidateCrop(ctx, cropID); err != nil {
		s.logger.Warn("Failed to invalidate crop cache", zap.String("crop_id", cropID), zap.Error(err))
	}
	return nil
}
