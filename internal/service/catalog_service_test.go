package service

import (
	"context"
	"testing"

	"mandihub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture() (*CatalogService, *fakeStore, *fakeCache) {
	store := newFakeStore()
	cache := newFakeCache()
	return NewCatalogService(store, cache), store, cache
}

func TestCreateCropValidation(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	_, err := svc.CreateCrop(ctx, testFarmerID, &CreateCropRequest{
		Name: "Tomato", Stock: -1, PricePerKg: 20, Location: "Pune",
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateCrop(ctx, testFarmerID, &CreateCropRequest{
		Name: "Tomato", Stock: 10, PricePerKg: 0, Location: "Pune",
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	crop, err := svc.CreateCrop(ctx, testFarmerID, &CreateCropRequest{
		Name: "Tomato", Stock: 10, PricePerKg: 20, Location: "Pune",
	})
	require.NoError(t, err)
	assert.Equal(t, testFarmerID, crop.FarmerID)
}

func TestGetCropCachesOnMiss(t *testing.T) {
	svc, store, cache := newCatalogFixture()
	ctx := context.Background()

	store.addCrop(&models.Crop{ID: "crop-1", Name: "Tomato", Stock: 10, PricePerKg: 20, FarmerID: testFarmerID})

	got, err := svc.GetCrop(ctx, "crop-1")
	require.NoError(t, err)
	assert.Equal(t, "Tomato", got.Name)

	cached, err := cache.GetCachedCrop(ctx, "crop-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Tomato", cached.Name)
}

func TestUpdateCropOwnershipAndInvalidation(t *testing.T) {
	svc, store, cache := newCatalogFixture()
	ctx := context.Background()

	store.addCrop(&models.Crop{ID: "crop-1", Name: "Tomato", Stock: 10, PricePerKg: 20, FarmerID: testFarmerID})

	_, err := svc.UpdateCrop(ctx, "farmer-2", "crop-1", &UpdateCropRequest{Name: "Onion"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	newStock := 25.0
	updated, err := svc.UpdateCrop(ctx, testFarmerID, "crop-1", &UpdateCropRequest{Stock: &newStock})
	require.NoError(t, err)
	assert.Equal(t, float64(25), updated.Stock)
	assert.Equal(t, "Tomato", updated.Name)
	assert.Contains(t, cache.invalidated, "crop-1")

	negative := -5.0
	_, err = svc.UpdateCrop(ctx, testFarmerID, "crop-1", &UpdateCropRequest{Stock: &negative})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteCropOwnership(t *testing.T) {
	svc, store, _ := newCatalogFixture()
	ctx := context.Background()

	store.addCrop(&models.Crop{ID: "crop-1", Name: "Tomato", Stock: 10, PricePerKg: 20, FarmerID: testFarmerID})

	err := svc.DeleteCrop(ctx, "farmer-2", "crop-1")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, svc.DeleteCrop(ctx, testFarmerID, "crop-1"))

	_, err = svc.GetCrop(ctx, "crop-1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
