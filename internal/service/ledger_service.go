package service

import (
	"context"

	"mandihub/internal/models"
	"mandihub/internal/util"

	"go.uber.org/zap"
)

// LedgerStore is what the inventory/transaction views need from persistence.
// Writes happen only inside the order confirmation transaction; this service
// is read-only.
type LedgerStore interface {
	ListInventoryByCustomer(ctx context.Context, customerID string) ([]models.InventoryEntry, error)
	ListAllInventory(ctx context.Context, search string) ([]models.InventoryEntry, error)
	ListTransactionsByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error)
	ListTransactionsByFarmer(ctx context.Context, farmerID string) ([]models.Transaction, error)
	ListAllTransactions(ctx context.Context, search string) ([]models.Transaction, error)
	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

// StatsCache reads the live marketplace counters the stats worker maintains.
type StatsCache interface {
	MarketplaceCounters(ctx context.Context) (confirmed int64, revenue float64, deliveries int64, err error)
}

// LedgerService exposes customer holdings, trade history and the admin
// analytics aggregate.
type LedgerService struct {
	store  LedgerStore
	cache  StatsCache
	logger *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store LedgerStore, cache StatsCache) *LedgerService {
	return &LedgerService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// CustomerInventory lists the calling customer's accumulated holdings.
func (s *LedgerService) CustomerInventory(ctx context.Context, customerID string) ([]models.InventoryEntry, error) {
	return s.store.ListInventoryByCustomer(ctx, customerID)
}

// AllInventory lists every holding, optionally filtered by crop name.
func (s *LedgerService) AllInventory(ctx context.Context, search string) ([]models.InventoryEntry, error) {
	return s.store.ListAllInventory(ctx, search)
}

// CustomerHistory lists a customer's purchases.
func (s *LedgerService) CustomerHistory(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return s.store.ListTransactionsByCustomer(ctx, customerID)
}

// FarmerHistory lists a farmer's sales.
func (s *LedgerService) FarmerHistory(ctx context.Context, farmerID string) ([]models.Transaction, error) {
	return s.store.ListTransactionsByFarmer(ctx, farmerID)
}

// AllTransactions lists every trade, optionally filtered.
func (s *LedgerService) AllTransactions(ctx context.Context, search string) ([]models.Transaction, error) {
	return s.store.ListAllTransactions(ctx, search)
}

// LiveCounters is the event-stream view of marketplace activity since the
// counters were last reset. Advisory only; totals come from the database.
type LiveCounters struct {
	OrdersConfirmed     int64   `json:"orders_confirmed"`
	Revenue             float64 `json:"revenue"`
	DeliveriesCompleted int64   `json:"deliveries_completed"`
}

// PlatformStats computes the admin dashboard aggregate.
func (s *LedgerService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	return s.store.GetPlatformStats(ctx)
}

// Live reads the worker-maintained counters; a cache failure degrades to
// zeros rather than failing the stats endpoint.
func (s *LedgerService) Live(ctx context.Context) LiveCounters {
	confirmed, revenue, deliveries, err := s.cache.MarketplaceCounters(ctx)
	if err != nil {
		s.logger.Warn("Failed to read marketplace counters", zap.Error(err))
		return LiveCounters{}
	}
	return LiveCounters{
		OrdersConfirmed:     confirmed,
		Revenue:             revenue,
		DeliveriesCompleted: deliveries,
	}
}
