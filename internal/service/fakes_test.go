package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"mandihub/internal/models"
	"mandihub/internal/store"

	"github.com/google/uuid"
)

// fakeStore is a mutex-guarded in-memory store mirroring the SQL semantics
// of the real one, so service tests can exercise races without a database.
type fakeStore struct {
	mu           sync.Mutex
	orders       map[string]*models.Order
	crops        map[string]*models.Crop
	inventory    map[string]*models.InventoryEntry // key: customerID|cropName
	transactions []*models.Transaction
	receipts     map[string]*models.Receipt
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    make(map[string]*models.Order),
		crops:     make(map[string]*models.Crop),
		inventory: make(map[string]*models.InventoryEntry),
		receipts:  make(map[string]*models.Receipt),
	}
}

func invKey(customerID, cropName string) string {
	return customerID + "|" + cropName
}

func (f *fakeStore) addCrop(crop *models.Crop) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.crops[crop.ID] = crop
}

func (f *fakeStore) addOrder(order *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
}

func orderCopy(o *models.Order) *models.Order {
	c := *o
	return &c
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = orderCopy(order)
	return nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	return orderCopy(o), nil
}

func (f *fakeStore) CreateCrop(ctx context.Context, crop *models.Crop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	crop.CreatedAt = time.Now()
	crop.UpdatedAt = crop.CreatedAt
	cc := *crop
	f.crops[crop.ID] = &cc
	return nil
}

func (f *fakeStore) ListCrops(ctx context.Context, filter store.CropFilter) ([]models.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Crop
	for _, c := range f.crops {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) ListCropsByFarmer(ctx context.Context, farmerID string) ([]models.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Crop
	for _, c := range f.crops {
		if c.FarmerID == farmerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateCrop(ctx context.Context, crop *models.Crop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.crops[crop.ID]; !ok {
		return fmt.Errorf("crop %s: %w", crop.ID, models.ErrNotFound)
	}
	cc := *crop
	f.crops[crop.ID] = &cc
	return nil
}

func (f *fakeStore) DeleteCrop(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.crops[id]; !ok {
		return fmt.Errorf("crop %s: %w", id, models.ErrNotFound)
	}
	delete(f.crops, id)
	return nil
}

func (f *fakeStore) GetCropByID(ctx context.Context, id string) (*models.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.crops[id]
	if !ok {
		return nil, fmt.Errorf("crop %s: %w", id, models.ErrNotFound)
	}
	cc := *c
	return &cc, nil
}

func (f *fakeStore) ListOrdersByFarmer(ctx context.Context, farmerID string) ([]models.Order, error) {
	return f.listOrders(func(o *models.Order) bool { return o.FarmerID == farmerID }), nil
}

func (f *fakeStore) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return f.listOrders(func(o *models.Order) bool { return o.CustomerID == customerID }), nil
}

func (f *fakeStore) ListOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	return f.listOrders(func(o *models.Order) bool { return o.Vendor() == vendorID }), nil
}

func (f *fakeStore) ListAvailableOrders(ctx context.Context) ([]models.Order, error) {
	return f.listOrders(func(o *models.Order) bool {
		return o.Status == models.OrderStatusConfirmed && !o.VendorID.Valid
	}), nil
}

func (f *fakeStore) ListDeliveredOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	return f.listOrders(func(o *models.Order) bool {
		return o.Vendor() == vendorID && o.Status == models.OrderStatusDelivered
	}), nil
}

func (f *fakeStore) listOrders(match func(*models.Order) bool) []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	return out
}

func (f *fakeStore) ConfirmOrder(ctx context.Context, orderID string) (*models.ConfirmationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("order is %s, not pending: %w",
			order.Status, models.ErrInvalidTransition)
	}
	crop, ok := f.crops[order.CropID]
	if !ok {
		return nil, fmt.Errorf("crop %s: %w", order.CropID, models.ErrNotFound)
	}
	if crop.Stock < order.Quantity {
		return nil, fmt.Errorf("stock %.2fkg below requested %.2fkg: %w",
			crop.Stock, order.Quantity, models.ErrInsufficientStock)
	}

	crop.Stock -= order.Quantity

	key := invKey(order.CustomerID, crop.Name)
	if entry, ok := f.inventory[key]; ok {
		entry.Weight += order.Quantity
		entry.PurchasePrice = crop.PricePerKg
	} else {
		f.inventory[key] = &models.InventoryEntry{
			ID:            uuid.New().String(),
			CustomerID:    order.CustomerID,
			CropName:      crop.Name,
			Weight:        order.Quantity,
			PurchasePrice: crop.PricePerKg,
		}
	}

	txn := &models.Transaction{
		ID:         uuid.New().String(),
		CropID:     order.CropID,
		CustomerID: order.CustomerID,
		FarmerID:   order.FarmerID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		CreatedAt:  time.Now(),
	}
	f.transactions = append(f.transactions, txn)

	receipt := &models.Receipt{
		ID:            uuid.New().String(),
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		FarmerID:      order.FarmerID,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     time.Now(),
	}
	f.receipts[receipt.ID] = receipt

	order.Status = models.OrderStatusConfirmed
	order.UpdatedAt = time.Now()

	rc := *receipt
	tc := *txn
	return &models.ConfirmationResult{
		Order:       orderCopy(order),
		Transaction: &tc,
		Receipt:     &rc,
		CropName:    crop.Name,
	}, nil
}

func (f *fakeStore) RejectOrder(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("order is %s, not pending: %w",
			order.Status, models.ErrInvalidTransition)
	}
	order.Status = models.OrderStatusRejected
	order.UpdatedAt = time.Now()
	return orderCopy(order), nil
}

func (f *fakeStore) ClaimOrder(ctx context.Context, orderID, vendorID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	if order.VendorID.Valid {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrAlreadyTaken)
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, fmt.Errorf("order is %s, not confirmed: %w",
			order.Status, models.ErrInvalidTransition)
	}
	order.VendorID = sql.NullString{String: vendorID, Valid: true}
	order.Status = models.OrderStatusAssigned
	order.UpdatedAt = time.Now()
	return orderCopy(order), nil
}

func (f *fakeStore) AdvanceDelivery(ctx context.Context, orderID, vendorID string, from, to models.OrderStatus) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	if order.Vendor() != vendorID {
		return nil, fmt.Errorf("order %s is not assigned to this vendor: %w",
			orderID, models.ErrForbidden)
	}
	if order.Status != from {
		return nil, fmt.Errorf("cannot transition from %s to %s: %w",
			order.Status, to, models.ErrInvalidTransition)
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return orderCopy(order), nil
}

func (f *fakeStore) GetReceiptByID(ctx context.Context, id string) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[id]
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
	}
	rc := *r
	return &rc, nil
}

func (f *fakeStore) MarkReceiptPaid(ctx context.Context, receiptID string) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[receiptID]
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, models.ErrNotFound)
	}
	r.PaymentStatus = models.PaymentStatusPaid
	rc := *r
	return &rc, nil
}

func (f *fakeStore) ListReceiptsByCustomer(ctx context.Context, customerID string) ([]models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Receipt
	for _, r := range f.receipts {
		if r.CustomerID == customerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReceiptsByFarmer(ctx context.Context, farmerID string) ([]models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Receipt
	for _, r := range f.receipts {
		if r.FarmerID == farmerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// receiptForOrder is a test helper to find the receipt a confirmation wrote.
func (f *fakeStore) receiptForOrder(orderID string) *models.Receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.receipts {
		if r.OrderID == orderID {
			rc := *r
			return &rc
		}
	}
	return nil
}

func (f *fakeStore) cropStock(cropID string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.crops[cropID].Stock
}

func (f *fakeStore) inventoryEntry(customerID, cropName string) *models.InventoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.inventory[invKey(customerID, cropName)]; ok {
		ec := *e
		return &ec
	}
	return nil
}

func (f *fakeStore) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transactions)
}

// fakeEvents records published events by type.
type fakeEvents struct {
	mu        sync.Mutex
	published []string
}

func (f *fakeEvents) record(eventType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, eventType)
}

func (f *fakeEvents) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.published {
		if t == eventType {
			n++
		}
	}
	return n
}

func (f *fakeEvents) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	f.record(event.EventType)
	return nil
}

func (f *fakeEvents) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	f.record(event.EventType)
	return nil
}

func (f *fakeEvents) PublishOrderRejected(ctx context.Context, event *models.OrderRejectedEvent) error {
	f.record(event.EventType)
	return nil
}

func (f *fakeEvents) PublishOrderAssigned(ctx context.Context, event *models.OrderAssignedEvent) error {
	f.record(event.EventType)
	return nil
}

func (f *fakeEvents) PublishOrderDeliveryUpdated(ctx context.Context, event *models.OrderDeliveryUpdatedEvent) error {
	f.record(event.EventType)
	return nil
}

func (f *fakeEvents) PublishReceiptPaid(ctx context.Context, event *models.ReceiptPaidEvent) error {
	f.record(event.EventType)
	return nil
}

// fakeCache is an in-memory OrderCache and CropCache.
type fakeCache struct {
	mu          sync.Mutex
	idempotency map[string]string
	crops       map[string]*models.Crop
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		idempotency: make(map[string]string),
		crops:       make(map[string]*models.Crop),
	}
}

func (f *fakeCache) GetIdempotentOrderID(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idempotency[key], nil
}

func (f *fakeCache) SetIdempotentOrderID(ctx context.Context, key, orderID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idempotency[key] = orderID
	return nil
}

func (f *fakeCache) GetCachedCrop(ctx context.Context, id string) (*models.Crop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.crops[id]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, nil
}

func (f *fakeCache) SetCachedCrop(ctx context.Context, crop *models.Crop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cc := *crop
	f.crops[crop.ID] = &cc
	return nil
}

func (f *fakeCache) InvalidateCrop(ctx context.Context, cropID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, cropID)
	delete(f.crops, cropID)
	return nil
}
