package store

import (
	"context"
	"database/sql"
	"fmt"

	"mandihub/internal/models"

	"github.com/google/uuid"
)

// CreateOrder creates a new order with status pending
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, crop_id, farmer_id, customer_id, quantity, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.ID, order.CropID, order.FarmerID, order.CustomerID,
		order.Quantity, order.TotalPrice, order.Status)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

const orderListColumns = `
	o.id, o.crop_id, o.farmer_id, o.customer_id, o.vendor_id,
	o.quantity, o.total_price, o.status, o.created_at, o.updated_at,
	c.name AS crop_name, f.username AS farmer_name, cu.username AS customer_name`

const orderListJoins = `
	FROM orders o
	JOIN crops c ON c.id = o.crop_id
	JOIN users f ON f.id = o.farmer_id
	JOIN users cu ON cu.id = o.customer_id`

// ListOrdersByFarmer retrieves all orders addressed to a farmer
func (s *Store) ListOrdersByFarmer(ctx context.Context, farmerID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderListColumns+orderListJoins+
			" WHERE o.farmer_id = $1 ORDER BY o.created_at DESC", farmerID)
	return orders, err
}

// ListOrdersByCustomer retrieves all orders placed by a customer
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderListColumns+orderListJoins+
			" WHERE o.customer_id = $1 ORDER BY o.created_at DESC", customerID)
	return orders, err
}

// ListOrdersByVendor retrieves all orders claimed by a vendor
func (s *Store) ListOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderListColumns+orderListJoins+
			" WHERE o.vendor_id = $1 ORDER BY o.created_at DESC", vendorID)
	return orders, err
}

// ListAvailableOrders retrieves orders confirmed by a farmer but not yet
// claimed by any vendor
func (s *Store) ListAvailableOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderListColumns+orderListJoins+
			" WHERE o.status = $1 AND o.vendor_id IS NULL ORDER BY o.created_at ASC",
		models.OrderStatusConfirmed)
	return orders, err
}

// ListDeliveredOrdersByVendor retrieves a vendor's completed deliveries
func (s *Store) ListDeliveredOrdersByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderListColumns+orderListJoins+
			" WHERE o.vendor_id = $1 AND o.status = $2 ORDER BY o.updated_at DESC",
		vendorID, models.OrderStatusDelivered)
	return orders, err
}

// ConfirmOrder executes the confirmation side-effect sequence as one
// transaction: lock the order and crop rows, re-check status and stock,
// decrement stock, upsert the customer's inventory entry, write the
// transaction record, create the unpaid receipt, and flip the order to
// confirmed. Any failure rolls everything back and the order stays pending.
func (s *Store) ConfirmOrder(ctx context.Context, orderID string) (*models.ConfirmationResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("order is %s, not pending: %w",
			order.Status, models.ErrInvalidTransition)
	}

	// Crop row stays locked until commit so concurrent confirmations against
	// the same crop serialize their stock checks.
	var crop models.Crop
	err = tx.GetContext(ctx, &crop,
		"SELECT * FROM crops WHERE id = $1 FOR UPDATE", order.CropID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("crop %s: %w", order.CropID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock crop: %w", err)
	}

	if crop.Stock < order.Quantity {
		return nil, fmt.Errorf("stock %.2fkg below requested %.2fkg: %w",
			crop.Stock, order.Quantity, models.ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE crops SET stock = stock - $1, updated_at = NOW() WHERE id = $2",
		order.Quantity, crop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement stock: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (id, customer_id, crop_name, weight, purchase_price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id, crop_name) DO UPDATE
		SET weight = inventory.weight + EXCLUDED.weight,
		    purchase_price = EXCLUDED.purchase_price,
		    updated_at = NOW()`,
		uuid.New().String(), order.CustomerID, crop.Name, order.Quantity, crop.PricePerKg)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert inventory: %w", err)
	}

	txn := &models.Transaction{
		ID:         uuid.New().String(),
		CropID:     order.CropID,
		CustomerID: order.CustomerID,
		FarmerID:   order.FarmerID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
	}
	err = tx.GetContext(ctx, &txn.CreatedAt, `
		INSERT INTO transactions (id, crop_id, customer_id, farmer_id, quantity, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		txn.ID, txn.CropID, txn.CustomerID, txn.FarmerID, txn.Quantity, txn.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	receipt := &models.Receipt{
		ID:            uuid.New().String(),
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		FarmerID:      order.FarmerID,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
	err = tx.GetContext(ctx, &receipt.CreatedAt, `
		INSERT INTO receipts (id, order_id, customer_id, farmer_id, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		receipt.ID, receipt.OrderID, receipt.CustomerID, receipt.FarmerID, receipt.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	err = tx.GetContext(ctx, &order.UpdatedAt,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at",
		models.OrderStatusConfirmed, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = models.OrderStatusConfirmed

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	return &models.ConfirmationResult{
		Order:       &order,
		Transaction: txn,
		Receipt:     receipt,
		CropName:    crop.Name,
	}, nil
}

// RejectOrder flips a pending order to rejected. The status condition makes
// concurrent farmer decisions on the same order first-writer-wins.
func (s *Store) RejectOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		`UPDATE orders SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3
		 RETURNING *`,
		models.OrderStatusRejected, orderID, models.OrderStatusPending)
	if err == nil {
		return &order, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	current, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("order is %s, not pending: %w",
		current.Status, models.ErrInvalidTransition)
}

// ClaimOrder assigns a confirmed, unclaimed order to a vendor. The WHERE
// clause is the whole race arbitration: only one concurrent claim can match
// the unclaimed row.
func (s *Store) ClaimOrder(ctx context.Context, orderID, vendorID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		`UPDATE orders SET vendor_id = $1, status = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4 AND vendor_id IS NULL
		 RETURNING *`,
		vendorID, models.OrderStatusAssigned, orderID, models.OrderStatusConfirmed)
	if err == nil {
		return &order, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	current, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.VendorID.Valid {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrAlreadyTaken)
	}
	return nil, fmt.Errorf("order is %s, not confirmed: %w",
		current.Status, models.ErrInvalidTransition)
}

// AdvanceDelivery moves a claimed order along the delivery sub-machine. The
// update is conditioned on the claiming vendor and the expected current
// status, so stale or unauthorized attempts affect zero rows.
func (s *Store) AdvanceDelivery(ctx context.Context, orderID, vendorID string, from, to models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		`UPDATE orders SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND vendor_id = $3 AND status = $4
		 RETURNING *`,
		to, orderID, vendorID, from)
	if err == nil {
		return &order, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	current, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Vendor() != vendorID {
		return nil, fmt.Errorf("order %s is not assigned to this vendor: %w",
			orderID, models.ErrForbidden)
	}
	return nil, fmt.Errorf("cannot transition from %s to %s: %w",
		current.Status, to, models.ErrInvalidTransition)
}
