package store

import (
	"context"
	"database/sql"
	"fmt"

	"mandihub/internal/models"
)

// ListInventoryByCustomer retrieves a customer's accumulated holdings
func (s *Store) ListInventoryByCustomer(ctx context.Context, customerID string) ([]models.InventoryEntry, error) {
	entries := []models.InventoryEntry{}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM inventory WHERE customer_id = $1 ORDER BY crop_name", customerID)
	return entries, err
}

// ListAllInventory retrieves every inventory entry, optionally filtered by a
// case-insensitive crop name search (admin view)
func (s *Store) ListAllInventory(ctx context.Context, search string) ([]models.InventoryEntry, error) {
	entries := []models.InventoryEntry{}
	if search != "" {
		err := s.db.SelectContext(ctx, &entries,
			"SELECT * FROM inventory WHERE crop_name ILIKE $1 ORDER BY crop_name",
			"%"+search+"%")
		return entries, err
	}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM inventory ORDER BY crop_name")
	return entries, err
}

// GetInventoryEntry retrieves a single (customer, crop name) holding
func (s *Store) GetInventoryEntry(ctx context.Context, customerID, cropName string) (*models.InventoryEntry, error) {
	var entry models.InventoryEntry
	err := s.db.GetContext(ctx, &entry,
		"SELECT * FROM inventory WHERE customer_id = $1 AND crop_name = $2",
		customerID, cropName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory entry for %s: %w", cropName, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

const transactionListColumns = `
	t.id, t.crop_id, t.customer_id, t.farmer_id, t.quantity, t.total_price, t.created_at,
	c.name AS crop_name, cu.username AS customer_name, f.username AS farmer_name`

const transactionListJoins = `
	FROM transactions t
	JOIN crops c ON c.id = t.crop_id
	JOIN users cu ON cu.id = t.customer_id
	JOIN users f ON f.id = t.farmer_id`

// ListTransactionsByCustomer retrieves a customer's purchase history
func (s *Store) ListTransactionsByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	txns := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txns,
		"SELECT "+transactionListColumns+transactionListJoins+
			" WHERE t.customer_id = $1 ORDER BY t.created_at DESC", customerID)
	return txns, err
}

// ListTransactionsByFarmer retrieves a farmer's sales history
func (s *Store) ListTransactionsByFarmer(ctx context.Context, farmerID string) ([]models.Transaction, error) {
	txns := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txns,
		"SELECT "+transactionListColumns+transactionListJoins+
			" WHERE t.farmer_id = $1 ORDER BY t.created_at DESC", farmerID)
	return txns, err
}

// ListAllTransactions retrieves every transaction, optionally filtered by
// crop name or participant username (admin view)
func (s *Store) ListAllTransactions(ctx context.Context, search string) ([]models.Transaction, error) {
	txns := []models.Transaction{}
	if search != "" {
		pat := "%" + search + "%"
		err := s.db.SelectContext(ctx, &txns,
			"SELECT "+transactionListColumns+transactionListJoins+
				" WHERE c.name ILIKE $1 OR cu.username ILIKE $1 OR f.username ILIKE $1"+
				" ORDER BY t.created_at DESC", pat)
		return txns, err
	}
	err := s.db.SelectContext(ctx, &txns,
		"SELECT "+transactionListColumns+transactionListJoins+
			" ORDER BY t.created_at DESC")
	return txns, err
}

// GetReceiptByID retrieves a receipt by ID
func (s *Store) GetReceiptByID(ctx context.Context, id string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.db.GetContext(ctx, &receipt, "SELECT * FROM receipts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

const receiptListColumns = `
	r.id, r.order_id, r.customer_id, r.farmer_id, r.payment_status, r.created_at,
	o.status AS order_status, o.total_price AS order_total, c.name AS crop_name`

const receiptListJoins = `
	FROM receipts r
	JOIN orders o ON o.id = r.order_id
	JOIN crops c ON c.id = o.crop_id`

// ListReceiptsByCustomer retrieves a customer's receipts
func (s *Store) ListReceiptsByCustomer(ctx context.Context, customerID string) ([]models.Receipt, error) {
	receipts := []models.Receipt{}
	err := s.db.SelectContext(ctx, &receipts,
		"SELECT "+receiptListColumns+receiptListJoins+
			" WHERE r.customer_id = $1 ORDER BY r.created_at DESC", customerID)
	return receipts, err
}

// ListReceiptsByFarmer retrieves a farmer's receipts
func (s *Store) ListReceiptsByFarmer(ctx context.Context, farmerID string) ([]models.Receipt, error) {
	receipts := []models.Receipt{}
	err := s.db.SelectContext(ctx, &receipts,
		"SELECT "+receiptListColumns+receiptListJoins+
			" WHERE r.farmer_id = $1 ORDER BY r.created_at DESC", farmerID)
	return receipts, err
}

// MarkReceiptPaid flips a receipt from unpaid to paid. Marking an
// already-paid receipt is a no-op that returns the stored row unchanged;
// ownership is checked by the caller before this point.
func (s *Store) MarkReceiptPaid(ctx context.Context, receiptID string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.db.GetContext(ctx, &receipt,
		`UPDATE receipts SET payment_status = $1
		 WHERE id = $2 AND payment_status = $3
		 RETURNING *`,
		models.PaymentStatusPaid, receiptID, models.PaymentStatusUnpaid)
	if err == nil {
		return &receipt, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// Zero rows: either the receipt is gone or it was already paid.
	return s.GetReceiptByID(ctx, receiptID)
}
