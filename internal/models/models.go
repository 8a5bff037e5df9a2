package models

import (
	"database/sql"
	"time"
)

// Role identifies what a user is allowed to do. Roles form a closed set;
// handlers check membership on Role values, never raw strings.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleFarmer   Role = "farmer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// ParseRole converts a raw role string to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleFarmer, RoleVendor, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusAssigned  OrderStatus = "assigned"
	OrderStatusPickedUp  OrderStatus = "picked-up"
	OrderStatusDelivered OrderStatus = "delivered"
)

// ParseOrderStatus converts a raw status string to an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusRejected,
		OrderStatusAssigned, OrderStatusPickedUp, OrderStatusDelivered:
		return OrderStatus(s), true
	}
	return "", false
}

// Receipt payment statuses
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// User is a read-only view of the user directory. The order subsystem
// consults it for display fields but never mutates it.
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Role      Role      `db:"role" json:"role"`
	Address   string    `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Crop is a farmer's sellable stock batch. Stock is in kilograms and never
// goes negative; outside farmer edits it is decremented only inside the
// order confirmation transaction.
type Crop struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Stock      float64   `db:"stock" json:"stock"`
	PricePerKg float64   `db:"price_per_kg" json:"price_per_kg"`
	Location   string    `db:"location" json:"location"`
	FarmerID   string    `db:"farmer_id" json:"farmer_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Order is a customer's request to buy a quantity of a crop from a farmer.
// Quantity and total price are frozen at creation. VendorID stays NULL until
// a vendor claims the confirmed order.
type Order struct {
	ID         string         `db:"id" json:"id"`
	CropID     string         `db:"crop_id" json:"crop_id"`
	FarmerID   string         `db:"farmer_id" json:"farmer_id"`
	CustomerID string         `db:"customer_id" json:"customer_id"`
	VendorID   sql.NullString `db:"vendor_id" json:"-"`
	Quantity   float64        `db:"quantity" json:"quantity"`
	TotalPrice float64        `db:"total_price" json:"total_price"`
	Status     OrderStatus    `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`

	// Display fields joined from related rows on list queries.
	CropName     string `db:"crop_name" json:"crop_name,omitempty"`
	FarmerName   string `db:"farmer_name" json:"farmer_name,omitempty"`
	CustomerName string `db:"customer_name" json:"customer_name,omitempty"`
}

// Vendor returns the claiming vendor id, or "" if the order is unclaimed.
func (o *Order) Vendor() string {
	if o.VendorID.Valid {
		return o.VendorID.String
	}
	return ""
}

// InventoryEntry is a customer's running holding of a named crop. Keyed by
// crop name rather than crop id: same-named crops from different farmers
// accumulate into one entry.
type InventoryEntry struct {
	ID            string    `db:"id" json:"id"`
	CustomerID    string    `db:"customer_id" json:"customer_id"`
	CropName      string    `db:"crop_name" json:"crop_name"`
	Weight        float64   `db:"weight" json:"weight"`
	PurchasePrice float64   `db:"purchase_price" json:"purchase_price"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is the immutable audit record of a completed sale, written
// exactly once when an order is confirmed.
type Transaction struct {
	ID         string    `db:"id" json:"id"`
	CropID     string    `db:"crop_id" json:"crop_id"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	FarmerID   string    `db:"farmer_id" json:"farmer_id"`
	Quantity   float64   `db:"quantity" json:"quantity"`
	TotalPrice float64   `db:"total_price" json:"total_price"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	CropName     string `db:"crop_name" json:"crop_name,omitempty"`
	CustomerName string `db:"customer_name" json:"customer_name,omitempty"`
	FarmerName   string `db:"farmer_name" json:"farmer_name,omitempty"`
}

// Receipt tracks payment status for a confirmed order, one per order,
// independent of delivery state.
type Receipt struct {
	ID            string    `db:"id" json:"id"`
	OrderID       string    `db:"order_id" json:"order_id"`
	CustomerID    string    `db:"customer_id" json:"customer_id"`
	FarmerID      string    `db:"farmer_id" json:"farmer_id"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	OrderStatus OrderStatus `db:"order_status" json:"order_status,omitempty"`
	CropName    string      `db:"crop_name" json:"crop_name,omitempty"`
	OrderTotal  float64     `db:"order_total" json:"order_total,omitempty"`
}

// ConfirmationResult bundles everything written by a successful order
// confirmation: the confirmed order plus the transaction and receipt rows
// created alongside it.
type ConfirmationResult struct {
	Order       *Order
	Transaction *Transaction
	Receipt     *Receipt
	CropName    string
}

// PlatformStats is the admin analytics aggregate.
type PlatformStats struct {
	TotalUsers        int     `json:"total_users"`
	TotalCustomers    int     `json:"total_customers"`
	TotalFarmers      int     `json:"total_farmers"`
	TotalVendors      int     `json:"total_vendors"`
	TotalCrops        int     `json:"total_crops"`
	TotalOrders       int     `json:"total_orders"`
	TotalTransactions int     `json:"total_transactions"`
	TotalRevenue      float64 `json:"total_revenue"`
}
