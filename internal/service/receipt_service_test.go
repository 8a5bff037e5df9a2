package service

import (
	"context"
	"testing"

	"mandihub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReceiptFixture(t *testing.T) (*ReceiptService, *fakeStore, *fakeEvents, *models.Receipt) {
	t.Helper()

	store := newFakeStore()
	store.addCrop(&models.Crop{
		ID:         "crop-1",
		Name:       "Tomato",
		Stock:      50,
		PricePerKg: 20,
		FarmerID:   testFarmerID,
	})
	store.addOrder(&models.Order{
		ID:         "order-1",
		CropID:     "crop-1",
		FarmerID:   testFarmerID,
		CustomerID: testCustomerID,
		Quantity:   10,
		TotalPrice: 200,
		Status:     models.OrderStatusPending,
	})

	// Confirmation is the only path that creates receipts.
	result, err := store.ConfirmOrder(context.Background(), "order-1")
	require.NoError(t, err)

	events := &fakeEvents{}
	return NewReceiptService(store, events), store, events, result.Receipt
}

func TestMarkPaid(t *testing.T) {
	svc, _, events, receipt := newReceiptFixture(t)

	paid, err := svc.MarkPaid(context.Background(), testCustomerID, receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "order-1", paid.OrderID)
	assert.Equal(t, 1, events.count(models.EventTypeReceiptPaid))
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	svc, _, events, receipt := newReceiptFixture(t)
	ctx := context.Background()

	_, err := svc.MarkPaid(ctx, testCustomerID, receipt.ID)
	require.NoError(t, err)

	again, err := svc.MarkPaid(ctx, testCustomerID, receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, again.PaymentStatus)
	assert.Equal(t, 1, events.count(models.EventTypeReceiptPaid))
}

func TestMarkPaidRequiresOwningCustomer(t *testing.T) {
	svc, _, events, receipt := newReceiptFixture(t)

	_, err := svc.MarkPaid(context.Background(), "cust-2", receipt.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, 0, events.count(models.EventTypeReceiptPaid))
}

func TestMarkPaidUnknownReceipt(t *testing.T) {
	svc, _, _, _ := newReceiptFixture(t)

	_, err := svc.MarkPaid(context.Background(), testCustomerID, "no-such-receipt")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListReceiptsByParty(t *testing.T) {
	svc, _, _, receipt := newReceiptFixture(t)
	ctx := context.Background()

	forCustomer, err := svc.ListCustomerReceipts(ctx, testCustomerID)
	require.NoError(t, err)
	require.Len(t, forCustomer, 1)
	assert.Equal(t, receipt.ID, forCustomer[0].ID)

	forFarmer, err := svc.ListFarmerReceipts(ctx, testFarmerID)
	require.NoError(t, err)
	require.Len(t, forFarmer, 1)

	none, err := svc.ListCustomerReceipts(ctx, "cust-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
