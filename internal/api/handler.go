package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"mandihub/internal/models"
	"mandihub/internal/service"
	"mandihub/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders   *service.OrderService
	dispatch *service.DispatchService
	receipts *service.ReceiptService
	catalog  *service.CatalogService
	ledger   *service.LedgerService
	auth     Authenticator
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	dispatch *service.DispatchService,
	receipts *service.ReceiptService,
	catalog *service.CatalogService,
	ledger *service.LedgerService,
	auth Authenticator,
) *Handler {
	return &Handler{
		orders:   orders,
		dispatch: dispatch,
		receipts: receipts,
		catalog:  catalog,
		ledger:   ledger,
		auth:     auth,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Public marketplace browsing
	v1.GET("/crops", h.listCrops)
	v1.GET("/crops/:id", h.getCrop)

	authed := v1.Group("", authMiddleware(h.auth))

	customer := authed.Group("", requireRole(models.RoleCustomer))
	{
		customer.POST("/orders", h.createOrder)
		customer.GET("/orders/customer", h.listCustomerOrders)
		customer.PUT("/receipts/:id", h.markReceiptPaid)
		customer.GET("/receipts/customer", h.listCustomerReceipts)
		customer.GET("/inventory/customer", h.customerInventory)
		customer.GET("/transactions/history/customer", h.customerHistory)
	}

	farmer := authed.Group("", requireRole(models.RoleFarmer))
	{
		farmer.GET("/orders/farmer", h.listFarmerOrders)
		farmer.PUT("/orders/:id", h.decideOrder)
		farmer.GET("/receipts/farmer", h.listFarmerReceipts)
		farmer.GET("/transactions/history/farmer", h.farmerHistory)
		farmer.POST("/crops", h.createCrop)
		farmer.GET("/crops/mine", h.myCrops)
		farmer.PUT("/crops/:id", h.updateCrop)
		farmer.DELETE("/crops/:id", h.deleteCrop)
	}

	vendor := authed.Group("", requireRole(models.RoleVendor))
	{
		vendor.GET("/orders/vendor", h.listVendorOrders)
		vendor.GET("/vendors/orders/available", h.availableOrders)
		vendor.PUT("/vendors/orders/:id/accept", h.acceptOrder)
		vendor.PUT("/vendors/orders/:id/status", h.advanceDelivery)
		vendor.GET("/vendors/history", h.vendorHistory)
	}

	admin := authed.Group("", requireRole(models.RoleAdmin))
	{
		admin.GET("/inventory/all", h.allInventory)
		admin.GET("/transactions/all", h.allTransactions)
		admin.GET("/analytics/stats", h.platformStats)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientStock), errors.Is(err, models.ErrAlreadyTaken):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// createOrder handles POST /orders
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), identityFrom(c).UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// decideOrder handles PUT /orders/:id (farmer confirm/reject)
func (h *Handler) decideOrder(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	target, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + req.Status})
		return
	}

	order, err := h.orders.Decide(c.Request.Context(), identityFrom(c).UserID, c.Param("id"), target)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) listFarmerOrders(c *gin.Context) {
	orders, err := h.orders.ListFarmerOrders(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listCustomerOrders(c *gin.Context) {
	orders, err := h.orders.ListCustomerOrders(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listVendorOrders(c *gin.Context) {
	orders, err := h.orders.ListVendorOrders(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// availableOrders handles GET /vendors/orders/available
func (h *Handler) availableOrders(c *gin.Context) {
	orders, err := h.dispatch.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// acceptOrder handles PUT /vendors/orders/:id/accept
func (h *Handler) acceptOrder(c *gin.Context) {
	order, err := h.dispatch.Claim(c.Request.Context(), identityFrom(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// advanceDelivery handles PUT /vendors/orders/:id/status
func (h *Handler) advanceDelivery(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	target, ok := models.ParseOrderStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + req.Status})
		return
	}

	order, err := h.dispatch.Advance(c.Request.Context(), identityFrom(c).UserID, c.Param("id"), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// vendorHistory handles GET /vendors/history
func (h *Handler) vendorHistory(c *gin.Context) {
	orders, err := h.dispatch.History(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// markReceiptPaid handles PUT /receipts/:id
func (h *Handler) markReceiptPaid(c *gin.Context) {
	var req struct {
		PaymentStatus string `json:"paymentStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.PaymentStatus != models.PaymentStatusPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment status may only be set to paid"})
		return
	}

	receipt, err := h.receipts.MarkPaid(c.Request.Context(), identityFrom(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) listCustomerReceipts(c *gin.Context) {
	receipts, err := h.receipts.ListCustomerReceipts(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func (h *Handler) listFarmerReceipts(c *gin.Context) {
	receipts, err := h.receipts.ListFarmerReceipts(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func (h *Handler) customerInventory(c *gin.Context) {
	entries, err := h.ledger.CustomerInventory(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) allInventory(c *gin.Context) {
	entries, err := h.ledger.AllInventory(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) customerHistory(c *gin.Context) {
	txns, err := h.ledger.CustomerHistory(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *Handler) farmerHistory(c *gin.Context) {
	txns, err := h.ledger.FarmerHistory(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *Handler) allTransactions(c *gin.Context) {
	txns, err := h.ledger.AllTransactions(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

// platformStats handles GET /analytics/stats
func (h *Handler) platformStats(c *gin.Context) {
	stats, err := h.ledger.PlatformStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totals": stats,
		"live":   h.ledger.Live(c.Request.Context()),
	})
}

// createCrop handles POST /crops
func (h *Handler) createCrop(c *gin.Context) {
	var req service.CreateCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	crop, err := h.catalog.CreateCrop(c.Request.Context(), identityFrom(c).UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, crop)
}

// listCrops handles GET /crops (public marketplace)
func (h *Handler) listCrops(c *gin.Context) {
	minPrice, _ := strconv.ParseFloat(c.Query("minPrice"), 64)
	maxPrice, _ := strconv.ParseFloat(c.Query("maxPrice"), 64)

	crops, err := h.catalog.ListCrops(c.Request.Context(), store.CropFilter{
		Search:   c.Query("search"),
		Location: c.Query("location"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		SortBy:   c.Query("sortBy"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crops)
}

// getCrop handles GET /crops/:id
func (h *Handler) getCrop(c *gin.Context) {
	crop, err := h.catalog.GetCrop(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crop)
}

// myCrops handles GET /crops/mine
func (h *Handler) myCrops(c *gin.Context) {
	crops, err := h.catalog.ListFarmerCrops(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crops)
}

// updateCrop handles PUT /crops/:id
func (h *Handler) updateCrop(c *gin.Context) {
	var req service.UpdateCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	crop, err := h.catalog.UpdateCrop(c.Request.Context(), identityFrom(c).UserID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, crop)
}

// deleteCrop handles DELETE /crops/:id
func (h *Handler) deleteCrop(c *gin.Context) {
	if err := h.catalog.DeleteCrop(c.Request.Context(), identityFrom(c).UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Crop removed"})
}
