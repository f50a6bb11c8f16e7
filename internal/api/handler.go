package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog     *service.CatalogService
	cart        *service.CartService
	checkout    *service.CheckoutService
	orders      *service.OrderQueryService
	profile     *service.ProfileService
	reconcile   *service.ReconcileService
	webhookHash string
	jwtSecret   string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	cart *service.CartService,
	checkout *service.CheckoutService,
	orders *service.OrderQueryService,
	profile *service.ProfileService,
	reconcile *service.ReconcileService,
	webhookHash, jwtSecret string,
) *Handler {
	return &Handler{
		catalog:     catalog,
		cart:        cart,
		checkout:    checkout,
		orders:      orders,
		profile:     profile,
		reconcile:   reconcile,
		webhookHash: webhookHash,
		jwtSecret:   jwtSecret,
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

	shop := router.Group("/shop")
	shop.Use(ownerMiddleware(h.jwtSecret))
	{
		shop.GET("/products", h.listProducts)
		shop.GET("/products/:slug", h.getProduct)

		shop.GET("/cart", h.listCart)
		shop.POST("/cart", h.upsertCartLine)

		shop.POST("/checkout", h.checkoutCart)

		shop.GET("/orders", h.listOrders)
		shop.GET("/orders/:txRef", h.getOrder)

		shop.GET("/addresses", h.listAddresses)
		shop.POST("/addresses", h.createAddress)

		shop.POST("/webhook", h.paymentWebhook)
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

// listProducts handles the catalog listing
func (h *Handler) listProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	productPage, err := h.catalog.ListProducts(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Products Fetched Successfully", productPage)
}

// getProduct handles a single product detail
func (h *Handler) getProduct(c *gin.Context) {
	detail, err := h.catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Product Details Fetched Successfully", detail)
}

// listCart handles the cart listing for a user or guest
func (h *Handler) listCart(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	lines, err := h.cart.ListCart(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Cart Fetched Successfully", gin.H{"orderitems": lines})
}

type upsertCartRequest struct {
	Slug      string     `json:"slug" binding:"required"`
	Quantity  *int       `json:"quantity" binding:"required"`
	VariantID *uuid.UUID `json:"variantId"`
}

// upsertCartLine handles cart line writes; quantity 0 removes the line
func (h *Handler) upsertCartLine(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req upsertCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "Invalid request body"))
		return
	}

	if err := h.cart.UpsertLine(c.Request.Context(), owner, req.Slug, req.VariantID, *req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Cart Updated Successfully", nil)
}

type checkoutRequest struct {
	ShippingID uuid.UUID `json:"shippingId" binding:"required"`
}

// checkoutCart handles order creation from the authenticated user's cart
func (h *Handler) checkoutCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("shippingId", "A valid shipping address ID is required"))
		return
	}

	order, err := h.checkout.Checkout(c.Request.Context(), userID, req.ShippingID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Order Created Successfully", order)
}

// listOrders handles the order listing for the authenticated user. A seller
// query param switches to that seller's sales view; the service rejects it
// unless the user owns the seller.
func (h *Handler) listOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := service.OrderFilter{
		SellerSlug:     c.Query("seller"),
		PaymentStatus:  c.Query("paymentStatus"),
		DeliveryStatus: c.Query("deliveryStatus"),
		Page:           page,
		Limit:          limit,
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Orders Fetched Successfully", orders)
}

// getOrder handles a single order detail by transaction reference
func (h *Handler) getOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), userID, c.Param("txRef"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Order Fetched Successfully", order)
}

// listAddresses handles the shipping address listing
func (h *Handler) listAddresses(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	addresses, err := h.profile.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Shipping Addresses Retrieved Successfully", addresses)
}

type createAddressRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Country string `json:"country" binding:"required"`
	Zipcode string `json:"zipcode" binding:"required"`
}

// createAddress handles shipping address creation
func (h *Handler) createAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "Invalid request body"))
		return
	}

	address := &models.ShippingAddress{
		UserID:  userID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Country: req.Country,
		Zipcode: req.Zipcode,
	}
	if err := h.profile.CreateAddress(c.Request.Context(), address); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Address created successfully", address)
}

type webhookPayload struct {
	TxRef string `json:"txRef"`
	// Providers vary on field naming; accept the snake_case form too.
	TxRefAlt string `json:"tx_ref"`
}

func (p webhookPayload) ref() string {
	if p.TxRef != "" {
		return p.TxRef
	}
	return p.TxRefAlt
}

// paymentWebhook handles asynchronous payment notifications. Only a bad
// signature yields a non-200: every other outcome is acknowledged so the
// provider stops retrying events this system has handled or chosen to ignore.
func (h *Handler) paymentWebhook(c *gin.Context) {
	// An unset hash must fail closed: with no configured secret an empty
	// signature would otherwise compare equal and let unsigned deliveries in.
	signature := c.GetHeader("verif-hash")
	if h.webhookHash == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(h.webhookHash)) != 1 {
		util.WebhookDeliveriesTotal.WithLabelValues("bad_signature").Inc()
		respondError(c, apperr.Unauthorized("Invalid webhook signature"))
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ref() == "" {
		util.WebhookDeliveriesTotal.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	outcome, err := h.reconcile.Reconcile(c.Request.Context(), payload.ref())
	if err != nil {
		util.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		// Still acknowledged: reconciliation failures are terminal per
		// delivery and must not trigger provider retries.
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	util.WebhookDeliveriesTotal.WithLabelValues(string(outcome)).Inc()
	c.JSON(http.StatusOK, gin.H{"status": string(outcome)})
}
