package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"techstore/internal/models"
	"techstore/internal/service"
	"techstore/internal/store"
	"techstore/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionHeader = "X-Session-ID"

// Handler contains HTTP handlers
type Handler struct {
	store    *store.Store
	cart     *service.CartService
	checkout *service.CheckoutService
	capture  *service.AttributionService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	st *store.Store,
	cart *service.CartService,
	checkout *service.CheckoutService,
	capture *service.AttributionService,
) *Handler {
	return &Handler{
		store:    st,
		cart:     cart,
		checkout: checkout,
		capture:  capture,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(sessionMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
		api.PUT("/products/:id", h.updateProductStock)

		api.GET("/coupons", h.listCoupons)

		api.GET("/sales", h.listSales)
		api.POST("/sales", h.appendSale)
		api.DELETE("/sales", h.clearSales)

		api.GET("/cart", h.getCart)
		api.POST("/cart/items", h.addCartItem)
		api.PUT("/cart/items/:id", h.updateCartItem)
		api.DELETE("/cart/items/:id", h.removeCartItem)
		api.DELETE("/cart", h.clearCart)

		api.POST("/cart/coupon", h.applyCoupon)
		api.DELETE("/cart/coupon", h.removeCoupon)

		api.POST("/attribution", h.captureAttribution)

		api.POST("/checkout", h.commitCheckout)
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

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.store.GetProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load products",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load product",
			"details": err.Error(),
		})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// updateProductStock handles the admin stock adjustment. Only the stock field
// is writable; other product fields are preserved.
func (h *Handler) updateProductStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Stock *int `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if *req.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock must not be negative"})
		return
	}

	product, err := h.store.UpdateProductStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listCoupons(c *gin.Context) {
	coupons, err := h.store.GetCoupons(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load coupons",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (h *Handler) listSales(c *gin.Context) {
	sales, err := h.store.GetSales(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load sales",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales})
}

// appendSale is the admin path for recording an externally-created order.
func (h *Handler) appendSale(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if order.OrderNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_number is required"})
		return
	}

	if err := h.store.AppendSale(c.Request.Context(), &order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record sale",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) clearSales(c *gin.Context) {
	if err := h.store.ClearSales(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear sales",
			"details": err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.cart.GetCart(c.Request.Context(), sessionID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load cart",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive"})
		return
	}

	view, err := h.cart.AddItem(c.Request.Context(), sessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must not be negative"})
		return
	}

	view, err := h.cart.UpdateItemQuantity(c.Request.Context(), sessionID(c), id, req.Quantity)
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.cart.RemoveItem(c.Request.Context(), sessionID(c), id)
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), sessionID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear cart",
			"details": err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) applyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.cart.ApplyCoupon(c.Request.Context(), sessionID(c), req.Code)
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCoupon(c *gin.Context) {
	view, err := h.cart.RemoveCoupon(c.Request.Context(), sessionID(c))
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) captureAttribution(c *gin.Context) {
	var req service.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	attribution, captured, err := h.capture.Capture(c.Request.Context(), sessionID(c), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to capture attribution",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"attribution": attribution,
		"captured":    captured,
	})
}

func (h *Handler) commitCheckout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.checkout.Commit(c.Request.Context(), sessionID(c), &req)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}

func writeCartError(c *gin.Context, err error) {
	var validation *models.ValidationError
	switch {
	case models.IsCouponError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, models.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Not enough stock"})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"field":   validation.Field,
			"details": validation.Reason,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Request failed",
			"details": err.Error(),
		})
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	var checkoutErr *service.CheckoutError
	if !errors.As(err, &checkoutErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Checkout failed",
			"details": err.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch checkoutErr.Stage {
	case service.StageValidating:
		status = http.StatusBadRequest
	case service.StageReceipt, service.StageCoupon:
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"error":   "Checkout failed",
		"stage":   checkoutErr.Stage,
		"details": checkoutErr.Err.Error(),
	})
}

// sessionMiddleware ensures every request carries a session ID, minting one
// when the client did not send the header. The ID is echoed on the response
// so clients can persist it.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(sessionHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("session_id", id)
		c.Header(sessionHeader, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString("session_id")
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
