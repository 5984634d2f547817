// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/cart-service/internal/domain/cart"
	"github.com/your-org/cart-service/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.GetCart(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddItem handles POST /cart/item
func (h *CartHandler) AddItem(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"code":    "VALIDATION_ERROR",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.AddItem(c.Request.Context(), tenantID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartResponse,
	})
}

// UpdateItem handles PUT /cart/item/:itemId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	itemID := c.Param("itemId")

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"code":    "VALIDATION_ERROR",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.UpdateItem(c.Request.Context(), tenantID, userID, itemID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// RemoveItem handles DELETE /cart/item/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	itemID := c.Param("itemId")

	cartResponse, err := h.cartService.RemoveItem(c.Request.Context(), tenantID, userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.ClearCart(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    cartResponse,
	})
}

// ApplyCoupon handles POST /cart/coupon
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	var req cart.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"code":    "VALIDATION_ERROR",
			"details": err.Error(),
		})
		return
	}

	cartResponse, err := h.cartService.ApplyCoupon(c.Request.Context(), tenantID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon applied successfully",
		"data":    cartResponse,
	})
}

// RemoveCoupon handles DELETE /cart/coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	tenantID, userID, ok := callerIdentity(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.RemoveCoupon(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon removed successfully",
		"data":    cartResponse,
	})
}

// callerIdentity extracts the (tenant, user) pair placed in context by the
// auth middleware, aborting with 401 if either is missing
func callerIdentity(c *gin.Context) (tenantID, userID uuid.UUID, ok bool) {
	userID, hasUser := middleware.GetUserIDFromContext(c)
	tenantID, hasTenant := middleware.GetTenantIDFromContext(c)
	if !hasUser || !hasTenant {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Caller identity missing",
		})
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

// respondError maps domain errors onto the HTTP error taxonomy
func respondError(c *gin.Context, err error) {
	switch {
	case cart.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "VALIDATION_ERROR",
		})
	case errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
			"code":  "NOT_FOUND",
		})
	case errors.Is(err, cart.ErrInvalidCoupon):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": err.Error(),
			"code":  "INVALID_COUPON",
		})
	case errors.Is(err, cart.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"code":  "UPSTREAM_UNAVAILABLE",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL_ERROR",
		})
	}
}
