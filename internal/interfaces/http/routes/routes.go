// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cart-service/internal/config"
	"github.com/your-org/cart-service/internal/domain/cart"
	"github.com/your-org/cart-service/internal/interfaces/http/handlers"
	"github.com/your-org/cart-service/internal/interfaces/http/middleware"
)

// SetupRoutes wires all cart routes onto the API group. Every cart endpoint
// requires an authenticated tenant-scoped caller.
func SetupRoutes(rg *gin.RouterGroup, cartService *cart.Service, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(cartService)

	carts := rg.Group("/cart")
	carts.Use(middleware.AuthMiddleware(cfg))
	{
		carts.GET("", cartHandler.GetCart)
		carts.DELETE("", cartHandler.ClearCart)

		carts.POST("/item", cartHandler.AddItem)
		carts.PUT("/item/:itemId", cartHandler.UpdateItem)
		carts.DELETE("/item/:itemId", cartHandler.RemoveItem)

		carts.POST("/coupon", cartHandler.ApplyCoupon)
		carts.DELETE("/coupon", cartHandler.RemoveCoupon)
	}
}
