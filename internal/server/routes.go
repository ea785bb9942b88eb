package server

import (
	"menswear/internal/handler"
	"menswear/internal/middleware"
	"menswear/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	AdminUser    *handler.AdminUserHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Inventory    *handler.InventoryHandler
	Collection   *handler.CollectionHandler
	Cart         *handler.CartHandler
	Address      *handler.AddressHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Customer     *handler.CustomerHandler
	Supplier     *handler.SupplierHandler
	Analytics    *handler.AnalyticsHandler
	AuditLog     *handler.AuditLogHandler
}

// 公開 / ログイン必須（JWT + token_version） / ADMIN限定 の3段
func RegisterRoutes(e *echo.Echo, jwtSecret string, userRepo repository.UserRepository, h Handlers) {
	authMW := []echo.MiddlewareFunc{
		middleware.AuthJWT(jwtSecret),
		middleware.TokenVersionGuard(userRepo),
	}
	adminMW := append(append([]echo.MiddlewareFunc{}, authMW...), middleware.AdminRoleGuard())

	// 公開
	h.Auth.RegisterRoutes(e, authMW...)
	h.Product.RegisterRoutes(e)
	h.Collection.RegisterRoutes(e)
	h.Checkout.RegisterWebhookRoutes(e)

	// ログイン必須
	h.Cart.RegisterRoutes(e.Group("/cart", authMW...))
	h.Order.RegisterRoutes(e.Group("/orders", authMW...))
	h.Checkout.RegisterRoutes(e.Group("/checkout", authMW...))

	me := e.Group("/me", authMW...)
	h.Customer.RegisterRoutes(me)
	h.Address.RegisterRoutes(me)

	// ADMIN
	admin := e.Group("/admin", adminMW...)
	h.AdminUser.RegisterRoutes(admin)
	h.AdminProduct.RegisterRoutes(admin)
	h.Inventory.RegisterRoutes(admin)
	h.Collection.RegisterAdminRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.Customer.RegisterAdminRoutes(admin)
	h.Supplier.RegisterRoutes(admin)
	h.Analytics.RegisterRoutes(admin)
	h.AuditLog.RegisterRoutes(admin)
}
