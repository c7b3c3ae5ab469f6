package routes

import (
	"net/http"

	"shop-service/controllers"
	"shop-service/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controllers struct {
	Orders   *controllers.OrderController
	Payments *controllers.PaymentController
	Products *controllers.ProductController
	Events   *controllers.EventsController
}

func Register(r *gin.Engine, c Controllers, jwtSecret string) {
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider callback and the event stream carry no bearer token.
	r.POST("/webhook/paypay", c.Payments.Webhook)
	r.GET("/sse", c.Events.Stream)

	api := r.Group("/api")

	// Public catalog reads.
	api.GET("/products", c.Products.ListProducts)
	api.GET("/active-products", c.Products.ListActiveProducts)
	api.GET("/products/:id", c.Products.GetProduct)

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(jwtSecret))

	authed.POST("/orders", c.Orders.CreateOrder)
	authed.GET("/orders", c.Orders.GetOrders)
	authed.GET("/orders/:id", c.Orders.GetOrderByID)
	authed.DELETE("/orders/:id", c.Orders.DeleteOrder)
	authed.PATCH("/orders/:id/pay", c.Orders.UpdatePaymentStatus)
	authed.POST("/orders/:id/payment-create", c.Payments.CreatePayment)

	admin := authed.Group("")
	admin.Use(middleware.AdminOnly())
	admin.GET("/admin/orders", c.Orders.GetAllOrders)
	admin.PATCH("/orders/:id/ship", c.Orders.MarkShipped)
	admin.POST("/products", c.Products.CreateProduct)
	admin.DELETE("/products/:id", c.Products.DeleteProduct)
	admin.PATCH("/products/:id/status", c.Products.UpdateProductStatus)
}
