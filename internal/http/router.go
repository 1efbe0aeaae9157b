package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/config"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/handlers"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/middleware"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/payments"
)

func NewRouter(logger *slog.Logger, db *gorm.DB, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.ErrorHandler(logger),
	)

	ledger := payments.NewLedger(db, logger)
	gateway := payments.NewClient(cfg.Zarinpal)
	paySvc := payments.NewService(db, gateway, ledger, cfg.Zarinpal, cfg.PublicBaseURL, logger)

	productsH := handlers.NewProductsHandler(db)
	ordersH := handlers.NewOrdersHandler(db)
	paymentsH := handlers.NewPaymentsHandler(paySvc)
	adminH := handlers.NewAdminHandler(db, ledger)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(nethttp.StatusFound, "/products")
	})

	r.GET("/products", productsH.List)
	r.GET("/products/:slug", productsH.Detail)

	r.POST("/orders/create/:slug", ordersH.Create)
	r.GET("/orders/:id", ordersH.Detail)

	r.POST("/payments/start/:id", paymentsH.Start)
	r.GET(payments.CallbackPath, paymentsH.Callback)

	admin := r.Group("/admin", middleware.RequireAdmin(cfg.AdminToken))
	{
		admin.GET("/orders", adminH.ListOrders)
		admin.GET("/orders/:id/attempts", adminH.OrderAttempts)
		admin.POST("/orders/:id/mark-paid", adminH.MarkPaid)
		admin.POST("/orders/:id/mark-pending", adminH.MarkPending)
		admin.POST("/products", adminH.CreateProduct)
		admin.POST("/products/:id", adminH.UpdateProduct)
	}

	return r
}
