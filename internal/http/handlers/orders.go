package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/middleware"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/orders"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/shared/apperr"
)

type OrdersHandler struct {
	DB *gorm.DB
}

func NewOrdersHandler(db *gorm.DB) *OrdersHandler {
	return &OrdersHandler{DB: db}
}

// POST /orders/create/:slug
// One-click order for a single product; redirects to the order page.
func (h *OrdersHandler) Create(c *gin.Context) {
	slug := c.Param("slug")

	o, err := orders.NewRepo(h.DB).CreateFromProduct(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, orders.ErrProductNotAvailable) {
			middleware.Fail(c, apperr.NotFoundErr("Product not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.Redirect(http.StatusFound, "/orders/"+o.ID)
}

// GET /orders/:id
func (h *OrdersHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	o, items, err := orders.NewRepo(h.DB).GetWithItems(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}

	var computedTotal int64
	lines := make([]gin.H, 0, len(items))
	for _, it := range items {
		computedTotal += it.LineTotalIRR()
		lines = append(lines, gin.H{
			"title":          it.Title,
			"quantity":       it.Quantity,
			"unit_price_irr": it.UnitPriceIRR,
			"line_total_irr": it.LineTotalIRR(),
		})
	}

	out := gin.H{
		"id":             o.ID,
		"status":         o.Status,
		"currency":       o.Currency,
		"total_irr":      o.TotalIRR,
		"computed_total": computedTotal,
		"items":          lines,
	}
	if o.PaidAt != nil {
		out["paid_at"] = o.PaidAt
	}
	if o.PaymentRefID != nil {
		out["payment_ref_id"] = *o.PaymentRefID
	}
	c.JSON(http.StatusOK, out)
}
