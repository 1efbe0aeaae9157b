package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/middleware"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/validation"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/catalog"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/orders"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/payments"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/shared/apperr"
)

// AdminHandler is the read-mostly back office: order listing with toman
// display amounts, the attempt ledger per order, status overrides, and
// product management.
type AdminHandler struct {
	DB     *gorm.DB
	Ledger *payments.Ledger
}

func NewAdminHandler(db *gorm.DB, ledger *payments.Ledger) *AdminHandler {
	return &AdminHandler{DB: db, Ledger: ledger}
}

// GET /admin/orders?status=&page=
func (h *AdminHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))

	res, err := orders.NewRepo(h.DB).List(c.Request.Context(), orders.ListParams{
		Page:     page,
		PageSize: 50,
		Status:   c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	items := make([]gin.H, 0, len(res.Items))
	for _, o := range res.Items {
		row := gin.H{
			"id":               o.ID,
			"status":           o.Status,
			"total_irr":        o.TotalIRR,
			"total_toman":      payments.AmountForGateway(o.TotalIRR, payments.CurrencyToman),
			"payment_provider": o.PaymentProvider,
			"created_at":       o.CreatedAt,
		}
		if o.PaymentRefID != nil {
			row["payment_ref_id"] = *o.PaymentRefID
		}
		if o.PaidAt != nil {
			row["paid_at"] = o.PaidAt
		}
		items = append(items, row)
	}
	c.JSON(http.StatusOK, gin.H{"orders": items, "total": res.Total})
}

// GET /admin/orders/:id/attempts
func (h *AdminHandler) OrderAttempts(c *gin.Context) {
	id := c.Param("id")

	if _, err := orders.NewRepo(h.DB).Get(c.Request.Context(), id); err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}

	attempts, err := h.Ledger.ListByOrder(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	items := make([]gin.H, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, gin.H{
			"id":         a.ID,
			"stage":      a.Stage,
			"code":       a.Code,
			"authority":  a.Authority,
			"ref_id":     a.RefID,
			"raw":        a.Raw,
			"created_at": a.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"attempts": items})
}

// POST /admin/orders/:id/mark-paid
func (h *AdminHandler) MarkPaid(c *gin.Context) {
	h.setOrderStatus(c, orders.StatusPaid)
}

// POST /admin/orders/:id/mark-pending
func (h *AdminHandler) MarkPending(c *gin.Context) {
	h.setOrderStatus(c, orders.StatusPendingPayment)
}

func (h *AdminHandler) setOrderStatus(c *gin.Context, status string) {
	id := c.Param("id")

	if err := orders.NewRepo(h.DB).SetStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

type productForm struct {
	Title    string `form:"title" binding:"required,max=255"`
	Slug     string `form:"slug" binding:"required,max=255"`
	PriceIRR int64  `form:"price_irr" binding:"required,min=1"`
	Active   bool   `form:"active"`
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var in productForm
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid product data.", validation.FromBindError(err, &in)))
		return
	}

	p, err := catalog.NewRepo(h.DB).Create(c.Request.Context(), in.Title, in.Slug, in.PriceIRR, in.Active)
	if err != nil {
		if catalog.IsDuplicateKey(err) {
			middleware.Fail(c, apperr.ConflictErr("A product with this slug already exists."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "slug": p.Slug})
}

// POST /admin/products/:id
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var in productForm
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid product data.", validation.FromBindError(err, &in)))
		return
	}

	if err := catalog.NewRepo(h.DB).Update(c.Request.Context(), id, in.Title, in.Slug, in.PriceIRR, in.Active); err != nil {
		if catalog.IsDuplicateKey(err) {
			middleware.Fail(c, apperr.ConflictErr("A product with this slug already exists."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
