package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/middleware"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/catalog"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/shared/apperr"
)

type ProductsHandler struct {
	DB *gorm.DB
}

func NewProductsHandler(db *gorm.DB) *ProductsHandler {
	return &ProductsHandler{DB: db}
}

// GET /products
func (h *ProductsHandler) List(c *gin.Context) {
	items, err := catalog.NewRepo(h.DB).ListActive(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, p := range items {
		out = append(out, gin.H{
			"title":     p.Title,
			"slug":      p.Slug,
			"price_irr": p.PriceIRR,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

// GET /products/:slug
func (h *ProductsHandler) Detail(c *gin.Context) {
	slug := c.Param("slug")

	p, err := catalog.NewRepo(h.DB).GetActiveBySlug(c.Request.Context(), slug)
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":     p.Title,
		"slug":      p.Slug,
		"price_irr": p.PriceIRR,
	})
}
