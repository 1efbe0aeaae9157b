package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aliceh1389k-lgtm/shop-mvp/internal/http/middleware"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/modules/payments"
	"github.com/aliceh1389k-lgtm/shop-mvp/internal/shared/apperr"
)

type PaymentsHandler struct {
	Svc *payments.Service
}

func NewPaymentsHandler(svc *payments.Service) *PaymentsHandler {
	return &PaymentsHandler{Svc: svc}
}

// POST /payments/start/:id
func (h *PaymentsHandler) Start(c *gin.Context) {
	id := c.Param("id")

	res, err := h.Svc.Start(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payments.ErrOrderNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	switch res.Kind {
	case payments.StartRedirectGateway, payments.StartRedirectOrder:
		c.Redirect(http.StatusFound, res.RedirectURL)

	case payments.StartInProgress:
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Payment is already being prepared. Try again in a few seconds.",
		})

	case payments.StartConfigError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Payment gateway is not configured.",
		})

	case payments.StartRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Too many attempts, please try again later.",
			"code":  res.GatewayCode,
		})

	default: // StartRejected
		msg := res.GatewayMsg
		if msg == "" {
			msg = "Payment request failed."
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": msg,
			"code":  res.GatewayCode,
		})
	}
}

// GET /payments/zarinpal/callback?Authority=...&Status=OK|NOK&order_id=...
// The gateway redirects the payer here; order_id is an optional hint some
// provider configurations append to the callback URL.
func (h *PaymentsHandler) Callback(c *gin.Context) {
	authority := strings.TrimSpace(c.Query("Authority"))
	status := strings.TrimSpace(c.Query("Status"))
	orderHint := strings.TrimSpace(c.Query("order_id"))

	if authority == "" {
		middleware.Fail(c, apperr.InvalidErr("Missing Authority.", nil))
		return
	}

	res, err := h.Svc.HandleCallback(c.Request.Context(), authority, status, orderHint)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	switch res.Kind {
	case payments.CallbackConfigError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Payment gateway is not configured.",
		})
	default:
		c.Redirect(http.StatusFound, res.RedirectURL)
	}
}
