package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/middleware"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/services/payment"
)

// Handler wires the payment HTTP surface
type Handler struct {
	paymentHTTP *PaymentHandler
	cfg         *models.Config
}

// NewHandler creates a new payment handler
func NewHandler(cfg *models.Config, paymentUC payment.PaymentUC) *Handler {
	return &Handler{
		paymentHTTP: NewPaymentHandler(cfg, paymentUC),
		cfg:         cfg,
	}
}

// RegisterRoutes registers all payment HTTP routes. The webhook stays
// outside the authenticated group: the gateway does not carry our JWT.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/payments/webhook", h.paymentHTTP.Webhook)

	payments := api.Group("/payments", middleware.JWTAuthMiddleware(h.cfg.JWT))
	payments.POST("/initiate", h.paymentHTTP.InitiatePayment)
	payments.POST("/verify", h.paymentHTTP.VerifyPayment)
	payments.GET("", h.paymentHTTP.ListPayments)
	payments.GET("/:paymentID", h.paymentHTTP.GetPayment)
}
