package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/middleware"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/internal/utils"
	"github.com/safarbet/safarbet/services/payment"
)

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	cfg       *models.Config
	paymentUC payment.PaymentUC
}

// NewPaymentHandler creates a new payment HTTP handler
func NewPaymentHandler(cfg *models.Config, paymentUC payment.PaymentUC) *PaymentHandler {
	return &PaymentHandler{
		cfg:       cfg,
		paymentUC: paymentUC,
	}
}

// InitiatePayment handles POST /api/v1/payments/initiate
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	callerID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	var req models.PaymentInitiateRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	resp, err := h.paymentUC.InitiatePayment(c.Request().Context(), callerID, middleware.IsAdmin(c), req)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusCreated, "Payment initiated", resp)
}

// VerifyPayment handles POST /api/v1/payments/verify
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	callerID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	var req models.PaymentVerifyRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if req.TransactionReference == "" {
		req.TransactionReference = c.QueryParam("tx_ref")
	}

	p, err := h.paymentUC.VerifyPayment(c.Request().Context(), callerID, middleware.IsAdmin(c), req.TransactionReference)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "Payment verified", p)
}

// GetPayment handles GET /api/v1/payments/:paymentID
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	callerID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	paymentID, err := uuid.Parse(c.Param("paymentID"))
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid payment ID")
	}

	p, err := h.paymentUC.GetPayment(c.Request().Context(), callerID, middleware.IsAdmin(c), paymentID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", p)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	callerID, ok := middleware.UserID(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "")
	}

	payments, err := h.paymentUC.ListUserPayments(c.Request().Context(), callerID)
	if err != nil {
		return utils.AppErrorResponse(c, err)
	}

	return utils.SuccessResponse(c, http.StatusOK, "", payments)
}
