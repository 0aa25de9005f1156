package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/models"
	"github.com/safarbet/safarbet/internal/utils"
)

// Webhook handles POST /api/v1/payments/webhook, the gateway's push
// channel. It always acknowledges with 200 once the payload has been
// read: the gateway retries on non-2xx, and a transient processing
// failure is the sweeper's job to repair, not the gateway's.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var payload models.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		logger.Warn("Unparseable webhook payload dropped", logger.Err(err))
		return utils.SuccessResponse(c, http.StatusOK, "acknowledged", nil)
	}

	if err := h.paymentUC.ProcessWebhook(c.Request().Context(), payload); err != nil {
		logger.Error("Webhook processing failed",
			logger.String("transaction_reference", payload.Reference()),
			logger.String("status", payload.Status),
			logger.Err(err))
	}

	return utils.SuccessResponse(c, http.StatusOK, "acknowledged", nil)
}
