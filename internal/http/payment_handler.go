package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mood-journal/internal/service"
)

// PaymentHandler cubre el flujo de suscripcion con Flutterwave.
type PaymentHandler struct {
	logger *zap.Logger
	subSvc *service.SubscriptionService
}

func NewPaymentHandler(logger *zap.Logger, subSvc *service.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{logger: logger, subSvc: subSvc}
}

// TxRef maneja GET /subscribe/txref.
func (h *PaymentHandler) TxRef(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	txRef, err := h.subSvc.NewTxRef(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("create tx_ref failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not start payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tx_ref": txRef})
}

// Verify maneja POST /payment/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		TransactionID any    `json:"transaction_id"`
		TxRef         string `json:"tx_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing transaction data"})
		return
	}

	res, err := h.subSvc.Verify(c.Request.Context(), userID, transactionIDString(req.TransactionID), req.TxRef)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingTransaction):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing transaction data"})
		case errors.Is(err, service.ErrVerificationFailed):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Verification failed", "payload": rawPayload(res.Payload)})
		case errors.Is(err, service.ErrPaymentNotOwned):
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "payment belongs to another session"})
		default:
			h.logger.Error("payment verify failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not verify payment"})
		}
		return
	}
	message := "Payment verified. PRO activated."
	if res.AlreadyApplied {
		message = "Payment already verified."
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": message, "pro_until": res.ProUntil})
}

// Webhook maneja POST /webhook/flutterwave.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var event service.WebhookEvent
	// Un cuerpo invalido se trata como evento vacio; la firma se valida igual.
	_ = c.ShouldBindJSON(&event)

	err := h.subSvc.HandleWebhook(c.Request.Context(), c.GetHeader("verif-hash"), event)
	if err != nil {
		if errors.Is(err, service.ErrWebhookUnauthorized) {
			c.Status(http.StatusUnauthorized)
			return
		}
		h.logger.Error("webhook handling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
