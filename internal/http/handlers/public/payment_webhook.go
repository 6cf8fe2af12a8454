package public

import (
	"strings"

	"github.com/fulfil-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PaymentConfirmRequest 支付确认回调
type PaymentConfirmRequest struct {
	OrderNo string `json:"order_no"`
	OrderID uint   `json:"order_id"`
}

// ConfirmPaymentWebhook 支付网关确认回调，签名校验由中间件完成
func (h *Handler) ConfirmPaymentWebhook(c *gin.Context) {
	var req PaymentConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	orderID := req.OrderID
	if orderNo := strings.TrimSpace(req.OrderNo); orderNo != "" {
		order, err := h.OrderService.GetByOrderNo(orderNo)
		if err != nil {
			respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "error.order_fetch_failed")
			return
		}
		if orderID != 0 && orderID != order.ID {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		orderID = order.ID
	}
	if orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
		return
	}

	order, err := h.OrderService.ConfirmPayment(c.Request.Context(), orderID)
	if err != nil {
		requestLog(c).Warnw("payment_webhook_confirm_failed", "order_id", orderID, "error", err)
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("payment_webhook_confirmed", "order_id", order.ID, "order_no", order.OrderNo)
	response.Success(c, gin.H{
		"order_no": order.OrderNo,
		"status":   order.Status,
	})
}
