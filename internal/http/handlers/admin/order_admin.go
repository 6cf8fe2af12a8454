package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/fulfil-next/internal/http/handlers/shared"
	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// SetTrackingRequest 录入运单号
type SetTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// CancelOrderRequest 取消订单
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// ShippingEmailResponse 发货邮件结果
type ShippingEmailResponse struct {
	Order  *models.Order `json:"order"`
	Queued bool          `json:"queued"`
	Status string        `json:"status,omitempty"`
	LogID  uint          `json:"log_id,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// AdminListOrders 订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        strings.TrimSpace(c.Query("status")),
		CustomerEmail: strings.TrimSpace(c.Query("customer_email")),
		Keyword:       strings.TrimSpace(c.Query("keyword")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// AdminConfirmPayment 人工确认收款
func (h *Handler) AdminConfirmPayment(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	order, err := h.OrderService.ConfirmPayment(c.Request.Context(), orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_payment_confirmed", "order_id", orderID, "operator", c.GetString("operator"))
	response.Success(c, order)
}

// AdminStartProcessing 开始备货
func (h *Handler) AdminStartProcessing(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	order, err := h.OrderService.StartProcessing(orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminSetTracking 录入或更正运单号
func (h *Handler) AdminSetTracking(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	var req SetTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.tracking_number_empty", nil)
		return
	}
	order, err := h.OrderService.SetTracking(orderID, req.TrackingNumber)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_tracking_set", "order_id", orderID, "tracking_number", order.TrackingNumber)
	response.Success(c, order)
}

// AdminSendShippingEmail 发送发货通知，投递失败不视为接口错误
func (h *Handler) AdminSendShippingEmail(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	order, outcome, err := h.OrderService.SendShippingEmail(c.Request.Context(), orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.email_send_failed")
		return
	}
	resp := ShippingEmailResponse{Order: order, Queued: outcome.Queued}
	if outcome.Result != nil {
		resp.Status = outcome.Result.Status
		resp.LogID = outcome.Result.LogID
		resp.Error = outcome.Result.Error
	}
	response.Success(c, resp)
}

// AdminMarkDelivered 标记送达
func (h *Handler) AdminMarkDelivered(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	order, err := h.OrderService.MarkDelivered(c.Request.Context(), orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AdminCancelOrder 取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
	}
	order, err := h.OrderService.Cancel(orderID, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	requestLog(c).Infow("admin_order_cancelled", "order_id", orderID, "operator", c.GetString("operator"))
	response.Success(c, order)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
