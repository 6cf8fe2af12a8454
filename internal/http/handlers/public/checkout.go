package public

import (
	"errors"
	"strings"

	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutItemRequest 结算商品
type CheckoutItemRequest struct {
	ProductRef string       `json:"product_ref" binding:"required"`
	Title      string       `json:"title"`
	Quantity   int          `json:"quantity" binding:"required"`
	UnitPrice  models.Money `json:"unit_price"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	Items           []CheckoutItemRequest `json:"items" binding:"required"`
	ShippingCost    models.Money          `json:"shipping_cost"`
	PromoCode       string                `json:"promo_code"`
	CustomerName    string                `json:"customer_name" binding:"required"`
	CustomerEmail   string                `json:"customer_email" binding:"required"`
	ShippingAddress string                `json:"shipping_address" binding:"required"`
}

// Checkout 完成结算，生成待支付订单
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CheckoutItem{
			ProductRef: item.ProductRef,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	order, err := h.OrderService.CompleteCheckout(service.CheckoutInput{
		Items:           items,
		ShippingCost:    req.ShippingCost,
		PromoCode:       req.PromoCode,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}
	requestLog(c).Infow("public_checkout_completed", "order_no", order.OrderNo, "total", order.Total.String())
	response.Success(c, order)
}

// GetOrderByNo 顾客凭订单号与邮箱查询订单
func (h *Handler) GetOrderByNo(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	email := strings.TrimSpace(c.Query("email"))
	if orderNo == "" || email == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.GetByOrderNoAndEmail(orderNo, email)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, order)
}
