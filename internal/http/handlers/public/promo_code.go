package public

import (
	"errors"
	"strings"

	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidatePromoCodeRequest 优惠码校验请求
type ValidatePromoCodeRequest struct {
	Code     string       `json:"code" binding:"required"`
	Subtotal models.Money `json:"subtotal"`
}

// ValidatePromoCodeResponse 优惠码校验结果
type ValidatePromoCodeResponse struct {
	Valid     bool          `json:"valid"`
	Code      string        `json:"code,omitempty"`
	Discount  *models.Money `json:"discount,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Shortfall *models.Money `json:"shortfall,omitempty"`
}

// ValidatePromoCode 校验优惠码，拒绝以 valid=false 返回而非错误
func (h *Handler) ValidatePromoCode(c *gin.Context) {
	var req ValidatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		respondError(c, response.CodeBadRequest, "error.promo_code_required", nil)
		return
	}
	if req.Subtotal.Decimal.IsNegative() {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	quote, err := h.PromoCodeService.Validate(req.Code, req.Subtotal)
	if err != nil {
		var rejection *service.PromoRejection
		if errors.As(err, &rejection) {
			resp := ValidatePromoCodeResponse{Valid: false, Reason: rejection.Reason}
			if !rejection.Shortfall.Decimal.IsZero() {
				shortfall := rejection.Shortfall
				resp.Shortfall = &shortfall
			}
			response.Success(c, resp)
			return
		}
		respondError(c, response.CodeInternal, "error.promo_code_fetch_failed", err)
		return
	}
	discount := quote.Discount
	response.Success(c, ValidatePromoCodeResponse{
		Valid:    true,
		Code:     quote.Code,
		Discount: &discount,
	})
}
