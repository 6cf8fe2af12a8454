package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/fulfil-next/internal/http/handlers/shared"
	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PromoCodeRequest 优惠码新建/更新请求
type PromoCodeRequest struct {
	Code         string       `json:"code" binding:"required"`
	DiscountType string       `json:"discount_type" binding:"required"`
	Value        models.Money `json:"value"`
	MinPurchase  models.Money `json:"min_purchase"`
	MaxUses      *int         `json:"max_uses"`
	Active       *bool        `json:"active"`
	ExpiresAt    *time.Time   `json:"expires_at"`
}

func (r PromoCodeRequest) toInput() service.PromoCodeInput {
	return service.PromoCodeInput{
		Code:         r.Code,
		DiscountType: r.DiscountType,
		Value:        r.Value,
		MinPurchase:  r.MinPurchase,
		MaxUses:      r.MaxUses,
		Active:       r.Active,
		ExpiresAt:    r.ExpiresAt,
	}
}

// ListPromoCodes 优惠码列表
func (h *Handler) ListPromoCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	var active *bool
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		active = &parsed
	}

	codes, total, err := h.PromoCodeService.List(repository.PromoCodeListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
		Active:   active,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.promo_code_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, codes, handlershared.BuildPagination(page, pageSize, total))
}

// GetPromoCode 优惠码详情
func (h *Handler) GetPromoCode(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id", "error.promo_code_invalid")
	if !ok {
		return
	}
	promo, err := h.PromoCodeService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, promoCodeErrorRules, response.CodeInternal, "error.promo_code_fetch_failed")
		return
	}
	response.Success(c, promo)
}

// CreatePromoCode 新建优惠码
func (h *Handler) CreatePromoCode(c *gin.Context) {
	var req PromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	promo, err := h.PromoCodeService.Create(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, promoCodeErrorRules, response.CodeInternal, "error.promo_code_save_failed")
		return
	}
	requestLog(c).Infow("admin_promo_code_created", "code", promo.Code, "operator", c.GetString("operator"))
	response.Success(c, promo)
}

// UpdatePromoCode 更新优惠码
func (h *Handler) UpdatePromoCode(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id", "error.promo_code_invalid")
	if !ok {
		return
	}
	var req PromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	promo, err := h.PromoCodeService.Update(id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, promoCodeErrorRules, response.CodeInternal, "error.promo_code_save_failed")
		return
	}
	response.Success(c, promo)
}

// DeletePromoCode 删除未被订单引用的优惠码
func (h *Handler) DeletePromoCode(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id", "error.promo_code_invalid")
	if !ok {
		return
	}
	if err := h.PromoCodeService.Delete(id); err != nil {
		respondWithMappedError(c, err, promoCodeErrorRules, response.CodeInternal, "error.promo_code_save_failed")
		return
	}
	requestLog(c).Infow("admin_promo_code_deleted", "id", id, "operator", c.GetString("operator"))
	response.Success(c, nil)
}
