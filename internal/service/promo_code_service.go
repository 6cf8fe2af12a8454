package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/metrics"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoQuote 优惠码校验通过时的报价
type PromoQuote struct {
	Code     string       `json:"code"`
	Discount models.Money `json:"discount"`
}

// PromoRejection 优惠码校验拒绝，errors.Is 可匹配对应哨兵错误
type PromoRejection struct {
	Reason    string
	Shortfall models.Money // 仅 below_minimum 时有值
}

func (r *PromoRejection) Error() string {
	if r.Reason == constants.PromoRejectBelowMinimum {
		return fmt.Sprintf("promo code rejected: %s (short by %s)", r.Reason, r.Shortfall.String())
	}
	return "promo code rejected: " + r.Reason
}

func (r *PromoRejection) Unwrap() error {
	switch r.Reason {
	case constants.PromoRejectNotFound:
		return ErrPromoCodeNotFound
	case constants.PromoRejectInactive:
		return ErrPromoCodeInactive
	case constants.PromoRejectExpired:
		return ErrPromoCodeExpired
	case constants.PromoRejectExhausted:
		return ErrPromoCodeExhausted
	case constants.PromoRejectBelowMinimum:
		return ErrPromoCodeBelowMinimum
	}
	return ErrPromoCodeInvalid
}

func reject(reason string) *PromoRejection {
	return &PromoRejection{Reason: reason}
}

// PromoCodeService 优惠码服务
type PromoCodeService struct {
	repo repository.PromoCodeRepository
	now  func() time.Time
}

// NewPromoCodeService 创建优惠码服务
func NewPromoCodeService(repo repository.PromoCodeRepository) *PromoCodeService {
	return &PromoCodeService{repo: repo, now: time.Now}
}

// NormalizePromoCode 去空白并转大写
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate 校验优惠码并计算折扣，无副作用。
// 拒绝时返回 *PromoRejection，其余 error 为存储错误。
func (s *PromoCodeService) Validate(code string, subtotal models.Money) (*PromoQuote, error) {
	normalized := NormalizePromoCode(code)
	if normalized == "" {
		metrics.PromoValidationTotal.WithLabelValues(constants.PromoRejectNotFound).Inc()
		return nil, reject(constants.PromoRejectNotFound)
	}
	promo, err := s.repo.GetByCode(normalized)
	if err != nil {
		return nil, err
	}
	quote, rejection := evaluatePromo(promo, subtotal, s.now())
	if rejection != nil {
		metrics.PromoValidationTotal.WithLabelValues(rejection.Reason).Inc()
		return nil, rejection
	}
	metrics.PromoValidationTotal.WithLabelValues("valid").Inc()
	return quote, nil
}

// evaluatePromo 按固定顺序判定：不存在、停用、过期、用尽、未达门槛
func evaluatePromo(promo *models.PromoCode, subtotal models.Money, now time.Time) (*PromoQuote, *PromoRejection) {
	if promo == nil {
		return nil, reject(constants.PromoRejectNotFound)
	}
	if !promo.Active {
		return nil, reject(constants.PromoRejectInactive)
	}
	if promo.ExpiresAt != nil && !now.Before(*promo.ExpiresAt) {
		return nil, reject(constants.PromoRejectExpired)
	}
	if promo.MaxUses != nil && promo.UsedCount >= *promo.MaxUses {
		return nil, reject(constants.PromoRejectExhausted)
	}
	if subtotal.Decimal.LessThan(promo.MinPurchase.Decimal) {
		return nil, &PromoRejection{
			Reason:    constants.PromoRejectBelowMinimum,
			Shortfall: models.NewMoneyFromDecimal(promo.MinPurchase.Decimal.Sub(subtotal.Decimal)),
		}
	}
	return &PromoQuote{
		Code:     promo.Code,
		Discount: calculateDiscount(promo.DiscountType, promo.Value, subtotal),
	}, nil
}

// calculateDiscount 百分比按小计计算，固定金额不超过小计
func calculateDiscount(discountType string, value, subtotal models.Money) models.Money {
	if subtotal.Decimal.IsNegative() || value.Decimal.IsNegative() {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	switch discountType {
	case constants.DiscountTypePercentage:
		discount := subtotal.Decimal.Mul(value.Decimal).Div(decimal.NewFromInt(100))
		if discount.GreaterThan(subtotal.Decimal) {
			discount = subtotal.Decimal
		}
		return models.NewMoneyFromDecimal(discount)
	case constants.DiscountTypeFixed:
		return models.NewMoneyFromDecimal(decimal.Min(value.Decimal, subtotal.Decimal))
	default:
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
}

// Redeem 原子核销一次，用尽时返回 ErrPromoCodeExhausted
func (s *PromoCodeService) Redeem(code string) error {
	return redeemPromo(s.repo, code)
}

func redeemPromo(repo repository.PromoCodeRepository, code string) error {
	normalized := NormalizePromoCode(code)
	ok, err := repo.Redeem(normalized)
	if err != nil {
		metrics.PromoRedemptionTotal.WithLabelValues("error").Inc()
		return err
	}
	if !ok {
		metrics.PromoRedemptionTotal.WithLabelValues(constants.PromoRejectExhausted).Inc()
		logger.Warnw("promo_code_redeem_exhausted", "code", normalized)
		return ErrPromoCodeExhausted
	}
	metrics.PromoRedemptionTotal.WithLabelValues("redeemed").Inc()
	return nil
}

// PromoCodeInput 后台创建/更新优惠码输入
type PromoCodeInput struct {
	Code         string
	DiscountType string
	Value        models.Money
	MinPurchase  models.Money
	MaxUses      *int
	Active       *bool
	ExpiresAt    *time.Time
}

// Create 后台创建优惠码
func (s *PromoCodeService) Create(input PromoCodeInput) (*models.PromoCode, error) {
	promo := &models.PromoCode{Active: true}
	if err := applyPromoInput(promo, input); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByCode(promo.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPromoCodeExists
	}
	if err := s.repo.Create(promo); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPromoCodeExists
		}
		return nil, err
	}
	logger.Infow("promo_code_created", "id", promo.ID, "code", promo.Code)
	return promo, nil
}

// Update 后台更新优惠码，used_count 不受影响
func (s *PromoCodeService) Update(id uint, input PromoCodeInput) (*models.PromoCode, error) {
	promo, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}
	previousCode := promo.Code
	if err := applyPromoInput(promo, input); err != nil {
		return nil, err
	}
	if promo.Code != previousCode {
		other, err := s.repo.GetByCode(promo.Code)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != promo.ID {
			return nil, ErrPromoCodeExists
		}
		refs, err := s.repo.CountOrderReferences(previousCode)
		if err != nil {
			return nil, err
		}
		if refs > 0 {
			return nil, ErrPromoCodeInUse
		}
	}
	if promo.MaxUses != nil && *promo.MaxUses < promo.UsedCount {
		return nil, fmt.Errorf("%w: max_uses below used_count", ErrPromoCodeInvalid)
	}
	promo.UpdatedAt = s.now()
	if err := s.repo.Update(promo); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

// Get 获取优惠码
func (s *PromoCodeService) Get(id uint) (*models.PromoCode, error) {
	promo, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}
	return promo, nil
}

// List 优惠码列表
func (s *PromoCodeService) List(filter repository.PromoCodeListFilter) ([]models.PromoCode, int64, error) {
	return s.repo.List(filter)
}

// Delete 删除优惠码，已被订单引用时拒绝
func (s *PromoCodeService) Delete(id uint) error {
	promo, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if promo == nil {
		return ErrPromoCodeNotFound
	}
	refs, err := s.repo.CountOrderReferences(promo.Code)
	if err != nil {
		return err
	}
	if refs > 0 {
		return ErrPromoCodeInUse
	}
	return s.repo.Delete(id)
}

func applyPromoInput(promo *models.PromoCode, input PromoCodeInput) error {
	code := NormalizePromoCode(input.Code)
	if code == "" || len(code) > 64 {
		return fmt.Errorf("%w: code required", ErrPromoCodeInvalid)
	}
	discountType := strings.ToLower(strings.TrimSpace(input.DiscountType))
	switch discountType {
	case constants.DiscountTypePercentage:
		if !input.Value.Decimal.IsPositive() || input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: percentage must be in (0,100]", ErrPromoCodeInvalid)
		}
	case constants.DiscountTypeFixed:
		if !input.Value.Decimal.IsPositive() {
			return fmt.Errorf("%w: fixed value must be positive", ErrPromoCodeInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown discount type", ErrPromoCodeInvalid)
	}
	if input.MinPurchase.Decimal.IsNegative() {
		return fmt.Errorf("%w: min_purchase must not be negative", ErrPromoCodeInvalid)
	}
	if input.MaxUses != nil && *input.MaxUses < 1 {
		return fmt.Errorf("%w: max_uses must be at least 1", ErrPromoCodeInvalid)
	}

	promo.Code = code
	promo.DiscountType = discountType
	promo.Value = models.NewMoneyFromDecimal(input.Value.Decimal)
	promo.MinPurchase = models.NewMoneyFromDecimal(input.MinPurchase.Decimal)
	promo.MaxUses = input.MaxUses
	promo.ExpiresAt = input.ExpiresAt
	if input.Active != nil {
		promo.Active = *input.Active
	}
	return nil
}
