package service

import "errors"

// 优惠码
var (
	ErrPromoCodeNotFound     = errors.New("promo code not found")
	ErrPromoCodeInactive     = errors.New("promo code inactive")
	ErrPromoCodeExpired      = errors.New("promo code expired")
	ErrPromoCodeExhausted    = errors.New("promo code exhausted")
	ErrPromoCodeBelowMinimum = errors.New("cart subtotal below promo code minimum")
	ErrPromoCodeInvalid      = errors.New("promo code invalid")
	ErrPromoCodeExists       = errors.New("promo code already exists")
	ErrPromoCodeInUse        = errors.New("promo code referenced by orders")
)

// 订单
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderStatusInvalid  = errors.New("order status transition invalid")
	ErrOrderUpdateFailed   = errors.New("order update failed")
	ErrOrderItemsInvalid   = errors.New("order items invalid")
	ErrCustomerInvalid     = errors.New("customer info invalid")
	ErrTrackingNumberEmpty = errors.New("tracking number required")
)

// 邮件
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrEmailTemplateNotFound     = errors.New("email template not found")
	ErrEmailTemplateInactive     = errors.New("email template inactive")
	ErrEmailTemplateInvalid      = errors.New("email template invalid")
	ErrEmailLogWriteFailed       = errors.New("email log write failed")
)

// 设置与鉴权
var (
	ErrSiteConfigInvalid    = errors.New("site config invalid")
	ErrOperatorTokenInvalid = errors.New("operator token invalid")
)
