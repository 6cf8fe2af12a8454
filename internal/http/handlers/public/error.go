package public

import (
	"errors"

	handlershared "github.com/fulfil-next/internal/http/handlers/shared"
	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrOrderItemsInvalid, code: response.CodeBadRequest, key: "error.order_items_invalid"},
	{target: service.ErrCustomerInvalid, code: response.CodeBadRequest, key: "error.customer_invalid"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
	{target: service.ErrPromoCodeNotFound, code: response.CodeBadRequest, key: "error.promo_code_not_found"},
	{target: service.ErrPromoCodeInactive, code: response.CodeBadRequest, key: "error.promo_code_inactive"},
	{target: service.ErrPromoCodeExpired, code: response.CodeBadRequest, key: "error.promo_code_expired"},
	{target: service.ErrPromoCodeExhausted, code: response.CodeBadRequest, key: "error.promo_code_exhausted"},
	{target: service.ErrPromoCodeBelowMinimum, code: response.CodeBadRequest, key: "error.promo_code_below_min"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict, key: "error.order_status_invalid"},
	{target: service.ErrPromoCodeExhausted, code: response.CodeConflict, key: "error.promo_code_exhausted"},
	{target: service.ErrPromoCodeNotFound, code: response.CodeConflict, key: "error.promo_code_not_found"},
}
