package admin

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
	var transitionErr *service.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		handlershared.RespondErrorWithData(c, response.CodeConflict, "error.order_status_invalid", gin.H{
			"current":   transitionErr.Current,
			"requested": transitionErr.Requested,
		}, nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrTrackingNumberEmpty, code: response.CodeBadRequest, key: "error.tracking_number_empty"},
	{target: service.ErrPromoCodeExhausted, code: response.CodeConflict, key: "error.promo_code_exhausted"},
	{target: service.ErrPromoCodeNotFound, code: response.CodeConflict, key: "error.promo_code_not_found"},
	{target: service.ErrEmailServiceNotConfigured, code: response.CodeInternal, key: "error.email_not_configured"},
}

var promoCodeErrorRules = []mappedHandlerError{
	{target: service.ErrPromoCodeNotFound, code: response.CodeNotFound, key: "error.promo_code_not_found"},
	{target: service.ErrPromoCodeInvalid, code: response.CodeBadRequest, key: "error.promo_code_invalid"},
	{target: service.ErrPromoCodeExists, code: response.CodeConflict, key: "error.promo_code_exists"},
	{target: service.ErrPromoCodeInUse, code: response.CodeConflict, key: "error.promo_code_in_use"},
}

var emailErrorRules = []mappedHandlerError{
	{target: service.ErrEmailTemplateNotFound, code: response.CodeNotFound, key: "error.email_template_not_found"},
	{target: service.ErrEmailTemplateInvalid, code: response.CodeBadRequest, key: "error.email_template_invalid"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
}
