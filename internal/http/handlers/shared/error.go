package shared

import (
	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(response.RequestIDKey); id != "" {
		return logger.SW(response.RequestIDKey, id)
	}
	return logger.S()
}

// RespondError 按错误键返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, Message(key), err)
}

// RespondErrorWithData 按错误键返回带数据的错误响应。
func RespondErrorWithData(c *gin.Context, code int, key string, data interface{}, err error) {
	msg := Message(key)
	logHandlerError(c, code, msg, err)
	response.ErrorWithData(c, code, msg, data)
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	logHandlerError(c, code, msg, err)
	response.Error(c, code, msg)
}

func logHandlerError(c *gin.Context, code int, msg string, err error) {
	if err == nil {
		return
	}
	log := RequestLog(c).With("code", code, "message", msg, "error", err)
	if response.IsServerError(code) {
		log.Errorw("handler_error")
		return
	}
	log.Warnw("handler_error")
}
