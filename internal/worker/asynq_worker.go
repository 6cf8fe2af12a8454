package worker

import (
	"context"
	"strings"

	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/provider"
	"github.com/fulfil-next/internal/queue"
	"github.com/fulfil-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskEmailDispatch, c.handleEmailDispatch)
}

// handleEmailDispatch 执行模板邮件投递。传输失败已记录在投递日志中，
// 只有日志写入失败才返回错误。
func (c *Consumer) handleEmailDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_email_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseEmailDispatchPayload(task)
	if err != nil {
		logger.Warnw("worker_email_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.TemplateName) == "" || strings.TrimSpace(payload.Recipient) == "" {
		logger.Debugw("worker_email_dispatch_skip_invalid_payload",
			"template", payload.TemplateName,
			"order_id", payload.OrderID,
		)
		return nil
	}
	if c.EmailDispatcher == nil {
		logger.Warnw("worker_email_dispatch_skip_dispatcher_nil", "template", payload.TemplateName, "order_id", payload.OrderID)
		return nil
	}

	req := service.DispatchRequest{
		TemplateName: payload.TemplateName,
		Recipient:    payload.Recipient,
		Variables:    payload.Variables,
	}
	if payload.OrderID != 0 {
		orderID := payload.OrderID
		req.OrderID = &orderID
	}
	result, err := c.EmailDispatcher.Dispatch(ctx, req)
	if err != nil {
		logger.Errorw("worker_email_dispatch_log_failed",
			"template", payload.TemplateName,
			"order_id", payload.OrderID,
			"error", err,
		)
		return err
	}
	logger.Debugw("worker_email_dispatch_done",
		"template", payload.TemplateName,
		"order_id", payload.OrderID,
		"status", result.Status,
		"log_id", result.LogID,
	)
	return nil
}
