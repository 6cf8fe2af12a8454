package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/metrics"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"
)

const adHocTemplateLabel = "ad_hoc"

// DispatchOptions 投递策略
type DispatchOptions struct {
	Timeout               time.Duration // 单次投递超时
	SendInactiveTemplates bool          // 停用模板是否仍然发送
}

// DispatchRequest 模板投递请求
type DispatchRequest struct {
	TemplateName string
	Recipient    string
	Variables    map[string]string
	OrderID      *uint
}

// DispatchResult 投递结果，传输失败体现在 Status 与 Error 上而非返回 error
type DispatchResult struct {
	LogID   uint   `json:"log_id"`
	Status  string `json:"status"`
	Subject string `json:"subject"`
	Error   string `json:"error,omitempty"`
}

// Sent 是否投递成功
func (r *DispatchResult) Sent() bool {
	return r != nil && r.Status == constants.EmailLogStatusSent
}

// EmailDispatcher 交易邮件投递
type EmailDispatcher struct {
	templates *EmailTemplateService
	transport EmailTransport
	logRepo   repository.EmailLogRepository
	opts      DispatchOptions
}

// NewEmailDispatcher 创建投递器
func NewEmailDispatcher(templates *EmailTemplateService, transport EmailTransport, logRepo repository.EmailLogRepository, opts DispatchOptions) *EmailDispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &EmailDispatcher{
		templates: templates,
		transport: transport,
		logRepo:   logRepo,
		opts:      opts,
	}
}

// Dispatch 渲染模板并投递，每次调用恰好写入一条日志。
// 仅日志写入失败会返回 error。
func (d *EmailDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	name := strings.TrimSpace(req.TemplateName)
	entry := &models.EmailLog{
		To:           strings.TrimSpace(req.Recipient),
		TemplateName: &name,
		OrderID:      req.OrderID,
	}

	tpl, err := d.templates.Get(ctx, name)
	switch {
	case errors.Is(err, ErrEmailTemplateNotFound):
		entry.Subject = name
		return d.record(entry, name, ErrEmailTemplateNotFound)
	case err != nil:
		// 模板读取失败同样记录为失败投递，不阻断业务
		entry.Subject = name
		return d.record(entry, name, fmt.Errorf("load template: %w", err))
	}

	subject := RenderPlaceholders(tpl.Subject, req.Variables)
	body := RenderPlaceholders(tpl.Body, req.Variables)
	entry.Subject = subject

	if !tpl.IsActive && !d.opts.SendInactiveTemplates {
		return d.record(entry, name, ErrEmailTemplateInactive)
	}
	return d.deliver(ctx, entry, name, EmailMessage{To: entry.To, Subject: subject, Body: body})
}

// SendAdHoc 发送不依赖模板的邮件（如后台测试邮件）
func (d *EmailDispatcher) SendAdHoc(ctx context.Context, recipient, subject, body string) (*DispatchResult, error) {
	entry := &models.EmailLog{
		To:      strings.TrimSpace(recipient),
		Subject: strings.TrimSpace(subject),
	}
	return d.deliver(ctx, entry, adHocTemplateLabel, EmailMessage{To: entry.To, Subject: entry.Subject, Body: body})
}

func (d *EmailDispatcher) deliver(ctx context.Context, entry *models.EmailLog, label string, msg EmailMessage) (*DispatchResult, error) {
	sendCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	sendErr := d.safeSend(sendCtx, msg)
	status := constants.EmailLogStatusSent
	if sendErr != nil {
		status = constants.EmailLogStatusFailed
	}
	metrics.EmailDispatchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return d.record(entry, label, sendErr)
}

// safeSend 隔离传输层 panic，传输异常一律视为投递失败
func (d *EmailDispatcher) safeSend(ctx context.Context, msg EmailMessage) (err error) {
	if d.transport == nil {
		return ErrEmailServiceNotConfigured
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("email transport panic: %v", r)
		}
	}()
	return d.transport.Send(ctx, msg)
}

func (d *EmailDispatcher) record(entry *models.EmailLog, label string, sendErr error) (*DispatchResult, error) {
	entry.Status = constants.EmailLogStatusSent
	if sendErr != nil {
		entry.Status = constants.EmailLogStatusFailed
		text := sendErr.Error()
		entry.Error = &text
		logger.Warnw("email_dispatch_failed",
			"template", label,
			"to", entry.To,
			"order_id", entry.OrderID,
			"error", sendErr,
		)
	}
	metrics.EmailDispatchTotal.WithLabelValues(label, entry.Status).Inc()

	if err := d.logRepo.Create(entry); err != nil {
		logger.Errorw("email_log_write_failed", "template", label, "to", entry.To, "status", entry.Status, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrEmailLogWriteFailed, err)
	}
	result := &DispatchResult{
		LogID:   entry.ID,
		Status:  entry.Status,
		Subject: entry.Subject,
	}
	if entry.Error != nil {
		result.Error = *entry.Error
	}
	return result, nil
}

// Stats 投递统计
func (d *EmailDispatcher) Stats() (repository.EmailLogStats, error) {
	return d.logRepo.Stats()
}

// ListLogs 投递日志列表
func (d *EmailDispatcher) ListLogs(filter repository.EmailLogListFilter) ([]models.EmailLog, int64, error) {
	return d.logRepo.List(filter)
}
