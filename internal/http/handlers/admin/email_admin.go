package admin

import (
	"net/mail"
	"strconv"
	"strings"

	handlershared "github.com/fulfil-next/internal/http/handlers/shared"
	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/repository"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
)

// EmailTemplateRequest 模板写入请求
type EmailTemplateRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Body     string `json:"body" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// TestEmailRequest 测试邮件请求
type TestEmailRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ListEmailTemplates 模板列表
func (h *Handler) ListEmailTemplates(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	templates, err := h.EmailTemplateService.List(includeInactive)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, templates)
}

// GetEmailTemplate 模板详情
func (h *Handler) GetEmailTemplate(c *gin.Context) {
	tpl, err := h.EmailTemplateService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondWithMappedError(c, err, emailErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, tpl)
}

// UpsertEmailTemplate 新建或更新模板
func (h *Handler) UpsertEmailTemplate(c *gin.Context) {
	var req EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.email_template_invalid", nil)
		return
	}
	tpl, err := h.EmailTemplateService.Upsert(c.Request.Context(), c.Param("name"), service.UpsertEmailTemplateInput{
		Subject:  req.Subject,
		Body:     req.Body,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithMappedError(c, err, emailErrorRules, response.CodeInternal, "error.email_template_save_failed")
		return
	}
	requestLog(c).Infow("admin_email_template_saved", "name", tpl.Name, "operator", c.GetString("operator"))
	response.Success(c, tpl)
}

// ListEmailLogs 投递日志列表
func (h *Handler) ListEmailLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	var orderID uint
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
			return
		}
		orderID = uint(parsed)
	}

	logs, total, err := h.EmailDispatcher.ListLogs(repository.EmailLogListFilter{
		Page:         page,
		PageSize:     pageSize,
		Status:       strings.TrimSpace(c.Query("status")),
		TemplateName: strings.TrimSpace(c.Query("template_name")),
		To:           strings.TrimSpace(c.Query("to")),
		OrderID:      orderID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.email_log_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, handlershared.BuildPagination(page, pageSize, total))
}

// GetEmailStats 投递统计
func (h *Handler) GetEmailStats(c *gin.Context) {
	stats, err := h.EmailDispatcher.Stats()
	if err != nil {
		respondError(c, response.CodeInternal, "error.email_log_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// SendTestEmail 发送测试邮件，结果写入投递日志
func (h *Handler) SendTestEmail(c *gin.Context) {
	var req TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	to := strings.TrimSpace(req.To)
	if _, err := mail.ParseAddress(to); err != nil {
		respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
		return
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Test email"
	}
	body := req.Body
	if strings.TrimSpace(body) == "" {
		body = "This is a test email."
	}
	result, err := h.EmailDispatcher.SendAdHoc(c.Request.Context(), to, subject, body)
	if err != nil {
		respondError(c, response.CodeInternal, "error.email_send_failed", err)
		return
	}
	response.Success(c, result)
}
