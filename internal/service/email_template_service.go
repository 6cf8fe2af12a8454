package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fulfil-next/internal/cache"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"
)

var templateNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// EmailTemplateService 邮件模板存储
type EmailTemplateService struct {
	repo     repository.EmailTemplateRepository
	cacheTTL time.Duration
}

// NewEmailTemplateService 创建模板服务
func NewEmailTemplateService(repo repository.EmailTemplateRepository, cacheTTL time.Duration) *EmailTemplateService {
	return &EmailTemplateService{repo: repo, cacheTTL: cacheTTL}
}

// UpsertEmailTemplateInput 模板写入参数
type UpsertEmailTemplateInput struct {
	Subject  string
	Body     string
	IsActive *bool
}

// Get 按名称获取模板（含停用模板），优先读缓存
func (s *EmailTemplateService) Get(ctx context.Context, name string) (*models.EmailTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmailTemplateNotFound
	}
	if cached, hit, err := cache.GetEmailTemplate(ctx, name); err != nil {
		logger.Warnw("email_template_cache_get_failed", "name", name, "error", err)
	} else if hit {
		return cached, nil
	}

	tpl, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrEmailTemplateNotFound
	}
	if err := cache.SetEmailTemplate(ctx, tpl, s.cacheTTL); err != nil {
		logger.Warnw("email_template_cache_set_failed", "name", name, "error", err)
	}
	return tpl, nil
}

// List 后台模板列表，默认隐藏停用模板
func (s *EmailTemplateService) List(includeInactive bool) ([]models.EmailTemplate, error) {
	return s.repo.List(repository.EmailTemplateListFilter{IncludeInactive: includeInactive})
}

// Upsert 新建或更新模板
func (s *EmailTemplateService) Upsert(ctx context.Context, name string, input UpsertEmailTemplateInput) (*models.EmailTemplate, error) {
	name = strings.TrimSpace(name)
	if !templateNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: name must match %s", ErrEmailTemplateInvalid, templateNamePattern.String())
	}
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrEmailTemplateInvalid)
	}

	tpl, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		tpl = &models.EmailTemplate{Name: name, IsActive: true}
	}
	tpl.Subject = subject
	tpl.Body = body
	if input.IsActive != nil {
		tpl.IsActive = *input.IsActive
	}
	if err := s.repo.Save(tpl); err != nil {
		return nil, err
	}
	if err := cache.InvalidateEmailTemplate(ctx, name); err != nil {
		logger.Warnw("email_template_cache_invalidate_failed", "name", name, "error", err)
	}
	return tpl, nil
}
