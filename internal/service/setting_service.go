package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"
)

// SiteSettings 站点信息（用于邮件占位符）
type SiteSettings struct {
	SiteName            string `json:"site_name"`
	SiteURL             string `json:"site_url"`
	UnsubscribeURL      string `json:"unsubscribe_url"`
	TrackingURLTemplate string `json:"tracking_url_template"` // 支持 {{trackingNumber}} 占位符
}

// SiteSettingsPatch 站点信息局部更新
type SiteSettingsPatch struct {
	SiteName            *string `json:"site_name"`
	SiteURL             *string `json:"site_url"`
	UnsubscribeURL      *string `json:"unsubscribe_url"`
	TrackingURLTemplate *string `json:"tracking_url_template"`
}

// SettingService 设置业务服务
type SettingService struct {
	repo     repository.SettingRepository
	defaults SiteSettings
}

// NewSettingService 创建设置服务，defaults 来自配置文件
func NewSettingService(repo repository.SettingRepository, defaults config.SiteConfig) *SettingService {
	return &SettingService{
		repo: repo,
		defaults: SiteSettings{
			SiteName:            defaults.Name,
			SiteURL:             defaults.URL,
			UnsubscribeURL:      defaults.UnsubscribeURL,
			TrackingURLTemplate: defaults.TrackingURLTemplate,
		},
	}
}

// GetSiteSettings 读取站点信息（数据库值覆盖配置默认值）
func (s *SettingService) GetSiteSettings() (SiteSettings, error) {
	result := s.defaults
	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		return result, err
	}
	if setting == nil {
		return result, nil
	}
	overlayString(setting.ValueJSON, "site_name", &result.SiteName)
	overlayString(setting.ValueJSON, "site_url", &result.SiteURL)
	overlayString(setting.ValueJSON, "unsubscribe_url", &result.UnsubscribeURL)
	overlayString(setting.ValueJSON, "tracking_url_template", &result.TrackingURLTemplate)
	return result, nil
}

// UpdateSiteSettings 局部更新站点信息
func (s *SettingService) UpdateSiteSettings(patch SiteSettingsPatch) (SiteSettings, error) {
	current, err := s.GetSiteSettings()
	if err != nil {
		return current, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&current.SiteName, patch.SiteName)
	apply(&current.SiteURL, patch.SiteURL)
	apply(&current.UnsubscribeURL, patch.UnsubscribeURL)
	apply(&current.TrackingURLTemplate, patch.TrackingURLTemplate)

	if err := validateSiteSettings(current); err != nil {
		return current, err
	}
	_, err = s.repo.Upsert(constants.SettingKeySiteConfig, models.JSON{
		"site_name":             current.SiteName,
		"site_url":              current.SiteURL,
		"unsubscribe_url":       current.UnsubscribeURL,
		"tracking_url_template": current.TrackingURLTemplate,
	})
	if err != nil {
		return current, err
	}
	return current, nil
}

func validateSiteSettings(settings SiteSettings) error {
	if settings.SiteName == "" {
		return fmt.Errorf("%w: site_name is required", ErrSiteConfigInvalid)
	}
	for field, raw := range map[string]string{
		"site_url":        settings.SiteURL,
		"unsubscribe_url": settings.UnsubscribeURL,
	} {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute url", ErrSiteConfigInvalid, field)
		}
	}
	return nil
}

func overlayString(values models.JSON, key string, dst *string) {
	if values == nil {
		return
	}
	raw, ok := values[key]
	if !ok || raw == nil {
		return
	}
	if text, ok := raw.(string); ok {
		*dst = strings.TrimSpace(text)
	}
}
