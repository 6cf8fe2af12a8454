package cache

import (
	"context"
	"time"

	"github.com/fulfil-next/internal/models"
)

const defaultEmailTemplateTTL = 5 * time.Minute

func emailTemplateKey(name string) string {
	return "email_template:" + name
}

// GetEmailTemplate 读取模板缓存
func GetEmailTemplate(ctx context.Context, name string) (*models.EmailTemplate, bool, error) {
	var tpl models.EmailTemplate
	hit, err := GetJSON(ctx, emailTemplateKey(name), &tpl)
	if err != nil || !hit {
		return nil, false, err
	}
	return &tpl, true, nil
}

// SetEmailTemplate 写入模板缓存，ttl 非正数时使用默认值
func SetEmailTemplate(ctx context.Context, tpl *models.EmailTemplate, ttl time.Duration) error {
	if tpl == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultEmailTemplateTTL
	}
	return SetJSON(ctx, emailTemplateKey(tpl.Name), tpl, ttl)
}

// InvalidateEmailTemplate 模板变更后删除缓存
func InvalidateEmailTemplate(ctx context.Context, name string) error {
	return Del(ctx, emailTemplateKey(name))
}
