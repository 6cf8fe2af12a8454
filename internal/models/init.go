package models

import (
	"errors"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/logger"

	"gorm.io/gorm"
)

// DefaultEmailTemplates 内置交易邮件模板
func DefaultEmailTemplates() []EmailTemplate {
	return []EmailTemplate{
		{
			Name:     constants.EmailTemplateOrderConfirmation,
			Subject:  "{{siteName}}: order #{{orderNumber}} confirmed",
			Body:     "Hi {{customerName}},\n\nwe received your payment for order #{{orderNumber}}.\nTotal: {{totalAmount}}\nShipping to: {{shippingAddress}}\n\n{{siteName}} - {{siteUrl}}\nUnsubscribe: {{unsubscribeUrl}}",
			IsActive: true,
		},
		{
			Name:     constants.EmailTemplateOrderShipped,
			Subject:  "{{siteName}}: order #{{orderNumber}} has shipped",
			Body:     "Hi {{customerName}},\n\nyour order #{{orderNumber}} is on its way.\nTracking number: {{trackingNumber}}\nTrack it here: {{trackingUrl}}\n\n{{siteName}} - {{siteUrl}}\nUnsubscribe: {{unsubscribeUrl}}",
			IsActive: true,
		},
		{
			Name:     constants.EmailTemplateOrderDelivered,
			Subject:  "{{siteName}}: order #{{orderNumber}} delivered",
			Body:     "Hi {{customerName}},\n\norder #{{orderNumber}} was delivered to {{shippingAddress}}.\nThanks for shopping with us!\n\n{{siteName}} - {{siteUrl}}\nUnsubscribe: {{unsubscribeUrl}}",
			IsActive: true,
		},
	}
}

// InitDefaultEmailTemplates 补齐缺失的内置模板，已存在的模板保持不变
func InitDefaultEmailTemplates() error {
	for _, tpl := range DefaultEmailTemplates() {
		var existing EmailTemplate
		err := DB.Where("name = ?", tpl.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record := tpl
		if err := DB.Create(&record).Error; err != nil {
			return err
		}
		logger.Infow("default_email_template_created", "name", record.Name)
	}
	return nil
}
