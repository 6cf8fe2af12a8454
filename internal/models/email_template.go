package models

import "time"

// EmailTemplate 邮件模板
type EmailTemplate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Subject   string    `gorm:"size:255;not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	IsActive  bool      `gorm:"not null" json:"is_active"` // 仅影响后台展示，发送策略见 email.send_inactive_templates
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (EmailTemplate) TableName() string {
	return "email_templates"
}
