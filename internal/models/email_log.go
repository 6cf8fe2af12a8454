package models

import "time"

// EmailLog 邮件发送日志（只追加）
type EmailLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	To           string    `gorm:"column:to_address;size:255;not null" json:"to"`
	Subject      string    `gorm:"size:255;not null" json:"subject"`
	TemplateName *string   `gorm:"index;size:64" json:"template_name"` // 临时邮件为空
	OrderID      *uint     `gorm:"index" json:"order_id,omitempty"`
	Status       string    `gorm:"index;size:20;not null" json:"status"` // sent/failed
	Error        *string   `gorm:"type:text" json:"error"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (EmailLog) TableName() string {
	return "email_logs"
}
