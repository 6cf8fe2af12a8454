package repository

import "time"

// OrderListFilter 订单列表过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	Status        string
	CustomerEmail string
	Keyword       string // 订单号/邮箱/姓名模糊匹配
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// PromoCodeListFilter 优惠码列表过滤条件
type PromoCodeListFilter struct {
	Page     int
	PageSize int
	Code     string
	Active   *bool
}

// EmailLogListFilter 邮件日志过滤条件
type EmailLogListFilter struct {
	Page         int
	PageSize     int
	Status       string
	TemplateName string
	To           string
	OrderID      uint
}

// EmailTemplateListFilter 邮件模板过滤条件
type EmailTemplateListFilter struct {
	IncludeInactive bool
}

// EmailLogStats 邮件投递统计
type EmailLogStats struct {
	Total  int64 `json:"total"`
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}
