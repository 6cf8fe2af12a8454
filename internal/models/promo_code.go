package models

import (
	"time"
)

// PromoCode 优惠码
type PromoCode struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Code         string     `gorm:"uniqueIndex;size:64;not null" json:"code"`                       // 优惠码（统一大写）
	DiscountType string     `gorm:"size:20;not null" json:"discount_type"`                          // percentage/fixed
	Value        Money      `gorm:"type:decimal(20,2);not null" json:"value"`                       // 折扣值
	MinPurchase  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"min_purchase"`      // 最低消费（小计口径）
	MaxUses      *int       `json:"max_uses"`                                                       // 最大使用次数，nil 为不限
	UsedCount    int        `gorm:"not null;default:0" json:"used_count"`                           // 已核销次数
	Active       bool       `gorm:"not null" json:"active"`                                         // 是否启用
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at"`                                        // 过期时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (PromoCode) TableName() string {
	return "promo_codes"
}

// Remaining 剩余可用次数，-1 表示不限
func (p *PromoCode) Remaining() int {
	if p == nil || p.MaxUses == nil {
		return -1
	}
	left := *p.MaxUses - p.UsedCount
	if left < 0 {
		return 0
	}
	return left
}
