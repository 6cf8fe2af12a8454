package models

import (
	"time"
)

// Order 订单
type Order struct {
	ID                 uint        `gorm:"primarykey" json:"id"`
	OrderNo            string      `gorm:"uniqueIndex;size:32;not null" json:"order_no"`           // 对外订单号
	Status             string      `gorm:"index;size:20;not null" json:"status"`                   // 订单状态
	Currency           string      `gorm:"size:10;not null" json:"currency"`                       // 币种
	Subtotal           Money       `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`  // 商品小计
	ShippingCost       Money       `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`
	DiscountAmount     Money       `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`
	PromoCode          *string     `gorm:"index;size:64" json:"promo_code,omitempty"` // 使用的优惠码
	Total              Money       `gorm:"type:decimal(20,2);not null;default:0" json:"total"`
	CustomerName       string      `gorm:"size:128;not null" json:"customer_name"`
	CustomerEmail      string      `gorm:"index;size:255;not null" json:"customer_email"`
	ShippingAddress    string      `gorm:"type:text;not null" json:"shipping_address"`
	TrackingNumber     string      `gorm:"size:128" json:"tracking_number,omitempty"`
	CancelReason       string      `gorm:"size:255" json:"cancel_reason,omitempty"`
	PaidAt             *time.Time  `gorm:"index" json:"paid_at,omitempty"`
	ShippedAt          *time.Time  `json:"shipped_at,omitempty"`
	ShippingNotifiedAt *time.Time  `json:"shipping_notified_at,omitempty"` // 发货邮件发送时间
	DeliveredAt        *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	Items              []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
