package models

import "time"

// OrderItem 订单项（下单时价格快照）
type OrderItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	OrderID    uint      `gorm:"index;not null" json:"order_id"`
	ProductRef string    `gorm:"size:128;not null" json:"product_ref"` // 商品引用（目录服务维护）
	Title      string    `gorm:"size:255" json:"title,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	LineTotal  Money     `gorm:"type:decimal(20,2);not null" json:"line_total"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
