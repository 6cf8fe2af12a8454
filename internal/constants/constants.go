package constants

// 订单状态
const (
	OrderStatusPending    = "pending"    // 待支付
	OrderStatusPaid       = "paid"       // 已支付
	OrderStatusProcessing = "processing" // 处理中
	OrderStatusShipped    = "shipped"    // 已发货
	OrderStatusDelivered  = "delivered"  // 已送达
	OrderStatusCancelled  = "cancelled"  // 已取消
)

// 优惠码类型
const (
	DiscountTypePercentage = "percentage" // 百分比折扣
	DiscountTypeFixed      = "fixed"      // 固定金额
)

// 优惠码拒绝原因
const (
	PromoRejectNotFound     = "not_found"
	PromoRejectInactive     = "inactive"
	PromoRejectExpired      = "expired"
	PromoRejectExhausted    = "exhausted"
	PromoRejectBelowMinimum = "below_minimum"
)

// 邮件日志状态
const (
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// 内置邮件模板
const (
	EmailTemplateOrderConfirmation = "order_confirmation" // 下单确认
	EmailTemplateOrderShipped      = "order_shipped"      // 发货通知
	EmailTemplateOrderDelivered    = "order_delivered"    // 送达通知
)

// 模板占位符
const (
	PlaceholderCustomerName    = "customerName"
	PlaceholderOrderNumber     = "orderNumber"
	PlaceholderTotalAmount     = "totalAmount"
	PlaceholderTrackingNumber  = "trackingNumber"
	PlaceholderTrackingURL     = "trackingUrl"
	PlaceholderShippingAddress = "shippingAddress"
	PlaceholderSiteName        = "siteName"
	PlaceholderSiteURL         = "siteUrl"
	PlaceholderUnsubscribeURL  = "unsubscribeUrl"
)

// 设置键
const (
	SettingKeySiteConfig = "site_config" // 站点配置
)

// 队列
const (
	QueueDefault       = "default"
	TaskEmailDispatch  = "email:dispatch"
	RedisPrefixDefault = "of"
)

// 运营角色
const (
	OperatorRoleViewer      = "viewer"
	OperatorRoleFulfillment = "fulfillment"
	OperatorRoleMarketing   = "marketing"
	OperatorRoleOwner       = "owner"
)
