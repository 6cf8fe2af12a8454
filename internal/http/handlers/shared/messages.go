package shared

// messages 错误键到提示文案的映射
var messages = map[string]string{
	"error.bad_request":            "invalid request",
	"error.unauthorized":           "unauthorized",
	"error.forbidden":              "forbidden",
	"error.too_many_requests":      "too many requests, please retry later",
	"error.internal":               "internal server error",
	"error.webhook_secret_invalid": "webhook secret invalid",
	"error.operator_token_invalid": "operator token invalid or expired",

	"error.order_not_found":       "order not found",
	"error.order_id_invalid":      "order id invalid",
	"error.order_items_invalid":   "order items invalid",
	"error.order_status_invalid":  "order status does not allow this operation",
	"error.order_fetch_failed":    "failed to fetch orders",
	"error.order_create_failed":   "failed to create order",
	"error.order_update_failed":   "failed to update order",
	"error.customer_invalid":      "customer name, email and shipping address are required",
	"error.tracking_number_empty": "tracking number required",

	"error.promo_code_required":     "promo code required",
	"error.promo_code_not_found":    "promo code not found",
	"error.promo_code_inactive":     "promo code inactive",
	"error.promo_code_expired":      "promo code expired",
	"error.promo_code_exhausted":    "promo code usage limit reached",
	"error.promo_code_below_min":    "cart subtotal below promo code minimum",
	"error.promo_code_invalid":      "promo code invalid",
	"error.promo_code_exists":       "promo code already exists",
	"error.promo_code_in_use":       "promo code referenced by orders",
	"error.promo_code_fetch_failed": "failed to fetch promo codes",
	"error.promo_code_save_failed":  "failed to save promo code",

	"error.email_template_not_found":   "email template not found",
	"error.email_template_invalid":     "email template invalid",
	"error.email_template_save_failed": "failed to save email template",
	"error.email_invalid":              "invalid email address",
	"error.email_log_fetch_failed":     "failed to fetch email logs",
	"error.email_send_failed":          "failed to send email",
	"error.email_not_configured":       "email service not configured",

	"error.settings_invalid":      "site settings invalid",
	"error.settings_fetch_failed": "failed to fetch settings",
	"error.settings_save_failed":  "failed to save settings",

	"error.authz_policy_invalid": "role policy invalid",
	"error.authz_role_protected": "owner role policies cannot be changed",
}

// Message 返回错误键对应文案，未登记时原样返回键名
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
