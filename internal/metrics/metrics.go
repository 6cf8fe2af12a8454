package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfil"

var (
	// EmailDispatchTotal 邮件投递次数（按模板与结果）
	EmailDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_dispatch_total",
		Help:      "Transactional email dispatch attempts by template and status.",
	}, []string{"template", "status"})

	// EmailDispatchDuration 单次投递耗时
	EmailDispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "email_dispatch_duration_seconds",
		Help:      "Time spent in the email transport per dispatch.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	// OrderTransitionTotal 订单状态流转次数
	OrderTransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transition_total",
		Help:      "Order status transitions by source, target and outcome.",
	}, []string{"from", "to", "result"})

	// PromoRedemptionTotal 优惠码核销结果
	PromoRedemptionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promo_redemption_total",
		Help:      "Promo code redemption attempts by outcome.",
	}, []string{"result"})

	// PromoValidationTotal 优惠码校验结果
	PromoValidationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promo_validation_total",
		Help:      "Promo code validations by outcome (ok or rejection reason).",
	}, []string{"result"})

	// RateLimitRejectedTotal 被限流拒绝的请求
	RateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejected_total",
		Help:      "Requests rejected by the fixed-window rate limiter, by rule.",
	}, []string{"rule"})
)

// Handler 指标暴露端点
func Handler() http.Handler {
	return promhttp.Handler()
}
