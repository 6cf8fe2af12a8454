package service

import (
	"context"
	"fmt"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/queue"

	"github.com/hibiken/asynq"
)

// EmailTaskEnqueuer 邮件任务入队接口（由 queue.Client 实现）
type EmailTaskEnqueuer interface {
	Enabled() bool
	EnqueueEmailDispatch(payload queue.EmailDispatchPayload, opts ...asynq.Option) error
}

// OrderNotifier 订单邮件通知：组装占位符变量并同步投递或异步入队
type OrderNotifier struct {
	dispatcher *EmailDispatcher
	settings   *SettingService
	queue      EmailTaskEnqueuer
	async      bool
}

// NewOrderNotifier 创建订单通知器，async 为 true 且队列可用时异步投递
func NewOrderNotifier(dispatcher *EmailDispatcher, settings *SettingService, queueClient EmailTaskEnqueuer, async bool) *OrderNotifier {
	return &OrderNotifier{
		dispatcher: dispatcher,
		settings:   settings,
		queue:      queueClient,
		async:      async,
	}
}

// NotifyOutcome 通知结果，Queued 为 true 时 Result 为空
type NotifyOutcome struct {
	Queued bool
	Result *DispatchResult
}

// Delivered 已投递成功或已入队
func (o NotifyOutcome) Delivered() bool {
	return o.Queued || o.Result.Sent()
}

// Notify 发送订单模板邮件。投递失败体现在结果中，仅日志写入失败返回 error。
func (n *OrderNotifier) Notify(ctx context.Context, order *models.Order, templateName string) (NotifyOutcome, error) {
	if n == nil || n.dispatcher == nil || order == nil {
		return NotifyOutcome{}, ErrEmailServiceNotConfigured
	}
	variables := n.BuildOrderVariables(order)

	if n.async && n.queue != nil && n.queue.Enabled() {
		err := n.queue.EnqueueEmailDispatch(queue.EmailDispatchPayload{
			TemplateName: templateName,
			Recipient:    order.CustomerEmail,
			Variables:    variables,
			OrderID:      order.ID,
		})
		if err == nil {
			logger.Debugw("order_email_enqueued", "order_id", order.ID, "template", templateName)
			return NotifyOutcome{Queued: true}, nil
		}
		logger.Warnw("order_email_enqueue_failed_fallback_sync",
			"order_id", order.ID,
			"template", templateName,
			"error", err,
		)
	}

	orderID := order.ID
	result, err := n.dispatcher.Dispatch(ctx, DispatchRequest{
		TemplateName: templateName,
		Recipient:    order.CustomerEmail,
		Variables:    variables,
		OrderID:      &orderID,
	})
	if err != nil {
		return NotifyOutcome{}, err
	}
	return NotifyOutcome{Result: result}, nil
}

// BuildOrderVariables 组装模板占位符变量
func (n *OrderNotifier) BuildOrderVariables(order *models.Order) map[string]string {
	vars := TemplateVariables{}
	vars.Set(constants.PlaceholderCustomerName, order.CustomerName)
	vars.Set(constants.PlaceholderOrderNumber, order.OrderNo)
	vars.Set(constants.PlaceholderTotalAmount, formatAmount(order.Total, order.Currency))
	vars.Set(constants.PlaceholderTrackingNumber, order.TrackingNumber)
	vars.Set(constants.PlaceholderShippingAddress, order.ShippingAddress)

	var site SiteSettings
	if n != nil && n.settings != nil {
		loaded, err := n.settings.GetSiteSettings()
		if err != nil {
			logger.Warnw("order_email_site_settings_load_failed", "order_id", order.ID, "error", err)
		}
		site = loaded
	}
	vars.Set(constants.PlaceholderSiteName, site.SiteName)
	vars.Set(constants.PlaceholderSiteURL, site.SiteURL)
	vars.Set(constants.PlaceholderUnsubscribeURL, site.UnsubscribeURL)

	trackingURL := ""
	if order.TrackingNumber != "" && site.TrackingURLTemplate != "" {
		trackingURL = RenderPlaceholders(site.TrackingURLTemplate, map[string]string{
			constants.PlaceholderTrackingNumber: order.TrackingNumber,
			constants.PlaceholderOrderNumber:    order.OrderNo,
		})
	}
	vars.Set(constants.PlaceholderTrackingURL, trackingURL)
	return vars
}

func formatAmount(amount models.Money, currency string) string {
	if currency == "" {
		return amount.String()
	}
	return fmt.Sprintf("%s %s", amount.String(), currency)
}
