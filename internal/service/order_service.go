package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/metrics"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单生命周期服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	promoRepo    repository.PromoCodeRepository
	promoService *PromoCodeService
	notifier     *OrderNotifier
	numberPrefix string
	currency     string
	now          func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, promoRepo repository.PromoCodeRepository, promoService *PromoCodeService, notifier *OrderNotifier, numberPrefix, currency string) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		promoRepo:    promoRepo,
		promoService: promoService,
		notifier:     notifier,
		numberPrefix: strings.TrimSpace(numberPrefix),
		currency:     strings.ToUpper(strings.TrimSpace(currency)),
		now:          time.Now,
	}
}

// CheckoutItem 结算商品（价格由调用方快照）
type CheckoutItem struct {
	ProductRef string
	Title      string
	Quantity   int
	UnitPrice  models.Money
}

// CheckoutInput 结算输入
type CheckoutInput struct {
	Items           []CheckoutItem
	ShippingCost    models.Money
	PromoCode       string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
}

// CompleteCheckout 创建待支付订单：校验优惠码但不核销，不发送邮件
func (s *OrderService) CompleteCheckout(input CheckoutInput) (*models.Order, error) {
	customerEmail, err := normalizeCustomerEmail(input.CustomerEmail)
	if err != nil {
		return nil, err
	}
	customerName := strings.TrimSpace(input.CustomerName)
	address := strings.TrimSpace(input.ShippingAddress)
	if customerName == "" || address == "" {
		return nil, ErrCustomerInvalid
	}
	if input.ShippingCost.Decimal.IsNegative() {
		return nil, ErrOrderItemsInvalid
	}

	items, subtotal, err := buildOrderItems(input.Items)
	if err != nil {
		return nil, err
	}

	discount := models.NewMoneyFromDecimal(decimal.Zero)
	var promoCode *string
	if strings.TrimSpace(input.PromoCode) != "" {
		quote, err := s.promoService.Validate(input.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
		code := quote.Code
		promoCode = &code
	}

	now := s.now()
	order := &models.Order{
		OrderNo:         generateOrderNo(s.numberPrefix, now),
		Status:          constants.OrderStatusPending,
		Currency:        s.currency,
		Subtotal:        subtotal,
		ShippingCost:    models.NewMoneyFromDecimal(input.ShippingCost.Decimal),
		DiscountAmount:  discount,
		PromoCode:       promoCode,
		Total:           computeOrderTotal(subtotal, input.ShippingCost, discount),
		CustomerName:    customerName,
		CustomerEmail:   customerEmail,
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, items)
	}); err != nil {
		logger.Errorw("order_checkout_create_failed", "order_no", order.OrderNo, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	logger.Infow("order_checkout_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total", order.Total.String(),
		"promo_code", order.PromoCode,
	)
	return order, nil
}

// computeOrderTotal total = max(0, subtotal + shipping - discount)
func computeOrderTotal(subtotal, shipping, discount models.Money) models.Money {
	total := subtotal.Decimal.Add(shipping.Decimal).Sub(discount.Decimal)
	return models.NewMoneyFromDecimal(total).ClampNonNegative()
}

func buildOrderItems(input []CheckoutItem) ([]models.OrderItem, models.Money, error) {
	if len(input) == 0 {
		return nil, models.Money{}, ErrOrderItemsInvalid
	}
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input))
	for _, item := range input {
		ref := strings.TrimSpace(item.ProductRef)
		if ref == "" || item.Quantity <= 0 || item.UnitPrice.Decimal.IsNegative() {
			return nil, models.Money{}, ErrOrderItemsInvalid
		}
		unit := models.NewMoneyFromDecimal(item.UnitPrice.Decimal)
		line := models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		subtotal = subtotal.Add(line.Decimal)
		items = append(items, models.OrderItem{
			ProductRef: ref,
			Title:      strings.TrimSpace(item.Title),
			Quantity:   item.Quantity,
			UnitPrice:  unit,
			LineTotal:  line,
		})
	}
	return items, models.NewMoneyFromDecimal(subtotal), nil
}

// ConfirmPayment 支付确认：待支付 -> 已支付，同一事务内核销优惠码，之后发送确认邮件
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID uint) (*models.Order, error) {
	now := s.now()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := s.transition(orderRepo, orderID, constants.OrderStatusPaid, map[string]interface{}{
			"paid_at":    now,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if order.PromoCode != nil && *order.PromoCode != "" {
			if err := redeemPromo(s.promoRepo.WithTx(tx), *order.PromoCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logTransitionError(orderID, constants.OrderStatusPaid, err)
		return nil, err
	}
	order, err := s.loadOrder(s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, order, constants.EmailTemplateOrderConfirmation)
	return order, nil
}

// StartProcessing 已支付 -> 处理中
func (s *OrderService) StartProcessing(orderID uint) (*models.Order, error) {
	now := s.now()
	order, err := s.transition(s.orderRepo, orderID, constants.OrderStatusProcessing, map[string]interface{}{
		"updated_at": now,
	})
	if err != nil {
		s.logTransitionError(orderID, constants.OrderStatusProcessing, err)
		return nil, err
	}
	return order, nil
}

// SetTracking 录入运单号：已支付/处理中 -> 已发货；已发货订单仅更正运单号。不发送邮件。
func (s *OrderService) SetTracking(orderID uint, trackingNumber string) (*models.Order, error) {
	tracking := strings.TrimSpace(trackingNumber)
	if tracking == "" {
		return nil, ErrTrackingNumberEmpty
	}
	current, err := s.loadOrder(s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if current.Status == constants.OrderStatusShipped {
		ok, err := s.orderRepo.UpdateFieldsInStatus(orderID, constants.OrderStatusShipped, map[string]interface{}{
			"tracking_number": tracking,
			"updated_at":      now,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		if !ok {
			return nil, s.lostRace(s.orderRepo, orderID, constants.OrderStatusShipped)
		}
		logger.Infow("order_tracking_corrected", "order_id", orderID, "tracking_number", tracking)
		return s.loadOrder(s.orderRepo, orderID)
	}
	order, err := s.transition(s.orderRepo, orderID, constants.OrderStatusShipped, map[string]interface{}{
		"tracking_number": tracking,
		"shipped_at":      now,
		"updated_at":      now,
	})
	if err != nil {
		s.logTransitionError(orderID, constants.OrderStatusShipped, err)
		return nil, err
	}
	return order, nil
}

// SendShippingEmail 手动发送发货通知，要求已发货且有运单号，不改变状态
func (s *OrderService) SendShippingEmail(ctx context.Context, orderID uint) (*models.Order, NotifyOutcome, error) {
	order, err := s.loadOrder(s.orderRepo, orderID)
	if err != nil {
		return nil, NotifyOutcome{}, err
	}
	if order.Status != constants.OrderStatusShipped {
		return nil, NotifyOutcome{}, &InvalidTransitionError{Current: order.Status, Requested: constants.OrderStatusShipped}
	}
	if strings.TrimSpace(order.TrackingNumber) == "" {
		return nil, NotifyOutcome{}, ErrTrackingNumberEmpty
	}
	outcome, err := s.notifier.Notify(ctx, order, constants.EmailTemplateOrderShipped)
	if err != nil {
		return nil, NotifyOutcome{}, err
	}
	if outcome.Delivered() {
		now := s.now()
		stamped, err := s.orderRepo.UpdateFieldsInStatus(orderID, constants.OrderStatusShipped, map[string]interface{}{
			"shipping_notified_at": now,
			"updated_at":           now,
		})
		if err != nil {
			return nil, outcome, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		if stamped {
			order.ShippingNotifiedAt = &now
			order.UpdatedAt = now
		} else {
			// 发信期间订单已离开 shipped
			logger.Warnw("order_shipping_notified_stamp_missed", "order_id", orderID, "order_no", order.OrderNo)
		}
	}
	return order, outcome, nil
}

// MarkDelivered 已发货 -> 已送达，并发送送达邮件
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uint) (*models.Order, error) {
	now := s.now()
	order, err := s.transition(s.orderRepo, orderID, constants.OrderStatusDelivered, map[string]interface{}{
		"delivered_at": now,
		"updated_at":   now,
	})
	if err != nil {
		s.logTransitionError(orderID, constants.OrderStatusDelivered, err)
		return nil, err
	}
	s.notify(ctx, order, constants.EmailTemplateOrderDelivered)
	return order, nil
}

// Cancel 取消订单（任意非终态），已核销的优惠码不回退
func (s *OrderService) Cancel(orderID uint, reason string) (*models.Order, error) {
	now := s.now()
	order, err := s.transition(s.orderRepo, orderID, constants.OrderStatusCancelled, map[string]interface{}{
		"cancel_reason": strings.TrimSpace(reason),
		"cancelled_at":  now,
		"updated_at":    now,
	})
	if err != nil {
		s.logTransitionError(orderID, constants.OrderStatusCancelled, err)
		return nil, err
	}
	return order, nil
}

// transition 读取当前状态并做条件更新，竞争失败时按最新状态返回非法流转
func (s *OrderService) transition(repo repository.OrderRepository, orderID uint, to string, updates map[string]interface{}) (*models.Order, error) {
	order, err := s.loadOrder(repo, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := checkTransition(from, to); err != nil {
		metrics.OrderTransitionTotal.WithLabelValues(from, to, "rejected").Inc()
		return nil, err
	}
	ok, err := repo.TransitionStatus(orderID, from, to, updates)
	if err != nil {
		metrics.OrderTransitionTotal.WithLabelValues(from, to, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !ok {
		metrics.OrderTransitionTotal.WithLabelValues(from, to, "conflict").Inc()
		return nil, s.lostRace(repo, orderID, to)
	}
	metrics.OrderTransitionTotal.WithLabelValues(from, to, "ok").Inc()
	logger.Infow("order_status_transitioned", "order_id", orderID, "order_no", order.OrderNo, "from", from, "to", to)
	return s.loadOrder(repo, orderID)
}

func (s *OrderService) lostRace(repo repository.OrderRepository, orderID uint, requested string) error {
	latest, err := s.loadOrder(repo, orderID)
	if err != nil {
		return err
	}
	return &InvalidTransitionError{Current: latest.Status, Requested: requested}
}

func (s *OrderService) loadOrder(repo repository.OrderRepository, orderID uint) (*models.Order, error) {
	order, err := repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// notify 发送订单邮件，投递失败不影响状态流转
func (s *OrderService) notify(ctx context.Context, order *models.Order, templateName string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, order, templateName); err != nil {
		logger.Errorw("order_email_notify_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"template", templateName,
			"error", err,
		)
	}
}

func (s *OrderService) logTransitionError(orderID uint, to string, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		logger.Warnw("order_status_transition_rejected", "order_id", orderID, "current", invalid.Current, "requested", invalid.Requested)
	case errors.Is(err, ErrOrderNotFound):
		logger.Debugw("order_status_transition_order_not_found", "order_id", orderID, "requested", to)
	case errors.Is(err, ErrPromoCodeExhausted):
		logger.Warnw("order_payment_promo_exhausted", "order_id", orderID)
	default:
		logger.Errorw("order_status_transition_failed", "order_id", orderID, "requested", to, "error", err)
	}
}

// Get 获取订单
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	return s.loadOrder(s.orderRepo, orderID)
}

// GetByOrderNoAndEmail 顾客按订单号与邮箱查询
func (s *OrderService) GetByOrderNoAndEmail(orderNo, email string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	normalized := strings.ToLower(strings.TrimSpace(email))
	if orderNo == "" || normalized == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || order.CustomerEmail != normalized {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByOrderNo 按订单号查询（支付回调使用）
func (s *OrderService) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 后台订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

func normalizeCustomerEmail(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", ErrCustomerInvalid
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func generateOrderNo(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%s%s", prefix, now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
