package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/queue"
	"github.com/fulfil-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

// stubTransport 记录发送内容，可注入错误或延迟
type stubTransport struct {
	mu     sync.Mutex
	sent   []EmailMessage
	err    error
	delay  time.Duration
	calls  int
	onSend func()
}

func (s *stubTransport) Send(ctx context.Context, msg EmailMessage) error {
	s.mu.Lock()
	s.calls++
	hook := s.onSend
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubEnqueuer 模拟队列客户端
type stubEnqueuer struct {
	enabled  bool
	err      error
	payloads []queue.EmailDispatchPayload
}

func (s *stubEnqueuer) Enabled() bool { return s.enabled }

func (s *stubEnqueuer) EnqueueEmailDispatch(payload queue.EmailDispatchPayload, _ ...asynq.Option) error {
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

// failingEmailLogRepo 日志写入总是失败
type failingEmailLogRepo struct {
	repository.EmailLogRepository
}

func (failingEmailLogRepo) Create(*models.EmailLog) error {
	return errors.New("disk full")
}

type serviceTestEnv struct {
	db         *gorm.DB
	transport  *stubTransport
	templates  *EmailTemplateService
	dispatcher *EmailDispatcher
	settings   *SettingService
	promos     *PromoCodeService
	orders     *OrderService
	orderRepo  *repository.GormOrderRepository
	promoRepo  *repository.GormPromoCodeRepository
	logRepo    *repository.GormEmailLogRepository
}

func newServiceTestEnv(t *testing.T, opts DispatchOptions) *serviceTestEnv {
	t.Helper()
	db := openServiceTestDB(t)
	if err := models.InitDefaultEmailTemplates(); err != nil {
		t.Fatalf("seed templates failed: %v", err)
	}
	env := &serviceTestEnv{
		db:        db,
		transport: &stubTransport{},
		orderRepo: repository.NewOrderRepository(db),
		promoRepo: repository.NewPromoCodeRepository(db),
		logRepo:   repository.NewEmailLogRepository(db),
	}
	env.templates = NewEmailTemplateService(repository.NewEmailTemplateRepository(db), time.Minute)
	env.dispatcher = NewEmailDispatcher(env.templates, env.transport, env.logRepo, opts)
	env.settings = NewSettingService(repository.NewSettingRepository(db), config.SiteConfig{
		Name:                "Bottega",
		URL:                 "https://shop.example.com",
		UnsubscribeURL:      "https://shop.example.com/unsubscribe",
		TrackingURLTemplate: "https://track.example.com/{{trackingNumber}}",
	})
	env.promos = NewPromoCodeService(env.promoRepo)
	notifier := NewOrderNotifier(env.dispatcher, env.settings, nil, false)
	env.orders = NewOrderService(env.orderRepo, env.promoRepo, env.promos, notifier, "OF", "EUR")
	return env
}

func (e *serviceTestEnv) createPromo(t *testing.T, promo models.PromoCode) *models.PromoCode {
	t.Helper()
	if err := e.db.Create(&promo).Error; err != nil {
		t.Fatalf("create promo failed: %v", err)
	}
	return &promo
}

func (e *serviceTestEnv) checkout(t *testing.T, subtotal string, code string) *models.Order {
	t.Helper()
	order, err := e.orders.CompleteCheckout(CheckoutInput{
		Items: []CheckoutItem{
			{ProductRef: "SKU-1", Title: "Moka", Quantity: 1, UnitPrice: models.MustMoney(subtotal)},
		},
		ShippingCost:    models.MustMoney("4.90"),
		PromoCode:       code,
		CustomerName:    "Mario Rossi",
		CustomerEmail:   "Mario@Example.com",
		ShippingAddress: "Via Roma 1, Milano",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func (e *serviceTestEnv) emailLogs(t *testing.T) []models.EmailLog {
	t.Helper()
	var logs []models.EmailLog
	if err := e.db.Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load email logs failed: %v", err)
	}
	return logs
}

func (e *serviceTestEnv) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := e.orderRepo.GetByID(id)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order
}

func (e *serviceTestEnv) setTemplateActive(t *testing.T, name string, active bool) {
	t.Helper()
	if err := e.db.Model(&models.EmailTemplate{}).Where("name = ?", name).Update("is_active", active).Error; err != nil {
		t.Fatalf("update template failed: %v", err)
	}
}

func intPtr(v int) *int {
	return &v
}
