package provider

import (
	"time"

	"github.com/fulfil-next/internal/authz"
	"github.com/fulfil-next/internal/cache"
	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/queue"
	"github.com/fulfil-next/internal/repository"
	"github.com/fulfil-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OrderRepo         repository.OrderRepository
	PromoCodeRepo     repository.PromoCodeRepository
	EmailTemplateRepo repository.EmailTemplateRepository
	EmailLogRepo      repository.EmailLogRepository
	SettingRepo       repository.SettingRepository

	// Services
	AuthzService         *authz.Service
	SettingService       *service.SettingService
	EmailTemplateService *service.EmailTemplateService
	EmailDispatcher      *service.EmailDispatcher
	PromoCodeService     *service.PromoCodeService
	OrderNotifier        *service.OrderNotifier
	OrderService         *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PromoCodeRepo = repository.NewPromoCodeRepository(db)
	c.EmailTemplateRepo = repository.NewEmailTemplateRepository(db)
	c.EmailLogRepo = repository.NewEmailLogRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	emailCfg := c.Config.Email
	c.SettingService = service.NewSettingService(c.SettingRepo, c.Config.Site)
	c.EmailTemplateService = service.NewEmailTemplateService(c.EmailTemplateRepo, time.Duration(emailCfg.TemplateCacheSeconds)*time.Second)
	c.EmailDispatcher = service.NewEmailDispatcher(
		c.EmailTemplateService,
		service.NewSMTPTransport(&c.Config.Email),
		c.EmailLogRepo,
		service.DispatchOptions{
			Timeout:               emailCfg.SendTimeout(),
			SendInactiveTemplates: emailCfg.SendInactiveTemplates,
		},
	)
	c.PromoCodeService = service.NewPromoCodeService(c.PromoCodeRepo)

	var enqueuer service.EmailTaskEnqueuer
	if c.QueueClient != nil {
		enqueuer = c.QueueClient
	}
	c.OrderNotifier = service.NewOrderNotifier(c.EmailDispatcher, c.SettingService, enqueuer, emailCfg.Async)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.PromoCodeRepo,
		c.PromoCodeService,
		c.OrderNotifier,
		c.Config.Order.NumberPrefix,
		c.Config.Order.Currency,
	)
}

// Close 释放队列与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			firstErr = err
		}
	}
	if err := cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
