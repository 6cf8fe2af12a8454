package router

import (
	"sort"
	"strings"

	"github.com/fulfil-next/internal/authz"
	"github.com/fulfil-next/internal/cache"
	"github.com/fulfil-next/internal/config"
	adminhandlers "github.com/fulfil-next/internal/http/handlers/admin"
	publichandlers "github.com/fulfil-next/internal/http/handlers/public"
	"github.com/fulfil-next/internal/http/response"
	"github.com/fulfil-next/internal/logger"
	"github.com/fulfil-next/internal/metrics"
	"github.com/fulfil-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	promoValidateRule := RateLimitRule{
		Name:          "promo_validate",
		Prefix:        cache.Key("rate", "promo_validate"),
		WindowSeconds: cfg.Security.PromoValidateRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.PromoValidateRateLimit.MaxRequests,
	}
	checkoutRule := RateLimitRule{
		Name:          "checkout",
		Prefix:        cache.Key("rate", "checkout"),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 店面公开接口
		public := apiV1.Group("/public")
		{
			public.POST("/promo-codes/validate", RateLimitMiddleware(redisClient, promoValidateRule, KeyByIP), publicHandler.ValidatePromoCode)
			public.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByIPAndJSONField("customer_email")), publicHandler.Checkout)
			public.GET("/orders/:order_no", publicHandler.GetOrderByNo)
		}

		// 支付网关回调
		webhooks := apiV1.Group("/webhooks")
		webhooks.Use(WebhookSecretMiddleware(cfg.Webhook.PaymentSecret))
		{
			webhooks.POST("/payments/confirm", publicHandler.ConfirmPaymentWebhook)
		}

		// 运营端接口
		admin := apiV1.Group("/admin")
		authorized := admin.Use(OperatorJWTAuthMiddleware(cfg.JWT), OperatorRBACMiddleware(c.AuthzService))
		{
			// 订单履约
			authorized.GET("/orders", adminHandler.AdminListOrders)
			authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
			authorized.POST("/orders/:id/confirm-payment", adminHandler.AdminConfirmPayment)
			authorized.POST("/orders/:id/processing", adminHandler.AdminStartProcessing)
			authorized.PUT("/orders/:id/tracking", adminHandler.AdminSetTracking)
			authorized.POST("/orders/:id/shipping-email", adminHandler.AdminSendShippingEmail)
			authorized.POST("/orders/:id/delivered", adminHandler.AdminMarkDelivered)
			authorized.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)

			// 优惠码
			authorized.GET("/promo-codes", adminHandler.ListPromoCodes)
			authorized.POST("/promo-codes", adminHandler.CreatePromoCode)
			authorized.GET("/promo-codes/:id", adminHandler.GetPromoCode)
			authorized.PUT("/promo-codes/:id", adminHandler.UpdatePromoCode)
			authorized.DELETE("/promo-codes/:id", adminHandler.DeletePromoCode)

			// 邮件模板与投递日志
			authorized.GET("/email-templates", adminHandler.ListEmailTemplates)
			authorized.GET("/email-templates/:name", adminHandler.GetEmailTemplate)
			authorized.PUT("/email-templates/:name", adminHandler.UpsertEmailTemplate)
			authorized.GET("/email-logs", adminHandler.ListEmailLogs)
			authorized.GET("/email-logs/stats", adminHandler.GetEmailStats)
			authorized.POST("/emails/test", adminHandler.SendTestEmail)

			// 站点设置
			authorized.GET("/settings/site", adminHandler.GetSiteSettings)
			authorized.PUT("/settings/site", adminHandler.UpdateSiteSettings)

			// 权限
			authorized.GET("/authz/me", adminHandler.GetAuthzMe)
			authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
			authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			authorized.POST("/authz/roles/:role/policies", adminHandler.GrantAuthzRolePolicy)
			authorized.DELETE("/authz/roles/:role/policies", adminHandler.RevokeAuthzRolePolicy)
			authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
