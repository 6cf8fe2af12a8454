package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fulfil-next/internal/authz"
	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/models"
	"github.com/fulfil-next/internal/provider"
	"github.com/fulfil-next/internal/repository"
	"github.com/fulfil-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type switchableTransport struct {
	mu   sync.Mutex
	fail bool
	sent []service.EmailMessage
}

func (s *switchableTransport) Send(_ context.Context, msg service.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp: connection refused")
	}
	s.sent = append(s.sent, msg)
	return nil
}

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type adminTestEnv struct {
	h         *Handler
	db        *gorm.DB
	transport *switchableTransport
	router    *gin.Engine
}

func setupAdminHandlerTest(t *testing.T) *adminTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_handler_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
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
	if err := models.InitDefaultEmailTemplates(); err != nil {
		t.Fatalf("seed templates failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	transport := &switchableTransport{}
	c := &provider.Container{
		Config:            &config.Config{},
		OrderRepo:         repository.NewOrderRepository(db),
		PromoCodeRepo:     repository.NewPromoCodeRepository(db),
		EmailTemplateRepo: repository.NewEmailTemplateRepository(db),
		EmailLogRepo:      repository.NewEmailLogRepository(db),
		SettingRepo:       repository.NewSettingRepository(db),
		AuthzService:      authzService,
	}
	c.SettingService = service.NewSettingService(c.SettingRepo, config.SiteConfig{
		Name:                "Bottega",
		URL:                 "https://shop.example.com",
		TrackingURLTemplate: "https://track.example.com/{{trackingNumber}}",
	})
	c.EmailTemplateService = service.NewEmailTemplateService(c.EmailTemplateRepo, time.Minute)
	c.EmailDispatcher = service.NewEmailDispatcher(c.EmailTemplateService, transport, c.EmailLogRepo, service.DispatchOptions{
		Timeout:               time.Second,
		SendInactiveTemplates: true,
	})
	c.PromoCodeService = service.NewPromoCodeService(c.PromoCodeRepo)
	c.OrderNotifier = service.NewOrderNotifier(c.EmailDispatcher, c.SettingService, nil, false)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.PromoCodeRepo, c.PromoCodeService, c.OrderNotifier, "OF", "EUR")

	h := New(c)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set("operator", "giulia")
		ctx.Set("operator_role", constants.OperatorRoleOwner)
		ctx.Next()
	})
	r.GET("/orders", h.AdminListOrders)
	r.GET("/orders/:id", h.AdminGetOrder)
	r.POST("/orders/:id/confirm-payment", h.AdminConfirmPayment)
	r.POST("/orders/:id/processing", h.AdminStartProcessing)
	r.PUT("/orders/:id/tracking", h.AdminSetTracking)
	r.POST("/orders/:id/shipping-email", h.AdminSendShippingEmail)
	r.POST("/orders/:id/delivered", h.AdminMarkDelivered)
	r.POST("/orders/:id/cancel", h.AdminCancelOrder)
	r.GET("/promo-codes", h.ListPromoCodes)
	r.POST("/promo-codes", h.CreatePromoCode)
	r.GET("/promo-codes/:id", h.GetPromoCode)
	r.PUT("/promo-codes/:id", h.UpdatePromoCode)
	r.DELETE("/promo-codes/:id", h.DeletePromoCode)
	r.GET("/email-templates", h.ListEmailTemplates)
	r.GET("/email-templates/:name", h.GetEmailTemplate)
	r.PUT("/email-templates/:name", h.UpsertEmailTemplate)
	r.GET("/email-logs", h.ListEmailLogs)
	r.GET("/email-logs/stats", h.GetEmailStats)
	r.POST("/emails/test", h.SendTestEmail)
	r.GET("/settings/site", h.GetSiteSettings)
	r.PUT("/settings/site", h.UpdateSiteSettings)
	r.GET("/authz/me", h.GetAuthzMe)
	r.GET("/authz/roles", h.ListAuthzRoles)
	r.GET("/authz/roles/:role/policies", h.GetAuthzRolePolicies)
	r.POST("/authz/roles/:role/policies", h.GrantAuthzRolePolicy)
	r.DELETE("/authz/roles/:role/policies", h.RevokeAuthzRolePolicy)
	return &adminTestEnv{h: h, db: db, transport: transport, router: r}
}

func (e *adminTestEnv) do(t *testing.T, method, target string, body interface{}) apiResponse {
	t.Helper()
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		payload = raw
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func (e *adminTestEnv) pendingOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := e.h.OrderService.CompleteCheckout(service.CheckoutInput{
		Items: []service.CheckoutItem{
			{ProductRef: "SKU-1", Title: "Moka", Quantity: 1, UnitPrice: models.MustMoney("30.00")},
		},
		ShippingCost:    models.MustMoney("4.90"),
		CustomerName:    "Mario Rossi",
		CustomerEmail:   "mario@example.com",
		ShippingAddress: "Via Roma 1, Milano",
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func decodeOrder(t *testing.T, resp apiResponse) models.Order {
	t.Helper()
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("decode order failed: %v", err)
	}
	return order
}

func TestAdminOrderLifecycle(t *testing.T) {
	env := setupAdminHandlerTest(t)
	order := env.pendingOrder(t)
	base := fmt.Sprintf("/orders/%d", order.ID)

	early := env.do(t, http.MethodPost, base+"/delivered", nil)
	if early.StatusCode != 409 {
		t.Fatalf("delivered on pending want 409 got %d", early.StatusCode)
	}
	var conflict map[string]string
	if err := json.Unmarshal(early.Data, &conflict); err != nil {
		t.Fatalf("decode conflict data failed: %v", err)
	}
	if conflict["current"] != constants.OrderStatusPending || conflict["requested"] != constants.OrderStatusDelivered {
		t.Fatalf("unexpected conflict data: %+v", conflict)
	}

	steps := []struct {
		method string
		path   string
		body   interface{}
		status string
	}{
		{method: http.MethodPost, path: "/confirm-payment", status: constants.OrderStatusPaid},
		{method: http.MethodPost, path: "/processing", status: constants.OrderStatusProcessing},
		{method: http.MethodPut, path: "/tracking", body: map[string]string{"tracking_number": "BRT123"}, status: constants.OrderStatusShipped},
		{method: http.MethodPut, path: "/tracking", body: map[string]string{"tracking_number": "BRT456"}, status: constants.OrderStatusShipped},
	}
	for _, step := range steps {
		resp := env.do(t, step.method, base+step.path, step.body)
		if resp.StatusCode != 0 {
			t.Fatalf("%s %s status_code want 0 got %d (%s)", step.method, step.path, resp.StatusCode, resp.Msg)
		}
		if got := decodeOrder(t, resp).Status; got != step.status {
			t.Fatalf("%s status want %s got %s", step.path, step.status, got)
		}
	}

	shipping := env.do(t, http.MethodPost, base+"/shipping-email", nil)
	if shipping.StatusCode != 0 {
		t.Fatalf("shipping email status_code want 0 got %d", shipping.StatusCode)
	}
	var shipResp ShippingEmailResponse
	if err := json.Unmarshal(shipping.Data, &shipResp); err != nil {
		t.Fatalf("decode shipping response failed: %v", err)
	}
	if shipResp.Status != constants.EmailLogStatusSent || shipResp.Order.ShippingNotifiedAt == nil {
		t.Fatalf("unexpected shipping response: %+v", shipResp)
	}
	last := env.transport.sent[len(env.transport.sent)-1]
	if !strings.Contains(last.Body, "https://track.example.com/BRT456") {
		t.Fatalf("shipping email should carry corrected tracking url, body=%s", last.Body)
	}

	delivered := env.do(t, http.MethodPost, base+"/delivered", nil)
	if delivered.StatusCode != 0 || decodeOrder(t, delivered).Status != constants.OrderStatusDelivered {
		t.Fatalf("mark delivered failed: %d %s", delivered.StatusCode, delivered.Msg)
	}
	cancel := env.do(t, http.MethodPost, base+"/cancel", map[string]string{"reason": "late"})
	if cancel.StatusCode != 409 {
		t.Fatalf("cancel delivered order want 409 got %d", cancel.StatusCode)
	}

	stats := env.do(t, http.MethodGet, "/email-logs/stats", nil)
	var counters repository.EmailLogStats
	if err := json.Unmarshal(stats.Data, &counters); err != nil {
		t.Fatalf("decode stats failed: %v", err)
	}
	if counters.Sent != 3 || counters.Failed != 0 || counters.Total != 3 {
		t.Fatalf("unexpected stats: %+v", counters)
	}
}

func TestAdminOrderErrors(t *testing.T) {
	env := setupAdminHandlerTest(t)
	order := env.pendingOrder(t)

	cases := []struct {
		name   string
		method string
		target string
		body   interface{}
		want   int
	}{
		{name: "bad id", method: http.MethodGet, target: "/orders/abc", want: 400},
		{name: "missing order", method: http.MethodGet, target: "/orders/9999", want: 404},
		{name: "blank tracking", method: http.MethodPut, target: fmt.Sprintf("/orders/%d/tracking", order.ID), body: map[string]string{"tracking_number": "   "}, want: 400},
		{name: "shipping email before shipped", method: http.MethodPost, target: fmt.Sprintf("/orders/%d/shipping-email", order.ID), want: 409},
		{name: "processing before paid", method: http.MethodPost, target: fmt.Sprintf("/orders/%d/processing", order.ID), want: 409},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.do(t, tc.method, tc.target, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("status_code want %d got %d (%s)", tc.want, resp.StatusCode, resp.Msg)
			}
		})
	}

	cancel := env.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/cancel", order.ID), nil)
	if cancel.StatusCode != 0 || decodeOrder(t, cancel).Status != constants.OrderStatusCancelled {
		t.Fatalf("cancel pending order failed: %d %s", cancel.StatusCode, cancel.Msg)
	}

	list := env.do(t, http.MethodGet, "/orders?status=cancelled&keyword=rossi", nil)
	var orders []models.Order
	if err := json.Unmarshal(list.Data, &orders); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != order.ID {
		t.Fatalf("expected cancelled order in list, got %d rows", len(orders))
	}
}

func TestAdminPromoCodeCRUD(t *testing.T) {
	env := setupAdminHandlerTest(t)

	created := env.do(t, http.MethodPost, "/promo-codes", map[string]interface{}{
		"code": "sconto5", "discount_type": "fixed", "value": "5", "min_purchase": "0", "max_uses": 10,
	})
	if created.StatusCode != 0 {
		t.Fatalf("create status_code want 0 got %d (%s)", created.StatusCode, created.Msg)
	}
	var promo models.PromoCode
	if err := json.Unmarshal(created.Data, &promo); err != nil {
		t.Fatalf("decode promo failed: %v", err)
	}
	if promo.Code != "SCONTO5" || !promo.Active {
		t.Fatalf("unexpected promo: %+v", promo)
	}

	dup := env.do(t, http.MethodPost, "/promo-codes", map[string]interface{}{
		"code": "SCONTO5", "discount_type": "fixed", "value": "5",
	})
	if dup.StatusCode != 409 {
		t.Fatalf("duplicate create want 409 got %d", dup.StatusCode)
	}
	invalid := env.do(t, http.MethodPost, "/promo-codes", map[string]interface{}{
		"code": "TOOMUCH", "discount_type": "percentage", "value": "150",
	})
	if invalid.StatusCode != 400 {
		t.Fatalf("percentage over 100 want 400 got %d", invalid.StatusCode)
	}

	target := fmt.Sprintf("/promo-codes/%d", promo.ID)
	updated := env.do(t, http.MethodPut, target, map[string]interface{}{
		"code": "SCONTO5", "discount_type": "fixed", "value": "7.5", "active": false,
	})
	if updated.StatusCode != 0 {
		t.Fatalf("update status_code want 0 got %d (%s)", updated.StatusCode, updated.Msg)
	}
	list := env.do(t, http.MethodGet, "/promo-codes?active=false", nil)
	var codes []models.PromoCode
	if err := json.Unmarshal(list.Data, &codes); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(codes) != 1 || codes[0].Value.String() != "7.50" {
		t.Fatalf("unexpected list: %+v", codes)
	}

	if resp := env.do(t, http.MethodDelete, target, nil); resp.StatusCode != 0 {
		t.Fatalf("delete status_code want 0 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodGet, target, nil); resp.StatusCode != 404 {
		t.Fatalf("get deleted want 404 got %d", resp.StatusCode)
	}
}

func TestAdminEmailEndpoints(t *testing.T) {
	env := setupAdminHandlerTest(t)

	templates := env.do(t, http.MethodGet, "/email-templates", nil)
	var list []models.EmailTemplate
	if err := json.Unmarshal(templates.Data, &list); err != nil {
		t.Fatalf("decode templates failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 default templates, got %d", len(list))
	}

	saved := env.do(t, http.MethodPut, "/email-templates/order_shipped", map[string]interface{}{
		"subject": "Spedito {{orderNumber}}", "body": "Traccia: {{trackingUrl}}",
	})
	if saved.StatusCode != 0 {
		t.Fatalf("upsert status_code want 0 got %d (%s)", saved.StatusCode, saved.Msg)
	}
	if resp := env.do(t, http.MethodGet, "/email-templates/missing", nil); resp.StatusCode != 404 {
		t.Fatalf("missing template want 404 got %d", resp.StatusCode)
	}

	if resp := env.do(t, http.MethodPost, "/emails/test", map[string]string{"to": "not-an-email"}); resp.StatusCode != 400 {
		t.Fatalf("invalid recipient want 400 got %d", resp.StatusCode)
	}
	sent := env.do(t, http.MethodPost, "/emails/test", map[string]string{"to": "ops@example.com", "subject": "Ping"})
	if sent.StatusCode != 0 {
		t.Fatalf("test email status_code want 0 got %d", sent.StatusCode)
	}
	env.transport.mu.Lock()
	env.transport.fail = true
	env.transport.mu.Unlock()
	failed := env.do(t, http.MethodPost, "/emails/test", map[string]string{"to": "ops@example.com"})
	var result service.DispatchResult
	if err := json.Unmarshal(failed.Data, &result); err != nil {
		t.Fatalf("decode dispatch result failed: %v", err)
	}
	if failed.StatusCode != 0 || result.Status != constants.EmailLogStatusFailed || result.Error == "" {
		t.Fatalf("transport failure should be reported in result: %d %+v", failed.StatusCode, result)
	}

	logs := env.do(t, http.MethodGet, "/email-logs?status=failed", nil)
	var entries []models.EmailLog
	if err := json.Unmarshal(logs.Data, &entries); err != nil {
		t.Fatalf("decode logs failed: %v", err)
	}
	if len(entries) != 1 || entries[0].TemplateName != nil {
		t.Fatalf("expected one failed ad hoc log, got %+v", entries)
	}

	stats := env.do(t, http.MethodGet, "/email-logs/stats", nil)
	var counters repository.EmailLogStats
	if err := json.Unmarshal(stats.Data, &counters); err != nil {
		t.Fatalf("decode stats failed: %v", err)
	}
	if counters.Total != 2 || counters.Sent != 1 || counters.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", counters)
	}
}

func TestAdminSiteSettingsAndAuthz(t *testing.T) {
	env := setupAdminHandlerTest(t)

	updated := env.do(t, http.MethodPut, "/settings/site", map[string]string{"site_name": "Bottega Milano"})
	if updated.StatusCode != 0 {
		t.Fatalf("update settings status_code want 0 got %d", updated.StatusCode)
	}
	current := env.do(t, http.MethodGet, "/settings/site", nil)
	var settings service.SiteSettings
	if err := json.Unmarshal(current.Data, &settings); err != nil {
		t.Fatalf("decode settings failed: %v", err)
	}
	if settings.SiteName != "Bottega Milano" || settings.SiteURL != "https://shop.example.com" {
		t.Fatalf("unexpected settings: %+v", settings)
	}
	if resp := env.do(t, http.MethodPut, "/settings/site", map[string]string{"site_url": "shop"}); resp.StatusCode != 400 {
		t.Fatalf("relative site url want 400 got %d", resp.StatusCode)
	}

	me := env.do(t, http.MethodGet, "/authz/me", nil)
	var identity struct {
		Operator string         `json:"operator"`
		Role     string         `json:"role"`
		Policies []authz.Policy `json:"policies"`
	}
	if err := json.Unmarshal(me.Data, &identity); err != nil {
		t.Fatalf("decode identity failed: %v", err)
	}
	if identity.Operator != "giulia" || len(identity.Policies) == 0 {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	roles := env.do(t, http.MethodGet, "/authz/roles", nil)
	if roles.StatusCode != 0 || !strings.Contains(string(roles.Data), "role:marketing") {
		t.Fatalf("roles should include marketing: %s", string(roles.Data))
	}
}

func TestAdminRolePolicyGrantAndRevoke(t *testing.T) {
	env := setupAdminHandlerTest(t)
	refund := map[string]string{"object": "/api/v1/admin/orders/:id/cancel", "action": "post"}

	allowed, err := env.h.AuthzService.EnforceRole("viewer", "/admin/orders/:id/cancel", "POST")
	if err != nil || allowed {
		t.Fatalf("viewer must not cancel before grant: allowed=%v err=%v", allowed, err)
	}
	granted := env.do(t, http.MethodPost, "/authz/roles/viewer/policies", refund)
	if granted.StatusCode != 0 || !strings.Contains(string(granted.Data), "/admin/orders/:id/cancel") {
		t.Fatalf("grant failed: code=%d data=%s", granted.StatusCode, string(granted.Data))
	}
	allowed, err = env.h.AuthzService.EnforceRole("viewer", "/admin/orders/:id/cancel", "POST")
	if err != nil || !allowed {
		t.Fatalf("viewer should cancel after grant: allowed=%v err=%v", allowed, err)
	}

	revoked := env.do(t, http.MethodDelete, "/authz/roles/viewer/policies", refund)
	if revoked.StatusCode != 0 || strings.Contains(string(revoked.Data), "/admin/orders/:id/cancel") {
		t.Fatalf("revoke failed: code=%d data=%s", revoked.StatusCode, string(revoked.Data))
	}
	allowed, err = env.h.AuthzService.EnforceRole("viewer", "/admin/orders/:id/cancel", "POST")
	if err != nil || allowed {
		t.Fatalf("viewer must not cancel after revoke: allowed=%v err=%v", allowed, err)
	}

	if resp := env.do(t, http.MethodDelete, "/authz/roles/owner/policies", map[string]string{"object": "/admin/*", "action": "*"}); resp.StatusCode != 403 {
		t.Fatalf("owner policies are protected, want 403 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/authz/roles/viewer/policies", map[string]string{"object": "/metrics", "action": "GET"}); resp.StatusCode != 400 {
		t.Fatalf("non admin object want 400 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/authz/roles/viewer/policies", map[string]string{"object": "/admin/orders"}); resp.StatusCode != 400 {
		t.Fatalf("missing action want 400 got %d", resp.StatusCode)
	}
}
