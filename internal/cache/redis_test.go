package cache

import (
	"context"
	"testing"

	"github.com/fulfil-next/internal/config"
	"github.com/fulfil-next/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}

	ctx := context.Background()
	if err := SetEmailTemplate(ctx, &models.EmailTemplate{Name: "order_shipped"}, 0); err != nil {
		t.Fatalf("set on disabled cache should be noop, got %v", err)
	}
	tpl, hit, err := GetEmailTemplate(ctx, "order_shipped")
	if err != nil || hit || tpl != nil {
		t.Fatalf("disabled cache should miss, got tpl=%v hit=%v err=%v", tpl, hit, err)
	}
	if err := InvalidateEmailTemplate(ctx, "order_shipped"); err != nil {
		t.Fatalf("invalidate on disabled cache should be noop, got %v", err)
	}
}

func TestKeyUsesPrefix(t *testing.T) {
	old := redisPrefix
	t.Cleanup(func() { redisPrefix = old })
	redisPrefix = "shop"

	if got := Key(" email_template:x "); got != "shop:email_template:x" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := Key("rate", "", "checkout"); got != "shop:rate:checkout" {
		t.Fatalf("blank parts should be skipped, got %s", got)
	}
	if got := Key(); got != "shop" {
		t.Fatalf("no parts should map to prefix, got %s", got)
	}
}
