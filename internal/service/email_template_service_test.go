package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fulfil-next/internal/constants"
)

func TestEmailTemplateUpsertAndList(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{})
	ctx := context.Background()

	inactive := false
	tpl, err := env.templates.Upsert(ctx, "order_refunded", UpsertEmailTemplateInput{
		Subject:  "Refund for {{orderNumber}}",
		Body:     "Hi {{customerName}}",
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if tpl.IsActive {
		t.Fatalf("expected inactive template")
	}

	visible, err := env.templates.List(false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, item := range visible {
		if item.Name == "order_refunded" {
			t.Fatalf("inactive template must be hidden by default")
		}
	}
	all, err := env.templates.List(true)
	if err != nil || len(all) != len(visible)+1 {
		t.Fatalf("expected inactive template in full list: %d vs %d (%v)", len(all), len(visible), err)
	}

	// 停用模板仍可按名称读取，发送策略由投递器决定
	got, err := env.templates.Get(ctx, "order_refunded")
	if err != nil || got.Subject != "Refund for {{orderNumber}}" {
		t.Fatalf("get failed: %+v %v", got, err)
	}

	updated, err := env.templates.Upsert(ctx, constants.EmailTemplateOrderShipped, UpsertEmailTemplateInput{Subject: "Shipped", Body: "{{trackingUrl}}"})
	if err != nil || !updated.IsActive || updated.Body != "{{trackingUrl}}" {
		t.Fatalf("update existing failed: %+v %v", updated, err)
	}
}

func TestEmailTemplateValidation(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{})
	ctx := context.Background()
	if _, err := env.templates.Upsert(ctx, "Bad Name", UpsertEmailTemplateInput{Subject: "s", Body: "b"}); !errors.Is(err, ErrEmailTemplateInvalid) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, err := env.templates.Upsert(ctx, "ok_name", UpsertEmailTemplateInput{Subject: "", Body: "b"}); !errors.Is(err, ErrEmailTemplateInvalid) {
		t.Fatalf("expected invalid subject, got %v", err)
	}
	if _, err := env.templates.Get(ctx, "missing"); !errors.Is(err, ErrEmailTemplateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
