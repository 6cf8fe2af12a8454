package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/repository"
)

func TestDispatchSendsAndLogs(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second, SendInactiveTemplates: true})
	orderID := uint(42)

	result, err := env.dispatcher.Dispatch(context.Background(), DispatchRequest{
		TemplateName: constants.EmailTemplateOrderShipped,
		Recipient:    "mario@example.com",
		Variables:    map[string]string{"siteName": "Bottega", "orderNumber": "OF1", "customerName": "Mario"},
		OrderID:      &orderID,
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !result.Sent() || result.Subject != "Bottega: order #OF1 has shipped" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(env.transport.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(env.transport.sent))
	}
	body := env.transport.sent[0].Body
	if strings.Contains(body, "{{") {
		t.Fatalf("body still has placeholders: %q", body)
	}
	if !strings.Contains(body, "Hi Mario,") {
		t.Fatalf("body not rendered: %q", body)
	}

	logs := env.emailLogs(t)
	if len(logs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(logs))
	}
	if logs[0].Status != constants.EmailLogStatusSent || logs[0].Error != nil || logs[0].OrderID == nil || *logs[0].OrderID != 42 {
		t.Fatalf("unexpected log entry: %+v", logs[0])
	}
}

func TestDispatchTransportFailureIsRecordedNotReturned(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second, SendInactiveTemplates: true})
	env.transport.err = errors.New("550 mailbox unavailable")

	result, err := env.dispatcher.Dispatch(context.Background(), DispatchRequest{
		TemplateName: constants.EmailTemplateOrderDelivered,
		Recipient:    "mario@example.com",
	})
	if err != nil {
		t.Fatalf("transport failure must not be returned: %v", err)
	}
	if result.Sent() || !strings.Contains(result.Error, "550") {
		t.Fatalf("unexpected result: %+v", result)
	}
	logs := env.emailLogs(t)
	if len(logs) != 1 || logs[0].Status != constants.EmailLogStatusFailed || logs[0].Error == nil {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestDispatchTimeoutFallsThroughToFailed(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: 50 * time.Millisecond, SendInactiveTemplates: true})
	env.transport.delay = 5 * time.Second

	start := time.Now()
	result, err := env.dispatcher.Dispatch(context.Background(), DispatchRequest{
		TemplateName: constants.EmailTemplateOrderConfirmation,
		Recipient:    "mario@example.com",
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("dispatch blocked for %s", elapsed)
	}
	if result.Status != constants.EmailLogStatusFailed || !strings.Contains(result.Error, context.DeadlineExceeded.Error()) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if env.transport.callCount() != 1 {
		t.Fatalf("transport must be called exactly once, got %d", env.transport.callCount())
	}
}

func TestDispatchMissingTemplate(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second, SendInactiveTemplates: true})

	result, err := env.dispatcher.Dispatch(context.Background(), DispatchRequest{
		TemplateName: "does_not_exist",
		Recipient:    "mario@example.com",
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if result.Status != constants.EmailLogStatusFailed || result.Error != ErrEmailTemplateNotFound.Error() {
		t.Fatalf("unexpected result: %+v", result)
	}
	if env.transport.callCount() != 0 {
		t.Fatalf("transport must not be called")
	}
	logs := env.emailLogs(t)
	if len(logs) != 1 || logs[0].TemplateName == nil || *logs[0].TemplateName != "does_not_exist" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestDispatchInactiveTemplatePolicy(t *testing.T) {
	tests := []struct {
		name       string
		sendIt     bool
		wantStatus string
		wantCalls  int
	}{
		{name: "send_inactive", sendIt: true, wantStatus: constants.EmailLogStatusSent, wantCalls: 1},
		{name: "suppress_inactive", sendIt: false, wantStatus: constants.EmailLogStatusFailed, wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second, SendInactiveTemplates: tt.sendIt})
			env.setTemplateActive(t, constants.EmailTemplateOrderShipped, false)

			result, err := env.dispatcher.Dispatch(context.Background(), DispatchRequest{
				TemplateName: constants.EmailTemplateOrderShipped,
				Recipient:    "mario@example.com",
			})
			if err != nil {
				t.Fatalf("dispatch failed: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Fatalf("want status %s got %+v", tt.wantStatus, result)
			}
			if !tt.sendIt && result.Error != ErrEmailTemplateInactive.Error() {
				t.Fatalf("unexpected error text: %q", result.Error)
			}
			if env.transport.callCount() != tt.wantCalls {
				t.Fatalf("want %d transport calls got %d", tt.wantCalls, env.transport.callCount())
			}
			if logs := env.emailLogs(t); len(logs) != 1 {
				t.Fatalf("expected exactly one log entry, got %d", len(logs))
			}
		})
	}
}

func TestDispatchLogWriteFailureIsReturned(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second, SendInactiveTemplates: true})
	dispatcher := NewEmailDispatcher(env.templates, env.transport, failingEmailLogRepo{}, DispatchOptions{Timeout: time.Second})

	_, err := dispatcher.Dispatch(context.Background(), DispatchRequest{
		TemplateName: constants.EmailTemplateOrderConfirmation,
		Recipient:    "mario@example.com",
	})
	if !errors.Is(err, ErrEmailLogWriteFailed) {
		t.Fatalf("expected ErrEmailLogWriteFailed, got %v", err)
	}
}

func TestSendAdHocHasNoTemplateName(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second})

	result, err := env.dispatcher.SendAdHoc(context.Background(), "ops@example.com", "SMTP test", "hello")
	if err != nil || !result.Sent() {
		t.Fatalf("ad hoc send failed: %+v %v", result, err)
	}
	logs := env.emailLogs(t)
	if len(logs) != 1 || logs[0].TemplateName != nil || logs[0].Subject != "SMTP test" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}

func TestEmailStatsTotalIsSentPlusFailed(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{Timeout: time.Second, SendInactiveTemplates: true})
	ctx := context.Background()

	calls := 0
	for i := 0; i < 3; i++ {
		if _, err := env.dispatcher.Dispatch(ctx, DispatchRequest{TemplateName: constants.EmailTemplateOrderConfirmation, Recipient: "a@example.com"}); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		calls++
	}
	env.transport.err = errors.New("connection refused")
	for i := 0; i < 2; i++ {
		if _, err := env.dispatcher.Dispatch(ctx, DispatchRequest{TemplateName: constants.EmailTemplateOrderDelivered, Recipient: "a@example.com"}); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		calls++
	}
	if _, err := env.dispatcher.Dispatch(ctx, DispatchRequest{TemplateName: "missing", Recipient: "a@example.com"}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	calls++

	stats, err := env.dispatcher.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != int64(calls) || stats.Sent != 3 || stats.Failed != 3 || stats.Total != stats.Sent+stats.Failed {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	failed, total, err := env.dispatcher.ListLogs(repository.EmailLogListFilter{Status: constants.EmailLogStatusFailed, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	if total != 3 || len(failed) != 3 {
		t.Fatalf("unexpected failed logs: total=%d len=%d", total, len(failed))
	}
}
