package repository

import (
	"testing"

	"github.com/fulfil-next/internal/constants"
	"github.com/fulfil-next/internal/models"
)

func strPtr(v string) *string {
	return &v
}

func TestEmailLogStatsAndList(t *testing.T) {
	repo := NewEmailLogRepository(openRepositoryTestDB(t))
	entries := []models.EmailLog{
		{To: "a@example.com", Subject: "s1", TemplateName: strPtr(constants.EmailTemplateOrderConfirmation), Status: constants.EmailLogStatusSent},
		{To: "b@example.com", Subject: "s2", TemplateName: strPtr(constants.EmailTemplateOrderShipped), Status: constants.EmailLogStatusFailed, Error: strPtr("dial timeout")},
		{To: "a@example.com", Subject: "s3", Status: constants.EmailLogStatusSent},
	}
	for i := range entries {
		if err := repo.Create(&entries[i]); err != nil {
			t.Fatalf("create log failed: %v", err)
		}
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Sent != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	logs, total, err := repo.List(EmailLogListFilter{Status: constants.EmailLogStatusSent, To: "a@example.com", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(logs) != 2 {
		t.Fatalf("unexpected list: total=%d len=%d", total, len(logs))
	}
	if logs[0].Subject != "s3" || logs[0].TemplateName != nil {
		t.Fatalf("newest ad hoc entry should come first, got %+v", logs[0])
	}
}

func TestEmailLogStatsEmpty(t *testing.T) {
	repo := NewEmailLogRepository(openRepositoryTestDB(t))
	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats != (EmailLogStats{}) {
		t.Fatalf("empty stats want zero, got %+v", stats)
	}
}

func TestEmailTemplateListHidesInactive(t *testing.T) {
	repo := NewEmailTemplateRepository(openRepositoryTestDB(t))
	active := &models.EmailTemplate{Name: "a_active", Subject: "s", Body: "b", IsActive: true}
	inactive := &models.EmailTemplate{Name: "b_inactive", Subject: "s", Body: "b", IsActive: true}
	for _, tpl := range []*models.EmailTemplate{active, inactive} {
		if err := repo.Save(tpl); err != nil {
			t.Fatalf("save template failed: %v", err)
		}
	}
	inactive.IsActive = false
	if err := repo.Save(inactive); err != nil {
		t.Fatalf("deactivate template failed: %v", err)
	}

	visible, err := repo.List(EmailTemplateListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(visible) != 1 || visible[0].Name != "a_active" {
		t.Fatalf("inactive template should be hidden, got %+v", visible)
	}
	all, err := repo.List(EmailTemplateListFilter{IncludeInactive: true})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("include inactive want 2 got %d", len(all))
	}

	got, err := repo.GetByName("b_inactive")
	if err != nil || got == nil || got.IsActive {
		t.Fatalf("get by name should return inactive template, got %+v err=%v", got, err)
	}
}

func TestSettingUpsert(t *testing.T) {
	repo := NewSettingRepository(openRepositoryTestDB(t))
	if _, err := repo.Upsert(constants.SettingKeySiteConfig, models.JSON{"site_name": "Shop"}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if _, err := repo.Upsert(constants.SettingKeySiteConfig, models.JSON{"site_name": "Bottega"}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	setting, err := repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil || setting == nil {
		t.Fatalf("get setting failed: %v", err)
	}
	if setting.ValueJSON["site_name"] != "Bottega" {
		t.Fatalf("upsert should overwrite value, got %v", setting.ValueJSON)
	}
}
