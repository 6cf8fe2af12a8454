package service

import (
	"errors"
	"testing"
)

func TestSiteSettingsDefaultsAndOverride(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{})

	settings, err := env.settings.GetSiteSettings()
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if settings.SiteName != "Bottega" || settings.SiteURL != "https://shop.example.com" {
		t.Fatalf("unexpected defaults: %+v", settings)
	}

	name := " Bottega Milano "
	updated, err := env.settings.UpdateSiteSettings(SiteSettingsPatch{SiteName: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.SiteName != "Bottega Milano" || updated.UnsubscribeURL != "https://shop.example.com/unsubscribe" {
		t.Fatalf("unexpected updated settings: %+v", updated)
	}
	reloaded, err := env.settings.GetSiteSettings()
	if err != nil || reloaded.SiteName != "Bottega Milano" {
		t.Fatalf("override not persisted: %+v %v", reloaded, err)
	}
}

func TestSiteSettingsValidation(t *testing.T) {
	env := newServiceTestEnv(t, DispatchOptions{})
	empty := ""
	if _, err := env.settings.UpdateSiteSettings(SiteSettingsPatch{SiteName: &empty}); !errors.Is(err, ErrSiteConfigInvalid) {
		t.Fatalf("empty name must be rejected, got %v", err)
	}
	relative := "/shop"
	if _, err := env.settings.UpdateSiteSettings(SiteSettingsPatch{SiteURL: &relative}); !errors.Is(err, ErrSiteConfigInvalid) {
		t.Fatalf("relative url must be rejected, got %v", err)
	}
}
