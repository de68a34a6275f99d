package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	settings := newTestStore(t).Settings()

	if _, err := settings.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}

	if err := settings.Set(SettingActiveProfile, "desk"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := settings.Set(SettingActiveProfile, "couch"); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	got, err := settings.Get(SettingActiveProfile)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != "couch" {
		t.Errorf("got %q, want couch", got)
	}
}

func TestSettingsRepository_GetOr(t *testing.T) {
	settings := newTestStore(t).Settings()

	got, err := settings.GetOr("preview", "off")
	if err != nil || got != "off" {
		t.Errorf("GetOr unset = %q, %v", got, err)
	}

	if err := settings.Set("preview", "on"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	got, err = settings.GetOr("preview", "off")
	if err != nil || got != "on" {
		t.Errorf("GetOr set = %q, %v", got, err)
	}
}

func TestSettingsRepository_DeleteAndAll(t *testing.T) {
	settings := newTestStore(t).Settings()

	for k, v := range map[string]string{"a": "1", "b": "2"} {
		if err := settings.Set(k, v); err != nil {
			t.Fatalf("failed to set %s: %v", k, err)
		}
	}
	if err := settings.Delete("a"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if err := settings.Delete("never-set"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}

	all, err := settings.All()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 1 || all["b"] != "2" {
		t.Errorf("All = %v", all)
	}
}
