package config

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

// withMockKeyring swaps in an in-memory keyring for the duration of a test.
func withMockKeyring(t *testing.T) *keyring.ArrayKeyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	return ring
}

func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	restore := SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return nil, err
	})
	t.Cleanup(restore)
}

func TestProfileKey(t *testing.T) {
	tests := []struct {
		profile  string
		expected string
	}{
		{"", profileKeyDefault},
		{"default", profileKeyDefault},
		{"work", profilePrefix + "work"},
		{"production", profilePrefix + "production"},
	}
	for _, tt := range tests {
		if got := profileKey(tt.profile); got != tt.expected {
			t.Errorf("profileKey(%q) = %q, want %q", tt.profile, got, tt.expected)
		}
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	withMockKeyring(t)

	in := Profile{
		BaseURL: "https://api.example.com",
		Token:   "secret",
		Headers: map[string]string{"X-Team": "platform"},
	}
	if err := SaveProfile("work", in); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := LoadProfile("work")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got.BaseURL != in.BaseURL || got.Token != in.Token || got.Headers["X-Team"] != "platform" {
		t.Errorf("got %+v, want %+v", got, in)
	}

	// Saving makes the profile current.
	current, err := CurrentProfile()
	if err != nil || current != "work" {
		t.Errorf("current = %q, %v; want work", current, err)
	}
}

func TestLoadProfile_NotConfigured(t *testing.T) {
	withMockKeyring(t)

	_, err := LoadProfile("missing")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring must not be touched"))
	t.Setenv("APIBIND_BASE_URL", "https://env.example.com/")
	t.Setenv("APIBIND_TOKEN", "env-token")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", got.BaseURL)
	}
	if got.Token != "env-token" {
		t.Errorf("Token = %q", got.Token)
	}
}

func TestLoad_ProfileSelectionByEnv(t *testing.T) {
	withMockKeyring(t)
	if err := SaveProfile("staging", Profile{BaseURL: "https://staging.example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := SaveProfile("prod", Profile{BaseURL: "https://prod.example.com"}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("APIBIND_PROFILE", "staging")
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BaseURL != "https://staging.example.com" {
		t.Errorf("BaseURL = %q, want the staging profile", got.BaseURL)
	}
}

func TestDeleteProfile(t *testing.T) {
	withMockKeyring(t)
	if err := SaveProfile("a", Profile{BaseURL: "https://a.example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := SaveProfile("b", Profile{BaseURL: "https://b.example.com"}); err != nil {
		t.Fatal(err)
	}

	if err := DeleteProfile("b"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}

	if _, err := LoadProfile("b"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("deleted profile still loads: %v", err)
	}

	profiles, err := ListProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0] != "a" {
		t.Errorf("profiles = %v, want [a]", profiles)
	}

	// Deleting the current profile falls back to a remaining one.
	current, err := CurrentProfile()
	if err != nil || current != "a" {
		t.Errorf("current = %q, %v; want a", current, err)
	}
}

func TestListProfiles_LegacyDefaultOnly(t *testing.T) {
	ring := withMockKeyring(t)
	if err := ring.Set(keyring.Item{Key: profileKeyDefault, Data: []byte(`{"base_url":"https://x"}`)}); err != nil {
		t.Fatal(err)
	}

	profiles, err := ListProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0] != defaultProfile {
		t.Errorf("profiles = %v, want [default]", profiles)
	}
}

func TestNormalizeProfiles(t *testing.T) {
	got := normalizeProfiles([]string{" a ", "", "b", "a", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v, want [a b]", got)
	}
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		goos, backend, dbus string
		want                bool
	}{
		{"linux", keyringBackendFile, "", true},
		{"darwin", keyringBackendFile, "", true},
		{"linux", keyringBackendAuto, "", true},
		{"linux", keyringBackendAuto, "unix:path=/run/user/1000/bus", false},
		{"darwin", keyringBackendAuto, "", false},
		{"linux", keyringBackendSystem, "", false},
	}
	for _, tt := range tests {
		if got := shouldForceFileBackend(tt.goos, tt.backend, tt.dbus); got != tt.want {
			t.Errorf("shouldForceFileBackend(%q, %q, %q) = %v, want %v", tt.goos, tt.backend, tt.dbus, got, tt.want)
		}
	}
}
