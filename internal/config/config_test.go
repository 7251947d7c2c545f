package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestSplitOriginsTrimsAndDropsEmpty(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://office.example.com , http://localhost:3000 ,, ")

	cfg := Load()
	want := []string{"https://office.example.com", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("origins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("origins = %v, want %v", cfg.AllowedOrigins, want)
		}
	}
}
