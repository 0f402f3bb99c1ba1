package config

import (
	"testing"
	"time"
)

func TestLoadServerConfig(t *testing.T) {
	cases := []struct {
		port    string
		want    string
		wantErr bool
	}{
		{"", ":8080", false},
		{"9000", ":9000", false},
		{":7000", ":7000", false},
		{"127.0.0.1:7000", "127.0.0.1:7000", false},
		{"bad port", "", true},
	}
	for _, tc := range cases {
		t.Run("PORT="+tc.port, func(t *testing.T) {
			t.Setenv("PORT", tc.port)
			got, err := loadServerConfig()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Addr != tc.want {
				t.Fatalf("addr = %q, want %q", got.Addr, tc.want)
			}
		})
	}
}

func TestLoadAgentConfigDefaults(t *testing.T) {
	cfg, err := loadAgentConfig()
	if err != nil {
		t.Fatalf("loadAgentConfig: %v", err)
	}
	if cfg.RecallWindowMin != 30 || cfg.RecallTopK != 3 || cfg.SummaryLimit != 20 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.PreloadTimeout != 0 {
		t.Fatalf("preload timeout default = %v, want 0", cfg.PreloadTimeout)
	}
	if len(cfg.RecallHints) == 0 {
		t.Fatal("default recall hints missing")
	}
	found := false
	for _, h := range cfg.RecallHints {
		if h == "기억나" {
			found = true
		}
	}
	if !found {
		t.Fatalf("recall hints missing 기억나: %v", cfg.RecallHints)
	}
}

func TestLoadAgentConfigOverrides(t *testing.T) {
	t.Setenv("AGENT_RECALL_HINTS", "그때, 지난번 ,")
	t.Setenv("AGENT_RECALL_WINDOW_MIN", "15")
	t.Setenv("AGENT_RECALL_TOP_K", "5")
	t.Setenv("AGENT_SUMMARY_LIMIT", "10")
	t.Setenv("AGENT_PRELOAD_TIMEOUT", "2s")
	t.Setenv("AGENT_EMOTION_LLM_ENABLED", "true")

	cfg, err := loadAgentConfig()
	if err != nil {
		t.Fatalf("loadAgentConfig: %v", err)
	}
	if len(cfg.RecallHints) != 2 || cfg.RecallHints[0] != "그때" || cfg.RecallHints[1] != "지난번" {
		t.Fatalf("hints = %v", cfg.RecallHints)
	}
	if cfg.RecallWindowMin != 15 || cfg.RecallTopK != 5 || cfg.SummaryLimit != 10 {
		t.Fatalf("knobs = %+v", cfg)
	}
	if cfg.PreloadTimeout != 2*time.Second {
		t.Fatalf("preload timeout = %v", cfg.PreloadTimeout)
	}
	if !cfg.EmotionLLM {
		t.Fatal("emotion llm flag not set")
	}
}

func TestLoadAgentConfigRejectsBadTimeout(t *testing.T) {
	t.Setenv("AGENT_PRELOAD_TIMEOUT", "soon")
	if _, err := loadAgentConfig(); err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"api key", AIConfig{Model: "m", APIKey: "k"}, true},
		{"ak sk pair", AIConfig{Model: "m", AccessKey: "a", SecretKey: "s"}, true},
		{"no model", AIConfig{APIKey: "k"}, false},
		{"no credentials", AIConfig{Model: "m"}, false},
		{"half pair", AIConfig{Model: "m", AccessKey: "a"}, false},
	}
	for _, tc := range cases {
		if got := tc.cfg.Enabled(); got != tc.want {
			t.Errorf("%s: Enabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
