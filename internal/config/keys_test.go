package config

import (
	"testing"
)

func TestResolveAPIKey_EnvWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-from-config"

	key, err := ResolveAPIKey(cfg)
	if err != nil {
		t.Fatalf("ResolveAPIKey: %v", err)
	}
	if key != "sk-ant-from-env" {
		t.Errorf("key = %q, want env value", key)
	}
}

func TestResolveAPIKey_Config(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-from-config"

	key, err := ResolveAPIKey(cfg)
	if err != nil {
		t.Fatalf("ResolveAPIKey: %v", err)
	}
	if key != "sk-ant-from-config" {
		t.Errorf("key = %q, want config value", key)
	}
}

func TestResolveAPIKey_Missing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := ResolveAPIKey(Default())
	if err != ErrNoAPIKey {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestResolveAPIKey_BedrockNeedsNoKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := Default()
	cfg.Anthropic.UseAWSBedrock = true

	key, err := ResolveAPIKey(cfg)
	if err != nil {
		t.Fatalf("ResolveAPIKey: %v", err)
	}
	if key != "" {
		t.Errorf("key = %q, want empty for Bedrock", key)
	}
}

func TestValidateAPIKey(t *testing.T) {
	if err := ValidateAPIKey("sk-ant-abcdefghijklmnop"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidateAPIKey(""); err == nil {
		t.Error("empty key should be rejected")
	}
	if err := ValidateAPIKey("not-a-key"); err == nil {
		t.Error("wrong prefix should be rejected")
	}
	if err := ValidateAPIKey("sk-ant-short"); err == nil {
		t.Error("short key should be rejected")
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey(""); got != "(not set)" {
		t.Errorf("MaskAPIKey(\"\") = %q", got)
	}
	got := MaskAPIKey("sk-ant-REDACTED")
	if got != "sk-ant-...1234" {
		t.Errorf("MaskAPIKey = %q", got)
	}
	// Short or garbage keys from a hand-edited config file must still mask
	// without exposing anything.
	for _, key := range []string{"a", "ab", "sk-ant-short"} {
		if got := MaskAPIKey(key); got != "***" {
			t.Errorf("MaskAPIKey(%q) = %q, want ***", key, got)
		}
	}
}
