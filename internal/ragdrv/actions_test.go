package ragdrv

import "testing"

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CLASS", "mix")
	t.Setenv("OSS_HOST", "10.0.0.5")
	t.Setenv("OSS_PORTS", "8001, 8002,8003")
	t.Setenv("EMBED_PORTS", "")
	t.Setenv("LLM_MAX_ASYNC", "16")
	t.Setenv("EMBED_MAX_ASYNC", "")

	cfg, err := ConfigFromEnv("/tmp/exp")
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Class != "mix" {
		t.Errorf("Class = %q, want mix", cfg.Class)
	}
	if cfg.OSSHost != "10.0.0.5" {
		t.Errorf("OSSHost = %q", cfg.OSSHost)
	}
	if len(cfg.OSSPorts) != 3 || cfg.OSSPorts[1] != "8002" {
		t.Errorf("OSSPorts = %v", cfg.OSSPorts)
	}
	if len(cfg.EmbedPorts) != 0 {
		t.Errorf("EmbedPorts = %v, want empty", cfg.EmbedPorts)
	}
	if cfg.LLMMaxAsync != 16 {
		t.Errorf("LLMMaxAsync = %d, want 16", cfg.LLMMaxAsync)
	}
	if cfg.EmbedMaxAsync != 32 {
		t.Errorf("EmbedMaxAsync = %d, want default 32", cfg.EmbedMaxAsync)
	}
	if cfg.BaseDir != "/tmp/exp" {
		t.Errorf("BaseDir = %q", cfg.BaseDir)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("CLASS", "")
	t.Setenv("OSS_HOST", "")
	t.Setenv("OSS_PORTS", "")
	t.Setenv("LLM_MAX_ASYNC", "")

	cfg, err := ConfigFromEnv(".")
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Class != defaultClass {
		t.Errorf("Class = %q, want %q", cfg.Class, defaultClass)
	}
	if cfg.OSSHost != "localhost" {
		t.Errorf("OSSHost = %q, want localhost", cfg.OSSHost)
	}
	if cfg.LLMMaxAsync != 64 {
		t.Errorf("LLMMaxAsync = %d, want 64", cfg.LLMMaxAsync)
	}
}

func TestConfigFromEnvRejectsBadPorts(t *testing.T) {
	t.Setenv("OSS_PORTS", "8001,eight")
	if _, err := ConfigFromEnv("."); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestConfigFromEnvRejectsBadAsync(t *testing.T) {
	t.Setenv("OSS_PORTS", "")
	t.Setenv("LLM_MAX_ASYNC", "many")
	if _, err := ConfigFromEnv("."); err == nil {
		t.Error("expected error for non-numeric LLM_MAX_ASYNC")
	}
}
