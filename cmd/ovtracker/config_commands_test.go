package main

import (
	"os"
	"path/filepath"
	"testing"

	"ovtracker/internal/testsupport"
)

func TestConfigInitWritesSample(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	stdout, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)
	requireContains(t, testsupport.ReadFile(t, target), "[schedule]")

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if err := os.WriteFile(target, []byte("broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, testsupport.ReadFile(t, target), "[telegram]")
}

func TestConfigValidateReportsReadiness(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "TMDB API key: no")
	requireContains(t, stdout, "Telegram: not ready")
	requireContains(t, stdout, "Configuration valid")

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:secret")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("TMDB_API_KEY", "key")
	stdout, _, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate with env: %v", err)
	}
	requireContains(t, stdout, "TMDB API key: yes")
	requireContains(t, stdout, "Telegram: ready")
}

func TestEnvFileSuppliesSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	os.Unsetenv("TELEGRAM_CHAT_ID")
	envFile := filepath.Join(env.baseDir, "secrets.env")
	testsupport.WriteFile(t, envFile, "TELEGRAM_BOT_TOKEN=123:secret\nTELEGRAM_CHAT_ID=@ovdigest\n")

	stdout, _, err := runCLI(t, "--config", env.configPath, "--env-file", envFile, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Telegram: ready")
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.configPath, "[schedule]\nurl = \"not a url\"\n")

	if _, _, err := env.run(t, "status"); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}
