package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, root, settings, env string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, "config", "dev"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "config", "setting.ini"), []byte(settings), 0o644); err != nil {
		t.Fatalf("write setting: %v", err)
	}
	if env != "" {
		if err := os.WriteFile(filepath.Join(root, "config", "dev", "fuelbot.ini"), []byte(env), 0o644); err != nil {
			t.Fatalf("write env config: %v", err)
		}
	}
}

func TestLoad(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp,
		"environment=dev\nbot_token=base-token\nlog_level=debug\nlog_file=/tmp/base.log\n",
		"http_address=:9090\nsqlite_path=/tmp/custom.db\npoll_timeout=60\nhandle_timeout=20s\n")

	os.Setenv("FUELTRACK_BOT_TOKEN", "env-token")
	t.Cleanup(func() { os.Unsetenv("FUELTRACK_BOT_TOKEN") })

	cfg, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "env-token" {
		t.Fatalf("env override lost, got %q", cfg.BotToken)
	}
	if cfg.HTTPAddress != ":9090" {
		t.Fatalf("unexpected http address %s", cfg.HTTPAddress)
	}
	if cfg.SQLitePath != "/tmp/custom.db" {
		t.Fatalf("unexpected sqlite path %s", cfg.SQLitePath)
	}
	if cfg.PollTimeout != 60 {
		t.Fatalf("unexpected poll timeout %d", cfg.PollTimeout)
	}
	if cfg.HandleTimeout != 20*time.Second {
		t.Fatalf("unexpected handle timeout %v", cfg.HandleTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level from base config, got %s", cfg.LogLevel)
	}
	if cfg.StorageDriver != DriverSQLite {
		t.Fatalf("expected sqlite default, got %s", cfg.StorageDriver)
	}
}

func TestLoadDriverDefaultsToPostgresWithDSN(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "environment=dev\n",
		"database_url=postgres://localhost/fueltrack\n")

	cfg, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != DriverPostgres {
		t.Fatalf("expected postgres, got %s", cfg.StorageDriver)
	}
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "environment=dev\nstorage_driver=postgres\n", "")

	if _, err := Load(tmp); err == nil {
		t.Fatalf("expected error for postgres without dsn")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, "environment=dev\nstorage_driver=oracle\n", "")

	if _, err := Load(tmp); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadWithoutConfigFiles(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Fatalf("unexpected environment %s", cfg.Environment)
	}
	if cfg.HTTPAddress != ":8080" {
		t.Fatalf("unexpected default address %s", cfg.HTTPAddress)
	}
	if cfg.StorageDriver != DriverSQLite {
		t.Fatalf("expected sqlite default, got %s", cfg.StorageDriver)
	}
}
