package cmdserver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Channel.Name != "obsidian-command-server" {
		t.Errorf("expected default dir name, got %q", cfg.Channel.Name)
	}
	if cfg.Channel.RequestTimeoutMS != 3000 {
		t.Errorf("expected 3000ms request timeout, got %d", cfg.Channel.RequestTimeoutMS)
	}
	if cfg.Host.PollIntervalMS <= 0 {
		t.Errorf("expected positive default poll interval, got %d", cfg.Host.PollIntervalMS)
	}
}

func TestConfigDirResolution(t *testing.T) {
	t.Setenv("CMDSERVER_CONFIG_DIR", "/custom/cfg")
	if got := ConfigDir(); got != "/custom/cfg" {
		t.Errorf("expected /custom/cfg, got %s", got)
	}

	t.Setenv("CMDSERVER_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigDir(); got != filepath.Join("/xdg", "cmdserver") {
		t.Errorf("expected /xdg/cmdserver, got %s", got)
	}
	if got := ConfigPath(); got != filepath.Join("/xdg", "cmdserver", "config.toml") {
		t.Errorf("unexpected config path %s", got)
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("CMDSERVER_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channel.RequestTimeoutMS != DefaultConfig().Channel.RequestTimeoutMS {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[channel]\nbase_dir = \"/var/tmp\"\n\n[host]\npoll_interval_ms = 0\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channel.BaseDir != "/var/tmp" {
		t.Errorf("expected base_dir /var/tmp, got %q", cfg.Channel.BaseDir)
	}
	if cfg.Channel.Name != "obsidian-command-server" {
		t.Errorf("expected default name, got %q", cfg.Channel.Name)
	}
	if cfg.Channel.RequestTimeoutMS != 3000 {
		t.Errorf("expected default timeout, got %d", cfg.Channel.RequestTimeoutMS)
	}
	if cfg.Host.PollIntervalMS != 0 {
		t.Errorf("expected explicit 0 poll interval to be kept, got %d", cfg.Host.PollIntervalMS)
	}
	if ResolveHostPollInterval(cfg) != 0 {
		t.Error("expected polling disabled")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[channel\nname = "), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateConfigReportsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[channel]\nnmae = \"typo\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	warnings := ValidateConfig(cfg)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "channel.nmae") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown key warning, got %v", warnings)
	}
}

func TestValidateConfigSlowPoll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host.PollIntervalMS = 5000
	warnings := ValidateConfig(cfg)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "poll_interval_ms") {
		t.Errorf("unexpected warning %q", warnings[0])
	}
}

func TestValidateConfigDefaultsClean(t *testing.T) {
	if w := ValidateConfig(DefaultConfig()); len(w) != 0 {
		t.Errorf("expected no warnings for defaults, got %v", w)
	}
	if w := ValidateConfig(nil); len(w) != 0 {
		t.Errorf("expected no warnings for nil config, got %v", w)
	}
}

func TestResolveBaseDirPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channel.BaseDir = "/from/config"

	t.Setenv("CMDSERVER_BASE_DIR", "/from/env")
	if got := ResolveBaseDir(cfg); got != "/from/env" {
		t.Errorf("expected env override, got %s", got)
	}

	t.Setenv("CMDSERVER_BASE_DIR", "")
	if got := ResolveBaseDir(cfg); got != "/from/config" {
		t.Errorf("expected config value, got %s", got)
	}

	cfg.Channel.BaseDir = ""
	if got := ResolveBaseDir(cfg); got != os.TempDir() {
		t.Errorf("expected os.TempDir(), got %s", got)
	}
}

func TestResolveRequestTimeout(t *testing.T) {
	t.Setenv("CMDSERVER_REQUEST_TIMEOUT_MS", "")
	if got := ResolveRequestTimeout(nil); got != 3*time.Second {
		t.Errorf("expected 3s default, got %s", got)
	}

	cfg := DefaultConfig()
	cfg.Channel.RequestTimeoutMS = 500
	if got := ResolveRequestTimeout(cfg); got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", got)
	}

	t.Setenv("CMDSERVER_REQUEST_TIMEOUT_MS", "1200")
	if got := ResolveRequestTimeout(cfg); got != 1200*time.Millisecond {
		t.Errorf("expected env override 1200ms, got %s", got)
	}

	t.Setenv("CMDSERVER_REQUEST_TIMEOUT_MS", "bogus")
	if got := ResolveRequestTimeout(cfg); got != 500*time.Millisecond {
		t.Errorf("expected invalid env to be ignored, got %s", got)
	}
}

func TestResolveClientTimeouts(t *testing.T) {
	timeout, poll := ResolveClientTimeouts(nil)
	if timeout != 3*time.Second || poll != 10*time.Millisecond {
		t.Errorf("unexpected defaults %s %s", timeout, poll)
	}

	cfg := DefaultConfig()
	cfg.Client.ResponseTimeoutMS = 100
	cfg.Client.PollIntervalMS = 0
	timeout, poll = ResolveClientTimeouts(cfg)
	if timeout != 100*time.Millisecond || poll != 10*time.Millisecond {
		t.Errorf("unexpected resolved values %s %s", timeout, poll)
	}
}
