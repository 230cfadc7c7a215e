package cmdserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	defaults "github.com/Paranoid-AF/cmdserver/default"
)

// Config represents the user's cmdserver configuration.
type Config struct {
	Version int           `toml:"version"`
	Channel ChannelConfig `toml:"channel"`
	Host    HostConfig    `toml:"host"`
	Client  ClientConfig  `toml:"client"`

	undecoded []string
}

// ChannelConfig locates the communication directory and bounds request age.
type ChannelConfig struct {
	Name             string `toml:"name"`
	BaseDir          string `toml:"base_dir"`
	RequestTimeoutMS int    `toml:"request_timeout_ms"`
}

// HostConfig holds settings for the cmdserverd host daemon.
type HostConfig struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
}

// ClientConfig holds settings for the external client.
type ClientConfig struct {
	ResponseTimeoutMS int `toml:"response_timeout_ms"`
	PollIntervalMS    int `toml:"poll_interval_ms"`
}

// ConfigDir returns the config directory path.
// Resolution order: $CMDSERVER_CONFIG_DIR > $XDG_CONFIG_HOME/cmdserver > ~/.config/cmdserver
func ConfigDir() string {
	if dir := os.Getenv("CMDSERVER_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "cmdserver")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cmdserver-config")
	}
	return filepath.Join(home, ".config", "cmdserver")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if _, err := toml.Decode(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("cmdserver: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from the default path or returns defaults if not found.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads config from path, filling missing fields from the
// embedded defaults. A missing file yields the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.undecoded = append(cfg.undecoded, key.String())
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Channel.Name == "" {
		cfg.Channel.Name = defaults.Channel.Name
	}
	if cfg.Channel.RequestTimeoutMS == 0 {
		cfg.Channel.RequestTimeoutMS = defaults.Channel.RequestTimeoutMS
	}
	if cfg.Client.ResponseTimeoutMS == 0 {
		cfg.Client.ResponseTimeoutMS = defaults.Client.ResponseTimeoutMS
	}
	if cfg.Client.PollIntervalMS == 0 {
		cfg.Client.PollIntervalMS = defaults.Client.PollIntervalMS
	}
	// host.poll_interval_ms = 0 is meaningful (polling disabled), so it is
	// only defaulted when the key is absent.
	if !md.IsDefined("host", "poll_interval_ms") {
		cfg.Host.PollIntervalMS = defaults.Host.PollIntervalMS
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	for _, key := range cfg.undecoded {
		warnings = append(warnings, "unknown config key: "+key)
	}
	if cfg.Channel.RequestTimeoutMS < 0 {
		warnings = append(warnings, "channel.request_timeout_ms is negative; the default will be used")
	}
	if cfg.Client.ResponseTimeoutMS <= 0 {
		warnings = append(warnings, "client.response_timeout_ms must be positive; the default will be used")
	}
	if cfg.Host.PollIntervalMS < 0 {
		warnings = append(warnings, "host.poll_interval_ms is negative; polling is disabled")
	}
	if cfg.Host.PollIntervalMS > 0 && int64(cfg.Host.PollIntervalMS) >= ResolveRequestTimeout(cfg).Milliseconds() {
		warnings = append(warnings, "host.poll_interval_ms is not shorter than the request timeout; requests may go stale before they are seen")
	}
	return warnings
}

// ResolveBaseDir returns the temp root the communication directory lives under.
// Priority: $CMDSERVER_BASE_DIR env > config value > os.TempDir().
func ResolveBaseDir(cfg *Config) string {
	if dir := os.Getenv("CMDSERVER_BASE_DIR"); dir != "" {
		return dir
	}
	if cfg != nil && cfg.Channel.BaseDir != "" {
		return cfg.Channel.BaseDir
	}
	return os.TempDir()
}

// ResolveDirName returns the communication directory name without the uid suffix.
func ResolveDirName(cfg *Config) string {
	if cfg != nil && cfg.Channel.Name != "" {
		return cfg.Channel.Name
	}
	return DefaultConfig().Channel.Name
}

// ResolveRequestTimeout returns the request staleness window.
// Priority: $CMDSERVER_REQUEST_TIMEOUT_MS env > config value > default.
func ResolveRequestTimeout(cfg *Config) time.Duration {
	if v := os.Getenv("CMDSERVER_REQUEST_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	if cfg != nil && cfg.Channel.RequestTimeoutMS > 0 {
		return time.Duration(cfg.Channel.RequestTimeoutMS) * time.Millisecond
	}
	return time.Duration(DefaultConfig().Channel.RequestTimeoutMS) * time.Millisecond
}

// ResolveHostPollInterval returns how often the host checks for a request.
// Zero means polling is disabled.
func ResolveHostPollInterval(cfg *Config) time.Duration {
	if cfg == nil || cfg.Host.PollIntervalMS <= 0 {
		return 0
	}
	return time.Duration(cfg.Host.PollIntervalMS) * time.Millisecond
}

// ResolveClientTimeouts returns the client's response timeout and poll interval.
func ResolveClientTimeouts(cfg *Config) (timeout, poll time.Duration) {
	d := DefaultConfig()
	timeout = time.Duration(d.Client.ResponseTimeoutMS) * time.Millisecond
	poll = time.Duration(d.Client.PollIntervalMS) * time.Millisecond
	if cfg == nil {
		return timeout, poll
	}
	if cfg.Client.ResponseTimeoutMS > 0 {
		timeout = time.Duration(cfg.Client.ResponseTimeoutMS) * time.Millisecond
	}
	if cfg.Client.PollIntervalMS > 0 {
		poll = time.Duration(cfg.Client.PollIntervalMS) * time.Millisecond
	}
	return timeout, poll
}
