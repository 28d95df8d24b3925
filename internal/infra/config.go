package infra

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// currentUserAgent is protected by a mutex to allow synchronization
	// from an embedding UI shell.
	uaMu             sync.RWMutex
	currentUserAgent = GetPlatformUserAgent()
)

// GetUserAgent returns the current active User-Agent string. (Thread-safe)
func GetUserAgent() string {
	uaMu.RLock()
	defer uaMu.RUnlock()
	return currentUserAgent
}

// SetUserAgent updates the global User-Agent string. (Thread-safe)
func SetUserAgent(ua string) {
	uaMu.Lock()
	defer uaMu.Unlock()
	currentUserAgent = ua
}

// GetPlatformUserAgent generates a browser-like User-Agent string based on current OS.
func GetPlatformUserAgent() string {
	chromeVer := "120.0.0.0"
	osName := runtime.GOOS
	arch := runtime.GOARCH

	switch osName {
	case "windows":
		return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", chromeVer)
	case "linux":
		linuxArch := "x86_64"
		if arch == "arm64" {
			linuxArch = "aarch64"
		}
		return fmt.Sprintf("Mozilla/5.0 (X11; Linux %s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", linuxArch, chromeVer)
	case "darwin":
		return fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", chromeVer)
	default:
		return "Mozilla/5.0 (compatible; CoinPulse/1.0)"
	}
}

// Config holds every application setting. LoadConfig reads the yaml file
// and then applies environment overrides for sensitive values.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		RestURL string `yaml:"rest_url"`
		WSURL   string `yaml:"ws_url"`
		UserID  string `yaml:"user_id"`
	} `yaml:"server"`

	Channel struct {
		BaseDelayMS     int `yaml:"base_delay_ms"`
		MaxDelayMS      int `yaml:"max_delay_ms"`
		MaxAttempts     int `yaml:"max_attempts"`
		PingIntervalSec int `yaml:"ping_interval_sec"`
		ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	} `yaml:"channel"`

	Chart struct {
		Markets      []string `yaml:"markets"`
		TolerancePct float64  `yaml:"tolerance_pct"`
	} `yaml:"chart"`

	Ledger struct {
		SweepIntervalSec int `yaml:"sweep_interval_sec"`
	} `yaml:"ledger"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies env overrides and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.WSURL == "" || (!hasPrefix(c.Server.WSURL, "ws://") && !hasPrefix(c.Server.WSURL, "wss://")) {
		return fmt.Errorf("invalid event server WS URL: %s", c.Server.WSURL)
	}
	if c.Server.RestURL == "" || (!hasPrefix(c.Server.RestURL, "http://") && !hasPrefix(c.Server.RestURL, "https://")) {
		return fmt.Errorf("invalid order API base URL: %s", c.Server.RestURL)
	}
	if len(c.Chart.Markets) == 0 {
		return fmt.Errorf("at least one market is required")
	}
	if c.Channel.MaxAttempts < 0 {
		return fmt.Errorf("channel max_attempts must not be negative")
	}
	if c.Chart.TolerancePct < 0 {
		return fmt.Errorf("chart tolerance_pct must not be negative")
	}
	return nil
}

// BaseDelay returns the reconnect base delay with defaults applied.
func (c *Config) BaseDelay() time.Duration {
	if c.Channel.BaseDelayMS <= 0 {
		return DefaultBaseDelay
	}
	return time.Duration(c.Channel.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the reconnect delay cap with defaults applied.
func (c *Config) MaxDelay() time.Duration {
	if c.Channel.MaxDelayMS <= 0 {
		return DefaultMaxDelay
	}
	return time.Duration(c.Channel.MaxDelayMS) * time.Millisecond
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variables over file values.
// Environment takes precedence so deployments never need secrets on disk.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("COINPULSE_REST_URL"); url != "" {
		cfg.Server.RestURL = url
	}
	if url := os.Getenv("COINPULSE_WS_URL"); url != "" {
		cfg.Server.WSURL = url
	}
	if id := os.Getenv("COINPULSE_USER_ID"); id != "" {
		cfg.Server.UserID = id
	}
	if level := os.Getenv("COINPULSE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
