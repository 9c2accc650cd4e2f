package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Terabox   TeraboxConfig   `mapstructure:"terabox"`
	Transfer  TransferConfig  `mapstructure:"transfer"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// TelegramConfig contains bot credentials
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	OwnerID  int64  `mapstructure:"owner_id"`
	Debug    bool   `mapstructure:"debug"`
}

// TeraboxConfig contains share-link resolver settings
type TeraboxConfig struct {
	Cookie         string   `mapstructure:"cookie"`
	BaseURL        string   `mapstructure:"base_url"`
	RequestTimeout string   `mapstructure:"request_timeout"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

// TransferConfig contains download and upload limits
type TransferConfig struct {
	MaxFileMB        int64  `mapstructure:"max_file_mb"`
	MaxConcurrent    int    `mapstructure:"max_concurrent"`
	ChunkSizeKB      int    `mapstructure:"chunk_size_kb"`
	ProgressInterval string `mapstructure:"progress_interval"`
	TmpDir           string `mapstructure:"tmp_dir"`
	DiskReserveMB    int64  `mapstructure:"disk_reserve_mb"`
	TempFileMaxAge   string `mapstructure:"temp_file_max_age"`
}

// RateLimitConfig contains the per-user request window
type RateLimitConfig struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// SettingsConfig contains defaults for new users
type SettingsConfig struct {
	AutoMirror bool `mapstructure:"auto_mirror"`
	AutoShort  bool `mapstructure:"auto_short"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	BindAddr      string `mapstructure:"bind_addr"`
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	ReadTimeout   string `mapstructure:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"`
	IdleTimeout   string `mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"telegram.bot_token":      "BOT_TOKEN",
	"telegram.owner_id":       "OWNER_ID",
	"telegram.debug":          "TELEGRAM_DEBUG",
	"terabox.cookie":          "TERABOX_COOKIE",
	"terabox.base_url":        "TERABOX_BASE_URL",
	"transfer.max_file_mb":    "MAX_FILE_MB",
	"transfer.max_concurrent": "MAX_CONCURRENT",
	"transfer.tmp_dir":        "DOWNLOAD_TMP_DIR",
	"ratelimit.limit":         "USER_RATE_LIMIT",
	"ratelimit.window":        "USER_RATE_WINDOW",
	"database.path":           "DB_PATH",
	"http.bind_addr":          "HTTP_BIND_ADDR",
	"http.admin_password":     "HTTP_ADMIN_PASSWORD",
	"logging.level":           "LOG_LEVEL",
	"logging.format":          "LOG_FORMAT",
}

// ErrMissingBotToken is returned when no bot token is configured
var ErrMissingBotToken = errors.New("BOT_TOKEN is required")

// Load loads configuration from the optional YAML file and the environment.
// Environment variables win over file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Telegram.BotToken = strings.TrimSpace(config.Telegram.BotToken)
	config.Terabox.Cookie = strings.TrimSpace(config.Terabox.Cookie)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// parseDuration accepts Go durations and bare seconds ("3600")
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.owner_id", 0)
	v.SetDefault("telegram.debug", false)
	v.SetDefault("terabox.cookie", "")
	v.SetDefault("terabox.base_url", "https://www.terabox.app")
	v.SetDefault("terabox.request_timeout", "30s")
	v.SetDefault("terabox.allowed_domains", []string{})
	v.SetDefault("transfer.max_file_mb", 1900)
	v.SetDefault("transfer.max_concurrent", 3)
	v.SetDefault("transfer.chunk_size_kb", 1024)
	v.SetDefault("transfer.progress_interval", "2s")
	v.SetDefault("transfer.tmp_dir", "/tmp/terabox_relay")
	v.SetDefault("transfer.disk_reserve_mb", 500)
	v.SetDefault("transfer.temp_file_max_age", "6h")
	v.SetDefault("ratelimit.limit", 3)
	v.SetDefault("ratelimit.window", "1h")
	v.SetDefault("settings.auto_mirror", true)
	v.SetDefault("settings.auto_short", false)
	v.SetDefault("database.path", "bot_data.sqlite3")
	v.SetDefault("http.bind_addr", "")
	v.SetDefault("http.admin_username", "admin")
	v.SetDefault("http.admin_password", "")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return ErrMissingBotToken
	}

	if c.Transfer.MaxFileMB <= 0 {
		return fmt.Errorf("transfer.max_file_mb must be positive")
	}
	if c.Transfer.MaxConcurrent < 1 {
		return fmt.Errorf("transfer.max_concurrent must be at least 1")
	}
	if c.RateLimit.Limit < 1 {
		return fmt.Errorf("ratelimit.limit must be at least 1")
	}

	// Validate durations
	durations := map[string]string{
		"terabox.request_timeout":    c.Terabox.RequestTimeout,
		"transfer.progress_interval": c.Transfer.ProgressInterval,
		"transfer.temp_file_max_age": c.Transfer.TempFileMaxAge,
		"ratelimit.window":           c.RateLimit.Window,
	}
	for key, value := range durations {
		d, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetRequestTimeout returns the resolver request timeout as time.Duration
func (c *TeraboxConfig) GetRequestTimeout() time.Duration {
	d, _ := parseDuration(c.RequestTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetMaxFileBytes returns the upload size limit in bytes
func (c *TransferConfig) GetMaxFileBytes() int64 {
	return c.MaxFileMB * 1024 * 1024
}

// GetChunkSize returns the read chunk size in bytes
func (c *TransferConfig) GetChunkSize() int {
	if c.ChunkSizeKB <= 0 {
		return 1024 * 1024
	}
	return c.ChunkSizeKB * 1024
}

// GetDiskReserveBytes returns the free space kept back on the temp disk
func (c *TransferConfig) GetDiskReserveBytes() int64 {
	if c.DiskReserveMB < 0 {
		return 0
	}
	return c.DiskReserveMB * 1024 * 1024
}

// GetProgressInterval returns the progress update interval as time.Duration
func (c *TransferConfig) GetProgressInterval() time.Duration {
	d, _ := parseDuration(c.ProgressInterval)
	if d == 0 {
		return 2 * time.Second
	}
	return d
}

// GetTempFileMaxAge returns the age after which stray temp files are removed
func (c *TransferConfig) GetTempFileMaxAge() time.Duration {
	d, _ := parseDuration(c.TempFileMaxAge)
	if d == 0 {
		return 6 * time.Hour
	}
	return d
}

// GetWindow returns the rate limit window as time.Duration
func (c *RateLimitConfig) GetWindow() time.Duration {
	d, _ := parseDuration(c.Window)
	if d == 0 {
		return time.Hour
	}
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := parseDuration(c.ReadTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := parseDuration(c.WriteTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := parseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}
