package config

import (
	"fmt"
	"github.com/wb-go/wbf/config"
	"strconv"
	"time"
)

type Config struct {
	Addr      string
	LogLevel  string
	GinMode   string
	MasterDSN string
	SlaveDSNs []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Namespace     string
	EditWindow    time.Duration
	CommentSort   string
	UserCacheSize int
	UserCacheTTL  time.Duration
}

// Load reads the yaml config files; missing keys fall back to defaults.
func Load(paths ...string) (*Config, error) {
	cfg := config.New()
	setDefaults(cfg)
	for _, path := range paths {
		if err := cfg.LoadConfigFiles(path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	c := &Config{
		Addr:          cfg.GetString("addr"),
		LogLevel:      cfg.GetString("log_level"),
		GinMode:       cfg.GetString("gin_mode"),
		MasterDSN:     cfg.GetString("master_dsn"),
		SlaveDSNs:     cfg.GetStringSlice("slaveDSNs"),
		RedisAddr:     cfg.GetString("redis_addr"),
		RedisPassword: cfg.GetString("redis_password"),
		RedisDB:       cfg.GetInt("redis_db"),
		Namespace:     cfg.GetString("comment_namespace"),
		EditWindow:    duration(cfg, "comment_edit_time"),
		CommentSort:   cfg.GetString("comment_sort"),
		UserCacheSize: cfg.GetInt("user_cache_size"),
		UserCacheTTL:  duration(cfg, "user_cache_ttl"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(cfg *config.Config) {
	cfg.SetDefault("addr", ":8080")
	cfg.SetDefault("log_level", "info")
	cfg.SetDefault("gin_mode", "release")
	cfg.SetDefault("redis_addr", "localhost:6379")
	cfg.SetDefault("redis_db", 0)
	cfg.SetDefault("comment_namespace", "comment")
	cfg.SetDefault("comment_edit_time", "1h")
	cfg.SetDefault("comment_sort", "score")
	cfg.SetDefault("user_cache_size", 1024)
	cfg.SetDefault("user_cache_ttl", "1m")
}

func (c *Config) Validate() error {
	if c.MasterDSN == "" {
		return fmt.Errorf("master_dsn is required")
	}
	if c.EditWindow <= 0 {
		return fmt.Errorf("comment_edit_time must be a positive duration, got %s", c.EditWindow)
	}
	if c.UserCacheSize <= 0 {
		return fmt.Errorf("user_cache_size must be positive, got %d", c.UserCacheSize)
	}
	if c.UserCacheTTL <= 0 {
		return fmt.Errorf("user_cache_ttl must be a positive duration, got %s", c.UserCacheTTL)
	}
	return nil
}

// duration reads a Go duration ("90m"). A bare integer is taken as seconds,
// the unit older config files use for the edit window.
func duration(cfg *config.Config, key string) time.Duration {
	if secs, err := strconv.ParseInt(cfg.GetString(key), 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	return cfg.GetDuration(key)
}
