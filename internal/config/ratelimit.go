package config

import (
    "time"

    "github.com/spf13/viper"
)

// RateLimitConfig tunes the Redis token bucket guarding the credential
// endpoints (login, registration, password reset).
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int           // bucket size; RATE_LIMIT_BURST overrides
    RefillTokens   int           // tokens added per interval
    RefillInterval time.Duration
    TTL            time.Duration // idle bucket lifetime in Redis
    KeyStrategy    string        // ip | user | route | ip_user | ip_route | user_route
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out-of-range values are
// clamped rather than rejected so a typo never disables the limiter.
func LoadRateLimitConfig() RateLimitConfig {
    v := viper.New()
    v.SetEnvPrefix("RATE_LIMIT")
    v.AutomaticEnv()
    v.SetDefault("ENABLED", true)
    v.SetDefault("CAPACITY", 10)
    v.SetDefault("BURST", -1)
    v.SetDefault("REFILL_TOKENS", 1)
    v.SetDefault("REFILL_INTERVAL", "6s")
    v.SetDefault("TTL", "10m")
    v.SetDefault("KEY_STRATEGY", "ip_route")
    v.SetDefault("PREFIX", "rl")
    v.SetDefault("DEBUG", false)

    cfg := RateLimitConfig{
        Enabled:        v.GetBool("ENABLED"),
        Capacity:       v.GetInt("CAPACITY"),
        RefillTokens:   v.GetInt("REFILL_TOKENS"),
        RefillInterval: v.GetDuration("REFILL_INTERVAL"),
        TTL:            v.GetDuration("TTL"),
        KeyStrategy:    v.GetString("KEY_STRATEGY"),
        Prefix:         v.GetString("PREFIX"),
        Debug:          v.GetBool("DEBUG"),
    }
    if b := v.GetInt("BURST"); b > 0 {
        cfg.Capacity = b
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
        cfg.TTL = minTTL
    }
    return cfg
}
