package config

// Redis backs the login/reset rate limiter and, when RESET_CODE_STORE=redis,
// the shared password-reset code store.  Connection parameters come from
// the environment.

import (
    "context"
    "crypto/tls"
    "fmt"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/spf13/viper"
)

const redisPingTimeout = 2 * time.Second

// RedisConfig holds the REDIS_* connection settings.
type RedisConfig struct {
    Addr     string // host:port
    Password string // optional
    DB       int    // database number
    TLS      bool
}

// LoadRedisConfig reads REDIS_* variables:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand (used when host/port are not both set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS
func LoadRedisConfig() RedisConfig {
    v := viper.New()
    v.SetEnvPrefix("REDIS")
    v.AutomaticEnv()
    v.SetDefault("ADDR", "localhost:6379")
    v.SetDefault("DB", 0)
    v.SetDefault("TLS", false)

    cfg := RedisConfig{
        Addr:     v.GetString("ADDR"),
        Password: v.GetString("PASSWORD"),
        DB:       v.GetInt("DB"),
        TLS:      v.GetBool("TLS"),
    }
    // host and port win over the shorthand
    if host, port := v.GetString("HOST"), v.GetString("PORT"); host != "" && port != "" {
        cfg.Addr = net.JoinHostPort(host, port)
    }
    if cfg.DB < 0 {
        cfg.DB = 0
    }
    return cfg
}

// Options converts the settings into go-redis client options.
func (c RedisConfig) Options() *redis.Options {
    opts := &redis.Options{
        Addr:     c.Addr,
        Password: c.Password,
        DB:       c.DB,
    }
    if c.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts
}

// NewRedisClient instantiates a Redis client from LoadRedisConfig.  The
// client is pinged with a short timeout; on failure the client is closed
// and the error returned so callers can decide whether to degrade.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
    cfg := LoadRedisConfig()
    client := redis.NewClient(cfg.Options())
    pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
    }
    return client, nil
}
