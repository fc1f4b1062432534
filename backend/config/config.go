// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port    string
		DevMode bool
	}
	Database struct {
		URL string
	}
	Redis struct {
		Addr string
	}
	Session struct {
		HashKey  string
		BlockKey string
	}
	RateLimit struct {
		Limit    int
		Interval time.Duration
		MaxKeys  int
	}
	Auth struct {
		// Delay before answering a wrong-password attempt. Blunts online
		// guessing; do not set to zero in production.
		FailureDelay time.Duration
	}
	Stream struct {
		// Upper bound on one SSE subscription. Clients reconnect.
		MaxLifetime time.Duration
	}
	CORS struct {
		AllowedOrigins []string
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("database.url", "postgres://localhost/hushchat?sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("rate.limit", 10)
	v.SetDefault("rate.interval_seconds", 60)
	v.SetDefault("rate.max_keys", 10000)
	v.SetDefault("auth.failure_delay_ms", 750)
	v.SetDefault("stream.max_lifetime_minutes", 30)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000")

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.dev_mode", "DEV_MODE")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("redis.addr", "REDIS_URL")
	v.BindEnv("session.hash_key", "SESSION_HASH_KEY")
	v.BindEnv("session.block_key", "SESSION_BLOCK_KEY")
	v.BindEnv("rate.limit", "RATE_LIMIT")
	v.BindEnv("rate.interval_seconds", "RATE_INTERVAL_SECONDS")
	v.BindEnv("rate.max_keys", "RATE_MAX_KEYS")
	v.BindEnv("auth.failure_delay_ms", "AUTH_FAILURE_DELAY_MS")
	v.BindEnv("stream.max_lifetime_minutes", "STREAM_MAX_LIFETIME_MINUTES")
	v.BindEnv("cors.allowed_origins", "ALLOWED_ORIGINS")

	var c Config
	c.Server.Port = v.GetString("server.port")
	c.Server.DevMode = v.GetBool("server.dev_mode")
	c.Database.URL = v.GetString("database.url")
	c.Redis.Addr = v.GetString("redis.addr")
	c.Session.HashKey = v.GetString("session.hash_key")
	c.Session.BlockKey = v.GetString("session.block_key")
	c.RateLimit.Limit = v.GetInt("rate.limit")
	c.RateLimit.Interval = time.Duration(v.GetInt("rate.interval_seconds")) * time.Second
	c.RateLimit.MaxKeys = v.GetInt("rate.max_keys")
	c.Auth.FailureDelay = time.Duration(v.GetInt("auth.failure_delay_ms")) * time.Millisecond
	c.Stream.MaxLifetime = time.Duration(v.GetInt("stream.max_lifetime_minutes")) * time.Minute

	for _, origin := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, origin)
		}
	}

	return c
}
