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

package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hushchat/hushchat/backend/config"
	"github.com/hushchat/hushchat/backend/handlers"
	"github.com/hushchat/hushchat/backend/ratelimit"
	"github.com/hushchat/hushchat/backend/security"
	"github.com/hushchat/hushchat/backend/session"
	"github.com/hushchat/hushchat/backend/storage/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Database connection
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	// Initialize storage
	store := postgres.NewStore(db, rdb)

	// Run migrations
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Session cookie keys. Both are derived through SHA-256 so any
	// configured string yields valid key sizes.
	hashKey, blockKey := sessionKeys(cfg)

	sessions := session.NewManager(hashKey, blockKey, cfg.Server.DevMode)
	recorder := security.NewRecorder(rdb)
	limiter := ratelimit.New(cfg.RateLimit.Interval, cfg.RateLimit.MaxKeys)

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(store, sessions, recorder, cfg.Auth.FailureDelay)
	messageHandler := handlers.NewMessageHandler(store, sessions, recorder, cfg.Stream.MaxLifetime)
	authHandler := handlers.NewAuthHandler(store, sessions, recorder, cfg.Auth.FailureDelay)

	// Setup router
	r := handlers.NewRouter(handlers.RouterConfig{
		Rooms:          roomHandler,
		Messages:       messageHandler,
		Auth:           authHandler,
		Limiter:        limiter,
		RateLimit:      cfg.RateLimit.Limit,
		Recorder:       recorder,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check (no auth required)
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unavailable"))
			return
		}
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Redis unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	log.Printf("Chat server starting on port %s", cfg.Server.Port)
	if cfg.Server.DevMode {
		log.Printf("Dev mode: session cookies are not marked Secure")
	}

	if err := http.ListenAndServe(":"+cfg.Server.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func sessionKeys(cfg config.Config) (hashKey, blockKey []byte) {
	if cfg.Session.HashKey == "" || cfg.Session.BlockKey == "" {
		if !cfg.Server.DevMode {
			log.Fatal("SESSION_HASH_KEY and SESSION_BLOCK_KEY are required outside dev mode")
		}
		// Dev convenience: random keys, sessions reset on restart.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate dev session keys: %v", err)
		}
		seed := hex.EncodeToString(b)
		cfg.Session.HashKey = "dev-hash-" + seed
		cfg.Session.BlockKey = "dev-block-" + seed
		log.Printf("Dev mode: generated ephemeral session keys")
	}

	h := sha256.Sum256([]byte(cfg.Session.HashKey))
	k := sha256.Sum256([]byte(cfg.Session.BlockKey))
	return h[:], k[:]
}
