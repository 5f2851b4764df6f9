package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/EcoTrackTeam/EcoTrack-backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Cache Redis optionnel pour les lectures du leaderboard. Les classements
// sont des projections eventually consistent : servir une vue vieille de
// quelques secondes est explicitement autorisé. Sans REDIS_ADDR le moteur
// fonctionne à l'identique, toutes les lectures partent en base.

var client *redis.Client

const leaderboardTTL = 30 * time.Second

// Connect initialise le client Redis. addr vide = cache désactivé.
func Connect(addr string) {
	if addr == "" {
		logger.Info("Leaderboard cache disabled (no REDIS_ADDR)")
		return
	}

	c := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Warning("Redis unreachable, leaderboard cache disabled: %v", err)
		return
	}

	client = c
	logger.Success("Connected to Redis (%s)", addr)
}

// GetLeaderboard lit une entrée de cache et la désérialise dans dest
func GetLeaderboard(ctx context.Context, key string, dest interface{}) bool {
	if client == nil {
		return false
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// SetLeaderboard écrit une entrée de cache avec le TTL du leaderboard.
// Les erreurs sont ignorées : le cache n'est jamais bloquant.
func SetLeaderboard(ctx context.Context, key string, value interface{}) {
	if client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	client.Set(ctx, key, raw, leaderboardTTL)
}
