package config

import (
	"os"
)

// Config regroupe toute la configuration du serveur, chargée depuis l'environnement
type Config struct {
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisAddr  string // vide = cache désactivé
}

// LoadConfig charge la configuration depuis les variables d'environnement
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ecotrack"),
		DBPassword: getEnv("DB_PASSWORD", "ecotrack"),
		DBName:     getEnv("DB_NAME", "ecotrack"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
