/*
 * file: config.go
 * package: config
 * description:
 *     Loads server configuration from a .env file (if present) layered
 *     under process environment variables, with defaults for local
 *     development. Mirrors the ambient env-var style the rest of this
 *     codebase's storage and transport layers already use.
 */

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the full set of values main wires into the server.
type Config struct {
	Addr      string
	AssetDir  string
	BombCount int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// Load reads .env (if present; its absence is not an error) and then
// resolves every setting from the environment, falling back to defaults
// suitable for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded, using process environment only")
	}

	return Config{
		Addr:      getEnv("BOMBRELAY_ADDR", ":8080"),
		AssetDir:  getEnv("BOMBRELAY_ASSET_DIR", "./static"),
		BombCount: getEnvInt("BOMBRELAY_BOMB_COUNT", 5),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "bombrelay"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField(key, v).Warn("invalid integer env var, using default")
		return fallback
	}
	return n
}
