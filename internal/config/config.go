package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings. Flags on the CLI override
// whatever comes from here.
type Config struct {
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDB       string

	LookupWorkers  int
	LookupTimeout  time.Duration
	BotsPath       string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load() // optional

	return &Config{
		MySQLHost:      getenv("MYSQL_HOST", "127.0.0.1"),
		MySQLPort:      getenvInt("MYSQL_PORT", 3306),
		MySQLUser:      getenv("MYSQL_USER", "root"),
		MySQLPassword:  getenv("MYSQL_PASSWORD", ""),
		MySQLDB:        getenv("MYSQL_DB", "fpscan"),
		LookupWorkers:  getenvInt("LOOKUP_WORKERS", 15),
		LookupTimeout:  time.Duration(getenvInt("LOOKUP_TIMEOUT", 8)) * time.Second,
		BotsPath:       getenv("BOTS_PATH", ""),
		ConnectTimeout: time.Duration(getenvInt("DB_CONNECT_TIMEOUT", 5)) * time.Second,
		QueryTimeout:   time.Duration(getenvInt("DB_QUERY_TIMEOUT", 30)) * time.Second,
	}, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
