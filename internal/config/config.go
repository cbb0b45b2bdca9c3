package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config carries the engine and server tunables. Database and redis
// connection settings stay with their own services.
type Config struct {
	Port int

	MinStake        float64
	MaxStake        float64
	BettingDuration time.Duration
	TickInterval    time.Duration
	InterRoundDelay time.Duration
	HistorySize     int
}

func Load() Config {
	return Config{
		Port: getEnvAsInt("PORT", 8080),

		MinStake:        getEnvAsFloat("ENGINE_MIN_STAKE", 1.0),
		MaxStake:        getEnvAsFloat("ENGINE_MAX_STAKE", 10000.0),
		BettingDuration: getEnvAsDuration("ENGINE_BETTING_SECONDS", 5, time.Second),
		TickInterval:    getEnvAsDuration("ENGINE_TICK_MILLIS", 100, time.Millisecond),
		InterRoundDelay: getEnvAsDuration("ENGINE_ROUND_DELAY_SECONDS", 3, time.Second),
		HistorySize:     getEnvAsInt("ENGINE_HISTORY_SIZE", 50),
	}
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal int, unit time.Duration) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultVal)) * unit
}
