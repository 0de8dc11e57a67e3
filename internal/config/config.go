package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds shared configuration for every bot in the suite.
type Config struct {
	// Kalshi API
	KalshiAPIBase  string
	KalshiKeyID    string
	KalshiKeyPath  string // path to the RSA private key PEM
	RequestTimeout time.Duration

	// Mode
	Debug bool

	// Shared daily budget
	StateFile       string
	DailyLimitCents int
	BotBudgetsCents map[string]int
	DefaultBudgetC  int
	LockTimeout     time.Duration

	// Weather strategy
	WeatherEntryCents    int
	WeatherExitCents     int
	WeatherMaxPosCents   int
	WeatherSizingPct     float64
	WeatherMaxTrades     int
	WeatherMinEdgeCents  int
	WeatherMinHoursClose float64

	// Sports strategy
	SportsEntryCents    int
	SportsExitCents     int
	SportsMaxPosCents   int
	SportsSizingPct     float64
	SportsMaxTrades     int
	SportsMinEdgeCents  int
	SportsMinHoursClose float64

	// Data layout
	DataDir      string
	DatabasePath string
	ModelPath    string

	// Telegram
	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from the environment. Only the Kalshi key pair is
// required; everything else has working defaults.
func Load() (*Config, error) {
	cfg := &Config{
		KalshiAPIBase:  getEnv("KALSHI_API_BASE", "https://api.elections.kalshi.com"),
		KalshiKeyID:    os.Getenv("KALSHI_API_KEY_ID"),
		KalshiKeyPath:  getEnv("KALSHI_PRIVATE_KEY_PATH", "kalshi_private_key.pem"),
		RequestTimeout: getEnvDuration("KALSHI_HTTP_TIMEOUT", 15*time.Second),

		Debug: getEnvBool("DEBUG", false),

		StateFile:       getEnv("KALSHI_STATE_FILE", "data/kalshi_shared_state.json"),
		DailyLimitCents: getEnvInt("KALSHI_DAILY_LIMIT", 1800),
		BotBudgetsCents: map[string]int{
			"price_farmer":   getEnvInt("KALSHI_PF_BUDGET", 900),
			"weather_trader": getEnvInt("KALSHI_WT_BUDGET", 900),
		},
		DefaultBudgetC: getEnvInt("KALSHI_DEFAULT_BOT_BUDGET", 900),
		LockTimeout:    getEnvDuration("KALSHI_LOCK_TIMEOUT", 5*time.Second),

		WeatherEntryCents:    getEnvInt("WEATHER_ENTRY_CENTS", 15),
		WeatherExitCents:     getEnvInt("WEATHER_EXIT_CENTS", 45),
		WeatherMaxPosCents:   getEnvInt("WEATHER_MAX_POSITION_CENTS", 200),
		WeatherSizingPct:     getEnvFloat("WEATHER_SIZING_PCT", 0.05),
		WeatherMaxTrades:     getEnvInt("WEATHER_MAX_TRADES", 10),
		WeatherMinEdgeCents:  getEnvInt("WEATHER_MIN_EDGE_CENTS", 5),
		WeatherMinHoursClose: getEnvFloat("WEATHER_MIN_HOURS_TO_CLOSE", 2.0),

		SportsEntryCents:    getEnvInt("SPORTS_ENTRY_CENTS", 15),
		SportsExitCents:     getEnvInt("SPORTS_EXIT_CENTS", 70),
		SportsMaxPosCents:   getEnvInt("SPORTS_MAX_POSITION_CENTS", 300),
		SportsSizingPct:     getEnvFloat("SPORTS_SIZING_PCT", 0.04),
		SportsMaxTrades:     getEnvInt("SPORTS_MAX_TRADES", 10),
		SportsMinEdgeCents:  getEnvInt("SPORTS_MIN_EDGE_CENTS", 3),
		SportsMinHoursClose: getEnvFloat("SPORTS_MIN_HOURS_TO_CLOSE", 1.5),

		DataDir:      getEnv("KALSHI_DATA_DIR", "data"),
		DatabasePath: getEnv("DATABASE_PATH", "data/kalshibot.db"),
		ModelPath:    getEnv("KALSHI_MODEL_PATH", "data/convergence_model.json"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.KalshiKeyID == "" {
		return nil, fmt.Errorf("KALSHI_API_KEY_ID is required")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
