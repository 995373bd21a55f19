package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	DefaultTotalRounds       int
	DefaultTimerSeconds      int
	MaxTotalRounds           int
	MaxTimerSeconds          int
	ExcludedLetters          string
	SweepIntervalSeconds     int
	JudgeTimeoutSeconds      int
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	OpenAIAPIKey             string
	OpenAIModel              string
	JudgePromptSystemPath    string
	JudgePromptUserPath      string
}

func Default() Config {
	return Config{
		DefaultTotalRounds:       5,
		DefaultTimerSeconds:      10,
		MaxTotalRounds:           20,
		MaxTimerSeconds:          60,
		ExcludedLetters:          "QXY",
		SweepIntervalSeconds:     1,
		JudgeTimeoutSeconds:      20,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		OpenAIModel:              "gpt-4o-mini",
		JudgePromptSystemPath:    "prompts/judge_system.txt",
		JudgePromptUserPath:      "prompts/judge_user.txt",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("DEFAULT_ROUNDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DefaultTotalRounds = value
		}
	}
	if raw := os.Getenv("TIMER_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.DefaultTimerSeconds = value
		}
	}
	if raw := os.Getenv("EXCLUDED_LETTERS"); raw != "" {
		cfg.ExcludedLetters = raw
	}
	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.SweepIntervalSeconds = value
		}
	}
	if raw := os.Getenv("JUDGE_TIMEOUT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.JudgeTimeoutSeconds = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_MODEL"); raw != "" {
		cfg.OpenAIModel = raw
	}
	if raw := os.Getenv("JUDGE_PROMPT_SYSTEM_PATH"); raw != "" {
		cfg.JudgePromptSystemPath = raw
	}
	if raw := os.Getenv("JUDGE_PROMPT_USER_PATH"); raw != "" {
		cfg.JudgePromptUserPath = raw
	}
	return cfg
}
