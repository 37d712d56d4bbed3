// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram struct {
		Token string
	}
	Store struct {
		// Driver selects the backend: postgres, sqlite or file.
		Driver string
		File   struct {
			Path string
		}
		SQLite struct {
			Path string
		}
		Postgres struct {
			Host         string
			Port         string
			User         string
			Password     string
			DBName       string
			SSLMode      string
			MaxOpenConns int
			MaxIdleConns int
			ConnLifetime time.Duration
		}
	}
	GPT struct {
		APIKey string
		Model  string
	}
	Server struct {
		Port string
	}
	Reminder struct {
		// Time is the daily wall-clock trigger, "15:04" format, local zone.
		Time string
	}
	ShutdownTimeout time.Duration
}

// Load reads config.{yaml,json} plus .env, with environment variables taking
// precedence over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.habit-bot")

	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("Store.Driver", "file")
	v.SetDefault("Store.File.Path", "users.json")
	v.SetDefault("Store.SQLite.Path", "habit-bot.db")
	v.SetDefault("Store.Postgres.Host", "localhost")
	v.SetDefault("Store.Postgres.Port", "5432")
	v.SetDefault("Store.Postgres.User", "postgres")
	v.SetDefault("Store.Postgres.Password", "postgres")
	v.SetDefault("Store.Postgres.DBName", "habit_bot")
	v.SetDefault("Store.Postgres.SSLMode", "disable")
	v.SetDefault("Store.Postgres.MaxOpenConns", 20)
	v.SetDefault("Store.Postgres.MaxIdleConns", 10)
	v.SetDefault("Store.Postgres.ConnLifetime", 5*time.Minute)
	v.SetDefault("GPT.Model", "gpt-4")
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Reminder.Time", "08:00")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// No config file is fine: defaults plus environment carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Resolve ${ENV_VAR} references in file values.
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			if envValue := os.Getenv(envVar); envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Secrets are env-only by convention.
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	}
	if cfg.GPT.APIKey == "" {
		cfg.GPT.APIKey = os.Getenv("GPT_API_KEY")
	}

	return &cfg, nil
}
