package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Client ClientConfig
	Server ServerConfig
}

type ClientConfig struct {
	// APIBase is the backend origin. Empty means same-origin relative paths,
	// which only an embedding host with its own transport can serve; the CLI
	// refuses it.
	APIBase   string
	TokenFile string
	Timeout   time.Duration
}

type ServerConfig struct {
	Addr        string
	DBPath      string
	TokenSecret string
	TokenTTL    time.Duration
}

func Load() Config {
	v := viper.New()

	v.SetDefault("BUNCHUP_API_BASE", "http://localhost:8000")
	v.SetDefault("BUNCHUP_TOKEN_FILE", filepath.Join(homeDir(), ".bunchup", "token.json"))
	v.SetDefault("BUNCHUP_TIMEOUT", 30*time.Second)

	v.SetDefault("BUNCHUP_ADDR", "")
	v.SetDefault("BUNCHUP_DB", "bunchup.db")
	v.SetDefault("BUNCHUP_TOKEN_SECRET", "dev-token-secret")
	v.SetDefault("BUNCHUP_TOKEN_TTL", 24*time.Hour)

	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	addr := v.GetString("BUNCHUP_ADDR")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8000"
		}
	}

	return Config{
		Client: ClientConfig{
			APIBase:   v.GetString("BUNCHUP_API_BASE"),
			TokenFile: v.GetString("BUNCHUP_TOKEN_FILE"),
			Timeout:   v.GetDuration("BUNCHUP_TIMEOUT"),
		},
		Server: ServerConfig{
			Addr:        addr,
			DBPath:      v.GetString("BUNCHUP_DB"),
			TokenSecret: v.GetString("BUNCHUP_TOKEN_SECRET"),
			TokenTTL:    v.GetDuration("BUNCHUP_TOKEN_TTL"),
		},
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
