package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/pbaille/reflect/internal/domain"
)

// Config is everything the commands need to build the app
type Config struct {
	Storage   Storage
	Firestore Firestore
	LLM       LLM
	Server    Server
	Log       Log
}

type Storage struct {
	Backend string
	Path    string
	Key     string
}

type Firestore struct {
	Project    string
	Collection string
}

type LLM struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float64
	TopP        float64
	Timeout     time.Duration
}

type Server struct {
	Addr string
}

type Log struct {
	Level  string
	Format string
}

// New returns a viper instance with defaults, env binding and the config
// file search path set up. Flags can be bound on it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "~/.reflect/reflect.db")
	v.SetDefault("storage.key", domain.StorageKey)
	v.SetDefault("firestore.project", "")
	v.SetDefault("firestore.collection", "snapshots")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.top_p", 0.9)
	v.SetDefault("llm.timeout", time.Duration(0))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName(".reflect") // .yaml is implicit
	v.SetEnvPrefix("REFLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("REFLECT_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	return v
}

// Load reads the optional config file and resolves v into a Config
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("storage.path"))
	if err != nil {
		return nil, fmt.Errorf("expand storage path: %w", err)
	}

	cfg := &Config{
		Storage: Storage{
			Backend: strings.ToLower(v.GetString("storage.backend")),
			Path:    path,
			Key:     v.GetString("storage.key"),
		},
		Firestore: Firestore{
			Project:    v.GetString("firestore.project"),
			Collection: v.GetString("firestore.collection"),
		},
		LLM: LLM{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			Temperature: v.GetFloat64("llm.temperature"),
			TopP:        v.GetFloat64("llm.top_p"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Server: Server{Addr: v.GetString("server.addr")},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(cfg.LLM.Provider)
	}
	if cfg.Storage.Backend == "diskv" && filepath.Ext(cfg.Storage.Path) == ".db" {
		// diskv wants a directory, not a database file
		cfg.Storage.Path = strings.TrimSuffix(cfg.Storage.Path, ".db")
	}

	return cfg, nil
}

// providerKey falls back to the environment variables each provider's
// own tooling reads
func providerKey(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("API_KEY")
	}
}
