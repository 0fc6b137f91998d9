package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Generator GeneratorConfig `yaml:"generator"`
	Game      GameConfig      `yaml:"game"`
	Sync      SyncConfig      `yaml:"sync"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// StoreConfig holds the local SQLite store configuration
type StoreConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis connection configuration for the leaderboard mirror
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig holds configuration for the game-event stream
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// GeneratorConfig holds configuration for the external name source
type GeneratorConfig struct {
	NamesURL    string        `yaml:"names_url"`
	ImageURLFmt string        `yaml:"image_url_fmt"`
	Timeout     time.Duration `yaml:"timeout"`
}

// GameConfig holds the token economy and listing defaults
type GameConfig struct {
	InitialTokens    int `yaml:"initial_tokens"`
	GenerationCost   int `yaml:"generation_cost"`
	DefaultPageSize  int `yaml:"default_page_size"`
	LeaderboardLimit int `yaml:"leaderboard_limit"`
	MaxLimit         int `yaml:"max_limit"`
}

// SyncConfig holds leaderboard mirror reconciliation configuration
type SyncConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from a YAML file. A .env file next to the process,
// if present, is loaded first so ${VAR} references in the YAML resolve.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Store defaults
	if c.Store.Path == "" {
		c.Store.Path = "creature-forge.db"
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 50
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "creature-forge-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "creature-forge-tail"
	}

	// Generator defaults
	if c.Generator.NamesURL == "" {
		c.Generator.NamesURL = "https://pokeapi.co/api/v2/pokemon?limit=100"
	}
	if c.Generator.ImageURLFmt == "" {
		c.Generator.ImageURLFmt = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%s.png"
	}
	if c.Generator.Timeout == 0 {
		c.Generator.Timeout = 10 * time.Second
	}

	// Game defaults
	if c.Game.InitialTokens == 0 {
		c.Game.InitialTokens = 100
	}
	if c.Game.GenerationCost == 0 {
		c.Game.GenerationCost = 10
	}
	if c.Game.DefaultPageSize == 0 {
		c.Game.DefaultPageSize = 8
	}
	if c.Game.LeaderboardLimit == 0 {
		c.Game.LeaderboardLimit = 10
	}
	if c.Game.MaxLimit == 0 {
		c.Game.MaxLimit = 100
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
