package config

import (
	"fmt"
	"os"
	"time"

	"github.com/reddragon-server/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Reset    ResetConfig    `yaml:"reset"`
	Game     GameConfig     `yaml:"game"`
	News     NewsConfig     `yaml:"news"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration for remote action
// ingestion
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	GroupID      string        `yaml:"group_id"`
	Enabled      bool          `yaml:"enabled"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// ResetConfig holds daily-reset worker configuration
type ResetConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
	Enabled       bool          `yaml:"enabled"`
}

// NewsConfig holds daily-news display configuration
type NewsConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// GameConfig holds the game balance table. Defaults reproduce the classic
// values; operators can tune individual entries without rebuilding.
type GameConfig struct {
	MaxDailyForestFights int    `yaml:"max_daily_forest_fights"`
	MaxCombatRounds      int    `yaml:"max_combat_rounds"`
	StartingMaxHP        int    `yaml:"starting_max_hp"`
	StartingAttack       int    `yaml:"starting_attack"`
	StartingDefense      int    `yaml:"starting_defense"`
	StartingGold         int    `yaml:"starting_gold"`
	LevelUpHPGain        int    `yaml:"level_up_hp_gain"`
	LevelUpAttackGain    int    `yaml:"level_up_attack_gain"`
	LevelUpDefenseGain   int    `yaml:"level_up_defense_gain"`
	PvPExpPerLevel       int    `yaml:"pvp_exp_per_level"`
	DrinkCost            int    `yaml:"drink_cost"`
	DrinkHealDivisor     int    `yaml:"drink_heal_divisor"`
	MarriedHealDivisor   int    `yaml:"married_heal_divisor"`
	MarriageThreshold    int    `yaml:"marriage_threshold"`
	SpouseName           string `yaml:"spouse_name"`
}

// Rules maps the game section onto the domain balance table.
func (g *GameConfig) Rules() domain.Rules {
	return domain.Rules{
		MaxDailyForestFights: g.MaxDailyForestFights,
		StartingMaxHP:        g.StartingMaxHP,
		StartingAttack:       g.StartingAttack,
		StartingDefense:      g.StartingDefense,
		StartingGold:         g.StartingGold,
		LevelUpHPGain:        g.LevelUpHPGain,
		LevelUpAttackGain:    g.LevelUpAttackGain,
		LevelUpDefenseGain:   g.LevelUpDefenseGain,
		MaxCombatRounds:      g.MaxCombatRounds,
		PvPExpPerLevel:       g.PvPExpPerLevel,
		DrinkCost:            g.DrinkCost,
		DrinkHealDivisor:     g.DrinkHealDivisor,
		MarriedHealDivisor:   g.MarriedHealDivisor,
		MarriageThreshold:    g.MarriageThreshold,
		SpouseName:           g.SpouseName,
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
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

	// Apply defaults
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

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 25
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "game-actions"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "game-server"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 100
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}

	// Reset worker defaults
	if c.Reset.CheckInterval == 0 {
		c.Reset.CheckInterval = 1 * time.Minute
	}

	// News defaults
	if c.News.DefaultLimit == 0 {
		c.News.DefaultLimit = 10
	}
	if c.News.MaxLimit == 0 {
		c.News.MaxLimit = 100
	}

	// Game balance defaults
	rules := domain.DefaultRules()
	if c.Game.MaxDailyForestFights == 0 {
		c.Game.MaxDailyForestFights = rules.MaxDailyForestFights
	}
	if c.Game.MaxCombatRounds == 0 {
		c.Game.MaxCombatRounds = rules.MaxCombatRounds
	}
	if c.Game.StartingMaxHP == 0 {
		c.Game.StartingMaxHP = rules.StartingMaxHP
	}
	if c.Game.StartingAttack == 0 {
		c.Game.StartingAttack = rules.StartingAttack
	}
	if c.Game.StartingDefense == 0 {
		c.Game.StartingDefense = rules.StartingDefense
	}
	if c.Game.StartingGold == 0 {
		c.Game.StartingGold = rules.StartingGold
	}
	if c.Game.LevelUpHPGain == 0 {
		c.Game.LevelUpHPGain = rules.LevelUpHPGain
	}
	if c.Game.LevelUpAttackGain == 0 {
		c.Game.LevelUpAttackGain = rules.LevelUpAttackGain
	}
	if c.Game.LevelUpDefenseGain == 0 {
		c.Game.LevelUpDefenseGain = rules.LevelUpDefenseGain
	}
	if c.Game.PvPExpPerLevel == 0 {
		c.Game.PvPExpPerLevel = rules.PvPExpPerLevel
	}
	if c.Game.DrinkCost == 0 {
		c.Game.DrinkCost = rules.DrinkCost
	}
	if c.Game.DrinkHealDivisor == 0 {
		c.Game.DrinkHealDivisor = rules.DrinkHealDivisor
	}
	if c.Game.MarriedHealDivisor == 0 {
		c.Game.MarriedHealDivisor = rules.MarriedHealDivisor
	}
	if c.Game.MarriageThreshold == 0 {
		c.Game.MarriageThreshold = rules.MarriageThreshold
	}
	if c.Game.SpouseName == "" {
		c.Game.SpouseName = rules.SpouseName
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Reset.Enabled = true
	return cfg
}
