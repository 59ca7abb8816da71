package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	Secret        string        `mapstructure:"secret"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RoomTTL       time.Duration `mapstructure:"room_ttl"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
	LogLevel      string        `mapstructure:"log_level"`
	Shards        int           `mapstructure:"shards"`
	MoveRate      int           `mapstructure:"move_rate"`
	Backpressure  string        `mapstructure:"backpressure"`
}

// Load reads config/config.<CONFIG_ENV>.yaml if present, then lets
// environment variables (PORT, ROOM_TTL, ...) override it. A .env file in the
// working directory is loaded first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "baghchal-dev-secret")
	v.SetDefault("sweep_interval", "30m")
	v.SetDefault("room_ttl", "2h")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("shards", 32)
	v.SetDefault("move_rate", 20)
	v.SetDefault("backpressure", "kick")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Dur("sweep_interval", cfg.SweepInterval).
		Dur("room_ttl", cfg.RoomTTL).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	}
	if c.RoomTTL <= 0 {
		return fmt.Errorf("room_ttl must be positive, got %s", c.RoomTTL)
	}
	return nil
}
