package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":8080"`
	GinMode      string `env:"GIN_MODE" envDefault:"debug"`
	DBDriver     string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost       string `env:"DB_HOST" envDefault:"localhost"`
	DBPort       string `env:"DB_PORT" envDefault:"3306"`
	DBUser       string `env:"DB_USER" envDefault:"tracker"`
	DBPassword   string `env:"DB_PASSWORD" envDefault:"trackerpassword"`
	DBName       string `env:"DB_NAME" envDefault:"project_tracker"`
	JWTSecret    string `env:"JWT_SECRET" envDefault:"default-secret-key-change-me"`
	JWTExpiresIn int    `env:"JWT_EXPIRES_HOURS" envDefault:"168"` // 7 days
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}
