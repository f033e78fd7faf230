package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Oracle     Oracle `yaml:"oracle"`
}

// Redis is optional: an empty host selects the in-memory state store.
type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Oracle configures the text-completion collaborator that picks O's moves.
type Oracle struct {
	Provider       string `yaml:"provider" env:"ORACLE_PROVIDER" env-default:"openai"`
	Model          string `yaml:"model" env:"ORACLE_MODEL" env-default:"gpt-4o-mini"`
	APIKey         string `yaml:"api-key" env:"ORACLE_API_KEY" env-default:""`
	BaseURL        string `yaml:"base-url" env:"ORACLE_BASE_URL" env-default:""`
	TimeoutSeconds int    `yaml:"timeout-seconds" env-default:"10"`
	Disabled       bool   `yaml:"disabled" env-default:"false"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
