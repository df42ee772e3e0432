package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuracion del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	LLMAPIKey    string `env:"LLM_API_KEY,required"`
	LLMBaseURL   string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel     string `env:"LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	LLMTimeoutMS int    `env:"LLM_TIMEOUT_MS" envDefault:"30000"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SMTPHost           string `env:"SMTP_HOST"`
	SMTPPort           int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser           string `env:"SMTP_USER"`
	SMTPPass           string `env:"SMTP_PASS"`
	SMTPFrom           string `env:"SMTP_FROM"`
	SMTPFromName       string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS         bool   `env:"SMTP_USE_TLS" envDefault:"false"`
	SupportNotifyEmail string `env:"SUPPORT_NOTIFY_EMAIL"`
}

// LoadConfig carga la configuracion desde variables de entorno.
// DATABASE_URL vacio habilita los repositorios en memoria (modo dev).
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
