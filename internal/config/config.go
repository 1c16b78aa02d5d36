package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"525600"`

	HFAPIKey  string `env:"HUGGINGFACE_API_KEY"`
	HFBaseURL string `env:"HUGGINGFACE_BASE_URL" envDefault:"https://api-inference.huggingface.co/models"`
	HFModel   string `env:"HUGGINGFACE_MODEL" envDefault:"j-hartmann/emotion-english-distilroberta-base"`

	FLWPublicKey     string `env:"FLW_PUBLIC_KEY"`
	FLWSecretKey     string `env:"FLW_SECRET_KEY"`
	FLWWebhookSecret string `env:"FLW_WEBHOOK_SECRET"`
	FLWBaseURL       string `env:"FLW_BASE_URL" envDefault:"https://api.flutterwave.com/v3"`

	SubscriptionAmount       int    `env:"SUBSCRIPTION_AMOUNT" envDefault:"2000"`
	SubscriptionCurrency     string `env:"SUBSCRIPTION_CURRENCY" envDefault:"NGN"`
	SubscriptionDurationDays int    `env:"SUBSCRIPTION_DURATION_DAYS" envDefault:"365"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Mood Journal"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	EntryRateLimitPerMinute int `env:"ENTRY_RATE_LIMIT_PER_MINUTE" envDefault:"10"`

	ChartWidth  int `env:"CHART_WIDTH" envDefault:"960"`
	ChartHeight int `env:"CHART_HEIGHT" envDefault:"400"`
	// Fuente .ttf con emoji para /trend.png; vacia deja el PNG sin glifos.
	ChartGlyphFont string `env:"CHART_GLYPH_FONT"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
