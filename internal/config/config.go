package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	RootDir  string `yaml:"root_dir" env:"FILES_ROOT"`
	FontPath string `yaml:"font_path" env:"PDF_FONT_PATH"`
}

type Config struct {
	Server struct {
		Port        int    `yaml:"port" env:"HTTP_PORT"`
		CompanyName string `yaml:"company_name" env:"COMPANY_NAME"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
		SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT"`
		SMTPUser     string `yaml:"smtp_user" env:"SMTP_USER"`
		SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
		FromEmail    string `yaml:"from_email" env:"SMTP_FROM"`
		ManagerEmail string `yaml:"manager_email" env:"MANAGER_EMAIL"`
	} `yaml:"email"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   int64  `yaml:"sales_chat_id" env:"TELEGRAM_SALES_CHAT_ID"`
	} `yaml:"telegram"`
	Redis struct {
		Addr       string `yaml:"addr" env:"REDIS_ADDR"`
		Password   string `yaml:"password" env:"REDIS_PASSWORD"`
		DB         int    `yaml:"db" env:"REDIS_DB"`
		TTLSeconds int    `yaml:"summary_ttl_seconds" env:"SUMMARY_CACHE_TTL"`
	} `yaml:"redis"`
	Files FilesConfig `yaml:"files"`
}

// Load: .env (если есть) -> config.yaml (если есть) -> переменные окружения поверх.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// только defaults + env
	default:
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.applyDefaults()

	if cfg.Database.DSN == "" {
		return nil, errors.New("database url is required (database.url or DATABASE_URL)")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("jwt secret is required (auth.jwt_secret or JWT_SECRET)")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Files.RootDir == "" {
		c.Files.RootDir = "./files"
	}
	if c.Files.FontPath == "" {
		c.Files.FontPath = "assets/fonts/DejaVuSans.ttf"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Redis.TTLSeconds == 0 {
		c.Redis.TTLSeconds = 600
	}
}
