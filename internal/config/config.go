package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Anomaly  AnomalyConfig  `yaml:"anomaly"`
	Report   ReportConfig   `yaml:"report"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Billing  BillingConfig  `yaml:"billing"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	JWTSecret   string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AnomalyConfig struct {
	Threshold    float64 `yaml:"threshold"`
	Sensitivity  string  `yaml:"sensitivity"` // low, medium, high; overrides threshold when set
	MinThreshold float64 `yaml:"min_threshold"`
	MaxThreshold float64 `yaml:"max_threshold"`
}

type ReportConfig struct {
	Title     string `yaml:"title"`
	MaxRows   int    `yaml:"max_rows"`
	Recipient string `yaml:"recipient"`
	CCSelf    bool   `yaml:"cc_self"`
	DailyAt   string `yaml:"daily_at"` // HH:MM wall-clock time
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

type BillingConfig struct {
	MonthlyFee float64 `yaml:"monthly_fee"`
	Currency   string  `yaml:"currency"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

func LoadFromEnv() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	setDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}
	if path := os.Getenv("BILLING_DB"); path != "" {
		cfg.Database.Path = path
	}
	if sender := os.Getenv("SENDER_EMAIL"); sender != "" {
		cfg.SMTP.Sender = sender
		if cfg.SMTP.Username == "" {
			cfg.SMTP.Username = sender
		}
	}
	if password := os.Getenv("SENDER_PASSWORD"); password != "" {
		cfg.SMTP.Password = password
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.SMTP.Port = p
		}
	}
	if recipient := os.Getenv("REPORT_RECIPIENT"); recipient != "" {
		cfg.Report.Recipient = recipient
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3003
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "billing.db"
	}
	if cfg.Anomaly.Threshold == 0 {
		cfg.Anomaly.Threshold = 3.0
	}
	if cfg.Anomaly.MinThreshold == 0 {
		cfg.Anomaly.MinThreshold = 1.0
	}
	if cfg.Anomaly.MaxThreshold == 0 {
		cfg.Anomaly.MaxThreshold = 5.0
	}
	if cfg.Report.Title == "" {
		cfg.Report.Title = "Billing Anomaly Report"
	}
	if cfg.Report.MaxRows == 0 {
		cfg.Report.MaxRows = 10
	}
	if cfg.Report.DailyAt == "" {
		cfg.Report.DailyAt = "09:00"
	}
	if cfg.SMTP.Host == "" {
		cfg.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Billing.MonthlyFee == 0 {
		cfg.Billing.MonthlyFee = 49.99
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "ZAR"
	}
}
