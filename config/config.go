package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8501"`
	SheetName   string `env:"SHEET_NAME" envDefault:"Resumen 2025"`
	DefaultFile string `env:"DEFAULT_FILE" envDefault:"./00_Planificacion_CambioClimatico_dashboard_2025jul19_2.xlsx"`
	ThemeFile   string `env:"THEME_FILE"`

	MaxUploadMB  int `env:"MAX_UPLOAD_MB" envDefault:"20"`
	CacheEntries int `env:"CACHE_ENTRIES" envDefault:"1"`

	OutputDir     string `env:"OUTPUT_DIR" envDefault:"./output"`
	RenderWorkers int    `env:"RENDER_WORKERS" envDefault:"4"`

	ChromeBin       string        `env:"CHROME_BIN"`
	SnapshotTimeout time.Duration `env:"SNAPSHOT_TIMEOUT" envDefault:"60s"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"3"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// envPrefix namespaces every variable read by Load.
const envPrefix = "DASHBOARD_"

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return Parse()
}

// Parse populates a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SheetName == "" {
		return fmt.Errorf("%sSHEET_NAME must not be empty", envPrefix)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("%sMAX_UPLOAD_MB must be positive, got %d", envPrefix, c.MaxUploadMB)
	}
	if c.CacheEntries < 1 {
		return fmt.Errorf("%sCACHE_ENTRIES must be positive, got %d", envPrefix, c.CacheEntries)
	}
	return nil
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
