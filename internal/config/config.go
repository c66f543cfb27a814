// Package config loads server settings from .env, the environment and
// command-line flags, in that order of increasing precedence.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Defaults for values that must be positive.
const (
	DefaultUploadMaxMB       = 10
	DefaultImportMaxMB       = 50
	DefaultImageMaxDimension = 1024
)

// usageOutput receives flag errors and the -h usage text.
var usageOutput io.Writer = os.Stderr

// Config holds the server settings.
type Config struct {
	Addr              string `env:"ADDR" envDefault:":8000"`
	DatabasePath      string `env:"DATABASE_PATH" envDefault:"vinylbank.sqlite3"`
	UploadDir         string `env:"UPLOAD_DIR" envDefault:"uploads"`
	UploadMaxMB       int    `env:"UPLOAD_MAX_MB" envDefault:"10"`
	ImageMaxDimension int    `env:"IMAGE_MAX_DIMENSION" envDefault:"1024"`
	ImportMaxMB       int    `env:"IMPORT_MAX_MB" envDefault:"50"`
	CORSOrigin        string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	LogPath           string `env:"LOG_PATH"`
	Debug             bool   `env:"DEBUG"`
}

// NewConfig builds the configuration for the given command-line arguments
// (without the program name). For -h it prints usage and returns an error
// wrapping flag.ErrHelp.
func NewConfig(args []string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	fs := flag.NewFlagSet("vinylbank", flag.ContinueOnError)
	fs.SetOutput(usageOutput)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "listen address (shorthand)")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path to SQLite database file")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to SQLite database file (shorthand)")
	fs.StringVar(&cfg.UploadDir, "uploads", cfg.UploadDir, "directory for uploaded images")
	fs.StringVar(&cfg.UploadDir, "u", cfg.UploadDir, "directory for uploaded images (shorthand)")
	fs.IntVar(&cfg.UploadMaxMB, "upload-max-mb", cfg.UploadMaxMB, "maximum image upload size in MB")
	fs.IntVar(&cfg.ImageMaxDimension, "image-max-dim", cfg.ImageMaxDimension, "maximum stored image width or height, 0 disables resizing")
	fs.IntVar(&cfg.ImportMaxMB, "import-max-mb", cfg.ImportMaxMB, "maximum import body size in MB")
	fs.StringVar(&cfg.CORSOrigin, "cors-origin", cfg.CORSOrigin, "allowed CORS origin")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "also write logs to this file")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "also write logs to this file (shorthand)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "human-readable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = DefaultUploadMaxMB
	}
	if cfg.ImportMaxMB <= 0 {
		cfg.ImportMaxMB = DefaultImportMaxMB
	}
	if cfg.ImageMaxDimension < 0 {
		cfg.ImageMaxDimension = DefaultImageMaxDimension
	}

	return cfg, nil
}

// UploadMaxBytes returns the upload limit in bytes.
func (c *Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}

// ImportMaxBytes returns the import body limit in bytes.
func (c *Config) ImportMaxBytes() int64 {
	return int64(c.ImportMaxMB) << 20
}
