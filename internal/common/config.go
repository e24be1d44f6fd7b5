package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OCR      OCRConfig
	Extract  ExtractConfig
	Parse    ParseConfig
	Storage  StorageConfig
	Export   ExportConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	MaxUploadMB  int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ConvertTimeout bounds one conversion request end to end.
	ConvertTimeout time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" | "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// OCRConfig holds rasterizer and recognizer settings
type OCRConfig struct {
	Engine      string
	Lang        string
	DPI         int
	PSM         int
	OEM         int
	TessdataDir string
	PageTimeout time.Duration
	Pdfinfo     string
	Pdftotext   string
	Pdftoppm    string
	Tesseract   string
}

type ExtractConfig struct {
	ForceOCR       bool
	MinBanglaChars int
	GarbleMarker   string
	Workers        int
}

type ParseConfig struct {
	RequireVoterNumber bool
}

type StorageConfig struct {
	UploadDir string
	OutputDir string
}

type ExportConfig struct {
	WriteCSV bool
}

type LogConfig struct {
	Level  string
	Format string // "text" | "json"
}

// LoadConfig reads configuration from defaults, an optional config file and
// environment variables with the VOTERROLL_ prefix. The legacy DB_URL,
// GRPC_ADDR and TESSDATA_PREFIX variables are honoured too.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOTERROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.http_addr", ":5000")
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.convert_timeout", "30m")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:voterroll.db?_pragma=busy_timeout(5000)")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime", "30m")
	v.SetDefault("db.max_conn_idle_time", "5m")
	v.SetDefault("db.dial_timeout", "3s")
	v.SetDefault("db.statement_timeout", "0s")

	v.SetDefault("ocr.engine", "cli")
	v.SetDefault("ocr.lang", "ben")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 0)
	v.SetDefault("ocr.oem", 0)
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.page_timeout", "2m")
	v.SetDefault("ocr.pdfinfo", "pdfinfo")
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.tesseract", "tesseract")

	v.SetDefault("extract.force_ocr", true)
	v.SetDefault("extract.min_bangla_chars", 30)
	v.SetDefault("extract.garble_marker", "cid:")
	v.SetDefault("extract.workers", 1)

	v.SetDefault("parse.require_voter_number", false)

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.output_dir", "outputs")

	v.SetDefault("export.write_csv", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Variables the older daemon read without a prefix.
	legacy := map[string]string{
		"db.dsn":           "DB_URL",
		"server.grpc_addr": "GRPC_ADDR",
		"ocr.tessdata_dir": "TESSDATA_PREFIX",
	}
	for key, env := range legacy {
		_ = v.BindEnv(key, "VOTERROLL_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError("CONFIG", fmt.Sprintf("read config file %s", path), err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr:       v.GetString("server.http_addr"),
			GRPCAddr:       v.GetString("server.grpc_addr"),
			MaxUploadMB:    v.GetInt64("server.max_upload_mb"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
			ConvertTimeout: v.GetDuration("server.convert_timeout"),
		},
		Database: DatabaseConfig{
			Driver:           strings.ToLower(v.GetString("db.driver")),
			DSN:              v.GetString("db.dsn"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		OCR: OCRConfig{
			Engine:      v.GetString("ocr.engine"),
			Lang:        v.GetString("ocr.lang"),
			DPI:         v.GetInt("ocr.dpi"),
			PSM:         v.GetInt("ocr.psm"),
			OEM:         v.GetInt("ocr.oem"),
			TessdataDir: v.GetString("ocr.tessdata_dir"),
			PageTimeout: v.GetDuration("ocr.page_timeout"),
			Pdfinfo:     v.GetString("ocr.pdfinfo"),
			Pdftotext:   v.GetString("ocr.pdftotext"),
			Pdftoppm:    v.GetString("ocr.pdftoppm"),
			Tesseract:   v.GetString("ocr.tesseract"),
		},
		Extract: ExtractConfig{
			ForceOCR:       v.GetBool("extract.force_ocr"),
			MinBanglaChars: v.GetInt("extract.min_bangla_chars"),
			GarbleMarker:   v.GetString("extract.garble_marker"),
			Workers:        v.GetInt("extract.workers"),
		},
		Parse: ParseConfig{
			RequireVoterNumber: v.GetBool("parse.require_voter_number"),
		},
		Storage: StorageConfig{
			UploadDir: v.GetString("storage.upload_dir"),
			OutputDir: v.GetString("storage.output_dir"),
		},
		Export: ExportConfig{
			WriteCSV: v.GetBool("export.write_csv"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a job.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		errs = append(errs, errors.New("db.dsn is required for postgres"))
	}
	switch c.OCR.Engine {
	case "cli", "gosseract":
	default:
		errs = append(errs, fmt.Errorf("ocr.engine must be cli or gosseract, got %q", c.OCR.Engine))
	}
	if c.OCR.DPI < 72 || c.OCR.DPI > 1200 {
		errs = append(errs, fmt.Errorf("ocr.dpi must be within [72, 1200], got %d", c.OCR.DPI))
	}
	if c.Extract.MinBanglaChars < 0 {
		errs = append(errs, errors.New("extract.min_bangla_chars must not be negative"))
	}
	if c.Extract.Workers < 1 {
		errs = append(errs, errors.New("extract.workers must be at least 1"))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server.max_upload_mb must be positive"))
	}
	if c.Storage.UploadDir == "" || c.Storage.OutputDir == "" {
		errs = append(errs, errors.New("storage.upload_dir and storage.output_dir are required"))
	}
	if len(errs) > 0 {
		return NewAppError("CONFIG", "invalid configuration", errors.Join(errs...))
	}
	return nil
}
