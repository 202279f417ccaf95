package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken string
	HTTP          HTTPConfig
	Detector      DetectorConfig
	Storage       StorageConfig
	S3            S3Config
	App           AppConfig
	Log           LogConfig
}

type HTTPConfig struct {
	Enabled bool
	Host    string
	Port    string
}

type DetectorConfig struct {
	ModelPath  string
	Confidence float64
	ImageSize  int
	ClassNames []string
	Preload    bool // загрузить модель при старте, а не при первом анализе
}

type StorageConfig struct {
	Driver       string // csv | sqlite | mysql
	LabelFile    string
	SQLitePath   string
	MySQLDSN     string
	ImageDir     string
	ImageBackend string // file | s3
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	Prefix          string
}

type AppConfig struct {
	MaxUploadSize  int64
	AllowedFormats []string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("HTTP_ENABLED", true)
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MODEL_PATH", "best.onnx")
	v.SetDefault("DETECTOR_CONFIDENCE", 0.2)
	v.SetDefault("DETECTOR_IMAGE_SIZE", 1280)
	v.SetDefault("DETECTOR_CLASS_NAMES", "")
	v.SetDefault("DETECTOR_PRELOAD", false)
	v.SetDefault("STORAGE_DRIVER", "csv")
	v.SetDefault("LABEL_FILE", "feedback_data/labels.csv")
	v.SetDefault("SQLITE_PATH", "feedback_data/labels.db")
	v.SetDefault("MYSQL_DSN", "")
	v.SetDefault("IMAGE_DIR", "feedback_data/images")
	v.SetDefault("IMAGE_BACKEND", "file")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET_NAME", "weld-images")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_PREFIX", "feedback_data/images")
	v.SetDefault("APP_MAX_UPLOAD_SIZE", 20*1024*1024) // 20MB
	v.SetDefault("APP_ALLOWED_FORMATS", ".jpg,.jpeg,.png")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TELEGRAM_TOKEN", "")

	v.AutomaticEnv()

	cfg := &Config{
		TelegramToken: v.GetString("TELEGRAM_TOKEN"),
		HTTP: HTTPConfig{
			Enabled: v.GetBool("HTTP_ENABLED"),
			Host:    v.GetString("HTTP_HOST"),
			Port:    v.GetString("HTTP_PORT"),
		},
		Detector: DetectorConfig{
			ModelPath:  v.GetString("MODEL_PATH"),
			Confidence: v.GetFloat64("DETECTOR_CONFIDENCE"),
			ImageSize:  v.GetInt("DETECTOR_IMAGE_SIZE"),
			ClassNames: splitList(v.GetString("DETECTOR_CLASS_NAMES")),
			Preload:    v.GetBool("DETECTOR_PRELOAD"),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
			LabelFile:    v.GetString("LABEL_FILE"),
			SQLitePath:   v.GetString("SQLITE_PATH"),
			MySQLDSN:     v.GetString("MYSQL_DSN"),
			ImageDir:     v.GetString("IMAGE_DIR"),
			ImageBackend: strings.ToLower(v.GetString("IMAGE_BACKEND")),
		},
		S3: S3Config{
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Region:          v.GetString("S3_REGION"),
			Prefix:          v.GetString("S3_PREFIX"),
		},
		App: AppConfig{
			MaxUploadSize:  v.GetInt64("APP_MAX_UPLOAD_SIZE"),
			AllowedFormats: splitList(v.GetString("APP_ALLOWED_FORMATS")),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := createDirs(cfg); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить по умолчанию
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "csv", "sqlite":
	case "mysql":
		if c.Storage.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for STORAGE_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Storage.ImageBackend {
	case "file", "s3":
	default:
		return fmt.Errorf("unknown IMAGE_BACKEND %q", c.Storage.ImageBackend)
	}

	if c.Detector.Confidence < 0 || c.Detector.Confidence > 1 {
		return fmt.Errorf("DETECTOR_CONFIDENCE must be in [0,1], got %v", c.Detector.Confidence)
	}
	if c.Detector.ImageSize <= 0 {
		return fmt.Errorf("DETECTOR_IMAGE_SIZE must be positive, got %d", c.Detector.ImageSize)
	}
	if !c.HTTP.Enabled && c.TelegramToken == "" {
		return fmt.Errorf("nothing to run: HTTP is disabled and TELEGRAM_TOKEN is empty")
	}

	return nil
}

func createDirs(cfg *Config) error {
	dirs := []string{}
	switch cfg.Storage.Driver {
	case "csv":
		dirs = append(dirs, filepath.Dir(cfg.Storage.LabelFile))
	case "sqlite":
		dirs = append(dirs, filepath.Dir(cfg.Storage.SQLitePath))
	}
	if cfg.Storage.ImageBackend == "file" {
		dirs = append(dirs, cfg.Storage.ImageDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// splitList разбирает список через запятую, пустые элементы отбрасываются
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
