package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DriverLocal = "local"
	DriverImgBB = "imgbb"
	DriverS3    = "s3"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Admin    AdminConfig    `mapstructure:"admincredentials"`
	Session  SessionConfig  `mapstructure:"session"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	PublicDir       string        `mapstructure:"public_dir" validate:"required"`
	ViewsDir        string        `mapstructure:"views_dir" validate:"required"`
	BodyLimitMB     int           `mapstructure:"body_limit_mb" validate:"gte=1"`
	CORSOrigins     string        `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Path is the sqlite connection string, usually a file path.
	Path string `mapstructure:"path" validate:"required"`
}

type StorageConfig struct {
	Driver string             `mapstructure:"driver" validate:"oneof=local imgbb s3"`
	Local  LocalStorageConfig `mapstructure:"local"`
	ImgBB  ImgBBConfig        `mapstructure:"imgbb"`
	S3     S3Config           `mapstructure:"s3"`
}

type LocalStorageConfig struct {
	Dir       string `mapstructure:"dir"`
	URLPrefix string `mapstructure:"url_prefix"`
}

type ImgBBConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type S3Config struct {
	Endpoint       string `mapstructure:"endpoint"`
	Region         string `mapstructure:"region"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Bucket         string `mapstructure:"bucket"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	PublicURL      string `mapstructure:"public_url"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name" validate:"required"`
	Expiration   time.Duration `mapstructure:"expiration"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// Enabled reports whether a mail relay is configured.
func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.To != "" }

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("server.addr", ":3000")
	vp.SetDefault("server.public_dir", "./wwwroot")
	vp.SetDefault("server.views_dir", "./views")
	vp.SetDefault("server.body_limit_mb", 10)
	vp.SetDefault("server.cors_origins", "*")
	vp.SetDefault("server.shutdown_timeout", "10s")

	vp.SetDefault("database.path", "gallery.db")

	vp.SetDefault("storage.driver", DriverLocal)
	vp.SetDefault("storage.local.dir", "./wwwroot/uploads")
	vp.SetDefault("storage.local.url_prefix", "/uploads")
	vp.SetDefault("storage.imgbb.api_key", "")
	vp.SetDefault("storage.imgbb.endpoint", "https://api.imgbb.com/1/upload")
	vp.SetDefault("storage.imgbb.timeout", "30s")
	vp.SetDefault("storage.s3.endpoint", "")
	vp.SetDefault("storage.s3.region", "us-east-1")
	vp.SetDefault("storage.s3.access_key", "")
	vp.SetDefault("storage.s3.secret_key", "")
	vp.SetDefault("storage.s3.bucket", "")
	vp.SetDefault("storage.s3.force_path_style", false)
	vp.SetDefault("storage.s3.public_url", "")

	vp.SetDefault("admincredentials.email", "")
	vp.SetDefault("admincredentials.password", "")

	vp.SetDefault("session.cookie_name", "gallery_session")
	vp.SetDefault("session.expiration", "24h")
	vp.SetDefault("session.cookie_secure", false)

	vp.SetDefault("smtp.host", "")
	vp.SetDefault("smtp.port", 587)
	vp.SetDefault("smtp.username", "")
	vp.SetDefault("smtp.password", "")
	vp.SetDefault("smtp.from", "")
	vp.SetDefault("smtp.to", "")

	vp.SetDefault("log.level", "info")
	vp.SetDefault("log.development", false)
}

// Load reads defaults, then the config file, then environment variables.
// An empty path looks for ./config.yaml and tolerates its absence.
// Environment keys are the upper-cased config keys with dots replaced by
// underscores, e.g. STORAGE_IMGBB_API_KEY.
func Load(path string) (*Config, error) {
	vp := viper.New()
	setDefaults(vp)

	if path != "" {
		vp.SetConfigFile(path)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath(".")
	}
	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyAdminEnv(&cfg, os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyAdminEnv takes ADMIN_EMAIL and ADMIN_PASSWORD as a pair; when either
// is unset both values come from the configuration.
func applyAdminEnv(cfg *Config, getenv func(string) string) {
	email, password := getenv("ADMIN_EMAIL"), getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	cfg.Admin = AdminConfig{Email: email, Password: password}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Storage.Driver {
	case DriverLocal:
		if c.Storage.Local.Dir == "" {
			return errors.New("invalid config: storage.local.dir is required")
		}
	case DriverImgBB:
		if c.Storage.ImgBB.APIKey == "" {
			return errors.New("invalid config: storage.imgbb.api_key is required for the imgbb driver")
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return errors.New("invalid config: storage.s3.bucket and storage.s3.region are required for the s3 driver")
		}
	}
	return nil
}
