package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PROFILE_STORE     = "store"
	PROFILE_NORMALIZE = "normalize"

	ENV_PREFIX = "SNAPSQUARE"

	DEFAULT_UPLOAD_DIR  = "uploads"
	DEFAULT_MAX_BYTES   int64 = 16 << 20 // 16 MiB
	DEFAULT_IMAGE_SIZE        = 224
	DEFAULT_JPEG_QUALITY      = 95

	// decompression bomb guard, same ceiling as Pillow's
	DEFAULT_MAX_PIXELS int64 = 178956970
)

var DEFAULT_ALLOWED_EXTENSIONS = []string{"png", "jpg", "jpeg", "gif", "bmp"}

type Config struct {
	Profile string       `mapstructure:"profile"`
	Server  ServerConfig `mapstructure:"server"`
	Upload  UploadConfig `mapstructure:"upload"`
	Image   ImageConfig  `mapstructure:"image"`
	Views   ViewsConfig  `mapstructure:"views"`
	Log     LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr               string        `mapstructure:"addr"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"` // 0 disables
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
}

type UploadConfig struct {
	Dir               string   `mapstructure:"dir"`
	MaxBytes          int64    `mapstructure:"max_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	// when false, 500 responses carry a generic message instead of the
	// underlying error
	ExposeErrors bool `mapstructure:"expose_errors"`
}

// Square output resolution, JPEG quality and the largest decodable pixel
// count for the normalize profile.
type ImageConfig struct {
	Size      int   `mapstructure:"size"`
	Quality   int   `mapstructure:"quality"`
	MaxPixels int64 `mapstructure:"max_pixels"` // 0 disables
}

type ViewsConfig struct {
	Results bool `mapstructure:"results"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Pretty    bool   `mapstructure:"pretty"`
	ErrorFile string `mapstructure:"error_file"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Profile: PROFILE_NORMALIZE,
		Server: ServerConfig{
			Addr:               ":8080",
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       60 * time.Second,
			RateLimitPerMinute: 600,
			AllowedOrigins:     []string{"*"},
		},
		Upload: UploadConfig{
			Dir:               DEFAULT_UPLOAD_DIR,
			MaxBytes:          DEFAULT_MAX_BYTES,
			AllowedExtensions: slices.Clone(DEFAULT_ALLOWED_EXTENSIONS),
			ExposeErrors:      true,
		},
		Image: ImageConfig{
			Size:      DEFAULT_IMAGE_SIZE,
			Quality:   DEFAULT_JPEG_QUALITY,
			MaxPixels: DEFAULT_MAX_PIXELS,
		},
		Views: ViewsConfig{
			Results: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	return nil
}

// Load resolves the configuration from defaults, an optional config file,
// SNAPSQUARE_* environment variables and any flags already bound to v.
func Load(v *viper.Viper) (*Config, error) {
	def := Default()

	v.SetDefault("profile", def.Profile)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	v.SetDefault("server.rate_limit_per_minute", def.Server.RateLimitPerMinute)
	v.SetDefault("server.allowed_origins", def.Server.AllowedOrigins)
	v.SetDefault("upload.dir", def.Upload.Dir)
	v.SetDefault("upload.max_bytes", def.Upload.MaxBytes)
	v.SetDefault("upload.allowed_extensions", def.Upload.AllowedExtensions)
	v.SetDefault("upload.expose_errors", def.Upload.ExposeErrors)
	v.SetDefault("image.size", def.Image.Size)
	v.SetDefault("image.quality", def.Image.Quality)
	v.SetDefault("image.max_pixels", def.Image.MaxPixels)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.pretty", def.Log.Pretty)
	v.SetDefault("log.error_file", def.Log.ErrorFile)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var not_found viper.ConfigFileNotFoundError
		if !errors.As(err, &not_found) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	// /results only ships with the store profile unless set explicitly
	v.SetDefault("views.results", strings.ToLower(v.GetString("profile")) == PROFILE_STORE)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Profile = strings.ToLower(strings.TrimSpace(c.Profile))

	exts := make([]string, 0, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" && !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	c.Upload.AllowedExtensions = exts
}

func (c *Config) Validate() error {
	switch c.Profile {
	case PROFILE_STORE, PROFILE_NORMALIZE:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProfile, c.Profile)
	}

	if c.Upload.Dir == "" {
		return ErrNoUploadDir
	}
	if c.Upload.MaxBytes <= 0 {
		return ErrInvalidMaxBytes
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return ErrNoAllowedExtensions
	}
	if c.Image.Size <= 0 {
		return ErrInvalidImageSize
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return ErrInvalidQuality
	}
	if c.Image.MaxPixels < 0 {
		return ErrInvalidMaxPixels
	}

	return nil
}

var (
	ErrUnknownProfile      error = errors.New("unknown profile (expected \"store\" or \"normalize\")")
	ErrNoUploadDir         error = errors.New("upload dir must not be empty")
	ErrInvalidMaxBytes     error = errors.New("upload max bytes must be positive")
	ErrNoAllowedExtensions error = errors.New("at least one allowed extension is required")
	ErrInvalidImageSize    error = errors.New("image size must be positive")
	ErrInvalidQuality      error = errors.New("image quality must be between 1 and 100")
	ErrInvalidMaxPixels    error = errors.New("image max pixels must not be negative")
)
