package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	Collect CollectConfig     `yaml:"collect"`
	Capture CaptureConfig     `yaml:"capture"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.Collect.Validate(); err != nil {
		return err
	}
	return c.Capture.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig locates the export, the overlays and the note storage root.
// Relative file names are resolved against Dir.
type DataConfig struct {
	Dir              string `yaml:"dir"`
	Root             string `yaml:"root"`
	SourceFile       string `yaml:"source_file"`
	CustomAlbumsFile string `yaml:"custom_albums_file"`
	LearnedFile      string `yaml:"learned_file"`
	StarredFile      string `yaml:"starred_file"`
	StaticDir        string `yaml:"static_dir"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.SourceFile, validation.Required),
		validation.Field(&c.CustomAlbumsFile, validation.Required),
		validation.Field(&c.LearnedFile, validation.Required),
		validation.Field(&c.StarredFile, validation.Required),
	)
}

// Path resolves name against Dir.
func (c *DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// CollectConfig configures the detail collector.
type CollectConfig struct {
	BridgeURL       string        `yaml:"bridge_url"`
	RequestInterval time.Duration `yaml:"request_interval"`
	MediaInterval   time.Duration `yaml:"media_interval"`
	Timeout         time.Duration `yaml:"timeout"`
	DownloadMedia   bool          `yaml:"download_media"`
}

// Validate validates the collector configuration.
func (c *CollectConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BridgeURL, validation.Required, validation.By(httpScheme)),
		validation.Field(&c.RequestInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.MediaInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

func httpScheme(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("must be an http or https URL")
	}
	return nil
}

// CaptureConfig configures live album capture.
type CaptureConfig struct {
	ScrollDelta    int           `yaml:"scroll_delta"`
	SettleInterval time.Duration `yaml:"settle_interval"`
	StallThreshold int           `yaml:"stall_threshold"`
	RetainStale    bool          `yaml:"retain_stale"`
}

// Validate validates the capture configuration.
func (c *CaptureConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ScrollDelta, validation.Required, validation.Min(1)),
		validation.Field(&c.SettleInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.StallThreshold, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8000,
			},
		},
		Data: DataConfig{
			Dir:              ".",
			Root:             "data_storage",
			SourceFile:       "my_xhs_data.json",
			CustomAlbumsFile: "custom_albums.json",
			LearnedFile:      "learning_status.json",
			StarredFile:      "starred_status.json",
			StaticDir:        "static",
		},
		Collect: CollectConfig{
			BridgeURL:       "http://127.0.0.1:8080",
			RequestInterval: 2 * time.Second,
			MediaInterval:   500 * time.Millisecond,
			Timeout:         30 * time.Second,
			DownloadMedia:   true,
		},
		Capture: CaptureConfig{
			ScrollDelta:    800,
			SettleInterval: time.Second,
			StallThreshold: 5,
		},
	}
}
