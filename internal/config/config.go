package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/menta2k/media-canvas/internal/logging"
	"github.com/menta2k/media-canvas/pkg/canvas"
	"github.com/menta2k/media-canvas/pkg/constraints"
	"github.com/menta2k/media-canvas/pkg/transform"
)

// EnvPrefix prefixes every environment override, e.g. MEDIACANVAS_PHOTO_QUALITY
const EnvPrefix = "MEDIACANVAS"

// Config holds the application configuration
type Config struct {
	Processing ProcessingConfig `json:"processing" envconfig:"PROCESSING"`
	Photo      PhotoConfig      `json:"photo" envconfig:"PHOTO"`
	Video      VideoConfig      `json:"video" envconfig:"VIDEO"`
	Focus      FocusConfig      `json:"focus" envconfig:"FOCUS"`
	Log        logging.Config   `json:"log" envconfig:"LOG"`
}

// ProcessingConfig holds request defaults and output placement
type ProcessingConfig struct {
	Operation      string   `json:"operation" envconfig:"OPERATION"`
	Feed           string   `json:"feed" envconfig:"FEED"`
	Background     [3]uint8 `json:"background" ignored:"true"`
	BlurredBorder  bool     `json:"blurred_border" envconfig:"BLURRED_BORDER"`
	OutputDir      string   `json:"output_dir" envconfig:"OUTPUT_DIR"`
	Suffix         string   `json:"suffix" envconfig:"SUFFIX"`
	TempDir        string   `json:"temp_dir" envconfig:"TEMP_DIR"`
	Concurrency    int      `json:"concurrency" envconfig:"CONCURRENCY"`
	TimeoutSeconds int      `json:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

// PhotoConfig holds the photo encoder settings
type PhotoConfig struct {
	Format     string  `json:"format" envconfig:"FORMAT"`
	Quality    int     `json:"quality" envconfig:"QUALITY"`
	BlurSigma  float64 `json:"blur_sigma" envconfig:"BLUR_SIGMA"`
	DebugBoxes bool    `json:"debug_boxes" envconfig:"DEBUG_BOXES"`
}

// VideoConfig holds the ffmpeg settings
type VideoConfig struct {
	SearchPaths  []string `json:"search_paths" envconfig:"SEARCH_PATHS"`
	Preset       string   `json:"preset" envconfig:"PRESET"`
	CRF          int      `json:"crf" envconfig:"CRF"`
	AudioBitrate string   `json:"audio_bitrate" envconfig:"AUDIO_BITRATE"`
}

// FocusConfig selects how the crop focus is chosen
type FocusConfig struct {
	// Mode is fixed, saliency or model
	Mode       string `json:"mode" envconfig:"MODE"`
	Horizontal int    `json:"horizontal" envconfig:"HORIZONTAL"`
	Vertical   int    `json:"vertical" envconfig:"VERTICAL"`
	// Provider is ollama or llamacpp when Mode is model
	Provider       string `json:"provider" envconfig:"PROVIDER"`
	Endpoint       string `json:"endpoint" envconfig:"ENDPOINT"`
	Model          string `json:"model" envconfig:"MODEL"`
	TimeoutSeconds int    `json:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

// Default returns a configuration with default values
func Default() *Config {
	focus := transform.DefaultCropFocus()
	return &Config{
		Processing: ProcessingConfig{
			Operation:      canvas.Crop.String(),
			Feed:           constraints.FeedTimeline,
			Background:     [3]uint8{255, 255, 255},
			OutputDir:      "./output",
			Suffix:         "_canvas",
			Concurrency:    2,
			TimeoutSeconds: 300,
		},
		Photo: PhotoConfig{
			Format:    "jpeg",
			Quality:   95,
			BlurSigma: 20,
		},
		Video: VideoConfig{
			Preset:       "veryfast",
			CRF:          20,
			AudioBitrate: "128k",
		},
		Focus: FocusConfig{
			Mode:           "fixed",
			Horizontal:     focus.Horizontal,
			Vertical:       focus.Vertical,
			Provider:       "ollama",
			Endpoint:       "http://localhost:11434",
			Model:          "qwen2.5vl:7b",
			TimeoutSeconds: 60,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads filename when it exists, falling back to Default, and applies
// environment overrides on top.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			loaded, err := LoadFromFile(filename)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromFile loads configuration from a JSON file. Missing keys keep
// their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// ApplyEnv overlays MEDIACANVAS_* environment variables
func (c *Config) ApplyEnv() error {
	return errors.Wrap(envconfig.Process(EnvPrefix, c), "failed to read environment")
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := canvas.ParseOperation(c.Processing.Operation); err != nil {
		return errors.Wrap(err, "processing.operation")
	}

	if _, err := constraints.ForFeed(c.Processing.Feed); err != nil {
		return errors.Wrap(err, "processing.feed")
	}

	if c.Processing.Concurrency < 1 {
		return errors.New("processing.concurrency must be positive")
	}

	if c.Processing.TimeoutSeconds < 0 {
		return errors.New("processing.timeout_seconds must not be negative")
	}

	switch c.Photo.Format {
	case "jpeg", "png", "webp":
	default:
		return errors.Errorf("photo.format %q must be jpeg, png or webp", c.Photo.Format)
	}

	if c.Photo.Quality < 1 || c.Photo.Quality > 100 {
		return errors.New("photo.quality must be between 1 and 100")
	}

	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		return errors.New("video.crf must be between 0 and 51")
	}

	if err := c.Focus.CropFocus().Validate(); err != nil {
		return errors.Wrap(err, "focus")
	}

	switch c.Focus.Mode {
	case "fixed", "saliency":
	case "model":
		if c.Focus.Provider != "ollama" && c.Focus.Provider != "llamacpp" {
			return errors.Errorf("focus.provider %q must be ollama or llamacpp", c.Focus.Provider)
		}
		if c.Focus.Endpoint == "" || c.Focus.Model == "" {
			return errors.New("focus.endpoint and focus.model are required in model mode")
		}
	default:
		return errors.Errorf("focus.mode %q must be fixed, saliency or model", c.Focus.Mode)
	}

	return nil
}

// Timeout returns the per-file processing timeout, zero for none
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Processing.TimeoutSeconds) * time.Second
}

// CropFocus returns the configured fixed focus
func (c *Config) CropFocus() transform.CropFocus {
	return c.Focus.CropFocus()
}

// CropFocus returns the fixed focus used when no estimate is available
func (f FocusConfig) CropFocus() transform.CropFocus {
	return transform.CropFocus{Horizontal: f.Horizontal, Vertical: f.Vertical}
}

// Timeout returns the per-query model timeout, zero for none
func (f FocusConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "media-canvas", "config.json")
}
