// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Pointer  PointerConfig  `yaml:"pointer"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
}

type CameraConfig struct {
	Device int  `yaml:"device"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Mirror bool `yaml:"mirror"`
}

type DetectorConfig struct {
	MaxHands              int     `yaml:"max_hands"`
	MinConfidence         float64 `yaml:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
}

type GestureConfig struct {
	PinchThreshold   float64 `yaml:"pinch_threshold"`
	ScrollGain       float64 `yaml:"scroll_gain"`
	ScrollMaxDelta   float64 `yaml:"scroll_max_delta"`
	ScrollDeadZone   float64 `yaml:"scroll_dead_zone"`
	TapDepth         float64 `yaml:"tap_depth"`
	TrackingLandmark int     `yaml:"tracking_landmark"`
}

// PointerConfig sizes of 0 mean the screen size is queried from the OS.
type PointerConfig struct {
	ScreenWidth       int           `yaml:"screen_width"`
	ScreenHeight      int           `yaml:"screen_height"`
	ClickHold         time.Duration `yaml:"click_hold"`
	DoubleClickWindow time.Duration `yaml:"double_click_window"`
	MinDragDuration   time.Duration `yaml:"min_drag_duration"`
	ScrollSensitivity float64       `yaml:"scroll_sensitivity"`
}

type PipelineConfig struct {
	IdleFPS     int           `yaml:"idle_fps"`
	ActiveFPS   int           `yaml:"active_fps"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig with an empty Path disables the session journal.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	g := gesture.DefaultConfig()
	p := pointer.DefaultConfig()
	d := detector.DefaultConfig()
	c := capture.DefaultConfig()

	return &Config{
		Camera: CameraConfig{
			Device: c.DeviceID,
			Width:  c.Width,
			Height: c.Height,
			Mirror: c.Mirror,
		},
		Detector: DetectorConfig{
			MaxHands:              d.MaxHands,
			MinConfidence:         d.MinConfidence,
			MinTrackingConfidence: d.MinTrackingConf,
		},
		Gesture: GestureConfig{
			PinchThreshold:   g.PinchThreshold,
			ScrollGain:       g.ScrollGain,
			ScrollMaxDelta:   g.ScrollMaxDelta,
			ScrollDeadZone:   g.ScrollDeadZone,
			TapDepth:         g.TapDepth,
			TrackingLandmark: g.TrackingLandmark,
		},
		Pointer: PointerConfig{
			ClickHold:         p.ClickHold,
			DoubleClickWindow: p.DoubleClickWindow,
			MinDragDuration:   p.MinDragDuration,
			ScrollSensitivity: p.ScrollSensitivity,
		},
		Pipeline: PipelineConfig{
			IdleFPS:     5,
			ActiveFPS:   30,
			IdleTimeout: 2 * time.Second,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Store: StoreConfig{
			Path: "~/.mudra/mudra.db",
		},
	}
}

// DefaultPath returns ~/.mudra/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".mudra", "config.yaml")
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.Camera.Device >= 0, "camera.device must not be negative")
	check(c.Camera.Width >= 0 && c.Camera.Height >= 0, "camera size must not be negative")
	check(c.Detector.MaxHands > 0, "detector.max_hands must be positive")
	check(c.Detector.MinConfidence >= 0 && c.Detector.MinConfidence <= 1, "detector.min_confidence must be in [0,1]")
	check(c.Detector.MinTrackingConfidence >= 0 && c.Detector.MinTrackingConfidence <= 1, "detector.min_tracking_confidence must be in [0,1]")
	check(c.Gesture.PinchThreshold > 0, "gesture.pinch_threshold must be positive")
	check(c.Gesture.ScrollGain > 0, "gesture.scroll_gain must be positive")
	check(c.Gesture.ScrollMaxDelta >= 0, "gesture.scroll_max_delta must not be negative")
	check(c.Gesture.ScrollDeadZone >= 0, "gesture.scroll_dead_zone must not be negative")
	check(c.Gesture.TapDepth >= 0, "gesture.tap_depth must not be negative")
	check(c.Gesture.TrackingLandmark >= 0 && c.Gesture.TrackingLandmark < detector.NumLandmarks, "gesture.tracking_landmark must be a landmark id (0-20)")
	check(c.Pointer.ScreenWidth >= 0 && c.Pointer.ScreenHeight >= 0, "pointer screen size must not be negative")
	check(c.Pointer.ClickHold > 0, "pointer.click_hold must be positive")
	check(c.Pointer.DoubleClickWindow > 0, "pointer.double_click_window must be positive")
	check(c.Pointer.MinDragDuration >= 0, "pointer.min_drag_duration must not be negative")
	check(c.Pointer.ScrollSensitivity > 0, "pointer.scroll_sensitivity must be positive")
	check(c.Pipeline.IdleFPS > 0 && c.Pipeline.ActiveFPS > 0, "pipeline fps must be positive")
	check(c.Pipeline.IdleTimeout >= 0, "pipeline.idle_timeout must not be negative")
	check(c.Server.Port > 0 && c.Server.Port < 65536, "server.port must be in 1-65535")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StorePath returns the journal path with a leading ~ expanded, or "" when
// the journal is disabled.
func (c *Config) StorePath() string {
	return expandHome(c.Store.Path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// CaptureConfig returns the camera settings.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		Mirror:   c.Camera.Mirror,
	}
}

// DetectorConfig returns the landmark detector settings.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
	}
}

// GestureConfig returns the classifier thresholds.
func (c *Config) GestureConfig() gesture.Config {
	return gesture.Config{
		PinchThreshold:   c.Gesture.PinchThreshold,
		ScrollGain:       c.Gesture.ScrollGain,
		ScrollMaxDelta:   c.Gesture.ScrollMaxDelta,
		ScrollDeadZone:   c.Gesture.ScrollDeadZone,
		TapDepth:         c.Gesture.TapDepth,
		TrackingLandmark: c.Gesture.TrackingLandmark,
	}
}

// PointerConfig returns the dispatcher parameters. screen is used for any
// screen dimension left at 0.
func (c *Config) PointerConfig(screen func() (int, int)) pointer.Config {
	w, h := c.Pointer.ScreenWidth, c.Pointer.ScreenHeight
	if (w == 0 || h == 0) && screen != nil {
		sw, sh := screen()
		if w == 0 {
			w = sw
		}
		if h == 0 {
			h = sh
		}
	}
	return pointer.Config{
		ScreenWidth:       w,
		ScreenHeight:      h,
		ClickHold:         c.Pointer.ClickHold,
		DoubleClickWindow: c.Pointer.DoubleClickWindow,
		MinDragDuration:   c.Pointer.MinDragDuration,
		ScrollSensitivity: c.Pointer.ScrollSensitivity,
	}
}
