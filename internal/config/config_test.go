package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

func TestDefault_MatchesComponentDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, gesture.DefaultConfig(), cfg.GestureConfig())
	assert.Equal(t, detector.DefaultConfig(), cfg.DetectorConfig())

	p := cfg.PointerConfig(func() (int, int) { return 1920, 1080 })
	assert.Equal(t, pointer.DefaultConfig(), p)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.True(t, cfg.CaptureConfig().Mirror)
}

func TestParse_OverridesDefaults(t *testing.T) {
	data := []byte(`
gesture:
  pinch_threshold: 0.05
  tracking_landmark: 8
pointer:
  screen_width: 2560
  click_hold: 300ms
  double_click_window: 1s
pipeline:
  active_fps: 60
server:
  port: 9090
store:
  path: ""
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Gesture.PinchThreshold)
	assert.Equal(t, detector.IndexTip, cfg.Gesture.TrackingLandmark)
	assert.Equal(t, 300*time.Millisecond, cfg.Pointer.ClickHold)
	assert.Equal(t, time.Second, cfg.Pointer.DoubleClickWindow)
	assert.Equal(t, 60, cfg.Pipeline.ActiveFPS)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Empty(t, cfg.StorePath(), "an empty path disables the journal")

	// Untouched values keep their defaults.
	assert.Equal(t, 20.0, cfg.Gesture.ScrollGain)
	assert.Equal(t, 5, cfg.Pipeline.IdleFPS)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero pinch threshold", "gesture:\n  pinch_threshold: 0\n"},
		{"landmark out of range", "gesture:\n  tracking_landmark: 21\n"},
		{"negative tap depth", "gesture:\n  tap_depth: -0.1\n"},
		{"zero double click window", "pointer:\n  double_click_window: 0s\n"},
		{"zero fps", "pipeline:\n  idle_fps: 0\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"confidence above one", "detector:\n  min_confidence: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("gesture: [not, a, map"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pointer:\n  scroll_sensitivity: 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Pointer.ScrollSensitivity)
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file is an error for Load", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid file is still an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o644))

		_, err := LoadOrDefault(path)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestPointerConfig_ScreenSize(t *testing.T) {
	cfg := Default()
	cfg.Pointer.ScreenWidth = 1280

	queried := false
	p := cfg.PointerConfig(func() (int, int) {
		queried = true
		return 3000, 2000
	})

	assert.True(t, queried)
	assert.Equal(t, 1280, p.ScreenWidth, "configured width wins")
	assert.Equal(t, 2000, p.ScreenHeight, "missing height comes from the OS")

	cfg.Pointer.ScreenHeight = 720
	queried = false
	p = cfg.PointerConfig(func() (int, int) {
		queried = true
		return 0, 0
	})
	assert.False(t, queried, "no query when both sizes are configured")
	assert.Equal(t, 720, p.ScreenHeight)
}

func TestStorePath_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg := Default()
	assert.Equal(t, filepath.Join(home, ".mudra", "mudra.db"), cfg.StorePath())

	cfg.Store.Path = "/var/lib/mudra.db"
	assert.Equal(t, "/var/lib/mudra.db", cfg.StorePath())
}
