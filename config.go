package framecore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
)

// Config is the file form of the renderer options.
//
//	backend = "vulkan"
//	power_preference = "high-performance"
//	present_mode = "mailbox"
//	clear_color = [0.0, 0.0, 1.0, 1.0]
//	zero_stale_tail = false
//	label = "demo"
//
// Empty fields keep the defaults.
type Config struct {
	Backend         string    `toml:"backend"`
	PowerPreference string    `toml:"power_preference"`
	PresentMode     string    `toml:"present_mode"`
	ClearColor      []float64 `toml:"clear_color"`
	ZeroStaleTail   bool      `toml:"zero_stale_tail"`
	Label           string    `toml:"label"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("framecore: read config: %w", err)
	}
	return DecodeConfig(bytes.NewReader(data))
}

// DecodeConfig decodes TOML from r and validates the result.
func DecodeConfig(r io.Reader) (*Config, error) {
	var c Config
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("framecore: decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every named value is recognized.
func (c *Config) Validate() error {
	if c.Backend != "" {
		if _, err := ParseBackend(c.Backend); err != nil {
			return err
		}
	}
	if _, err := parsePowerPreference(c.PowerPreference); err != nil {
		return err
	}
	if _, err := parsePresentMode(c.PresentMode); err != nil {
		return err
	}
	if c.ClearColor != nil && len(c.ClearColor) != 4 {
		return fmt.Errorf("framecore: clear_color needs 4 components, got %d", len(c.ClearColor))
	}
	return nil
}

// Options converts the config to renderer options. Invalid fields are
// skipped; call Validate first to surface them.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Backend != "" {
		opts = append(opts, WithBackend(c.Backend))
	}
	if p, err := parsePowerPreference(c.PowerPreference); err == nil && c.PowerPreference != "" {
		opts = append(opts, WithPowerPreference(p))
	}
	if m, err := parsePresentMode(c.PresentMode); err == nil && c.PresentMode != "" {
		opts = append(opts, WithPresentMode(m))
	}
	if len(c.ClearColor) == 4 {
		opts = append(opts, WithClearColor(gputypes.Color{
			R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3],
		}))
	}
	if c.ZeroStaleTail {
		opts = append(opts, WithZeroStaleTail(true))
	}
	if c.Label != "" {
		opts = append(opts, WithLabel(c.Label))
	}
	return opts
}

func parsePowerPreference(s string) (gputypes.PowerPreference, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return gputypes.PowerPreferenceNone, nil
	case "low-power", "low_power", "integrated":
		return gputypes.PowerPreferenceLowPower, nil
	case "high-performance", "high_performance", "discrete":
		return gputypes.PowerPreferenceHighPerformance, nil
	}
	return gputypes.PowerPreferenceNone, fmt.Errorf("framecore: unknown power preference %q", s)
}

// ParsePresentMode maps a present mode name (case-insensitive) to its value.
func ParsePresentMode(s string) (gputypes.PresentMode, error) {
	return parsePresentMode(s)
}

func parsePresentMode(s string) (gputypes.PresentMode, error) {
	switch strings.ToLower(s) {
	case "", "fifo", "vsync":
		return gputypes.PresentModeFifo, nil
	case "fifo-relaxed", "fifo_relaxed", "fiforelaxed":
		return gputypes.PresentModeFifoRelaxed, nil
	case "immediate":
		return gputypes.PresentModeImmediate, nil
	case "mailbox":
		return gputypes.PresentModeMailbox, nil
	}
	return gputypes.PresentModeFifo, fmt.Errorf("framecore: unknown present mode %q", s)
}
