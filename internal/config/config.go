// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/ikarm/internal/geometry"
	"github.com/xkilldash9x/ikarm/internal/ik"
)

// Interface defines the contract for accessing application configuration.
// Commands depend on it so tests can hand in a tweaked default config.
type Interface interface {
	Logger() LoggerConfig
	Chain() ChainConfig
	Simulation() SimulationConfig
	Render() RenderConfig
	Input() InputConfig

	// Chain Setters
	SetChainElbowMode(mode string)

	// Simulation Setters
	SetSimulationFPS(fps float64)
	SetSimulationMaxFrames(n int)

	// Render Setters
	SetRenderFormat(format string)
	SetRenderOutput(path string)

	// Input Setters
	SetInputKind(kind string)
	SetInputFile(path string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	ChainCfg      ChainConfig      `mapstructure:"chain" yaml:"chain"`
	SimulationCfg SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	RenderCfg     RenderConfig     `mapstructure:"render" yaml:"render"`
	InputCfg      InputConfig      `mapstructure:"input" yaml:"input"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Chain() ChainConfig           { return c.ChainCfg }
func (c *Config) Simulation() SimulationConfig { return c.SimulationCfg }
func (c *Config) Render() RenderConfig         { return c.RenderCfg }
func (c *Config) Input() InputConfig           { return c.InputCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetChainElbowMode(mode string)   { c.ChainCfg.ElbowMode = mode }
func (c *Config) SetSimulationFPS(fps float64)    { c.SimulationCfg.FPS = fps }
func (c *Config) SetSimulationMaxFrames(n int)    { c.SimulationCfg.MaxFrames = n }
func (c *Config) SetRenderFormat(format string)   { c.RenderCfg.Format = format }
func (c *Config) SetRenderOutput(path string)     { c.RenderCfg.Output = path }
func (c *Config) SetInputKind(kind string)        { c.InputCfg.Kind = kind }
func (c *Config) SetInputFile(path string)        { c.InputCfg.File = path }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color settings for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ChainConfig describes the arm: its anchor and segment lengths.
type ChainConfig struct {
	Root           geometry.Vector2D `mapstructure:"root" yaml:"root"`
	Segment1Length float64           `mapstructure:"segment1_length" yaml:"segment1_length"`
	Segment2Length float64           `mapstructure:"segment2_length" yaml:"segment2_length"`
	// ElbowMode is "half" (default) or "exact".
	ElbowMode string `mapstructure:"elbow_mode" yaml:"elbow_mode"`
}

// ClickConfig is a scripted pointer press: at Frame the goal jumps to (X, Y).
type ClickConfig struct {
	Frame int     `mapstructure:"frame" yaml:"frame"`
	X     float64 `mapstructure:"x" yaml:"x"`
	Y     float64 `mapstructure:"y" yaml:"y"`
}

// SimulationConfig drives the frame loop.
type SimulationConfig struct {
	// FPS paces the loop. Zero or less runs frames back to back.
	FPS       float64 `mapstructure:"fps" yaml:"fps"`
	MaxFrames int     `mapstructure:"max_frames" yaml:"max_frames"`
	// LerpFrames is how many frames after a click the smoothed point reaches the goal.
	LerpFrames     float64           `mapstructure:"lerp_frames" yaml:"lerp_frames"`
	CanvasWidth    int               `mapstructure:"canvas_width" yaml:"canvas_width"`
	CanvasHeight   int               `mapstructure:"canvas_height" yaml:"canvas_height"`
	Start          geometry.Vector2D `mapstructure:"start" yaml:"start"`
	Clicks         []ClickConfig     `mapstructure:"clicks" yaml:"clicks"`
	StopOnInputEOF bool              `mapstructure:"stop_on_input_eof" yaml:"stop_on_input_eof"`
}

// RenderConfig selects the output collaborator.
type RenderConfig struct {
	// Format is "text", "jsonl" or "none".
	Format string `mapstructure:"format" yaml:"format"`
	// Output is a file path, or "-" for stdout.
	Output string `mapstructure:"output" yaml:"output"`
	// EveryN renders only every Nth frame.
	EveryN int `mapstructure:"every_n" yaml:"every_n"`
}

// InputConfig selects where goal points come from.
type InputConfig struct {
	// Kind is "script", "stdin" or "file".
	Kind string `mapstructure:"kind" yaml:"kind"`
	File string `mapstructure:"file" yaml:"file"`
	// FromStart replays a followed file from the beginning instead of its end.
	FromStart bool `mapstructure:"from_start" yaml:"from_start"`
}

// EnvPrefix namespaces environment overrides, e.g. IKARM_CHAIN_SEGMENT1_LENGTH.
const EnvPrefix = "IKARM"

// BindEnv makes every key overridable through IKARM_* environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewDefaultConfig returns a configuration built purely from SetDefaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
// The arm defaults reproduce the classic sketch: a 1200x600 canvas with the
// shoulder at the bottom center and two 800px segments.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ikarm")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Chain --
	v.SetDefault("chain.root.x", 600.0)
	v.SetDefault("chain.root.y", 600.0)
	v.SetDefault("chain.segment1_length", 800.0)
	v.SetDefault("chain.segment2_length", 800.0)
	v.SetDefault("chain.elbow_mode", string(ik.ElbowHalfRadius))

	// -- Simulation --
	v.SetDefault("simulation.fps", 60.0)
	v.SetDefault("simulation.max_frames", 600)
	v.SetDefault("simulation.lerp_frames", 100.0)
	v.SetDefault("simulation.canvas_width", 1200)
	v.SetDefault("simulation.canvas_height", 600)
	v.SetDefault("simulation.start.x", 600.0)
	v.SetDefault("simulation.start.y", 300.0)
	v.SetDefault("simulation.stop_on_input_eof", false)
	v.SetDefault("simulation.clicks", []map[string]interface{}{
		{"frame": 0, "x": 900.0, "y": 200.0},
		{"frame": 150, "x": 200.0, "y": 350.0},
		{"frame": 300, "x": 1150.0, "y": 100.0},
		// Out of reach of the halved circles; the elbow holds.
		{"frame": 450, "x": 0.0, "y": 0.0},
	})

	// -- Render --
	v.SetDefault("render.format", "text")
	v.SetDefault("render.output", "-")
	v.SetDefault("render.every_n", 1)

	// -- Input --
	v.SetDefault("input.kind", "script")
	v.SetDefault("input.file", "")
	v.SetDefault("input.from_start", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves leading ~ in every configured path.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.LoggerCfg.LogFile, &c.RenderCfg.Output, &c.InputCfg.File} {
		if *p == "" || *p == "-" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("could not resolve path '%s': %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.ChainCfg.Validate(); err != nil {
		return fmt.Errorf("chain configuration invalid: %w", err)
	}
	if err := c.SimulationCfg.Validate(); err != nil {
		return fmt.Errorf("simulation configuration invalid: %w", err)
	}
	if err := c.RenderCfg.Validate(); err != nil {
		return fmt.Errorf("render configuration invalid: %w", err)
	}
	if err := c.InputCfg.Validate(); err != nil {
		return fmt.Errorf("input configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the arm geometry.
func (c *ChainConfig) Validate() error {
	if c.Segment1Length <= 0 || c.Segment2Length <= 0 {
		return fmt.Errorf("segment lengths must be positive")
	}
	if !c.Root.IsFinite() {
		return fmt.Errorf("root must be a finite point")
	}
	if _, err := ik.ParseElbowMode(c.ElbowMode); err != nil {
		return err
	}
	return nil
}

// Validate checks the SimulationConfig settings.
func (s *SimulationConfig) Validate() error {
	if s.MaxFrames < 0 {
		return fmt.Errorf("max_frames must not be negative")
	}
	if s.LerpFrames <= 0 {
		return fmt.Errorf("lerp_frames must be greater than 0")
	}
	if s.CanvasWidth <= 0 || s.CanvasHeight <= 0 {
		return fmt.Errorf("canvas dimensions must be positive")
	}
	for i, click := range s.Clicks {
		if click.Frame < 0 {
			return fmt.Errorf("clicks[%d].frame must not be negative", i)
		}
	}
	return nil
}

// Validate checks the RenderConfig settings.
func (r *RenderConfig) Validate() error {
	switch r.Format {
	case "text", "jsonl", "none":
	default:
		return fmt.Errorf("unknown render format %q", r.Format)
	}
	if r.EveryN < 1 {
		return fmt.Errorf("every_n must be at least 1")
	}
	return nil
}

// Validate checks the InputConfig settings.
func (i *InputConfig) Validate() error {
	switch i.Kind {
	case "script", "stdin":
	case "file":
		if i.File == "" {
			return fmt.Errorf("input.file is required when input.kind is file")
		}
	default:
		return fmt.Errorf("unknown input kind %q", i.Kind)
	}
	return nil
}
