// Package config provides Viper-based configuration loading for the range
// simulator and its weapon props.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// OutputPaths are zap sink URLs or file paths. The terminal front end
	// owns stdout, so rangesim points this at a file.
	OutputPaths []string `mapstructure:"output_paths"`
}

// PistolConfig holds the chamber tunables plus the trigger interlock.
type PistolConfig struct {
	// CartridgeEjectionPower bounds the force thrown at an ejected live round.
	CartridgeEjectionPower float64 `mapstructure:"cartridge_ejection_power"`
	// CartridgeDespawnAfter is how long an ejected round stays in the world.
	CartridgeDespawnAfter time.Duration `mapstructure:"cartridge_despawn_after"`
	// AutoRechamber feeds the next round after each shot.
	AutoRechamber   bool          `mapstructure:"auto_rechamber"`
	HapticAmplitude float64       `mapstructure:"haptic_amplitude"`
	HapticDuration  time.Duration `mapstructure:"haptic_duration"`
	// RequireSlideInBattery blocks the trigger while the slide is open.
	RequireSlideInBattery bool `mapstructure:"require_slide_in_battery"`
}

// MagazineWellConfig holds the magazine well tunables.
type MagazineWellConfig struct {
	EjectionPower float64 `mapstructure:"ejection_power"`
}

// SlideConfig holds the slide travel and its thresholds, as fractions of
// travel toward the forward stop.
type SlideConfig struct {
	MinPosition      float64 `mapstructure:"min_position"`
	MaxPosition      float64 `mapstructure:"max_position"`
	ReturnSpeed      float64 `mapstructure:"return_speed"`
	PullThreshold    float64 `mapstructure:"pull_threshold"`
	ReleaseThreshold float64 `mapstructure:"release_threshold"`
}

// AudioConfig holds the audio settings.
type AudioConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate int     `mapstructure:"sample_rate"`
	Volume     float64 `mapstructure:"volume"`
}

// SimConfig holds the reference host's tick and animation timing.
type SimConfig struct {
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	LoadAnimation    time.Duration `mapstructure:"load_animation"`
	ReleaseAnimation time.Duration `mapstructure:"release_animation"`
	FireAnimation    time.Duration `mapstructure:"fire_animation"`
	// CasingEventDelay is when the fire clip raises its casing event.
	CasingEventDelay time.Duration `mapstructure:"casing_event_delay"`
	SensorRadius     float64       `mapstructure:"sensor_radius"`
	LinearDamping    float64       `mapstructure:"linear_damping"`
}

// ScriptingConfig holds Lua prop script settings.
type ScriptingConfig struct {
	// ScriptDir is the root that prop definitions' script paths are relative to.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit caps opcodes per hook call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ContentConfig locates prop definitions and scenarios.
type ContentConfig struct {
	PropsDir     string `mapstructure:"props_dir"`
	ScenariosDir string `mapstructure:"scenarios_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging"`
	Content      ContentConfig      `mapstructure:"content"`
	Pistol       PistolConfig       `mapstructure:"pistol"`
	MagazineWell MagazineWellConfig `mapstructure:"magazine_well"`
	Slide        SlideConfig        `mapstructure:"slide"`
	Audio        AudioConfig        `mapstructure:"audio"`
	Scripting    ScriptingConfig    `mapstructure:"scripting"`
	Sim          SimConfig          `mapstructure:"sim"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateLogging(c.Logging),
		validateContent(c.Content),
		validatePistol(c.Pistol),
		validateWell(c.MagazineWell),
		validateSlide(c.Slide),
		validateAudio(c.Audio),
		validateScripting(c.Scripting),
		validateSim(c.Sim),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if len(l.OutputPaths) == 0 {
		errs = append(errs, "logging.output_paths must not be empty")
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.PropsDir == "" {
		errs = append(errs, "content.props_dir must not be empty")
	}
	if c.ScenariosDir == "" {
		errs = append(errs, "content.scenarios_dir must not be empty")
	}
	return joined(errs)
}

func validatePistol(p PistolConfig) error {
	var errs []string
	if p.CartridgeEjectionPower < 0 {
		errs = append(errs, fmt.Sprintf("pistol.cartridge_ejection_power must be >= 0, got %v", p.CartridgeEjectionPower))
	}
	if p.CartridgeDespawnAfter <= 0 {
		errs = append(errs, fmt.Sprintf("pistol.cartridge_despawn_after must be > 0, got %s", p.CartridgeDespawnAfter))
	}
	if p.HapticAmplitude < 0 || p.HapticAmplitude > 1 {
		errs = append(errs, fmt.Sprintf("pistol.haptic_amplitude must be in [0, 1], got %v", p.HapticAmplitude))
	}
	if p.HapticDuration < 0 {
		errs = append(errs, "pistol.haptic_duration must not be negative")
	}
	return joined(errs)
}

func validateWell(w MagazineWellConfig) error {
	if w.EjectionPower < 0 {
		return fmt.Errorf("magazine_well.ejection_power must be >= 0, got %v", w.EjectionPower)
	}
	return nil
}

func validateSlide(s SlideConfig) error {
	var errs []string
	if s.MinPosition >= s.MaxPosition {
		errs = append(errs, fmt.Sprintf("slide.min_position (%v) must be below slide.max_position (%v)", s.MinPosition, s.MaxPosition))
	}
	if s.ReturnSpeed <= 0 {
		errs = append(errs, fmt.Sprintf("slide.return_speed must be > 0, got %v", s.ReturnSpeed))
	}
	if s.PullThreshold <= 0 || s.ReleaseThreshold >= 1 || s.PullThreshold >= s.ReleaseThreshold {
		errs = append(errs, fmt.Sprintf("slide thresholds must satisfy 0 < pull_threshold < release_threshold < 1, got %v and %v",
			s.PullThreshold, s.ReleaseThreshold))
	}
	return joined(errs)
}

func validateAudio(a AudioConfig) error {
	var errs []string
	if a.SampleRate < 8000 || a.SampleRate > 192000 {
		errs = append(errs, fmt.Sprintf("audio.sample_rate must be 8000-192000, got %d", a.SampleRate))
	}
	if a.Volume < 0 || a.Volume > 1 {
		errs = append(errs, fmt.Sprintf("audio.volume must be in [0, 1], got %v", a.Volume))
	}
	return joined(errs)
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateSim(s SimConfig) error {
	var errs []string
	if s.TickInterval <= 0 || s.TickInterval > time.Second {
		errs = append(errs, fmt.Sprintf("sim.tick_interval must be in (0, 1s], got %s", s.TickInterval))
	}
	for name, d := range map[string]time.Duration{
		"load_animation":     s.LoadAnimation,
		"release_animation":  s.ReleaseAnimation,
		"fire_animation":     s.FireAnimation,
		"casing_event_delay": s.CasingEventDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("sim.%s must not be negative", name))
		}
	}
	if s.CasingEventDelay > s.FireAnimation {
		errs = append(errs, "sim.casing_event_delay must not exceed sim.fire_animation")
	}
	if s.SensorRadius <= 0 {
		errs = append(errs, fmt.Sprintf("sim.sensor_radius must be > 0, got %v", s.SensorRadius))
	}
	if s.LinearDamping < 0 {
		errs = append(errs, fmt.Sprintf("sim.linear_damping must be >= 0, got %v", s.LinearDamping))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SIDEARM_ prefix
	v.SetEnvPrefix("SIDEARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stderr"})

	v.SetDefault("content.props_dir", "content/props")
	v.SetDefault("content.scenarios_dir", "content/scenarios")

	v.SetDefault("pistol.cartridge_ejection_power", 20.0)
	v.SetDefault("pistol.cartridge_despawn_after", 60*time.Second)
	v.SetDefault("pistol.auto_rechamber", true)
	v.SetDefault("pistol.haptic_amplitude", 1.0)
	v.SetDefault("pistol.haptic_duration", 100*time.Millisecond)
	v.SetDefault("pistol.require_slide_in_battery", false)

	v.SetDefault("magazine_well.ejection_power", 10.0)

	v.SetDefault("slide.min_position", -0.38)
	v.SetDefault("slide.max_position", 0.0)
	v.SetDefault("slide.return_speed", 19.0)
	v.SetDefault("slide.pull_threshold", 0.05)
	v.SetDefault("slide.release_threshold", 0.95)

	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.volume", 0.8)

	v.SetDefault("scripting.script_dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("sim.tick_interval", time.Second/60)
	v.SetDefault("sim.load_animation", 400*time.Millisecond)
	v.SetDefault("sim.release_animation", 300*time.Millisecond)
	v.SetDefault("sim.fire_animation", 150*time.Millisecond)
	v.SetDefault("sim.casing_event_delay", 40*time.Millisecond)
	v.SetDefault("sim.sensor_radius", 0.1)
	v.SetDefault("sim.linear_damping", 0.5)
}
