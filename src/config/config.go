// Package config loads the chartgen configuration: built-in defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"

	"github.com/iafilius/FixtureCharts/src/output"
	"github.com/iafilius/FixtureCharts/src/types"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"chartgen.yaml",
	"chartgen.yml",
	"/etc/chartgen/config.yaml",
}

type Config struct {
	Server     ServerConfig        `koanf:"server"`
	Database   DatabaseConfig      `koanf:"database"`
	Output     OutputConfig        `koanf:"output"`
	Fixtures   FixturesConfig      `koanf:"fixtures"`
	Render     RenderConfig        `koanf:"render"`
	Watermark  types.WatermarkSpec `koanf:"watermark"`
	Generation GenerationConfig    `koanf:"generation"`
	Auth       AuthConfig          `koanf:"auth"`
	Logging    LoggingConfig       `koanf:"logging"`
	// Charts overrides the built-in chart set of the fixture profile.
	Charts []types.ChartSpec `koanf:"charts" validate:"dive"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// GenerateRatePerMinute limits POST /api/charts/generate per client IP.
	GenerateRatePerMinute int `koanf:"generate_rate_per_minute" validate:"min=1"`
}

// DatabaseConfig selects the record store. An empty URL generates records in memory.
type DatabaseConfig struct {
	URL string `koanf:"url"`
	// Seed fills an empty fixtures table on startup.
	Seed bool `koanf:"seed"`
}

type OutputConfig struct {
	// Dir, when set, is used as is. Otherwise the first existing candidate wins and the
	// fallback is created when none exists.
	Dir        string   `koanf:"dir"`
	Candidates []string `koanf:"candidates"`
	Fallback   string   `koanf:"fallback"`
	Snapshot   bool     `koanf:"snapshot"`
}

type FixturesConfig struct {
	Count   int    `koanf:"count" validate:"min=0,max=1000000"`
	Seed    uint64 `koanf:"seed"`
	Profile string `koanf:"profile" validate:"oneof=employees fixtures sales"`
	// Anchor is the YYYY-MM-DD date relative dates are generated from.
	Anchor string `koanf:"anchor" validate:"omitempty,datetime=2006-01-02"`
}

type RenderConfig struct {
	Width  int     `koanf:"width" validate:"min=0"`
	Height int     `koanf:"height" validate:"min=0"`
	DPI    float64 `koanf:"dpi" validate:"min=0"`
}

type GenerationConfig struct {
	OnStartup bool `koanf:"on_startup"`
	// Schedule is an optional cron expression for periodic regeneration.
	Schedule string `koanf:"schedule"`
}

type AuthConfig struct {
	JWTSecret  string `koanf:"jwt_secret"`
	CookieName string `koanf:"cookie_name"`
	Issuer     string `koanf:"issuer"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", GenerateRatePerMinute: 6},
		Database: DatabaseConfig{
			URL:  "",
			Seed: true,
		},
		Output: OutputConfig{
			Candidates: []string{"/app/static/charts", "static/charts", "app/static/charts"},
			Fallback:   "static/charts",
		},
		Fixtures: FixturesConfig{Count: 50, Seed: 42, Profile: "employees", Anchor: "2025-01-01"},
		Render:   RenderConfig{Width: 1000, Height: 600, DPI: 96},
		Watermark: types.WatermarkSpec{
			Text:    "FixtureCharts",
			Opacity: 0.25,
			Scale:   0.3,
			Anchor:  types.AnchorBottomRight,
			Margin:  10,
		},
		Generation: GenerationConfig{OnStartup: true},
		Auth:       AuthConfig{CookieName: "session", Issuer: "chartgen"},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
	}
}

// envMappings maps environment variable names (lower-cased) to config paths. Variables
// not listed are ignored.
var envMappings = map[string]string{
	"database_url":                   "database.url",
	"secret_key":                     "auth.jwt_secret",
	"chartgen_addr":                  "server.addr",
	"chartgen_generate_rate":         "server.generate_rate_per_minute",
	"chartgen_database_url":          "database.url",
	"chartgen_database_seed":         "database.seed",
	"chartgen_output_dir":            "output.dir",
	"chartgen_output_candidates":     "output.candidates",
	"chartgen_output_fallback":       "output.fallback",
	"chartgen_snapshot":              "output.snapshot",
	"chartgen_fixture_count":         "fixtures.count",
	"chartgen_fixture_seed":          "fixtures.seed",
	"chartgen_fixture_profile":       "fixtures.profile",
	"chartgen_fixture_anchor":        "fixtures.anchor",
	"chartgen_render_width":          "render.width",
	"chartgen_render_height":         "render.height",
	"chartgen_render_dpi":            "render.dpi",
	"chartgen_watermark_image":       "watermark.image_path",
	"chartgen_watermark_text":        "watermark.text",
	"chartgen_watermark_opacity":     "watermark.opacity",
	"chartgen_watermark_scale":       "watermark.scale",
	"chartgen_watermark_anchor":      "watermark.anchor",
	"chartgen_watermark_margin":      "watermark.margin",
	"chartgen_generation_on_startup": "generation.on_startup",
	"chartgen_schedule":              "generation.schedule",
	"chartgen_jwt_secret":            "auth.jwt_secret",
	"chartgen_auth_cookie":           "auth.cookie_name",
	"chartgen_auth_issuer":           "auth.issuer",
	"chartgen_log_level":             "logging.level",
	"chartgen_log_format":            "logging.format",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// sliceConfigPaths are split on commas when they arrive as a single string from the environment.
var sliceConfigPaths = []string{"output.candidates"}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load builds the configuration. Precedence: environment > file > defaults. SKIP_INIT set
// to a true value disables generation on startup.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if v, ok := os.LookupEnv("SKIP_INIT"); ok && v != "" {
		// any non-boolean value counts as set, matching the legacy flag
		if skip, err := cast.ToBoolE(v); err != nil || skip {
			cfg.Generation.OnStartup = false
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// AnchorTime parses Fixtures.Anchor. An empty anchor returns the zero time.
func (c *Config) AnchorTime() time.Time {
	if c.Fixtures.Anchor == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.Fixtures.Anchor)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ResolveOutputDir settles Output.Dir once: an explicit directory is created if needed,
// otherwise the candidates and fallback decide.
func (c *Config) ResolveOutputDir() (string, error) {
	if c.Output.Dir != "" {
		if err := os.MkdirAll(c.Output.Dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: %v", output.ErrUnwritable, err)
		}
		return c.Output.Dir, nil
	}
	dir, err := output.ResolveDir(c.Output.Candidates, c.Output.Fallback)
	if err != nil {
		return "", err
	}
	c.Output.Dir = dir
	return dir, nil
}

// LookupOutputDir names the output directory without creating anything. Listing uses it.
func (c *Config) LookupOutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return output.LookupDir(c.Output.Candidates, c.Output.Fallback)
}

// ChartSpecs returns the configured charts, or the built-in set for the fixture profile.
func (c *Config) ChartSpecs(builtin func(profile string) []types.ChartSpec) []types.ChartSpec {
	if len(c.Charts) > 0 {
		return c.Charts
	}
	return builtin(c.Fixtures.Profile)
}
