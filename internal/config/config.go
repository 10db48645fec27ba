// Package config loads lingoquiz settings. Sources are layered, later ones
// winning: built-in defaults, the YAML file, a .env file, then LINGOQUIZ_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/lingoquiz/internal/llm"
)

// Config is the full application configuration.
type Config struct {
	API      API        `yaml:"api"`
	Auth     Auth       `yaml:"auth"`
	Store    Store      `yaml:"store"`
	Log      Log        `yaml:"log"`
	Audio    Audio      `yaml:"audio"`
	Practice Practice   `yaml:"practice"`
	Sandbox  Sandbox    `yaml:"sandbox"`
	LLM      llm.Config `yaml:"llm"`
}

type API struct {
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	SuccessCode int           `yaml:"success_code" validate:"min=100,max=599"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
}

type Auth struct {
	// Token, when set, is used as the bearer token instead of a stored login.
	Token string `yaml:"token"`
}

type Store struct {
	Path string `yaml:"path"`
}

type Log struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Debug bool   `yaml:"debug"`
}

type Audio struct {
	RecordCommand string `yaml:"record_command"`
	PlayCommand   string `yaml:"play_command"`
}

type Practice struct {
	Level string `yaml:"level" validate:"omitempty,oneof=easy medium hard"`

	// SampleSource picks where practice sentences come from.
	SampleSource string `yaml:"sample_source" validate:"oneof=api llm"`
}

type Sandbox struct {
	Addr      string `yaml:"addr" validate:"required"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: API{
			BaseURL:     "http://127.0.0.1:8787/api",
			SuccessCode: 200,
			Timeout:     30 * time.Second,
		},
		Log:      Log{Level: "info"},
		Practice: Practice{Level: "easy", SampleSource: "api"},
		Sandbox:  Sandbox{Addr: "127.0.0.1:8787"},
		LLM:      llm.DefaultConfig(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/lingoquiz/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lingoquiz", "config.yaml"), nil
}

// Load builds the configuration. An explicit path must exist; the default
// file is optional. The .env file in the working directory is optional too.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays LINGOQUIZ_* variables.
func (c *Config) ApplyEnv() error {
	str := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str(&c.API.BaseURL, "LINGOQUIZ_API_URL")
	str(&c.Auth.Token, "LINGOQUIZ_TOKEN")
	str(&c.Store.Path, "LINGOQUIZ_DB")
	str(&c.Log.Path, "LINGOQUIZ_LOG_FILE")
	str(&c.Log.Level, "LINGOQUIZ_LOG_LEVEL")
	str(&c.Audio.RecordCommand, "LINGOQUIZ_RECORD_COMMAND")
	str(&c.Audio.PlayCommand, "LINGOQUIZ_PLAY_COMMAND")
	str(&c.Practice.Level, "LINGOQUIZ_PRACTICE_LEVEL")
	str(&c.Practice.SampleSource, "LINGOQUIZ_SAMPLE_SOURCE")
	str(&c.Sandbox.Addr, "LINGOQUIZ_SANDBOX_ADDR")
	str(&c.Sandbox.JWTSecret, "LINGOQUIZ_SANDBOX_SECRET")

	if v := os.Getenv("LINGOQUIZ_SUCCESS_CODE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LINGOQUIZ_SUCCESS_CODE: %w", err)
		}
		c.API.SuccessCode = n
	}
	if v := os.Getenv("LINGOQUIZ_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LINGOQUIZ_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("LINGOQUIZ_DEBUG"); v != "" {
		c.Log.Debug, _ = strconv.ParseBool(v)
	}

	c.LLM.ApplyEnv()
	return nil
}

var validate = validator.New()

// Validate checks field constraints and the LLM section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Practice.SampleSource == "llm" && !c.LLM.Enabled() {
		return errors.New("invalid config: practice.sample_source is llm but no LLM provider is configured")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
