package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marben/mandel_viewport/render"
)

// Config captures runtime configuration for the render server.
type Config struct {
	Addr      string          `yaml:"addr"`
	StaticDir string          `yaml:"static_dir"`
	LogFile   string          `yaml:"log_file"`
	Debug     bool            `yaml:"debug"`
	Render    render.Settings `yaml:"render"`
}

const (
	envAddr    = "MANDEL_VIEWPORT_ADDR"
	envStatic  = "MANDEL_VIEWPORT_STATIC"
	envLogFile = "MANDEL_VIEWPORT_LOG_FILE"
	envDebug   = "MANDEL_VIEWPORT_DEBUG"
	envWidth   = "MANDEL_VIEWPORT_WIDTH"
	envHeight  = "MANDEL_VIEWPORT_HEIGHT"
	envMaxIter = "MANDEL_VIEWPORT_MAX_ITER"
	envWorkers = "MANDEL_VIEWPORT_WORKERS"
)

func Default() Config {
	return Config{
		Addr:      ":8080",
		StaticDir: "./static",
		Render:    render.DefaultSettings(),
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string, environ []string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	env := parseEnv(environ)
	cfg.Addr = envOrDefault(env, envAddr, cfg.Addr)
	cfg.StaticDir = envOrDefault(env, envStatic, cfg.StaticDir)
	cfg.LogFile = envOrDefault(env, envLogFile, cfg.LogFile)
	cfg.Debug = envOrBool(env, envDebug, cfg.Debug)
	cfg.Render.Width = envOrInt(env, envWidth, cfg.Render.Width)
	cfg.Render.Height = envOrInt(env, envHeight, cfg.Render.Height)
	cfg.Render.MaxIterations = envOrInt(env, envMaxIter, cfg.Render.MaxIterations)
	cfg.Render.Workers = envOrInt(env, envWorkers, cfg.Render.Workers)

	return cfg, nil
}

// Validate ensures the configuration can be served.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if err := cfg.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		values[k] = v
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
