package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ErrDuplicateConfigFiles is returned when both .json and .jsonc config files exist.
var ErrDuplicateConfigFiles = errors.New("duplicate config files")

// Config holds the application configuration.
type Config struct {
	// Probe is the probe command line, argv[0] first.
	Probe []string `json:"probe,omitempty"`
	// Wrap is prepended to Probe, e.g. ["bwrap", "--ro-bind", "/", "/", "--"].
	Wrap []string `json:"wrap,omitempty"`
	// Workdir is the probe's working directory, relative to EffectiveCwd.
	Workdir string `json:"workdir,omitempty"`
	// Env is the probe's environment.
	Env map[string]string `json:"env,omitempty"`
	// InheritEnv passes probe-check's own environment to the probe, under Env.
	InheritEnv *bool `json:"inheritEnv,omitempty"`
	// Golden is the golden transcript path, relative to EffectiveCwd.
	Golden string `json:"golden,omitempty"`
	Expect Expect `json:"expect"`

	// Resolved (not serialized)
	EffectiveCwd string            `json:"-"`
	LoadedFiles  map[string]string `json:"-"` // label ("global", "project", "explicit") -> path
}

// Expect holds declarative checks against a transcript. Unset fields are not
// checked.
type Expect struct {
	Dir         *string           `json:"dir,omitempty"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	EnvInclude  map[string]string `json:"envInclude,omitempty"`
	Root        []string          `json:"root,omitempty"`
	RootInclude []string          `json:"rootInclude,omitempty"`
	RootExclude []string          `json:"rootExclude,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		InheritEnv: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func stringPtr(s string) *string {
	return &s
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // --config flag value
	Env             map[string]string // Environment variables (for XDG_CONFIG_HOME)
}

// LoadConfig loads configuration with the following precedence (later overrides earlier):
//  1. Built-in defaults
//  2. Global config: $XDG_CONFIG_HOME/probe-check/config.json or config.jsonc
//     (defaults to ~/.config/probe-check/) - always loaded if exists
//  3. Project config OR --config path (not both):
//     - Without --config: .probe-check.json or .probe-check.jsonc in workDir
//     - With --config: uses that path instead of project config
//
// Both .json and .jsonc files support comments via tailscale/hujson.
// If both .json and .jsonc exist at the same location, it's an error.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	if !filepath.IsAbs(workDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}

		workDir = filepath.Join(cwd, workDir)
	}

	cfg := DefaultConfig()
	loaded := make(map[string]string)

	globalConfigBasePath, err := getUserConfigBasePath(input.Env)
	if err != nil {
		return Config{}, err
	}

	err = mergeConfigAt(&cfg, globalConfigBasePath, "global", loaded)
	if err != nil {
		return Config{}, err
	}

	if input.ConfigPath != "" {
		configPath := input.ConfigPath
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(workDir, configPath)
		}

		explicitCfg, err := loadConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeConfigs(&cfg, &explicitCfg)
		loaded["explicit"] = configPath
	} else {
		err = mergeConfigAt(&cfg, filepath.Join(workDir, ".probe-check"), "project", loaded)
		if err != nil {
			return Config{}, err
		}
	}

	cfg.EffectiveCwd = workDir
	cfg.LoadedFiles = loaded

	return cfg, nil
}

// mergeConfigAt merges the config file at basePath (.json or .jsonc) into
// cfg. A missing file is skipped.
func mergeConfigAt(cfg *Config, basePath, label string, loaded map[string]string) error {
	path, err := findConfigFile(basePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	fileCfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}

	*cfg = mergeConfigs(cfg, &fileCfg)
	loaded[label] = path

	return nil
}

// findConfigFile finds a config file at the given base path (directory +
// base name without extension). It returns os.ErrNotExist when neither .json
// nor .jsonc exists, and an error when both do.
func findConfigFile(basePath string) (string, error) {
	jsonPath := basePath + ".json"
	jsoncPath := basePath + ".jsonc"

	jsonExists, err := fileExists(jsonPath)
	if err != nil {
		return "", err
	}

	jsoncExists, err := fileExists(jsoncPath)
	if err != nil {
		return "", err
	}

	switch {
	case jsonExists && jsoncExists:
		return "", fmt.Errorf("%w: both %s and %s exist; remove one", ErrDuplicateConfigFiles, jsonPath, jsoncPath)
	case jsonExists:
		return jsonPath, nil
	case jsoncExists:
		return jsoncPath, nil
	default:
		return "", os.ErrNotExist
	}
}

// fileExists checks if a file exists and is not a directory.
// Returns (true, nil) if file exists, (false, nil) if not found,
// or (false, error) for other errors (e.g., permission denied).
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("checking file %s: %w", path, err)
	}

	return !info.IsDir(), nil
}

// loadConfigFile loads and parses a JSON/JSONC config file.
func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// mergeConfigs merges override into base, with override taking precedence.
// Empty values in override do not override base values. Expect fields are
// merged one by one; an explicitly empty list or map does override, since an
// empty expectation ("no environment at all") is meaningful.
func mergeConfigs(base, override *Config) Config {
	result := *base

	if len(override.Probe) > 0 {
		result.Probe = override.Probe
	}

	if len(override.Wrap) > 0 {
		result.Wrap = override.Wrap
	}

	if override.Workdir != "" {
		result.Workdir = override.Workdir
	}

	if len(override.Env) > 0 {
		result.Env = override.Env
	}

	if override.InheritEnv != nil {
		result.InheritEnv = override.InheritEnv
	}

	if override.Golden != "" {
		result.Golden = override.Golden
	}

	result.Expect = mergeExpect(&base.Expect, &override.Expect)

	return result
}

func mergeExpect(base, override *Expect) Expect {
	result := *base

	if override.Dir != nil {
		result.Dir = override.Dir
	}

	if override.Args != nil {
		result.Args = override.Args
	}

	if override.Env != nil {
		result.Env = override.Env
	}

	if override.EnvInclude != nil {
		result.EnvInclude = override.EnvInclude
	}

	if override.Root != nil {
		result.Root = override.Root
	}

	if override.RootInclude != nil {
		result.RootInclude = override.RootInclude
	}

	if override.RootExclude != nil {
		result.RootExclude = override.RootExclude
	}

	return result
}

// getUserConfigBasePath returns the user config base path (without extension).
// Uses env map for XDG_CONFIG_HOME instead of os.Getenv().
func getUserConfigBasePath(env map[string]string) (string, error) {
	if xdg, ok := env["XDG_CONFIG_HOME"]; ok && xdg != "" {
		return filepath.Join(xdg, "probe-check", "config"), nil
	}

	if home, ok := env["HOME"]; ok && home != "" {
		return filepath.Join(home, ".config", "probe-check", "config"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".config", "probe-check", "config"), nil
}
