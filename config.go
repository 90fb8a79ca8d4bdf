package main

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/elcuervo/otq/internal/query"
	"github.com/elcuervo/otq/internal/tasks"
)

type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Profiles       map[string]Profile `toml:"profiles"`
	Theme          string             `toml:"theme"`
	GlobalFilter   string             `toml:"global_filter"`
	GlobalQuery    string             `toml:"global_query"`
	Statuses       []tasks.Status     `toml:"statuses"`
}

type Profile struct {
	Vault   string   `toml:"vault"`
	Query   string   `toml:"query"`
	Exclude []string `toml:"exclude"`
}

type ResolvedProfile struct {
	Name        string
	VaultPath   string
	Query       string
	QueryIsFile bool
	Exclude     []string
}

// Settings returns the query settings shared by every query block
func (c Config) Settings() query.Settings {
	return query.Settings{GlobalFilter: c.GlobalFilter, GlobalQuery: c.GlobalQuery}
}

type ProfileError struct {
	Profile string
	Field   string
	Err     error
}

func (e *ProfileError) Error() string {
	if e.Profile == "" {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}

	if e.Field == "" {
		return fmt.Sprintf("profile %q: %v", e.Profile, e.Err)
	}

	return fmt.Sprintf("profile %q: %s: %v", e.Profile, e.Field, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyPath    = errors.New("path is empty")
	ErrPathNotExist = errors.New("path does not exist")
	ErrNotDirectory = errors.New("path is not a directory")
)

func validateProfile(name string, p Profile) error {
	if strings.TrimSpace(p.Vault) == "" {
		return &ProfileError{Profile: name, Field: "vault", Err: ErrEmptyPath}
	}

	// Query is optional - if empty, all tasks will be shown
	return nil
}

func validateVaultExists(name, vaultPath string) error {
	info, err := os.Stat(vaultPath)

	if err != nil {
		if os.IsNotExist(err) {
			return &ProfileError{Profile: name, Field: "vault", Err: fmt.Errorf("%w: %s", ErrPathNotExist, vaultPath)}
		}

		return &ProfileError{Profile: name, Field: "vault", Err: err}
	}

	if !info.IsDir() {
		return &ProfileError{Profile: name, Field: "vault", Err: fmt.Errorf("%w: %s", ErrNotDirectory, vaultPath)}
	}

	return nil
}

// validateConfig reports every structural problem at once, keyed by field
func validateConfig(cfg Config) error {
	var errs criterio.FieldErrorsBuilder

	if cfg.DefaultProfile != "" {
		if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok {
			errs = errs.Append("default_profile", fmt.Errorf("profile %q not found", cfg.DefaultProfile))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.Profiles)) {
		for i, pattern := range cfg.Profiles[name].Exclude {
			if !doublestar.ValidatePattern(pattern) {
				errs = errs.Append(fmt.Sprintf("profiles.%s.exclude[%d]", name, i), fmt.Errorf("invalid glob %q", pattern))
			}
		}
	}

	for i, s := range cfg.Statuses {
		field := fmt.Sprintf("statuses[%d]", i)

		if len([]rune(s.Symbol)) != 1 {
			errs = errs.Append(field+".symbol", fmt.Errorf("must be a single character, got %q", s.Symbol))
		}
		if _, ok := tasks.ParseStatusType(string(s.Type)); !ok {
			errs = errs.Append(field+".type", fmt.Errorf("unknown status type %q", s.Type))
		}
	}

	return errs.ToError()
}

// statusRegistry builds the status registry with the configured statuses added
// to the defaults. Duplicate symbols are reported as warnings.
func statusRegistry(cfg Config) (*tasks.StatusRegistry, []string) {
	registry := tasks.NewStatusRegistry()
	if len(cfg.Statuses) == 0 {
		return registry, nil
	}

	statuses := make([]tasks.Status, len(cfg.Statuses))
	for i, s := range cfg.Statuses {
		st, _ := tasks.ParseStatusType(string(s.Type))
		s.Type = st
		statuses[i] = s
	}

	return registry, registry.BulkAdd(statuses)
}

func selectProfile(profileFlag string, cfg Config) (string, *Profile, error) {
	if profileFlag != "" {
		if cfg.Profiles == nil {
			return "", nil, &ProfileError{Profile: profileFlag, Err: errors.New("no profiles defined in config")}
		}

		p, ok := cfg.Profiles[profileFlag]

		if !ok {
			return "", nil, &ProfileError{Profile: profileFlag, Err: errors.New("profile not found")}
		}

		return profileFlag, &p, nil
	}

	if cfg.DefaultProfile != "" {
		p, ok := cfg.Profiles[cfg.DefaultProfile]

		if !ok {
			return "", nil, &ProfileError{Field: "default_profile", Err: fmt.Errorf("profile %q not found", cfg.DefaultProfile)}
		}

		return cfg.DefaultProfile, &p, nil
	}

	return "", nil, nil
}

func resolveProfilePaths(name string, p Profile) (*ResolvedProfile, error) {
	if err := validateProfile(name, p); err != nil {
		return nil, err
	}

	vaultPath, err := resolveVaultPath(p.Vault)

	if err != nil {
		return nil, &ProfileError{Profile: name, Field: "vault", Err: err}
	}

	vaultPath = filepath.Clean(vaultPath)
	resolved, err := filepath.EvalSymlinks(vaultPath)
	if err == nil {
		vaultPath = resolved
	}

	if err := validateVaultExists(name, vaultPath); err != nil {
		return nil, err
	}

	q, isFile := resolveQuery(p.Query, vaultPath)

	return &ResolvedProfile{
		Name:        name,
		VaultPath:   vaultPath,
		Query:       q,
		QueryIsFile: isFile,
		Exclude:     p.Exclude,
	}, nil
}

// resolveQuery decides whether value names a query file inside the vault or is
// an inline query
func resolveQuery(value, vaultPath string) (string, bool) {
	q := strings.TrimSpace(value)
	if q == "" {
		return "", false
	}

	queryPath, err := resolveQueryPath(q, vaultPath)
	if err != nil {
		return q, false
	}

	queryPath = filepath.Clean(queryPath)
	if info, statErr := os.Stat(queryPath); statErr == nil && !info.IsDir() {
		return queryPath, true
	}

	return q, false
}

func defaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "otq", "config.toml")
}

// loadConfig reads the config at path. A missing file is an empty config.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)

	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, err
	}

	var cfg Config

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func expandPath(value string) (string, error) {
	value = strings.TrimSpace(value)

	if value == "" {
		return value, nil
	}

	expanded := os.ExpandEnv(value)

	if !strings.HasPrefix(expanded, "~") {
		return expanded, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if expanded == "~" {
		return homeDir, nil
	}

	if strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, "~\\") {
		return filepath.Join(homeDir, expanded[2:]), nil
	}

	return expanded, nil
}

func resolveVaultPath(value string) (string, error) {
	expanded, err := expandPath(value)

	if err != nil {
		return "", err
	}

	if expanded == "" || filepath.IsAbs(expanded) {
		return expanded, nil
	}

	return filepath.Abs(expanded)
}

func resolveQueryPath(value, vault string) (string, error) {
	expanded, err := expandPath(value)

	if err != nil {
		return "", err
	}

	if expanded == "" || filepath.IsAbs(expanded) || vault == "" {
		return expanded, nil
	}

	return filepath.Join(vault, expanded), nil
}
