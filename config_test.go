package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elcuervo/otq/internal/tasks"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	writeFile(t, path, `
default_profile = "work"
global_filter = "#task"
global_query = "not done"
theme = "light"

[profiles.work]
vault = "~/notes"
query = "Dashboards/Today.md"
exclude = ["Templates/**"]

[[statuses]]
symbol = "!"
name = "Important"
next_symbol = "x"
type = "todo"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.DefaultProfile)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, []string{"Templates/**"}, cfg.Profiles["work"].Exclude)
	require.Len(t, cfg.Statuses, 1)
	assert.Equal(t, "Important", cfg.Statuses[0].Name)

	settings := cfg.Settings()
	assert.Equal(t, "#task", settings.GlobalFilter)
	assert.Equal(t, "not done", settings.GlobalQuery)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Profiles)

	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.DefaultProfile)
}

func TestLoadConfigInvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "default_profile = ")

	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "parse "+path)
}

func TestValidateConfig(t *testing.T) {
	cfg := Config{
		DefaultProfile: "missing",
		Profiles: map[string]Profile{
			"work": {Vault: "/tmp", Exclude: []string{"ok/**", "bad[/**"}},
		},
		Statuses: []tasks.Status{
			{Symbol: "ab", Name: "Two", Type: "TODO"},
			{Symbol: "?", Name: "Maybe", Type: "LATER"},
		},
	}

	err := validateConfig(cfg)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 4)
	assert.Equal(t, "default_profile", fieldErrs[0].Field)
	assert.Equal(t, "profiles.work.exclude[1]", fieldErrs[1].Field)
	assert.Equal(t, "statuses[0].symbol", fieldErrs[2].Field)
	assert.Equal(t, "statuses[1].type", fieldErrs[3].Field)
}

func TestValidateConfigAcceptsValid(t *testing.T) {
	cfg := Config{
		DefaultProfile: "work",
		Profiles:       map[string]Profile{"work": {Vault: "/tmp"}},
		Statuses:       []tasks.Status{{Symbol: "!", Name: "Important", Type: "in_progress"}},
	}

	assert.NoError(t, validateConfig(cfg))
}

func TestStatusRegistryFromConfig(t *testing.T) {
	registry, warnings := statusRegistry(Config{
		Statuses: []tasks.Status{
			{Symbol: "!", Name: "Important", Type: "in_progress"},
			{Symbol: "x", Name: "Done again", Type: "done"},
		},
	})

	require.Len(t, warnings, 1)
	s, ok := registry.BySymbol("!")
	require.True(t, ok)
	assert.Equal(t, tasks.StatusInProgress, s.Type)
}

func TestSelectProfile(t *testing.T) {
	cfg := Config{
		DefaultProfile: "home",
		Profiles: map[string]Profile{
			"home": {Vault: "/home"},
			"work": {Vault: "/work"},
		},
	}

	name, p, err := selectProfile("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "home", name)
	assert.Equal(t, "/home", p.Vault)

	name, p, err = selectProfile("work", cfg)
	require.NoError(t, err)
	assert.Equal(t, "work", name)
	assert.Equal(t, "/work", p.Vault)

	_, _, err = selectProfile("play", cfg)
	var profileErr *ProfileError
	require.ErrorAs(t, err, &profileErr)
	assert.Equal(t, "play", profileErr.Profile)

	name, p, err = selectProfile("", Config{})
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Nil(t, p)
}

func TestResolveProfilePaths(t *testing.T) {
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, "Today.md"), "```tasks\nnot done\n```\n")

	resolved, err := resolveProfilePaths("p", Profile{Vault: vault, Query: "Today.md"})
	require.NoError(t, err)
	assert.True(t, resolved.QueryIsFile)
	assert.Equal(t, "Today.md", filepath.Base(resolved.Query))

	_, err = resolveProfilePaths("p", Profile{})
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = resolveProfilePaths("p", Profile{Vault: filepath.Join(vault, "missing")})
	assert.ErrorIs(t, err, ErrPathNotExist)

	_, err = resolveProfilePaths("p", Profile{Vault: filepath.Join(vault, "Today.md")})
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestResolveQuery(t *testing.T) {
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, "q.md"), "```tasks\n```\n")

	text, isFile := resolveQuery("q.md", vault)
	assert.True(t, isFile)
	assert.Equal(t, filepath.Join(vault, "q.md"), text)

	text, isFile = resolveQuery("  not done  ", vault)
	assert.False(t, isFile)
	assert.Equal(t, "not done", text)

	text, isFile = resolveQuery("", vault)
	assert.False(t, isFile)
	assert.Empty(t, text)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("OTQ_TEST_DIR", "/srv/notes")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/vault", want: filepath.Join(home, "vault")},
		{in: "$OTQ_TEST_DIR/daily", want: "/srv/notes/daily"},
		{in: "relative/path", want: "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileErrorMessages(t *testing.T) {
	err := &ProfileError{Profile: "work", Field: "vault", Err: ErrEmptyPath}
	assert.Equal(t, `profile "work": vault: path is empty`, err.Error())

	err = &ProfileError{Field: "default_profile", Err: ErrEmptyPath}
	assert.Equal(t, "config: default_profile: path is empty", err.Error())

	err = &ProfileError{Profile: "work", Err: ErrEmptyPath}
	assert.Equal(t, `profile "work": path is empty`, err.Error())
}
