package fim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "baseline.txt", cfg.Baseline)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, 200*time.Millisecond, cfg.Interval)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 100*time.Millisecond, cfg.Delay)
	assert.Empty(t, cfg.ExcludeDirs)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: /srv/www
baseline: /var/lib/fim/baseline.db
format: sqlite
interval: 5s
retries: 3
delay: 250ms
exclude_dirs: [node_modules]
exclude_patterns: ["*.swp", "*.log"]
log_level: info
color: false
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Root:            "/srv/www",
		Baseline:        "/var/lib/fim/baseline.db",
		Format:          FormatSQLite,
		Interval:        5 * time.Second,
		Retries:         3,
		Delay:           250 * time.Millisecond,
		ExcludeDirs:     []string{"node_modules"},
		ExcludePatterns: []string{"*.swp", "*.log"},
		LogLevel:        "info",
		Color:           false,
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

// TestConfigExcludeDirsExtendDefaults 配置中的 exclude_dirs 只会追加，不会取消 .venv、__pycache__
func TestConfigExcludeDirsExtendDefaults(t *testing.T) {
	for name, yamlDirs := range map[string]string{
		"list":  "exclude_dirs: [node_modules]",
		"null":  "exclude_dirs:",
		"empty": "exclude_dirs: []",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			root := filepath.Join(dir, "root")
			writeTree(t, root, map[string]string{
				"app.py":                   "print()",
				"__pycache__/m.pyc":        "bytecode",
				".venv/lib/site.py":        "venv",
				"node_modules/left-pad.js": "pad",
			})
			path := filepath.Join(dir, "fim.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yamlDirs+"\n"), 0o644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			cfg.Root = root

			excl, err := cfg.Exclusions()
			require.NoError(t, err)
			assert.True(t, excl.SkipDir("__pycache__"))
			assert.True(t, excl.SkipDir(".venv"))

			files, err := (&Scanner{Root: root, Exclude: excl}).Files()
			require.NoError(t, err)
			want := []string{filepath.Join(root, "app.py")}
			if name == "list" {
				assert.True(t, excl.SkipDir("node_modules"))
			} else {
				want = append(want, filepath.Join(root, "node_modules", "left-pad.js"))
			}
			assert.ElementsMatch(t, want, files)
		})
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retries: [not a number"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("AGGIE_FIM_ROOT", "/etc")
	t.Setenv("AGGIE_FIM_BASELINE", "/tmp/etc.txt")
	t.Setenv("AGGIE_FIM_INTERVAL", "1m")
	t.Setenv("AGGIE_FIM_RETRIES", "4")
	t.Setenv("AGGIE_FIM_DELAY", "2s")
	t.Setenv("AGGIE_FIM_FORMAT", "SQLITE")
	t.Setenv("AGGIE_FIM_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/etc", cfg.Root)
	assert.Equal(t, "/tmp/etc.txt", cfg.Baseline)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 4, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.Equal(t, FormatSQLite, cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
		is     error
	}{
		{"empty root", func(c *Config) { c.Root = "" }, ErrEmptyRoot},
		{"zero interval", func(c *Config) { c.Interval = 0 }, ErrInvalidInterval},
		{"unknown format", func(c *Config) { c.Format = "csv" }, ErrUnknownFormat},
		{"no retries", func(c *Config) { c.Retries = 0 }, nil},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, nil},
		{"empty baseline", func(c *Config) { c.Baseline = "" }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestConfigOpenStore(t *testing.T) {
	cfg := DefaultConfig()
	excl, err := cfg.Exclusions("aggie-fim")
	require.NoError(t, err)
	assert.True(t, excl.IsSelf("baseline.txt"))
	assert.True(t, excl.IsSelf("aggie-fim"))

	store, err := cfg.OpenStore(excl)
	require.NoError(t, err)
	assert.IsType(t, &TextStore{}, store)

	cfg.Format = FormatSQLite
	store, err = cfg.OpenStore(excl)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	cfg.Format = "xml"
	_, err = cfg.OpenStore(excl)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}
