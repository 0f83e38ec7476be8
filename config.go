package fim

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidInterval 轮询间隔必须为正
	ErrInvalidInterval = errors.New("interval must be positive")
	// ErrUnknownFormat 不支持的基线存储格式
	ErrUnknownFormat = errors.New("unknown baseline format")
)

const (
	// FormatText 文本基线（默认）
	FormatText = "text"
	// FormatSQLite SQLite基线
	FormatSQLite = "sqlite"

	// DefaultBaselineFile 默认基线文件名
	DefaultBaselineFile = "baseline.txt"
)

// Config 全部静态配置
//
// Root：监控根目录
// Baseline：基线文件路径
// Format：基线存储格式，text 或 sqlite
// Interval：轮询间隔
// Retries / Delay：稳定化的尝试次数与间隔
// ExcludeDirs：在 .venv、__pycache__ 之外额外跳过的目录名（隐藏目录总是跳过）
// ExcludePatterns：glob 模式，匹配文件名或目录名
// LogLevel：zap 日志级别
// Color：是否给控制台事件着色（仅在终端上生效）
type Config struct {
	Root            string        `yaml:"root"`
	Baseline        string        `yaml:"baseline"`
	Format          string        `yaml:"format"`
	Interval        time.Duration `yaml:"interval"`
	Retries         int           `yaml:"retries"`
	Delay           time.Duration `yaml:"delay"`
	ExcludeDirs     []string      `yaml:"exclude_dirs"`
	ExcludePatterns []string      `yaml:"exclude_patterns"`
	LogLevel        string        `yaml:"log_level"`
	Color           bool          `yaml:"color"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Root:     ".",
		Baseline: DefaultBaselineFile,
		Format:   FormatText,
		Interval: DefaultInterval,
		Retries:  DefaultStabilizeRetries,
		Delay:    DefaultStabilizeDelay,
		LogLevel: "warn",
		Color:    true,
	}
}

// LoadConfig 在默认配置上叠加 YAML 文件和环境变量
//
// path 为空或文件不存在时只使用默认值与环境变量。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvironment()
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv("AGGIE_FIM_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("AGGIE_FIM_BASELINE"); v != "" {
		c.Baseline = v
	}
	if v := os.Getenv("AGGIE_FIM_FORMAT"); v != "" {
		c.Format = strings.ToLower(v)
	}
	if v := os.Getenv("AGGIE_FIM_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Interval = d
		}
	}
	if v := os.Getenv("AGGIE_FIM_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}
	if v := os.Getenv("AGGIE_FIM_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Delay = d
		}
	}
	if v := os.Getenv("AGGIE_FIM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrEmptyRoot
	}
	if c.Baseline == "" {
		return errors.New("baseline path cannot be empty")
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative, got %s", c.Delay)
	}
	switch c.Format {
	case FormatText, FormatSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
	return nil
}

// Exclusions 按配置编译排除规则；selfNames 是程序自身等需要忽略的文件
func (c *Config) Exclusions(selfNames ...string) (*Exclusions, error) {
	names := append([]string{c.Baseline}, selfNames...)
	return NewExclusions(c.ExcludeDirs, c.ExcludePatterns, names)
}

// OpenStore 按 Format 创建基线存储
func (c *Config) OpenStore(exclude *Exclusions) (Store, error) {
	switch c.Format {
	case FormatText, "":
		return NewTextStore(c.Baseline, exclude), nil
	case FormatSQLite:
		return NewSQLiteStore(c.Baseline, exclude), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
}

// MonitorConfig 转换为 Monitor 使用的配置
func (c *Config) MonitorConfig(exclude *Exclusions) MonitorConfig {
	return MonitorConfig{
		Root:     c.Root,
		Interval: c.Interval,
		Retries:  c.Retries,
		Delay:    c.Delay,
		Exclude:  exclude,
	}
}
