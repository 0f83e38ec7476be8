package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	fim "github.com/Blu3Stone/Aggie-File-Integrity-Monitoring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// programName 程序自身的默认文件名，总是作为自身文件排除
const programName = "aggie-fim"

// options 命令行参数；只有显式给出的参数才覆盖配置文件与环境变量
type options struct {
	configFile string
	root       string
	baseline   string
	format     string
	logLevel   string
	interval   time.Duration
	retries    int
	delay      time.Duration
	noColor    bool
}

// app 一次命令执行所需的全部组件
type app struct {
	cfg     *fim.Config
	store   fim.Store
	monitor *fim.Monitor
	logger  *zap.Logger
	out     io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Aggie File Integrity Monitor",
		Long: `Aggie FIM records SHA-256 checksums of every file under a directory and
then polls the tree, reporting new, modified and deleted files.

Run without a subcommand for the interactive menu.

Examples:
  aggie-fim                          # interactive menu
  aggie-fim baseline --root /etc     # create or overwrite the baseline
  aggie-fim monitor --root /etc      # monitor until Ctrl+C
  aggie-fim check --root /etc        # one pass, exit 1 if anything changed`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	pf.StringVar(&opts.root, "root", "", "directory to monitor (default \".\")")
	pf.StringVar(&opts.baseline, "baseline", "", "baseline file path (default \"baseline.txt\")")
	pf.StringVar(&opts.format, "format", "", "baseline format: text or sqlite")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.DurationVar(&opts.interval, "interval", 0, "polling interval (default 200ms)")
	pf.IntVar(&opts.retries, "retries", 0, "stabilization attempts per file (default 2)")
	pf.DurationVar(&opts.delay, "delay", 0, "delay between stabilization attempts (default 100ms)")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(newBaselineCmd(opts))
	rootCmd.AddCommand(newMonitorCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))

	return rootCmd
}

// loadConfig 默认值 -> 配置文件 -> 环境变量 -> 命令行参数
func (o *options) loadConfig(cmd *cobra.Command) (*fim.Config, error) {
	cfg, err := fim.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.root
	}
	if flags.Changed("baseline") {
		cfg.Baseline = o.baseline
	}
	if flags.Changed("format") {
		cfg.Format = o.format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("interval") {
		cfg.Interval = o.interval
	}
	if flags.Changed("retries") {
		cfg.Retries = o.retries
	}
	if flags.Changed("delay") {
		cfg.Delay = o.delay
	}
	if o.noColor {
		cfg.Color = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// build 根据配置组装存储、日志与 Monitor
func (o *options) build(cmd *cobra.Command, extra ...fim.Option) (*app, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := fim.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	excl, err := cfg.Exclusions(selfNames()...)
	if err != nil {
		return nil, err
	}
	store, err := cfg.OpenStore(excl)
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	reporter := fim.NewConsoleReporter(out, cfg.Color && isTerminal(out))
	mopts := append([]fim.Option{
		fim.WithLogger(logger),
		fim.WithReporter(reporter),
		fim.WithBaselineGuard(true),
	}, extra...)

	return &app{
		cfg:     cfg,
		store:   store,
		monitor: fim.NewMonitor(cfg.MonitorConfig(excl), store, mopts...),
		logger:  logger,
		out:     out,
	}, nil
}

// selfNames 程序自身的文件名，交给排除规则显式处理
func selfNames() []string {
	names := []string{programName}
	if len(os.Args) > 0 {
		names = append(names, filepath.Base(os.Args[0]))
	}
	if exe, err := os.Executable(); err == nil {
		names = append(names, filepath.Base(exe))
	}
	return names
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func absRoot(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}
