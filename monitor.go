package fim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultInterval 默认轮询间隔
const DefaultInterval = 200 * time.Millisecond

// State 监控循环的状态
type State int32

const (
	// StateAwaitingBaseline 尚未加载基线；基线缺失时停留在此状态并返回错误
	StateAwaitingBaseline State = iota
	// StateMonitoring 正在周期性扫描
	StateMonitoring
	// StateStopped 收到中断后已退出
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateAwaitingBaseline:
		return "AWAITING_BASELINE"
	case StateMonitoring:
		return "MONITORING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// MonitorConfig 监控循环的静态配置
//
// Root：监控的根目录
// Interval：两次扫描之间的间隔，<=0 时为 DefaultInterval
// Retries / Delay：Stabilizer 的尝试次数与间隔
// Exclude：遍历时使用的排除规则（应包含程序自身与基线文件的名称）
type MonitorConfig struct {
	Root     string
	Interval time.Duration
	Retries  int
	Delay    time.Duration
	Exclude  *Exclusions
}

// Option 调整 Monitor 的可选行为
type Option func(*Monitor)

// WithLogger 设置日志记录器，默认不输出
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithReporter 设置事件接收者
func WithReporter(r Reporter) Option {
	return func(m *Monitor) { m.reporter = r }
}

// WithClock 替换事件时间戳的来源
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithOnStart 在基线加载成功、进入监控状态时调用 fn，参数为基线中的文件数
func WithOnStart(fn func(files int)) Option {
	return func(m *Monitor) { m.onStart = fn }
}

// WithBaselineGuard 控制监控期间是否监听基线文件的外部改动
func WithBaselineGuard(enabled bool) Option {
	return func(m *Monitor) { m.guard = enabled }
}

// Monitor 文件完整性监控的核心：建立基线、周期扫描、分类变更
//
// 内存中的基线由 Run 独占，整个会话期间原地修改，不会从存储重新读取，
// 退出时也不会写回存储。
type Monitor struct {
	cfg        MonitorConfig
	store      Store
	scanner    *Scanner
	stabilizer *Stabilizer
	reporter   Reporter
	logger     *zap.Logger
	now        func() time.Time
	hash       func(path string) (string, bool, error)
	guard      bool
	onStart    func(files int)

	state atomic.Int32
}

// NewMonitor 根据配置创建 Monitor
func NewMonitor(cfg MonitorConfig, store Store, opts ...Option) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	m := &Monitor{
		cfg:        cfg,
		store:      store,
		scanner:    &Scanner{Root: cfg.Root, Exclude: cfg.Exclude},
		stabilizer: NewStabilizer(cfg.Retries, cfg.Delay),
		logger:     zap.NewNop(),
		now:        time.Now,
		hash:       HashFile,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State 返回当前状态
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// CreateBaseline 扫描整个目录并覆盖保存基线
//
// 每个文件只哈希一次（不做稳定化），读不到的文件被跳过。
func (m *Monitor) CreateBaseline(ctx context.Context) (Baseline, error) {
	files, err := m.scanner.Files()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", m.cfg.Root, err)
	}

	b := make(Baseline, len(files))
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		digest, ok, err := m.hash(p)
		if err != nil {
			return nil, err
		}
		if ok {
			b[p] = digest
		}
	}

	if err := m.store.Save(b); err != nil {
		return nil, fmt.Errorf("save baseline: %w", err)
	}
	m.logger.Info("基线已创建",
		zap.String("根目录", m.cfg.Root),
		zap.String("基线文件", m.store.Path()),
		zap.Int("文件数", len(b)))
	return b, nil
}

// Run 加载基线并持续监控，直到 ctx 被取消
//
// 基线不存在时返回 ErrBaselineNotFound，监控不会开始。
// ctx 取消是正常的停止路径，返回 nil；内存中的基线变更被丢弃。
func (m *Monitor) Run(ctx context.Context) error {
	m.state.Store(int32(StateAwaitingBaseline))

	baseline, err := m.store.Load()
	if err != nil {
		return err
	}

	log := m.logger.With(zap.String("会话", uuid.NewString()))
	m.state.Store(int32(StateMonitoring))
	log.Info("监控开始",
		zap.String("根目录", m.cfg.Root),
		zap.Int("基线文件数", len(baseline)),
		zap.Duration("轮询间隔", m.cfg.Interval))
	if m.onStart != nil {
		m.onStart(len(baseline))
	}

	if m.guard {
		g, err := StartBaselineGuard(m.store.Path(), log, nil)
		if err != nil {
			log.Warn("无法监听基线文件，继续监控", zap.Error(err))
		} else {
			defer g.Stop()
		}
	}

	for cycle := 1; ; cycle++ {
		if err := sleepCtx(ctx, m.cfg.Interval); err != nil {
			break
		}
		events, err := m.Cycle(ctx, baseline)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			m.state.Store(int32(StateStopped))
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}
		log.Debug("轮询完成",
			zap.Int("轮次", cycle),
			zap.Int("事件数", len(events)),
			zap.Int("基线文件数", len(baseline)))
	}

	m.state.Store(int32(StateStopped))
	log.Info("监控已停止")
	return nil
}

// Cycle 执行一轮 扫描 -> 稳定化哈希 -> 对比 -> 报告，并原地更新 baseline
//
// 分类顺序固定：先 NEW / MODIFIED（按路径排序），再 DELETED。
// 本轮没有得到哈希的文件不参与 NEW/MODIFIED；只有磁盘上确实不存在的基线条目才算 DELETED，
// 瞬时读取失败不会被误报为删除。
func (m *Monitor) Cycle(ctx context.Context, baseline Baseline) ([]Event, error) {
	files, err := m.scanner.Files()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", m.cfg.Root, err)
	}

	current := make(map[string]string, len(files))
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		digest, ok, err := m.stabilizer.Stabilize(ctx, p)
		if err != nil {
			return nil, err
		}
		if ok {
			current[p] = digest
		}
	}

	events := m.classify(baseline, current)
	for _, ev := range events {
		m.logger.Info("检测到变更",
			zap.String("类型", ev.Kind.String()),
			zap.String("路径", ev.Path))
		if m.reporter != nil {
			m.reporter.Report(ev)
		}
	}
	return events, nil
}

func (m *Monitor) classify(baseline Baseline, current map[string]string) []Event {
	var events []Event

	paths := make([]string, 0, len(current))
	for p := range current {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		digest := current[p]
		old, known := baseline[p]
		switch {
		case !known:
			events = append(events, Event{Time: m.now(), Kind: EventNew, Path: p, Digest: digest})
			baseline[p] = digest
		case old != digest:
			events = append(events, Event{Time: m.now(), Kind: EventModified, Path: p, Digest: digest})
			baseline[p] = digest
		}
	}

	for _, p := range baseline.Paths() {
		if _, seen := current[p]; seen {
			continue
		}
		if !isGone(p) {
			continue
		}
		events = append(events, Event{Time: m.now(), Kind: EventDeleted, Path: p})
		delete(baseline, p)
	}
	return events
}

// isGone 直接检查路径是否已不存在；权限等其它错误视为仍然存在
func isGone(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return false
	}
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
