package fim

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// BaselineGuard 在监控期间关注基线文件是否被外部写入、替换或删除
//
// 它只负责提醒：正在运行的监控会话继续使用内存中的基线，不会重新加载，
// 也不提供任何完整性保护。
//
// path：基线文件的绝对路径
// fsWatcher：监听基线文件所在目录（原子替换会更换inode，所以监听目录而不是文件）
// onChange：可选回调，每个相关事件调用一次
type BaselineGuard struct {
	path      string
	logger    *zap.Logger
	fsWatcher *fsnotify.Watcher
	onChange  func(fsnotify.Event)

	stopChan chan struct{}
	done     chan struct{}
}

// StartBaselineGuard 开始监听 path 所在目录
func StartBaselineGuard(path string, logger *zap.Logger, onChange func(fsnotify.Event)) (*BaselineGuard, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve baseline path: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	g := &BaselineGuard{
		path:      abs,
		logger:    logger,
		fsWatcher: fsw,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	go g.run()
	return g, nil
}

// Stop 关闭底层 watcher 并等待后台 goroutine 退出
func (g *BaselineGuard) Stop() {
	close(g.stopChan)
	_ = g.fsWatcher.Close()
	<-g.done
}

func (g *BaselineGuard) run() {
	defer close(g.done)
	for {
		select {
		case ev, ok := <-g.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != g.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			g.logger.Warn("基线文件在监控期间被改动，本次会话继续使用内存中的基线",
				zap.String("基线文件", g.path),
				zap.String("操作", ev.Op.String()))
			if g.onChange != nil {
				g.onChange(ev)
			}

		case err, ok := <-g.fsWatcher.Errors:
			if !ok {
				return
			}
			g.logger.Warn("fsnotify错误", zap.Error(err))

		case <-g.stopChan:
			return
		}
	}
}
